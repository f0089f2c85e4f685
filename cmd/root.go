package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/maxvaer/actuatorhunt/internal/config"
	"github.com/maxvaer/actuatorhunt/internal/runner"
	"github.com/maxvaer/actuatorhunt/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "urls-file", "request-file", "cidr", "ports"}},
	{"SIGNATURES", []string{"signatures", "list-signatures"}},
	{"RATE-LIMIT", []string{"threads", "timeout", "rate", "adaptive-throttle"}},
	{"HTTP", []string{"header", "user-agent", "proxy", "insecure"}},
	{"OUTPUT", []string{"output", "format", "sort", "quiet", "no-color", "on-result"}},
	{"DIAGNOSTICS", []string{"verbose", "log-json", "metrics-file", "otlp-endpoint", "otlp-insecure"}},
	{"CONFIGURATION", []string{"resume-file"}},
}

var (
	outputFormats = []string{"text", "json", "csv"}
	sortFields    = []string{"severity", "name", "url"}
)

func newRootCmd(opts *config.Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "actuatorhunt -u <url> [flags]",
		Short:   "Spring Boot Actuator exposure scanner",
		Version: version.Version,
		Long: `actuatorhunt probes web applications for exposed Spring Boot Actuator
endpoints (/actuator, /actuator/env, /actuator/mappings, gateway routes and
the legacy /env). Each endpoint is requested once with GET and reported
only when it answers 200 with the content that proves the exposure.`,
		Example: `  actuatorhunt -u https://example.com
  actuatorhunt -l urls.txt -t 10 -o findings.json --format json
  actuatorhunt -r burp.req
  actuatorhunt --cidr 10.0.0.0/24 --ports 8080,8443
  actuatorhunt -u https://example.com -H "Cookie: SESSION=abc"
  actuatorhunt -u https://example.com --signatures extra.yaml
  actuatorhunt -l urls.txt --resume-file scan.state
  actuatorhunt -u https://example.com --on-result "notify-send {name} {url}"`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.ListSignatures {
				return nil
			}
			if opts.URL == "" && opts.URLsFile == "" && opts.RequestFile == "" && opts.CIDRTargets == "" {
				_ = cmd.Help()
				fmt.Fprintln(cmd.ErrOrStderr())
				return fmt.Errorf("target required: use -u, -l, --cidr, or --request-file")
			}
			if !slices.Contains(outputFormats, opts.OutputFormat) {
				return fmt.Errorf("--format must be one of: %s", strings.Join(outputFormats, ", "))
			}
			if opts.SortBy != "" && !slices.Contains(sortFields, opts.SortBy) {
				return fmt.Errorf("--sort must be one of: %s", strings.Join(sortFields, ", "))
			}
			if opts.Threads < 1 {
				return fmt.Errorf("--threads must be at least 1")
			}
			if opts.RateLimit < 0 {
				return fmt.Errorf("--rate must not be negative")
			}
			if opts.OTLPInsecure && opts.OTLPEndpoint == "" {
				return fmt.Errorf("--otlp-insecure requires --otlp-endpoint")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ListSignatures {
				return listSignatures(cmd.OutOrStdout(), opts)
			}
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runner.Run(ctx, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.Flags()

	// Target
	f.StringVarP(&opts.URL, "url", "u", "", "Target URL")
	f.StringVarP(&opts.URLsFile, "urls-file", "l", "", "File with one URL per line")
	f.StringVarP(&opts.RequestFile, "request-file", "r", "", "Raw HTTP request file used as base request (e.g. Burp Suite export)")
	f.StringVar(&opts.CIDRTargets, "cidr", "", "CIDR range to scan (e.g. 192.168.1.0/24)")
	f.StringVar(&opts.Ports, "ports", "", "Ports for CIDR targets (e.g. 80,8080,9000-9002)")

	// Signatures
	f.StringVar(&opts.SignaturesFile, "signatures", "", "YAML signature table replacing the built-in one")
	f.BoolVar(&opts.ListSignatures, "list-signatures", false, "Print the signature table and exit")

	// Performance
	f.IntVarP(&opts.Threads, "threads", "t", 5, "Targets scanned in parallel (probes per target stay sequential)")
	f.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	f.Float64Var(&opts.RateLimit, "rate", 0, "Max requests per second across all targets")
	f.BoolVar(&opts.AdaptiveThrottle, "adaptive-throttle", false, "Auto back-off per host on 429/503")

	// HTTP
	f.VarP(&headerValue{target: &opts.Headers}, "header", "H", "Custom header (Key: Value), repeatable")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom User-Agent string")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")
	f.BoolVarP(&opts.Insecure, "insecure", "k", false, "Skip TLS certificate verification")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path")
	f.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, csv")
	f.StringVar(&opts.SortBy, "sort", "", "Sort findings: severity, name, url (buffers until scan completes)")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.OnResultCmd, "on-result", "", "Shell command to run for each finding (receives JSON on stdin)")

	// Diagnostics
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log every failed probe")
	f.BoolVar(&opts.LogJSON, "log-json", false, "Write log lines as JSON")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus probe metrics to this file when done")
	f.StringVar(&opts.OTLPEndpoint, "otlp-endpoint", "", "Export probe traces to this OTLP gRPC collector (host:port)")
	f.BoolVar(&opts.OTLPInsecure, "otlp-insecure", false, "Use plaintext gRPC for --otlp-endpoint")

	// Resume
	f.StringVar(&opts.ResumeFile, "resume-file", "", "File to save/load completed targets for resume")

	// Custom help: categorized flags like httpx.
	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := cmd.ErrOrStderr()
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd(&config.Options{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func listSignatures(w io.Writer, opts *config.Options) error {
	table, err := runner.LoadTable(opts)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tKIND\tEVIDENCE")
	for _, sig := range table {
		evidence := sig.Keyword
		if sig.Header != "" {
			evidence = sig.Header + ": " + sig.Keyword
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", sig.Name, sig.Path, sig.MatchKind(), evidence)
	}
	return tw.Flush()
}

// headerValue implements pflag.Value for repeatable "Key: Value" headers.
type headerValue struct {
	target *map[string]string
}

func (v *headerValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, 0, len(*v.target))
	for k, val := range *v.target {
		parts = append(parts, k+": "+val)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func (v *headerValue) Set(s string) error {
	key, val, ok := strings.Cut(s, ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("invalid header format %q, expected 'Key: Value'", s)
	}
	if *v.target == nil {
		*v.target = make(map[string]string)
	}
	(*v.target)[key] = strings.TrimSpace(val)
	return nil
}

func (v *headerValue) Type() string { return "header" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
    ___        __              __            __  __            __
   /   | _____/ /___  ______ _/ /_____  ____/ / / /_  ______  / /_
  / /| |/ ___/ __/ / / / __ '/ __/ __ \/ ___/ /_/ / / / / __ \/ __/
 / ___ / /__/ /_/ /_/ / /_/ / /_/ /_/ / /  / __  / /_/ / / / / /_
/_/  |_\___/\__/\__,_/\__,_/\__/\____/_/  /_/ /_/\__,_/_/ /_/\__/   %s

`, ver)
}
