package runner

import (
	"fmt"
	"io"

	"github.com/maxvaer/actuatorhunt/internal/config"
	"github.com/maxvaer/actuatorhunt/pkg/version"
)

func printBanner(w io.Writer, opts *config.Options, targetCount, signatureCount int) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)

	c, wh, d, y, rs := cyan, white, dim, yellow, reset
	if opts.NoColor {
		c, wh, d, y, rs = "", "", "", "", ""
	}

	fmt.Fprintf(w, `
%s    ___        __              __            __  __            __ %s
%s   /   | _____/ /___  ______ _/ /_____  ____/ / / /_  ______  / /_%s
%s  / /| |/ ___/ __/ / / / __ '/ __/ __ \/ ___/ /_/ / / / / __ \/ __/%s
%s / ___ / /__/ /_/ /_/ / /_/ / /_/ /_/ / /  / __  / /_/ / / / / /_  %s
%s/_/  |_\___/\__/\__,_/\__,_/\__/\____/_/  /_/ /_/\__,_/_/ /_/\__/  %s %sv%s%s
%s    Spring Boot Actuator exposure scanner%s
`,
		c, rs,
		c, rs,
		c, rs,
		c, rs,
		c, rs, d, version.Version, rs,
		wh, rs,
	)

	target := opts.URL
	if targetCount > 1 || target == "" {
		target = fmt.Sprintf("%d targets", targetCount)
	}
	signatures := "built-in"
	if opts.SignaturesFile != "" {
		signatures = opts.SignaturesFile
	}

	fmt.Fprintf(w, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(w, "  %sTarget:%s       %s%s%s\n", d, rs, wh, target, rs)
	fmt.Fprintf(w, "  %sParallel:%s     %s%d targets%s\n", d, rs, y, max(opts.Threads, 1), rs)
	fmt.Fprintf(w, "  %sSignatures:%s   %s%d (%s)%s\n", d, rs, wh, signatureCount, signatures, rs)
	if opts.RateLimit > 0 {
		fmt.Fprintf(w, "  %sRate limit:%s   %s%.1f req/s%s\n", d, rs, y, opts.RateLimit, rs)
	}
	if opts.Proxy != "" {
		fmt.Fprintf(w, "  %sProxy:%s        %s%s%s\n", d, rs, wh, opts.Proxy, rs)
	}
	if targetCount > 1 {
		fmt.Fprintf(w, "  %sPause:%s        press Enter or Space\n", d, rs)
	}
	fmt.Fprintf(w, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
