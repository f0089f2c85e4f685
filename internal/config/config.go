package config

import "time"

// Options holds all configuration for an actuatorhunt run.
type Options struct {
	// Target
	URL         string
	URLsFile    string
	RequestFile string // raw HTTP request (e.g. Burp export) used as the base request
	CIDRTargets string
	Ports       string

	// Signatures
	SignaturesFile string // empty = built-in actuator table
	ListSignatures bool

	// Performance
	Threads   int // targets scanned in parallel; probes per target stay sequential
	Timeout   time.Duration
	RateLimit float64 // requests per second across all targets, 0 = unlimited

	AdaptiveThrottle bool // back off per host on 429/503

	// HTTP
	Headers   map[string]string
	UserAgent string
	Proxy     string
	Insecure  bool

	// Output
	OutputFile   string
	OutputFormat string // "text", "json", "csv"
	SortBy       string // "", "severity", "name", "url"
	Quiet        bool
	NoColor      bool
	OnResultCmd  string

	// Diagnostics
	Verbose      bool
	LogJSON      bool
	MetricsFile  string
	OTLPEndpoint string
	OTLPInsecure bool

	// Resume
	ResumeFile string
}
