package cfg

import (
	"cmp"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://rss.example.com)"`

	// Feed fetching configuration
	ProxyURL       string `long:"proxy-url" env:"PROXY_URL" default:"https://allorigins.hexlet.app/get" description:"CORS proxy wrapping feed requests (empty to fetch directly)"`
	RequestTimeout int    `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"5000" description:"Per-request timeout in milliseconds"`
	PollInterval   int    `long:"poll-interval" env:"POLL_INTERVAL" default:"2000" description:"Delay between poll cycles in milliseconds"`
	WorkerCount    int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of workers handling feed submissions"`
	FeedsFile      string `long:"feeds-file" env:"FEEDS_FILE" description:"YAML file with feeds to subscribe to at start (optional)"`

	// Application metadata
	Locale    string `long:"locale" env:"LOCALE" default:"ru" description:"Interface language (ru, en)"`
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Reader/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Moscow)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses command-line flags and environment variables. It returns nil
// without an error when help was requested.
func Load() (*Cfg, error) {
	cfg, err := parse(os.Args[1:])
	if err != nil || cfg == nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %d", raw.RequestTimeout)
	}
	if raw.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %d", raw.PollInterval)
	}
	if raw.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", raw.WorkerCount)
	}

	return &Cfg{
		Port:           raw.Port,
		BaseUrl:        raw.BaseUrl,
		ProxyURL:       raw.ProxyURL,
		RequestTimeout: time.Duration(raw.RequestTimeout) * time.Millisecond,
		PollInterval:   time.Duration(raw.PollInterval) * time.Millisecond,
		WorkerCount:    raw.WorkerCount,
		FeedsFile:      raw.FeedsFile,
		Locale:         raw.Locale,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
