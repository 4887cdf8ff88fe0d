package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/psidex/topoedit/internal/lib"
)

// Every flag can also be set with TOPOEDIT_<FLAG>, upper cased with dashes
// turned to underscores. Flags win over the environment.
const envPrefix = "TOPOEDIT_"

type Config struct {
	HTTPAddress    string
	GRPCAddress    string
	PersonaDir     string
	StaticDir      string
	LogLevel       string
	LogFormat      string
	AllowedOrigins []string
	ClientBuffer   int
	SessionIdle    lib.Duration
	ReapInterval   lib.Duration
}

func defaultConfig() Config {
	return Config{
		HTTPAddress:    "127.0.0.1:8080",
		GRPCAddress:    "127.0.0.1:50051",
		LogLevel:       "info",
		LogFormat:      "text",
		AllowedOrigins: []string{"*"},
		ClientBuffer:   256,
		SessionIdle:    lib.DurationFrom(30 * time.Minute),
		ReapInterval:   lib.DurationFrom(time.Minute),
	}
}

func parseConfig(args []string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("topoedit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	origins := strings.Join(cfg.AllowedOrigins, ",")
	fs.StringVar(&cfg.HTTPAddress, "http-address", cfg.HTTPAddress, "the ip:port to serve HTTP and websockets on")
	fs.StringVar(&cfg.GRPCAddress, "grpc-address", cfg.GRPCAddress, "the ip:port to serve gRPC on, empty to disable")
	fs.StringVar(&cfg.PersonaDir, "persona-dir", cfg.PersonaDir, "directory of extra .yaml, .hcl and .graphml personas")
	fs.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "directory to serve the frontend from")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.StringVar(&origins, "allowed-origins", origins, "comma separated CORS and websocket origins")
	fs.IntVar(&cfg.ClientBuffer, "client-buffer", cfg.ClientBuffer, "changes queued per websocket client before it is dropped")
	fs.TextVar(&cfg.SessionIdle, "session-idle", cfg.SessionIdle, "close sessions unused for this long")
	fs.TextVar(&cfg.ReapInterval, "reap-interval", cfg.ReapInterval, "how often to look for idle sessions")

	var envErrs []error
	fs.VisitAll(func(f *flag.Flag) {
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v := getenv(name); v != "" {
			if err := f.Value.Set(v); err != nil {
				envErrs = append(envErrs, fmt.Errorf("%s: %w", name, err))
			}
		}
	})
	if err := errors.Join(envErrs...); err != nil {
		return Config{}, err
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.AllowedOrigins = splitList(origins)
	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks that the required fields are set and sane.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddress == "" {
		errs = append(errs, errors.New("http-address is required"))
	}
	if c.GRPCAddress != "" && c.GRPCAddress == c.HTTPAddress {
		errs = append(errs, errors.New("grpc-address must differ from http-address"))
	}
	if _, err := lib.ParseSLogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log-level: %w", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log-format: unknown format %s", strconv.Quote(c.LogFormat)))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("allowed-origins is required"))
	}
	if c.ClientBuffer <= 0 {
		errs = append(errs, errors.New("client-buffer must be positive"))
	}
	if c.SessionIdle.Duration <= 0 {
		errs = append(errs, errors.New("session-idle must be positive"))
	}
	if c.ReapInterval.Duration <= 0 {
		errs = append(errs, errors.New("reap-interval must be positive"))
	}
	return errors.Join(errs...)
}
