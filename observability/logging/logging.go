// Package logging configures the searcher daemon's structured logger:
// JSON output to stdout, optionally tee'd to a size-rotated file via
// lumberjack for long-running deployments that ship logs off-host.
package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures log rotation. LogFilePath empty disables file output.
type Options struct {
	LogFilePath string
	MaxSizeMB   int
	MaxBackups  int
	MaxAgeDays  int
}

func (o Options) withDefaults() Options {
	if o.MaxSizeMB == 0 {
		o.MaxSizeMB = 100
	}
	if o.MaxBackups == 0 {
		o.MaxBackups = 5
	}
	if o.MaxAgeDays == 0 {
		o.MaxAgeDays = 14
	}
	return o
}

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger. Every log line carries the service
// name and environment. When opts.LogFilePath is set, output is duplicated
// to a rotating file alongside stdout.
func Setup(service, env string, opts Options) *slog.Logger {
	opts = opts.withDefaults()

	var out io.Writer = os.Stdout
	if opts.LogFilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.LogFilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	withArgs := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		withArgs = append(withArgs, attr)
	}

	base := slog.New(handler).With(withArgs...)
	slog.SetDefault(base)

	// Bridge the standard library logger so packages that still call log.Printf keep working.
	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// Event names emitted by the searcher's pipeline at stable log keys, so
// downstream log-based alerting can match on "event" rather than parsing
// free-text messages.
const (
	EventOpportunityDetected = "opportunity.detected"
	EventBundleSubmitted     = "bundle.submitted"
	EventBundleIncluded      = "bundle.included"
	EventBundleTimeout       = "bundle.timeout"
	EventRelayRejected       = "relay.rejected"
	EventRiskLimitExceeded   = "risk.limit.exceeded"
)
