package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/getmockd/stubmatch/pkg/config"
	"github.com/getmockd/stubmatch/pkg/engine"
	"github.com/getmockd/stubmatch/pkg/extensions"
	"github.com/getmockd/stubmatch/pkg/logging"
	"github.com/getmockd/stubmatch/pkg/metrics"
	"github.com/getmockd/stubmatch/pkg/registry"
)

// session is an engine loaded from one mapping file.
type session struct {
	config  *config.Config
	engine  *engine.Engine
	metrics *metrics.Registry
	log     *slog.Logger
	logFile io.Closer
}

// Close releases the log file, if any.
func (s *session) Close() error {
	if s.logFile == nil {
		return nil
	}
	return s.logFile.Close()
}

// open loads path, builds the engine the file describes, registers the
// stock extensions and publishes every mapping. Metrics are collected
// only when withMetrics is set.
func (o *globalOptions) open(path string, withMetrics bool) (*session, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	s := &session{config: cfg}
	if err := o.setupLogger(s); err != nil {
		return nil, err
	}
	log := s.log
	reg := registry.New(append(cfg.RegistryOptions(), registry.WithLogger(log))...)
	engineOpts := append(cfg.EngineOptions(), engine.WithLogger(log))
	if withMetrics {
		s.metrics = metrics.NewRegistry()
		engineOpts = append(engineOpts, engine.WithMetrics(metrics.NewMatchMetrics(s.metrics)))
	}
	s.engine = engine.New(reg, engineOpts...)

	if err := extensions.Register(s.engine.RegisterExtension); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("register stock extensions: %w", err)
	}
	if _, err := cfg.Apply(s.engine); err != nil {
		_ = s.Close()
		return nil, err
	}
	log.Debug("loaded mapping file",
		"path", path,
		"files", len(cfg.Sources),
		"mappings", len(cfg.Mappings),
		"extensions", reg.Len(),
	)
	return s, nil
}

// setupLogger resolves flag, then file, then CLI defaults. With --log-file
// the same records are also appended to that file as JSON.
func (o *globalOptions) setupLogger(s *session) error {
	level := firstNonEmpty(o.logLevel, s.config.Logging.Level, "warn")
	format := firstNonEmpty(o.logFormat, s.config.Logging.Format, "text")
	lc, err := logging.ConfigFromStrings(level, format, o.stderr)
	if err != nil {
		return err
	}
	if o.logFile == "" {
		s.log = logging.New(lc)
		return nil
	}

	f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	s.logFile = f
	s.log = logging.Tee(lc, logging.Config{Level: lc.Level, Format: logging.FormatJSON, Output: f})
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
