package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/five82/neuroglove/internal/analysis"
	"github.com/five82/neuroglove/internal/config"
	"github.com/five82/neuroglove/internal/genai"
	"github.com/five82/neuroglove/internal/kvstore"
	"github.com/five82/neuroglove/internal/logstore"
	"github.com/five82/neuroglove/internal/translate"
)

// Services bundles the storage and text-generation components shared by the
// TUI and the one-shot commands.
type Services struct {
	KV   kvstore.Store
	Logs *logstore.Store

	// Nil when no generation endpoint is configured.
	Translator *translate.Cache
	Analyzer   *analysis.Analyzer
}

// OpenServices opens the day-log store and the generation clients. With
// ephemeral set, day logs live in memory and are lost on exit.
func OpenServices(cfg config.Config, log logrus.FieldLogger, ephemeral bool) (*Services, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var kv kvstore.Store
	if ephemeral {
		kv = kvstore.NewMemory()
	} else {
		db, err := kvstore.OpenSQLite(cfg.DatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		kv = db
	}

	svc := &Services{
		KV:   kv,
		Logs: logstore.New(kv, logstore.WithLocation(time.Local), logstore.WithLogger(log)),
	}

	gen, err := genai.NewClient(genai.Config{
		BaseURL: cfg.GenAI.BaseURL,
		Model:   cfg.GenAI.Model,
		Timeout: cfg.GenAI.Timeout,
	})
	switch {
	case errors.Is(err, genai.ErrUnavailable):
		log.Info("text generation not configured; translation and analysis disabled")
		return svc, nil
	case err != nil:
		_ = kv.Close()
		return nil, fmt.Errorf("init text generation: %w", err)
	}

	svc.Translator = translate.New(gen, translate.WithLogger(log))
	svc.Analyzer = &analysis.Analyzer{
		Gen:      gen.WithModel(cfg.GenAI.SummaryModelOrDefault()),
		Location: svc.Logs.Location(),
	}
	log.WithField("model", gen.Model()).Info("text generation configured")
	return svc, nil
}

// Close releases the key-value store.
func (s *Services) Close() error {
	if s == nil || s.KV == nil {
		return nil
	}
	return s.KV.Close()
}

// NewLogger builds the diagnostics logger. The TUI owns the terminal, so
// output goes to cfg.LogPath(); the returned closer closes that file.
func NewLogger(cfg config.Config) (*logrus.Logger, io.Closer, error) {
	path := cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(file)
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, file, nil
}
