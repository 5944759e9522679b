package app

import (
	"context"
	"fmt"

	"github.com/five82/neuroglove/internal/config"
	"github.com/five82/neuroglove/internal/prefs"
	"github.com/five82/neuroglove/internal/session"
	"github.com/five82/neuroglove/internal/state"
	"github.com/five82/neuroglove/internal/transport"
	"github.com/five82/neuroglove/internal/ui"
)

// subscriptionBuffer smooths bursts from the device while storage writes.
const subscriptionBuffer = 64

// Options configure the neuroglove console.
type Options struct {
	ConfigPath string // empty uses ~/.config/neuroglove/config.toml
	PrefsPath  string // empty uses ~/.config/neuroglove/prefs.toml
	Ephemeral  bool   // keep day logs in memory only
}

// Run boots the console TUI until the operator quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	logger, logFile, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	svc, err := OpenServices(cfg, logger, opts.Ephemeral)
	if err != nil {
		logger.WithError(err).Error("startup failed")
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.WithError(err).Warn("close history database")
		}
	}()

	picker := ui.NewPicker()
	provider := transport.NewPlatform(transport.WithChooser(picker))
	mgr := session.New(provider, session.WithLogger(logger))

	store := &state.Store{}
	sub := mgr.Subscribe(subscriptionBuffer)

	// The recorder outlives ctx so the final disconnect event is drained.
	recCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	recorded := NewRecorder(sub, store, svc.Logs, logger).Start(recCtx)
	defer func() {
		mgr.Disconnect()
		stopRecorder()
		<-recorded
		sub.Close()
	}()

	logger.WithField("ephemeral", opts.Ephemeral).Info("neuroglove started")

	uiOpts := ui.Options{
		Context:   ctx,
		Session:   mgr,
		Store:     store,
		History:   svc.Logs,
		Picker:    picker,
		Config:    cfg,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Location:  svc.Logs.Location(),
	}
	// Leave the interfaces nil rather than holding typed nil pointers.
	if svc.Translator != nil {
		uiOpts.Translator = svc.Translator
	}
	if svc.Analyzer != nil {
		uiOpts.Summarizer = svc.Analyzer
	}
	return ui.Run(uiOpts)
}
