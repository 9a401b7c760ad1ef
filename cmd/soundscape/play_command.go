package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"soundscape/internal/app"
	"soundscape/internal/config"
	"soundscape/internal/logging"
	"soundscape/internal/mixer"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the active scene until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			backend, err := mixer.NewOtoBackend(cfg.Mixer, logger)
			if err != nil {
				return err
			}

			a, err := app.Open(cfg, logger, backend)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			cc := cmd.Context()
			if err := a.Start(cc); err != nil {
				return err
			}

			slots := a.Scene.Slots()
			out := cmd.OutOrStdout()
			if len(slots) == 0 {
				fmt.Fprintln(out, "Scene is empty; add sounds with 'soundscape scene add'")
			} else {
				fmt.Fprintf(out, "Playing %d layer(s); press Ctrl-C to stop\n", len(slots))
			}

			stopWatch := watchConfig(cc, ctx.configPath, a, logger)
			defer stopWatch()

			<-cc.Done()
			fmt.Fprintln(out, "Stopping")
			return a.Scene.SetPlaying(false)
		},
	}
}

// watchConfig re-applies the mixer master volume when the config file changes
// while playing. Returns a function that stops the watcher.
func watchConfig(ctx context.Context, configPath string, a *app.App, logger *slog.Logger) func() {
	if configPath == "" {
		return func() {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("config watch unavailable", logging.Error(err))
		return func() {}
	}
	// Watch the directory; editors typically replace the file on save.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		logger.Warn("config watch unavailable", logging.Error(err))
		_ = watcher.Close()
		return func() {}
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != configPath {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, _, _, err := config.Load(configPath)
				if err != nil {
					logger.Warn("ignoring invalid config change", logging.Error(err))
					continue
				}
				if err := a.Mixer.SetMasterVolume(cfg.Mixer.MasterVolume); err != nil {
					logger.Warn("failed to apply master volume", logging.Error(err))
					continue
				}
				logger.Info("config change applied",
					logging.Float64("master_volume", cfg.Mixer.MasterVolume))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watch error", logging.Error(err))
			}
		}
	}()

	return func() { _ = watcher.Close() }
}
