// Package main is the entry point for the dunstd notification daemon.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/dunstd/internal/audio"
	"github.com/jmylchreest/dunstd/internal/bus"
	"github.com/jmylchreest/dunstd/internal/config"
	"github.com/jmylchreest/dunstd/internal/control"
	"github.com/jmylchreest/dunstd/internal/daemon"
	"github.com/jmylchreest/dunstd/internal/engine"
	"github.com/jmylchreest/dunstd/internal/icon"
	"github.com/jmylchreest/dunstd/internal/model"
	"github.com/jmylchreest/dunstd/internal/render"
	"github.com/jmylchreest/dunstd/internal/theme"
)

const (
	appID   = "org.freedesktop.dunstd"
	appName = "dunstd"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		println("dunstd version", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	runDaemon(logger)
}

// runDaemon wires every component (Rule Engine, Formatter, Queue
// Engine, and the Lifecycle Controller that drives them) to the Bus
// Frontend and Renderer, then runs the GTK application loop.
func runDaemon(logger *slog.Logger) {
	logger.Info("starting dunstd", "version", version)

	cfg, err := config.LoadDaemonConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ruleFile, err := config.LoadRuleFileConfig()
	if err != nil {
		logger.Warn("failed to load rule file, starting with no rules", "error", err)
		ruleFile = config.DefaultRuleFileConfig()
	}

	iconResolver := icon.New(filepath.Join(config.DataPath(), "icons"), logger)
	audioManager := audio.NewManager(cfg, logger)
	lifecycle := engine.New(cfg, ruleFile, iconResolver, audioManager, logger)
	if cfg.DnD.Enabled {
		lifecycle.Status().SetPauseLevel(1)
	}

	app := adw.NewApplication(appID, 0)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var (
		busServer        *bus.NotificationServer
		controlServer    *control.Server
		renderMgr        *render.Manager
		themeLoader      *theme.Loader
		configWatcher    *daemon.ConfigWatcher
		ruleWatcher      *config.RuleWatcher
		internalNotifier *daemon.InternalNotifier
		running          atomic.Bool
	)

	shutdown := func() {
		lifecycle.Stop()
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if ruleWatcher != nil {
			_ = ruleWatcher.Stop()
		}
		audioManager.Stop()
		if renderMgr != nil {
			renderMgr.CloseAll()
		}
		if busServer != nil {
			_ = busServer.Stop()
		}
		if controlServer != nil {
			_ = controlServer.Stop()
		}
	}

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)
		cancel()

		glib.IdleAdd(func() {
			if running.Load() {
				shutdown()
				app.Quit()
			}
		})
	}()

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(ctx)

		if err := audioManager.Start(ctx); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}

		go func() {
			if err := lifecycle.Run(ctx); err != nil {
				logger.Error("lifecycle controller stopped", "error", err)
			}
		}()

		renderMgr = render.NewManager(&app.Application, lifecycle, cfg, logger)
		go renderMgr.Run(ctx)

		busServer = bus.NewNotificationServer(logger)
		busServer.SetServerInfo(bus.ServerInfo{
			Name:        appName,
			Vendor:      "dunst",
			Version:     version,
			SpecVersion: "1.2",
		})
		busServer.SetMarkupEnabled(cfg.MarkupEnabled())
		busServer.SetNotifyHandler(func(rec *model.Record) uint32 {
			return lifecycle.Insert(rec)
		})
		busServer.SetCloseHandler(func(id uint32) {
			lifecycle.Close(id, model.ReasonClosed)
		})
		lifecycle.SetNotifier(busServer)

		renderMgr.SetActionInvoker(func(id uint32, actionKey string) {
			if err := busServer.EmitActionInvoked(id, actionKey); err != nil {
				logger.Warn("failed to emit action signal", "id", id, "error", err)
			}
		})

		if err := busServer.Start(); err != nil {
			logger.Error("failed to start D-Bus server", "error", err)
			app.Quit()
			return
		}

		controlServer = control.NewServer(lifecycle, logger)
		if err := controlServer.Start(); err != nil {
			logger.Warn("failed to start control server, dunstctl will be unable to reach this daemon", "error", err)
		}

		internalNotifier = daemon.NewInternalNotifier(logger)
		internalNotifier.SetInsertHandler(func(rec *model.Record) uint32 {
			return lifecycle.Insert(rec)
		})
		internalNotifier.NotifyStartup(version)

		configWatcher, err = daemon.NewConfigWatcher(logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		} else {
			configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
				glib.IdleAdd(func() {
					lifecycle.ReloadConfig(newConfig)
					audioManager.UpdateConfig(newConfig)
					renderMgr.UpdateConfig(newConfig)
					busServer.SetMarkupEnabled(newConfig.MarkupEnabled())

					if newConfig.Theme.Name != cfg.Theme.Name {
						if err := themeLoader.LoadTheme(newConfig.Theme.Name); err != nil {
							logger.Warn("failed to load new theme", "theme", newConfig.Theme.Name, "error", err)
							internalNotifier.NotifyThemeError(err)
						} else {
							themeLoader.Apply(nil)
							internalNotifier.NotifyThemeReloaded(newConfig.Theme.Name)
						}
					}

					cfg = newConfig
					internalNotifier.NotifyConfigReloaded()
				})
			})
			configWatcher.SetErrorCallback(func(err error) {
				internalNotifier.NotifyConfigError(err)
			})
			if err := configWatcher.Start(ctx, cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		if rulePath, err := config.RuleFilePath(); err != nil {
			logger.Warn("failed to get rule file path", "error", err)
		} else if ruleWatcher, err = config.NewRuleWatcher(rulePath, logger); err != nil {
			logger.Warn("failed to create rule watcher", "error", err)
		} else {
			ruleWatcher.SetReloadCallback(func(newRules *config.RuleFileConfig) {
				glib.IdleAdd(func() {
					lifecycle.ReloadRules(newRules)
					internalNotifier.NotifyRulesReloaded(len(newRules.Rule))
				})
			})
			ruleWatcher.SetErrorCallback(func(err error) {
				internalNotifier.NotifyRulesError(err)
			})
			if err := ruleWatcher.Start(); err != nil {
				logger.Warn("failed to start rule watcher", "error", err)
			}
		}

		logger.Info("dunstd ready", "dbus_interface", bus.DBusInterface)

		// Keep the application running: GTK apps quit when all windows
		// close, and the daemon has no window until the first popup.
		keepAliveWindow := gtk.NewWindow()
		keepAliveWindow.SetApplication(&app.Application)
		keepAliveWindow.SetDefaultSize(1, 1)
		keepAliveWindow.SetDecorated(false)
		keepAliveWindow.SetVisible(false)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		shutdown()
		running.Store(false)
	})

	status := app.Run(os.Args)
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		os.Exit(status)
	}

	logger.Info("dunstd stopped")
}
