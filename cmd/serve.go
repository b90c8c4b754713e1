package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/newsbin/pkg/api"
	"github.com/rubiojr/newsbin/pkg/auth"
	"github.com/rubiojr/newsbin/pkg/config"
	"github.com/rubiojr/newsbin/pkg/harvester"
	"github.com/rubiojr/newsbin/pkg/log"
	"github.com/rubiojr/newsbin/pkg/realtime"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the API server and fetch scheduler",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"))
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	logger := log.ForService("serve")

	comps, err := openComponents(configPath)
	if err != nil {
		return err
	}
	defer comps.Close()

	hub := realtime.NewHub(16)
	harv := harvester.New(comps.fetcher, hub, comps.cfg.FetchInterval.Duration)
	authMgr := auth.NewManager(comps.cfg.UserPath())

	serveCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	harv.Start(serveCtx)
	defer harv.Close()

	server := api.NewServer(comps.store, comps.feeds, harv, hub, authMgr)
	mux := http.NewServeMux()
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    comps.cfg.ListenAddr,
		Handler: api.CorsMiddleware(mux),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", comps.cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Signal handling, SIGHUP reloads the configuration.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("creating config watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("closing config watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("watching config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	fmt.Println("Server started. Press Ctrl+C to stop, send SIGHUP or edit the config to reload.")

	for {
		select {
		case err := <-serverErr:
			return fmt.Errorf("http server: %w", err)
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGHUP:
				logger.Infof("received SIGHUP, reloading configuration")
				reloadConfiguration(configPath, comps, harv, logger)
			case syscall.SIGINT, syscall.SIGTERM:
				fmt.Println("\nShutting down...")
				cancel()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					logger.Warnf("shutting down http server: %v", err)
				}
				return nil
			}
		case event, ok := <-watcher.Events:
			if !ok {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				logger.Infof("config file changed (%s), reloading", event.Op)

				// Editors replace files on save, re-add after the swap.
				if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
					time.Sleep(200 * time.Millisecond)
					if _, err := os.Stat(configPath); os.IsNotExist(err) {
						logger.Warnf("config file removed and not replaced, skipping reload")
						continue
					}
					if err := watcher.Add(configPath); err != nil {
						logger.Warnf("re-adding config file to watcher: %v", err)
					}
				} else {
					time.Sleep(100 * time.Millisecond)
				}

				reloadConfiguration(configPath, comps, harv, logger)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			logger.Warnf("config watcher: %v", err)
		}
	}
}

// reloadConfiguration re-reads the config and applies what can change at
// runtime: fetch limits and the harvester interval. Address and data
// directory changes need a restart.
func reloadConfiguration(configPath string, comps *components, harv *harvester.Harvester, logger *log.Logger) {
	newCfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Errorf("reloading config: %v", err)
		return
	}

	if newCfg.DataDir != comps.cfg.DataDir {
		logger.Warnf("data_dir changed, restart required for it to take effect")
	}
	if newCfg.ListenAddr != comps.cfg.ListenAddr {
		logger.Warnf("listen_addr changed, restart required for it to take effect")
	}

	comps.fetcher.SetOptions(fetcherOptions(newCfg))
	harv.SetInterval(newCfg.FetchInterval.Duration)
	comps.cfg = newCfg

	logger.Infof("configuration reloaded, fetch interval %v", newCfg.FetchInterval.Duration)
}
