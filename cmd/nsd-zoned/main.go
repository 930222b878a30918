// nsd-zoned is a zone provisioning daemon. It exposes a small HTTP API
// and drives a name server over its TLS control channel, keeping zone
// files and a local registry in sync with the server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haukened/nsdctl/internal/nsd/common/clock"
	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/config"
	"github.com/haukened/nsdctl/internal/nsd/gateways/transport"
	"github.com/haukened/nsdctl/internal/nsd/gateways/wire"
	"github.com/haukened/nsdctl/internal/nsd/repos/statuscache"
	"github.com/haukened/nsdctl/internal/nsd/repos/zonefiles"
	"github.com/haukened/nsdctl/internal/nsd/services/control"
	"github.com/haukened/nsdctl/internal/nsd/services/zoneadmin"
)

const (
	version = "0.1.0-dev"
	appName = "nsd-zoned"

	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 5 * time.Second
)

func main() {
	clientCfg, err := config.LoadClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if err := clientCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	daemonCfg, err := config.LoadDaemon()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(clientCfg.Env, clientCfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       clientCfg.Env,
		"log_level": clientCfg.LogLevel,
		"bind":      daemonCfg.Bind,
		"endpoint":  clientCfg.Endpoint().Addr(),
		"zone_dir":  daemonCfg.ZoneDir,
	}, "Starting "+appName)

	logger := log.GetLogger()

	client, err := control.New(control.Options{
		Endpoint: clientCfg.Endpoint(),
		Open:     transport.Opener(logger, nil),
		Codec:    wire.NewControlCodec(logger),
		Logger:   logger,
	})
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build control client")
	}

	store, err := zonefiles.New(zonefiles.Options{
		Dir:          daemonCfg.ZoneDir,
		FilePattern:  daemonCfg.FilePattern,
		RegistryPath: daemonCfg.RegistryPath,
		Logger:       logger,
		Clock:        clock.RealClock{},
	})
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to open zone store")
	}
	defer func() { _ = store.Close() }()

	cache, err := statuscache.New(int(daemonCfg.CacheSize), daemonCfg.CacheTTL, clock.RealClock{})
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build reply cache")
	}

	admin, err := zoneadmin.New(zoneadmin.Options{
		Client:         client,
		Store:          store,
		Cache:          cache,
		DefaultPattern: daemonCfg.DefaultPattern,
		Logger:         logger,
	})
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build zone administration service")
	}

	srv := &http.Server{
		Addr:              daemonCfg.Bind,
		Handler:           newRouter(admin, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		log.Info(map[string]any{"bind": daemonCfg.Bind}, "HTTP API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
	case err := <-errChan:
		log.Fatal(map[string]any{"error": err}, "HTTP server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(map[string]any{"error": err}, "HTTP server shutdown failed")
	}
	log.Info(nil, "Shutdown complete")
}
