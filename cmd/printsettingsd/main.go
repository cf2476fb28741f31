// Command printsettingsd serves printer-settings capture and restore
// over HTTP. Run with --mock to use a simulated print spooler (no
// Windows spooler required).
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/locivir/printsettings/internal/api"
	"github.com/locivir/printsettings/internal/auth"
	"github.com/locivir/printsettings/internal/discovery"
	"github.com/locivir/printsettings/internal/events"
	"github.com/locivir/printsettings/internal/identity"
	"github.com/locivir/printsettings/internal/settings"
	"github.com/locivir/printsettings/internal/spooler"
	"github.com/locivir/printsettings/internal/store"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	var (
		mock      = flag.Bool("mock", false, "use mock spooler (no print system required)")
		addr      = flag.String("addr", "127.0.0.1:8720", "HTTP listen address")
		cfgDir    = flag.String("config-dir", "", "config directory (default: per-user config dir)")
		storeKind = flag.String("store", "auto", "settings backend: registry, file or auto")
		mdns      = flag.Bool("mdns", false, "advertise the service over mDNS")
		debug     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		dir, err := identity.ConfigDir()
		if err != nil {
			slog.Error("cannot determine config directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = dir
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Print spooler
	var sp spooler.Spooler
	if *mock {
		slog.Info("using mock spooler")
		sp = spooler.NewMock()
	} else {
		slog.Info("using system spooler")
		sp = spooler.NewSystem()
	}

	// Settings backend
	st, err := store.Open(*storeKind, *cfgDir)
	if err != nil {
		slog.Error("settings backend initialization failed", "err", err)
		os.Exit(1)
	}
	if c, ok := st.(interface{ Close() }); ok {
		defer c.Close()
	}

	appID := identity.AppIDFromDir(*cfgDir)
	slog.Info("application identity", "app_id", appID, "store", st.Path())

	// Event bus
	bus := events.NewBus()

	// Settings service
	svc := settings.New(sp, st, bus, appID)

	// Auth service
	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	// mDNS advertisement
	if *mdns {
		port := 8720
		if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
			if p, err := strconv.Atoi(parts[1]); err == nil {
				port = p
			}
		}
		adv := discovery.NewAdvertiser(discovery.Hostname(), port)
		go func() {
			if err := adv.Start(ctx); err != nil {
				slog.Warn("mDNS advertisement failed", "err", err)
			}
		}()
	}

	// HTTP server
	router := api.NewRouter(svc, sp, authSvc, bus, version)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("printsettingsd listening", "addr", *addr, "mock", *mock, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}
