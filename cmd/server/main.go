// Package main is the entry point for the virtadm MCP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jgaskill/virtadm/internal/auth"
	"github.com/jgaskill/virtadm/internal/config"
	"github.com/jgaskill/virtadm/internal/domain"
	"github.com/jgaskill/virtadm/internal/emulator"
	"github.com/jgaskill/virtadm/internal/safety"
	"github.com/jgaskill/virtadm/internal/tools"
	"github.com/jgaskill/virtadm/internal/vm"
	"github.com/mark3labs/mcp-go/server"
)

const defaultConfigPath = "/etc/virtadm/config.yaml"

func main() {
	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v — running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set VIRTADM_AUTH_TOKEN to persist): %s", token)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v — audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	// Build safety components.
	vmFilter := safety.NewFilter(
		cfg.Safety.VMs.Allowlist,
		cfg.Safety.VMs.Denylist,
	)
	vmConfirm := safety.NewConfirmationTracker(vm.DestructiveTools)

	// Build the lifecycle manager and connect to the hypervisor.
	mgr := vm.NewManager(
		domain.Backend(cfg.Hypervisor.Backend),
		emulator.ProbeLocator{},
		cfg.Hypervisor.ImageDir,
	)
	if err := mgr.Connect(cfg.Hypervisor.Endpoint); err != nil {
		log.Fatalf("failed to connect to hypervisor at %q: %v", cfg.Hypervisor.Endpoint, err)
	}
	defer mgr.Close()

	// Build MCP server.
	mcpServer := server.NewMCPServer(
		"virtadm",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	// Register all tools.
	registrations := vm.Tools(mgr, vmFilter, vmConfirm, auditLogger)
	tools.RegisterAll(mcpServer, registrations)

	// Build Streamable HTTP server and wrap with auth middleware.
	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)
	wrappedHandler := authMiddleware(httpHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           wrappedHandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("virtadm listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig attempts to read the config file from the path specified by
// VIRTADM_CONFIG_PATH or the default /etc/virtadm/config.yaml. If the file
// cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("VIRTADM_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
