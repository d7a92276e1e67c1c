// Package main is the entry point for the glassboxd daemon.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/glassbox-io/glassbox/internal/analytics"
	"github.com/glassbox-io/glassbox/internal/buildinfo"
	"github.com/glassbox-io/glassbox/internal/config"
	"github.com/glassbox-io/glassbox/internal/models"
	"github.com/glassbox-io/glassbox/internal/oracle"
	"github.com/glassbox-io/glassbox/internal/server"
	"github.com/glassbox-io/glassbox/internal/tools"
	"github.com/glassbox-io/glassbox/internal/turn"
)

func main() {
	listen := flag.String("listen", "", "Listen address (overrides settings)")
	workspace := flag.String("workspace", "", "Workspace root (overrides settings)")
	flag.Parse()

	log.SetPrefix("[glassboxd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatalf("Failed to create global directory: %v", err)
	}

	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon already running on port %d (PID %d)", info.Port, info.PID)
	}

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	if *listen != "" {
		settings.Listen = *listen
	}
	if *workspace != "" {
		settings.WorkspaceRoot = *workspace
	}
	if settings.WorkspaceRoot == "" {
		cwd, err := os.Getwd()
		if err != nil {
			log.Fatalf("Failed to resolve workspace root: %v", err)
		}
		settings.WorkspaceRoot = cwd
	}

	run(settings)
}

// run wires the pipeline together and blocks until a shutdown signal.
func run(settings *models.Settings) {
	profile, err := config.LoadProfile(settings)
	if err != nil {
		log.Fatalf("Failed to load profile data: %v", err)
	}

	analyzerCommand := settings.Analyzer.Command
	if len(analyzerCommand) == 0 {
		analyzerCommand = []string{"glassbox-analyzer"}
	}
	oracleReg := oracle.NewRegistry(oracle.Config{
		Root:         settings.WorkspaceRoot,
		Command:      analyzerCommand,
		QueryTimeout: time.Duration(settings.Analyzer.QueryTimeoutSecs) * time.Second,
		IdleWindow:   time.Duration(settings.Analyzer.IdleShutdownSecs) * time.Second,
	})

	watcher, err := oracle.NewWatcher(oracleReg)
	if err != nil {
		log.Fatalf("Failed to create workspace watcher: %v", err)
	}
	if err := watcher.WatchWorkspace(settings.WorkspaceRoot); err != nil {
		log.Printf("Not watching workspace for changes: %v", err)
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterCodebase(registry, tools.NewCodebase(settings.WorkspaceRoot, settings.MaxFileLines)); err != nil {
		log.Fatalf("Failed to register codebase tools: %v", err)
	}
	if err := tools.RegisterSemantic(registry, tools.NewSemantic(oracleReg, settings.WorkspaceRoot)); err != nil {
		log.Fatalf("Failed to register semantic tools: %v", err)
	}
	if err := tools.RegisterArchitecture(registry, tools.NewArchitecture(settings.WorkspaceRoot)); err != nil {
		log.Fatalf("Failed to register architecture tools: %v", err)
	}
	if err := tools.RegisterProfile(registry, &tools.ProfileTools{Profile: profile}); err != nil {
		log.Fatalf("Failed to register profile tools: %v", err)
	}

	capture, err := analytics.New(settings.Analytics.APIKey, settings.Analytics.Host)
	if err != nil {
		log.Fatalf("Failed to initialize analytics: %v", err)
	}

	srv, err := server.New(settings.Listen, buildinfo.Version, turn.NewAssistant(), registry, capture)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	host, _, err := net.SplitHostPort(settings.Listen)
	if err != nil || host == "" {
		host = "localhost"
	}
	daemonInfo := models.NewDaemonInfo(host, srv.Port(), os.Getpid())
	if err := config.SaveDaemonInfo(daemonInfo); err != nil {
		log.Fatalf("Failed to write daemon info: %v", err)
	}

	log.Printf("Daemon started on port %d (PID %d), workspace %s", srv.Port(), os.Getpid(), settings.WorkspaceRoot)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	srv.Stop()
	watcher.Stop()
	oracleReg.StopAll()
	capture.Close()

	if err := config.RemoveDaemonInfo(); err != nil {
		log.Printf("Failed to remove daemon info: %v", err)
	}

	fmt.Println("Daemon stopped")
}
