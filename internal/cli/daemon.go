package cli

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/glassbox-io/glassbox/internal/config"
)

// EnsureDaemon makes sure the daemon is running, starting it if necessary.
// Returns the base URL to talk to it.
func EnsureDaemon() (string, error) {
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		return "", fmt.Errorf("failed to check daemon status: %w", err)
	}

	if !running {
		// Clean up stale daemon info if it exists
		if info != nil {
			_ = config.RemoveDaemonInfo()
		}
		if err := startDaemon(); err != nil {
			return "", err
		}
		_, info, err = config.IsDaemonRunning()
		if err != nil || info == nil {
			return "", fmt.Errorf("daemon started but published no connection info")
		}
	}

	return fmt.Sprintf("http://%s:%d", info.Host, info.Port), nil
}

// startDaemon starts the daemon process in the background.
func startDaemon() error {
	daemonPath, err := findDaemonBinary()
	if err != nil {
		return err
	}

	cmd := exec.Command(daemonPath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	// Wait for daemon to be ready (max 5 seconds)
	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		running, _, err := config.IsDaemonRunning()
		if err == nil && running {
			return nil
		}
	}

	return fmt.Errorf("daemon failed to start within timeout")
}

// findDaemonBinary locates the glassboxd binary.
func findDaemonBinary() (string, error) {
	// Try PATH first
	path, err := exec.LookPath("glassboxd")
	if err == nil {
		return path, nil
	}

	// Try relative to current executable
	execPath, err := os.Executable()
	if err == nil {
		daemonPath := execPath[:len(execPath)-len("glassbox")] + "glassboxd"
		if _, err := os.Stat(daemonPath); err == nil {
			return daemonPath, nil
		}
	}

	// Try build directory
	if _, err := os.Stat("./build/glassboxd"); err == nil {
		return "./build/glassboxd", nil
	}

	return "", fmt.Errorf("glassboxd not found. Install or build it first")
}
