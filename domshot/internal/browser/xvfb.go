// CLAUDE:SUMMARY Starts and stops the Xvfb virtual display used by xvfb mode, waiting for its X socket before Chrome launches.
package browser

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// x11SocketDir is where Xvfb creates its listening sockets.
var x11SocketDir = "/tmp/.X11-unix"

// xvfbReadyTimeout bounds the wait for the display socket.
const xvfbReadyTimeout = 5 * time.Second

// startXvfb launches Xvfb on the configured display and screen, and
// returns once the display accepts connections.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}

	display := m.cfg.XvfbDisplay
	socket, err := displaySocket(display)
	if err != nil {
		return err
	}
	cmd := exec.Command("Xvfb", display, "-screen", "0", m.cfg.XvfbScreen, "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	m.xvfb = cmd

	if err := waitForFile(socket, xvfbReadyTimeout); err != nil {
		m.stopXvfb()
		return fmt.Errorf("xvfb %s: %w", display, err)
	}
	m.cfg.Logger.Info("browser: xvfb started", "display", display, "screen", m.cfg.XvfbScreen, "pid", cmd.Process.Pid)
	return nil
}

// stopXvfb kills the Xvfb process if running.
func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	if m.xvfb.Process != nil {
		m.xvfb.Process.Kill()
		m.xvfb.Wait()
	}
	m.cfg.Logger.Info("browser: xvfb stopped", "display", m.cfg.XvfbDisplay)
	m.xvfb = nil
}

// displaySocket maps ":99" (or ":99.0") to its unix socket path.
func displaySocket(display string) (string, error) {
	n, ok := strings.CutPrefix(display, ":")
	if ok {
		n, _, _ = strings.Cut(n, ".")
	}
	if !ok || n == "" || strings.Trim(n, "0123456789") != "" {
		return "", fmt.Errorf("browser: invalid xvfb display %q", display)
	}
	return filepath.Join(x11SocketDir, "X"+n), nil
}

func waitForFile(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("display socket %s not ready after %s", path, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
