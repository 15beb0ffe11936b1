// Package cli provides the command-line interface for GateFlow.
package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/gateflow-tech/gateflow/internal/config"
	"github.com/gateflow-tech/gateflow/internal/container"
)

// captureCLIStdout runs f with os.Stdout redirected and returns what it wrote.
func captureCLIStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	os.Stdout = old

	return buf.String()
}

// withStubContainerApp replaces newContainerApp with a test implementation.
func withStubContainerApp(t *testing.T, app cliApp) {
	t.Helper()
	orig := newContainerApp
	newContainerApp = func(ctx context.Context, cfg *config.Config) (cliApp, error) {
		return app, nil
	}
	t.Cleanup(func() {
		newContainerApp = orig
	})
}

// withTestConfig points the package-level cfg at a fresh default config and
// restores the previous one when the test ends.
func withTestConfig(t *testing.T) *config.Config {
	t.Helper()
	orig := cfg
	cfg = config.DefaultConfig()
	cfg.Storage.Backend = "memory"
	t.Cleanup(func() {
		cfg = orig
	})
	return cfg
}

// withJSONOutput flips the global JSON flag for the duration of the test.
func withJSONOutput(t *testing.T, on bool) {
	t.Helper()
	orig := outputJSON
	outputJSON = on
	t.Cleanup(func() {
		outputJSON = orig
	})
}

// newMemoryApp builds a fully wired container on the memory backend. Commands
// exercised against it run the real use cases end to end.
func newMemoryApp(t *testing.T, c *config.Config) *container.App {
	t.Helper()
	app, err := container.NewInitialized(context.Background(), c)
	if err != nil {
		t.Fatalf("failed to build container: %v", err)
	}
	t.Cleanup(func() {
		_ = app.Close()
	})
	return app
}

// newFileApp builds a container on the file backend rooted in a temp dir, for
// commands that need the event log.
func newFileApp(t *testing.T, c *config.Config) *container.App {
	t.Helper()
	c.Storage.Backend = "file"
	c.Storage.Dir = t.TempDir()
	return newMemoryApp(t, c)
}
