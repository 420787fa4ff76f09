package harness

import (
	"bytes"
	"context"
	"time"

	"github.com/artpar/arttools/internal/cli"
)

// CLIResult holds CLI execution results.
type CLIResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CLIRunner executes CLI commands against the harness data directory.
type CLIRunner struct {
	harness *E2EHarness
	catalog string
}

// WithCatalog points following commands at a catalog URL or file.
func (r *CLIRunner) WithCatalog(catalog string) *CLIRunner {
	return &CLIRunner{harness: r.harness, catalog: catalog}
}

// Run executes a CLI command with the given arguments.
func (r *CLIRunner) Run(args ...string) (*CLIResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.harness.timeout)
	defer cancel()

	start := time.Now()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	base := []string{
		"--data-dir", r.harness.dataDir,
		"--storage", r.harness.storage,
		"--log-level", "disabled",
	}
	if r.catalog != "" {
		base = append(base, "--catalog", r.catalog)
	}

	cmd := cli.NewRootCommand("test")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append(base, args...))

	err := cmd.ExecuteContext(ctx)

	result := &CLIResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.ExitCode = 1
	}

	return result, err
}

// Fav runs a favorites subcommand.
func (r *CLIRunner) Fav(args ...string) (*CLIResult, error) {
	return r.Run(append([]string{"fav"}, args...)...)
}

// FavJSON lists favorites as JSON.
func (r *CLIRunner) FavJSON() (*CLIResult, error) {
	return r.Run("fav", "list", "--json")
}
