package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/kiralabs/kira/plugin/ai"
	"github.com/kiralabs/kira/plugin/ai/router"
	"github.com/kiralabs/kira/plugin/ai/timeout"
)

// MaxCommandOutput is the character cap on command output.
const MaxCommandOutput = 1500

// CommandRunner runs a recognized local command and returns its text output.
type CommandRunner interface {
	Run(ctx context.Context, cmd router.Command) (string, error)
}

// ScriptFor returns the script file that implements a command.
func ScriptFor(cmd router.Command) (string, bool) {
	switch cmd {
	case router.CommandTokenPrice:
		return "token-price.sh", true
	case router.CommandLeaderboard:
		return "leaderboard.sh", true
	case router.CommandTreasury:
		return "treasury.sh", true
	case router.CommandHolders:
		return "holders.sh", true
	case router.CommandBuilding:
		return "building.sh", true
	case router.CommandRepos:
		return "repos.sh", true
	case router.CommandStatus:
		return "status.sh", true
	case router.CommandNone:
		return "", false
	}
	return "", false
}

// CommandExecutor shells out to the skill scripts in a directory.
type CommandExecutor struct {
	dir       string
	timeout   time.Duration
	maxOutput int
}

// NewCommandExecutor creates an executor for scripts in dir.
func NewCommandExecutor(dir string, callTimeout time.Duration) *CommandExecutor {
	if callTimeout <= 0 {
		callTimeout = timeout.CommandTimeout
	}
	return &CommandExecutor{
		dir:       dir,
		timeout:   callTimeout,
		maxOutput: MaxCommandOutput,
	}
}

// Run executes the command's script and returns its trimmed stdout.
// stderr and the exit code are logged, never returned.
func (e *CommandExecutor) Run(ctx context.Context, cmd router.Command) (string, error) {
	script, ok := ScriptFor(cmd)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	c := exec.CommandContext(ctx, filepath.Join(e.dir, script))
	c.Dir = e.dir
	c.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Warn("command timed out",
			"command", string(cmd),
			"timeout", e.timeout,
			"stderr", truncateString(stderr.String(), timeout.MaxTruncateLength))
		return "", fmt.Errorf("%s: %w after %s", cmd, ErrCommandTimeout, e.timeout)
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		slog.Warn("command failed",
			"command", string(cmd),
			"exit_code", exitCode,
			"stderr", truncateString(strings.TrimSpace(stderr.String()), timeout.MaxTruncateLength),
			"error", err)
		return "", fmt.Errorf("%s: %w", cmd, err)
	}

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", fmt.Errorf("%s: %w", cmd, ErrNoOutput)
	}

	slog.Debug("command completed", "command", string(cmd), "duration_ms", time.Since(start).Milliseconds())
	return ai.TruncateRunes(out, e.maxOutput), nil
}
