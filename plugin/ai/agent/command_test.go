package agent

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiralabs/kira/plugin/ai/router"
)

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

func TestCommandExecutor_Run(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "token-price.sh", `echo "  KIRA: \$0.042 (+3.1%)  "`)
	writeScript(t, dir, "treasury.sh", `echo "rpc down" >&2; exit 3`)
	writeScript(t, dir, "holders.sh", `exec sleep 5`)
	writeScript(t, dir, "status.sh", `true`)
	writeScript(t, dir, "repos.sh", `i=0; while [ $i -lt 400 ]; do printf 'abcde'; i=$((i+1)); done`)

	executor := NewCommandExecutor(dir, 2*time.Second)

	t.Run("stdout trimmed", func(t *testing.T) {
		out, err := executor.Run(context.Background(), router.CommandTokenPrice)
		require.NoError(t, err)
		assert.Equal(t, "KIRA: $0.042 (+3.1%)", out)
	})

	t.Run("non-zero exit", func(t *testing.T) {
		_, err := executor.Run(context.Background(), router.CommandTreasury)
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "rpc down")
	})

	t.Run("no output", func(t *testing.T) {
		_, err := executor.Run(context.Background(), router.CommandStatus)
		assert.ErrorIs(t, err, ErrNoOutput)
	})

	t.Run("output capped", func(t *testing.T) {
		out, err := executor.Run(context.Background(), router.CommandRepos)
		require.NoError(t, err)
		assert.Len(t, out, MaxCommandOutput)
		assert.True(t, strings.HasPrefix(out, "abcde"))
	})

	t.Run("missing script", func(t *testing.T) {
		_, err := executor.Run(context.Background(), router.CommandLeaderboard)
		assert.Error(t, err)
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := executor.Run(context.Background(), router.CommandNone)
		assert.ErrorIs(t, err, ErrUnknownCommand)
	})

	t.Run("timeout", func(t *testing.T) {
		fast := NewCommandExecutor(dir, 100*time.Millisecond)
		start := time.Now()
		_, err := fast.Run(context.Background(), router.CommandHolders)
		assert.ErrorIs(t, err, ErrCommandTimeout)
		assert.Less(t, time.Since(start), 3*time.Second)
	})
}

func TestScriptFor(t *testing.T) {
	for _, cmd := range []router.Command{
		router.CommandTokenPrice, router.CommandLeaderboard, router.CommandTreasury,
		router.CommandHolders, router.CommandBuilding, router.CommandRepos, router.CommandStatus,
	} {
		script, ok := ScriptFor(cmd)
		assert.True(t, ok, cmd)
		assert.True(t, strings.HasSuffix(script, ".sh"), cmd)
	}
	_, ok := ScriptFor(router.CommandNone)
	assert.False(t, ok)
}
