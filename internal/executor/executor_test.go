package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShell_Run(t *testing.T) {
	for _, tc := range []struct {
		name    string
		command string
		want    int
	}{
		{name: "success", command: "true", want: 0},
		{name: "failure forwards exit code", command: "exit 7", want: 7},
		{name: "generic failure", command: "false", want: 1},
		// A process killed by a signal has no conventional exit code
		// and must report 0.
		{name: "killed by signal", command: "kill -TERM $$", want: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, err := NewShell().Run(context.Background(), tc.command, t.TempDir())
			require.NoError(t, err)
			assert.Equal(t, tc.want, code)
		})
	}
}

func TestShell_RunsInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	code, err := NewShell().Run(context.Background(), "touch marker.txt", dir)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = os.Stat(filepath.Join(dir, "marker.txt"))
	assert.NoError(t, err)
}

func TestShell_SpawnFailure(t *testing.T) {
	// A nonexistent working directory makes the shell itself unspawnable.
	_, err := NewShell().Run(context.Background(), "true", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawn)
}
