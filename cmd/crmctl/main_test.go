package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholarcrm/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("REDIS_URL", "")
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "crm.db"))

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	_, err = execute(t, "balance", "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err = execute(t, "outbox", "flush")
	require.NoError(t, err)
	assert.Contains(t, out, "sent 0")

	_, err = execute(t, "payout", "mark-paid", "p1")
	assert.Error(t, err, "--admin is required")
}
