package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestUserCreateRequiresUsername(t *testing.T) {
	err := runCmd(t, userCmd(), "create", "--username", "  ")
	require.ErrorContains(t, err, "--username is required")
}

func TestTokenRequiresPositiveUserID(t *testing.T) {
	for _, args := range [][]string{{}, {"--user-id", "0"}, {"--user-id=-4"}} {
		err := runCmd(t, tokenCmd(), args...)
		require.ErrorContains(t, err, "--user-id", "args %v", args)
	}
}

func TestMigrateDefaultsDir(t *testing.T) {
	flag := migrateCmd().Flags().Lookup("dir")
	require.NotNil(t, flag)
	require.Equal(t, "db/migrations", flag.DefValue)
}
