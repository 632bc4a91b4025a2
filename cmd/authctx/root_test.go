package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unimarket/authctx"
)

// run executes the root command with args against a file backend in dir.
func run(t *testing.T, dir string, args ...string) string {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--dir", dir, "--log-level", "error"}, args...))
	t.Cleanup(func() { resetFlags(rootCmd) })
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

// resetFlags restores flag values between runs; cobra keeps them on the package-level commands.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Changed {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func whoami(t *testing.T, dir string) authctx.State {
	t.Helper()
	var st authctx.State
	require.NoError(t, json.Unmarshal([]byte(run(t, dir, "whoami", "--json")), &st))
	return st
}

func TestCLI_LoginWhoamiLogout(t *testing.T) {
	dir := t.TempDir()

	out := run(t, dir, "login", "--id", "42", "--email", "a@b.com", "--name", "Ann", "--token", "tok")
	assert.Contains(t, out, "Logged in as a@b.com (User)")

	st := whoami(t, dir)
	require.NotNil(t, st.User)
	assert.Equal(t, "42", st.User.ID)
	assert.Equal(t, "Ann", st.FullName)
	assert.Equal(t, "tok", st.Token)

	run(t, dir, "update", "fullName=Ann B", "emailConfirmed=true")
	st = whoami(t, dir)
	assert.Equal(t, "Ann B", st.FullName)
	assert.True(t, st.User.EmailConfirmed)

	run(t, dir, "token", "set", "fresh")
	assert.Equal(t, "fresh", whoami(t, dir).Token)

	run(t, dir, "logout")
	assert.Nil(t, whoami(t, dir).User)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "user.val", e.Name())
		assert.NotEqual(t, "token.val", e.Name())
	}
}

func TestCLI_TokenClearKeepsSession(t *testing.T) {
	dir := t.TempDir()
	run(t, dir, "login", "--id", "42", "--email", "a@b.com", "--token", "tok")
	run(t, dir, "token", "clear")

	_, err := os.Stat(filepath.Join(dir, "token.val"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "user.val"))
	assert.NoError(t, err)
}

func TestCLI_UpdateWhileLoggedOut(t *testing.T) {
	out := run(t, t.TempDir(), "update", "fullName=Nobody")
	assert.Contains(t, out, "Not logged in")
}

func TestCLI_ConfigFileAndFlagOverride(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "authctx.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("backend: memory\nlog_level: error\n"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", cfgPath, "--backend", "file", "--dir", dir, "whoami", "--json"})
	t.Cleanup(func() { resetFlags(rootCmd) })

	cmd, _, err := rootCmd.Find([]string{"whoami"})
	require.NoError(t, err)
	require.NoError(t, rootCmd.Execute())

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Backend, "flag wins over file")
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, "error", cfg.LogLevel)
}
