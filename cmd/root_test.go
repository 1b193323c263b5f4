package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"serve", "qualify", "sync", "validate", "config"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "outbound-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestQualifyCommand_Flags(t *testing.T) {
	for _, name := range []string{"csv", "xlsx", "limit", "batch-size", "timeout", "retries", "fan-out", "dry-run", "output"} {
		require.NotNil(t, qualifyCmd.Flags().Lookup(name), "qualify command should have --%s flag", name)
	}
	assert.Equal(t, "0", qualifyCmd.Flags().Lookup("retries").DefValue)
}

func TestSyncCommand_Flags(t *testing.T) {
	require.NotNil(t, syncCmd.Flags().Lookup("input"), "sync command should have --input flag")
	require.NotNil(t, syncCmd.Flags().Lookup("threshold"), "sync command should have --threshold flag")
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestLoadRecords_MutuallyExclusive(t *testing.T) {
	_, err := loadRecords("a.csv", "b.xlsx")
	assert.Error(t, err)

	_, err = loadRecords("", "")
	assert.Error(t, err)
}

func TestLoadRecords_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	csv := "firstName,lastName,email,company,title\nJane,Doe,jane@acme.com,Acme,VP\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	records, err := loadRecords(path, "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "jane@acme.com", records[0]["email"])
}

func TestWriteJSONOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeJSONOutput(map[string]int{"n": 1}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"n": 1`)
}
