package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offset-permanence/curate-cli/internal/model"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"standardize", "diagnose", "reference", "combine", "summarize", "publish", "runs", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "curate-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd  string
		flag string
		def  string
	}{
		{"standardize", "field", "[]"},
		{"standardize", "no-record", "false"},
		{"diagnose", "field", ""},
		{"diagnose", "limit", "25"},
		{"summarize", "by", ""},
		{"publish", "master", "true"},
		{"serve", "port", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.cmd+"/"+tt.flag, func(t *testing.T) {
			cmd, _, err := rootCmd.Find([]string{tt.cmd})
			require.NoError(t, err)
			flag := cmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag, "%s should have --%s", tt.cmd, tt.flag)
			assert.Equal(t, tt.def, flag.DefValue)
		})
	}
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range runsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "show", "unmatched"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	var buf bytes.Buffer
	formatRunsList(&buf, []model.Run{{
		ID:        "0123456789abcdef",
		Source:    "data/coded_studies.xlsx",
		Fields:    []string{"geography", "policy"},
		Status:    model.RunStatusPartial,
		CreatedAt: created,
		UpdatedAt: created.Add(1500 * time.Millisecond),
	}})

	out := buf.String()
	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "partial")
	assert.Contains(t, out, "2026-03-01 09:30")
	assert.Contains(t, out, "1.5s")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", truncateID("abc"))
	assert.Equal(t, "12345678", truncateID("1234567890"))
}

const e2eSource = `study_id,title,publication_year,evidence_type,offset_category,policy_legal_instrument_name
S1,Study One,2020,empirical,biodiversity,EPBC Act; Invented Act (2099)
S2,Study Two,2021,review,carbon,EPBC Act
`

const e2eConfig = `source:
  path: studies.csv
reference:
  dir: reference
  alias_dir: reference/aliases
pipeline:
  fields: [policy]
store:
  database_url: runs.db
log:
  level: error
`

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return rootCmd.Execute()
}

func TestCommands_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })

	files := map[string]string{
		"config.yaml": e2eConfig,
		"studies.csv": e2eSource,
		"reference/policy.csv": "original_name,standardized_name,policy_type,jurisdiction_level,jurisdiction_location,status,year_adopted,description\n" +
			"EPBC Act,Environment Protection and Biodiversity Conservation Act 1999,act,national,Australia,active,1999,\n",
	}
	for name, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	require.NoError(t, execute(t, "standardize"))
	assert.FileExists(t, filepath.Join(dir, "output", "policy_long.csv"))
	assert.FileExists(t, filepath.Join(dir, "output", "policy_frequency.csv"))
	assert.FileExists(t, filepath.Join(dir, "runs.db"))

	require.NoError(t, execute(t, "combine"))
	master, err := os.ReadFile(filepath.Join(dir, "output", "master_long.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(master)), "\n")
	assert.Equal(t, "record_id,title,publication_year,evidence_type,offset_category,"+
		"policy__standardized_name,policy__policy_type,policy__jurisdiction_level,policy__jurisdiction_location,"+
		"policy__status,policy__year_adopted,policy__description", lines[0])
	assert.Len(t, lines, 3)

	aliasFile := filepath.Join(dir, "reference", "aliases", "policy_legal_instrument_name.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(aliasFile), 0o755))
	require.NoError(t, os.WriteFile(aliasFile, []byte("EPBC: EPBC Act\nEPBC 1999: EPBC\n"), 0o644))

	require.NoError(t, execute(t, "reference", "build", "--field", "policy"))
	assert.FileExists(t, filepath.Join(dir, "output", "policy_reference.csv"))
	aliases, err := os.ReadFile(filepath.Join(dir, "output", "policy_legal_instrument_name_alias.csv"))
	require.NoError(t, err)
	assert.Equal(t, "raw,standard\nEPBC,EPBC Act\nEPBC 1999,EPBC Act\n", string(aliases))

	require.NoError(t, execute(t, "summarize", "--field", "policy", "--by", "policy_type"))

	err = execute(t, "diagnose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--field is required")
}
