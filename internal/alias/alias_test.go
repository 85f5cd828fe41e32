package alias

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offset-permanence/curate-cli/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMap_ResolveIdentityFallback(t *testing.T) {
	m := Map{"USA": "United States of America"}
	assert.Equal(t, "United States of America", m.Resolve("USA"))
	assert.Equal(t, "usa", m.Resolve("usa"), "lookup is case-sensitive")
	assert.Equal(t, "Canada", m.Resolve("Canada"))
}

func TestMap_CollapseChains(t *testing.T) {
	m := Map{
		"US":            "USA",
		"USA":           "United States of America",
		"Canada":        "Canada",
		"United States": "United States of America",
	}

	out, notes, err := m.Collapse("country")
	require.NoError(t, err)
	assert.Equal(t, Map{
		"US":            "United States of America",
		"USA":           "United States of America",
		"United States": "United States of America",
	}, out)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NoteAliasChain, notes[0].Kind)
	assert.Contains(t, notes[0].Detail, "US → USA collapsed to United States of America")
}

func TestMap_CollapseCycle(t *testing.T) {
	_, _, err := Map{"a": "b", "b": "a"}.Collapse("country")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestResolver(t *testing.T) {
	r := NewResolver(map[string]Map{"country": {"USA": "United States of America"}})

	assert.Equal(t, "United States of America", r.Resolve("country", "USA"))
	assert.Equal(t, "USA", r.Resolve("subnational_region", "USA"), "columns without a map pass through")
	assert.Equal(t, "", r.Resolve("country", ""))
	assert.Equal(t,
		[]string{"United States of America", "Oregon"},
		r.ResolveAll([]string{"country", "subnational_region"}, []string{"USA", "Oregon"}),
	)
	assert.NotNil(t, r.Map("country"))
	assert.Nil(t, NewResolver(nil).Map("country"))
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "country.csv", "raw,standard\nUSA,United States of America\nUS,USA\nUSA,America\n,blank\n")

	m, notes, err := Load(context.Background(), path, "country")
	require.NoError(t, err)
	assert.Equal(t, "United States of America", m.Resolve("USA"))
	assert.Equal(t, "United States of America", m.Resolve("US"))

	kinds := make([]model.NoteKind, len(notes))
	for i, n := range notes {
		kinds[i] = n.Kind
	}
	assert.ElementsMatch(t, []model.NoteKind{model.NoteDuplicateAlias, model.NoteAliasChain}, kinds)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "region.yaml", "\"Qc\": Quebec\nOnt.: Ontario\n")

	m, notes, err := Load(context.Background(), path, "subnational_region")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Equal(t, "Quebec", m.Resolve("Qc"))
	assert.Equal(t, "Ontario", m.Resolve("Ont."))
}

func TestLoad_YAMLDuplicateKeyKeepsFirst(t *testing.T) {
	path := writeFile(t, "country.yaml", "USA: United States of America\nUK: United Kingdom\nUSA: America\n")

	m, notes, err := Load(context.Background(), path, "country")
	require.NoError(t, err)
	assert.Equal(t, "United States of America", m.Resolve("USA"))
	assert.Equal(t, "United Kingdom", m.Resolve("UK"))
	require.Len(t, notes, 1)
	assert.Equal(t, model.NoteDuplicateAlias, notes[0].Kind)
	assert.Contains(t, notes[0].Detail, "kept United States of America")
}

func TestLoad_YAMLCleansCells(t *testing.T) {
	// "Que\u0301bec" is the decomposed spelling of "Québec".
	path := writeFile(t, "region.yaml", "\"Ont. \": \" Ontario\"\n\"Que\\u0301bec\": Quebec\n")

	m, _, err := Load(context.Background(), path, "subnational_region")
	require.NoError(t, err)
	assert.Equal(t, Map{"Ont.": "Ontario", "Qu\u00e9bec": "Quebec"}, m)
}

func TestLoad_YAMLNotMapping(t *testing.T) {
	path := writeFile(t, "region.yaml", "- Ontario\n")
	_, _, err := Load(context.Background(), path, "subnational_region")
	require.Error(t, err)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	m, notes, err := Load(context.Background(), filepath.Join(t.TempDir(), "none.csv"), "country")
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.Empty(t, notes)
}

func TestLoad_BadHeader(t *testing.T) {
	path := writeFile(t, "country.csv", "from,to\nUSA,United States of America\n")
	_, _, err := Load(context.Background(), path, "country")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must have")
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "country.csv")
	m := Map{"USA": "United States of America", "UK": "United Kingdom"}
	require.NoError(t, Write(path, m))

	got, _, err := Load(context.Background(), path, "country")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	// Overwrite replaces the whole table.
	require.NoError(t, Write(path, Map{"UK": "United Kingdom"}))
	got, _, err = Load(context.Background(), path, "country")
	require.NoError(t, err)
	assert.Equal(t, Map{"UK": "United Kingdom"}, got)
}

// Property: Resolve(Resolve(x)) == Resolve(x) for any collapsed map and any x.
func TestResolveIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	letters := gen.OneConstOf("a", "b", "c", "d", "e", "f")

	properties.Property("resolve is idempotent after collapse", prop.ForAll(
		func(keys, vals []string, x string) bool {
			m := Map{}
			for i := 0; i < len(keys) && i < len(vals); i++ {
				m[keys[i]] = vals[i]
			}
			collapsed, _, err := m.Collapse("c")
			if err != nil {
				return true // cycles are rejected at load time
			}
			r := NewResolver(map[string]Map{"c": collapsed})
			once := r.Resolve("c", x)
			return r.Resolve("c", once) == once
		},
		gen.SliceOf(letters),
		gen.SliceOf(letters),
		letters,
	))

	properties.TestingRun(t)
}
