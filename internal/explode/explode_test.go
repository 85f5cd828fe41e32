package explode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offset-permanence/curate-cli/internal/model"
)

func rec(fields map[string]string) model.Record {
	return model.Record{ID: "S1", Title: "Koala offsets", Fields: fields}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single", "Canada", []string{"Canada"}},
		{"trailing whitespace", "Canada;  France ", []string{"Canada", "France"}},
		{"blank middle token kept", "a;;b", []string{"a", "", "b"}},
		{"trailing separator dropped", "a; b;", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.raw))
		})
	}
}

func TestExplode_DropsBlankTokens(t *testing.T) {
	entries := Explode(rec(map[string]string{"focal_species": "koala; ;glider;  "}), "species", "focal_species")
	require.Len(t, entries, 2)

	assert.Equal(t, "koala", entries[0].Raw())
	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, "glider", entries[1].Raw())
	assert.Equal(t, 1, entries[1].Position)
	assert.Equal(t, "S1", entries[1].RecordID)
	assert.Equal(t, "Koala offsets", entries[1].Title)
	assert.Equal(t, "species", entries[1].Field)
}

func TestExplode_EmptyFieldYieldsNothing(t *testing.T) {
	assert.Empty(t, Explode(rec(map[string]string{"focal_species": ""}), "species", "focal_species"))
	assert.Empty(t, Explode(rec(nil), "species", "focal_species"))
}

func TestExplodeJoint_Lockstep(t *testing.T) {
	r := rec(map[string]string{
		"country":                 "Canada; United States of America",
		"subnational_region":      "Ontario; Oregon",
		"subnational_region_type": "Province; State",
	})
	cols := []string{"country", "subnational_region", "subnational_region_type"}

	entries, notes := ExplodeJoint(r, "geography", cols)
	assert.Empty(t, notes)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"Canada", "Ontario", "Province"}, entries[0].Values)
	assert.Equal(t, []string{"United States of America", "Oregon", "State"}, entries[1].Values)
	assert.Equal(t, "Oregon", entries[1].Value("subnational_region"))
}

func TestExplodeJoint_MismatchPadsWithNulls(t *testing.T) {
	r := rec(map[string]string{
		"country":            "Canada; Canada; France",
		"subnational_region": "Ontario; Quebec",
	})

	entries, notes := ExplodeJoint(r, "geography", []string{"country", "subnational_region"})
	require.Len(t, entries, 3)
	assert.Equal(t, []string{"France", ""}, entries[2].Values)

	require.Len(t, notes, 1)
	assert.Equal(t, model.NoteTokenCountMismatch, notes[0].Kind)
	assert.Equal(t, "S1", notes[0].RecordID)
	assert.Contains(t, notes[0].Detail, "country=3")
	assert.Contains(t, notes[0].Detail, "subnational_region=2")
}

func TestExplodeJoint_EmptyColumnIsNotMismatch(t *testing.T) {
	r := rec(map[string]string{"country": "Canada; France"})

	entries, notes := ExplodeJoint(r, "geography", []string{"country", "subnational_region"})
	assert.Empty(t, notes)
	require.Len(t, entries, 2)
	assert.Equal(t, []string{"France", ""}, entries[1].Values)
}

func TestExplodeJoint_DropsAllBlankPositions(t *testing.T) {
	r := rec(map[string]string{
		"country":            "Canada;;France",
		"subnational_region": "Ontario;;",
	})

	entries, _ := ExplodeJoint(r, "geography", []string{"country", "subnational_region"})
	require.Len(t, entries, 2)
	assert.Equal(t, 0, entries[0].Position)
	assert.Equal(t, 1, entries[1].Position)
	assert.Equal(t, "France", entries[1].Values[0])
}

func TestRecords_ConcatenatesInOrder(t *testing.T) {
	recs := []model.Record{
		{ID: "S1", Title: "A", Fields: map[string]string{"focal_species": "koala"}},
		{ID: "S2", Title: "B", Fields: map[string]string{"focal_species": ""}},
		{ID: "S3", Title: "C", Fields: map[string]string{"focal_species": "glider; possum"}},
	}
	spec := model.FieldSpec{Name: "species", Columns: []string{"focal_species"}}

	entries, notes := Records(recs, spec)
	assert.Empty(t, notes)
	require.Len(t, entries, 3)
	assert.Equal(t, "S1", entries[0].RecordID)
	assert.Equal(t, "S3", entries[2].RecordID)
}

func TestJoin(t *testing.T) {
	entries := Explode(rec(map[string]string{"focal_species": "koala;glider ;  possum"}), "species", "focal_species")
	assert.Equal(t, "koala; glider; possum", Join(entries))
}
