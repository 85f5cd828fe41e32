package export

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/offset-permanence/curate-cli/internal/diagnose"
	"github.com/offset-permanence/curate-cli/internal/model"
)

var (
	unmatchedHeader  = []string{model.ColRecordID, model.ColTitle, "raw_value", model.ColIssueType}
	frequencyHeader  = []string{"raw_value", model.ColIssueType, "mentions", "records"}
	incompleteHeader = []string{"key", model.ColStandardizedName, "missing_attributes"}
)

// ReportFiles lists the diagnostic files written for one field.
type ReportFiles struct {
	Unmatched  string
	Frequency  string
	Incomplete string
}

// WriteReport writes the unmatched, frequency and incomplete-reference
// tables of r under dir. Empty tables are still written with a header.
func WriteReport(dir string, r diagnose.Report) (ReportFiles, error) {
	files := ReportFiles{
		Unmatched:  filepath.Join(dir, r.Field+SuffixUnmatched),
		Frequency:  filepath.Join(dir, r.Field+SuffixFrequency),
		Incomplete: filepath.Join(dir, r.Field+SuffixIncomplete),
	}
	if err := WriteCSV(files.Unmatched, unmatchedHeader, unmatchedRows(r.Unmatched)); err != nil {
		return files, eris.Wrapf(err, "export: %s unmatched", r.Field)
	}
	if err := WriteCSV(files.Frequency, frequencyHeader, frequencyRows(r.Frequencies)); err != nil {
		return files, eris.Wrapf(err, "export: %s frequency", r.Field)
	}
	if err := WriteCSV(files.Incomplete, incompleteHeader, incompleteRows(r.Incomplete)); err != nil {
		return files, eris.Wrapf(err, "export: %s incomplete", r.Field)
	}
	return files, nil
}

func unmatchedRows(in []diagnose.UnmatchedRow) [][]string {
	rows := make([][]string, len(in))
	for i, u := range in {
		rows[i] = []string{u.RecordID, u.Title, u.RawValue, string(u.Issue)}
	}
	return rows
}

func frequencyRows(in []diagnose.Frequency) [][]string {
	rows := make([][]string, len(in))
	for i, f := range in {
		rows[i] = []string{f.RawValue, string(f.Issue), strconv.Itoa(f.Mentions), strconv.Itoa(f.Records)}
	}
	return rows
}

func incompleteRows(in []diagnose.IncompleteEntry) [][]string {
	rows := make([][]string, len(in))
	for i, e := range in {
		rows[i] = []string{e.Key, e.StandardizedName, strings.Join(e.Missing, "; ")}
	}
	return rows
}

// xlsx sheet names are limited to 31 characters.
const maxSheetName = 31

// WriteWorkbook writes a review workbook with a summary sheet followed by one
// frequency sheet per field that has unmatched values.
func WriteWorkbook(path string, reports []diagnose.Report) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	addRow(summary, "field", "entries", "matched", "unmatched", "distinct_values", "incomplete_reference", "notes")
	for _, r := range reports {
		row := summary.AddRow()
		row.AddCell().SetString(r.Field)
		row.AddCell().SetInt(r.Entries)
		row.AddCell().SetInt(r.Matched)
		row.AddCell().SetInt(r.UnmatchedCount())
		row.AddCell().SetInt(len(r.Frequencies))
		row.AddCell().SetInt(len(r.Incomplete))
		row.AddCell().SetInt(len(r.Notes))
	}

	for _, r := range reports {
		if len(r.Frequencies) == 0 {
			continue
		}
		name := r.Field
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}
		sheet, err := f.AddSheet(name)
		if err != nil {
			return eris.Wrapf(err, "export: add sheet %s", name)
		}
		addRow(sheet, frequencyHeader...)
		for _, fr := range r.Frequencies {
			row := sheet.AddRow()
			row.AddCell().SetString(fr.RawValue)
			row.AddCell().SetString(string(fr.Issue))
			row.AddCell().SetInt(fr.Mentions)
			row.AddCell().SetInt(fr.Records)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "export: create directory")
	}
	return eris.Wrap(f.Save(path), "export: save workbook")
}

func addRow(sheet *xlsx.Sheet, cells ...string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
