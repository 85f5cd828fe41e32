// Package export writes the pipeline's CSV and XLSX artifacts and reads long
// tables back for downstream stages.
package export

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// WriteCSV writes header and rows to path. The file is written to a
// temporary sibling and renamed into place, so readers never observe a
// partial table. Parent directories are created as needed.
func WriteCSV(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "export: create directory")
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return eris.Wrap(err, "export: create temp file")
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "export: write header")
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "export: write rows")
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "export: close file")
	}

	return eris.Wrap(os.Rename(tmp, path), "export: rename into place")
}
