// Package fetcher reads tabular reference data (CSV or XLSX) into string
// rows.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = eris.New("fetcher: unsupported file format")

// ReadRows reads every row of the file at path, choosing the parser by
// extension. The header row, if any, is returned like any other row.
func ReadRows(ctx context.Context, path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return collect(StreamCSV(ctx, f, CSVOptions{TrimSpace: true, Comment: '#'}))
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{})
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
}

func collect(rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}
