package rowsource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/userimport/internal/core"
)

// AllowedExtensions lists the file types accepted for import.
var AllowedExtensions = []string{".csv", ".txt", ".xlsx"}

// IsAllowed reports whether name has an importable extension.
func IsAllowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range AllowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// Auto picks the CSV or XLSX reader by file extension.
type Auto struct {
	csv  *CSV
	xlsx *XLSX
}

// NewAuto returns a source that accepts every allowed extension under baseDir.
func NewAuto(baseDir string) *Auto {
	return &Auto{csv: NewCSV(baseDir), xlsx: NewXLSX(baseDir)}
}

// Open implements core.RowSource.
func (a *Auto) Open(ctx context.Context, locator string, delim core.Delimiter) (core.RowReader, error) {
	switch strings.ToLower(filepath.Ext(locator)) {
	case ".xlsx":
		return a.xlsx.Open(ctx, locator, delim)
	case ".csv", ".txt":
		return a.csv.Open(ctx, locator, delim)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(locator))
	}
}
