package rowsource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/userimport/internal/core"
	"github.com/xuri/excelize/v2"
)

// XLSX reads the first worksheet of an Excel workbook.
type XLSX struct {
	BaseDir string
}

// NewXLSX returns an XLSX source rooted at baseDir.
func NewXLSX(baseDir string) *XLSX {
	return &XLSX{BaseDir: baseDir}
}

// Open implements core.RowSource. The delimiter is ignored.
func (s *XLSX) Open(ctx context.Context, locator string, _ core.Delimiter) (core.RowReader, error) {
	path, err := resolve(s.BaseDir, locator)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return &xlsxReader{file: f, rows: rows}, nil
}

type xlsxReader struct {
	file *excelize.File
	rows *excelize.Rows
}

// Next returns the next sheet row. Empty rows between filled ones come back as
// empty records so record ordinals match sheet row numbers.
func (x *xlsxReader) Next() ([]string, error) {
	if x.rows.Next() {
		cols, err := x.rows.Columns()
		if err != nil {
			return nil, &core.MalformedRecordError{Err: err}
		}
		if cols == nil {
			cols = []string{}
		}
		return cols, nil
	}
	if err := x.rows.Error(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func (x *xlsxReader) Close() error {
	rerr := x.rows.Close()
	if err := x.file.Close(); err != nil {
		return err
	}
	return rerr
}
