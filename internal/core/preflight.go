package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// PreflightRows is how many leading records Preflight inspects.
const PreflightRows = 5

// PreflightResult summarises a quick structural check of an import file.
type PreflightResult struct {
	Locator     string   `json:"locator"`
	RowsChecked int      `json:"rows_checked"`
	Problems    []string `json:"problems"`
}

// Valid reports whether no problems were found.
func (r *PreflightResult) Valid() bool {
	return len(r.Problems) == 0
}

// Preflight opens the file and checks that the first PreflightRows records
// each carry at least an identifier and an e-mail column. It does not touch
// the account directory.
func Preflight(ctx context.Context, src RowSource, locator string, delim Delimiter) (*PreflightResult, error) {
	if delim == 0 {
		delim = DelimiterComma
	}
	reader, err := src.Open(ctx, locator, delim)
	if err != nil {
		return nil, &SourceUnreadableError{Locator: locator, Err: err}
	}
	defer reader.Close()

	result := &PreflightResult{Locator: locator, Problems: []string{}}
	for row := 1; row <= PreflightRows; row++ {
		fields, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		result.RowsChecked++
		if err != nil {
			var malformed *MalformedRecordError
			if !errors.As(err, &malformed) {
				return nil, &SourceUnreadableError{Locator: locator, Err: err}
			}
			result.Problems = append(result.Problems, fmt.Sprintf("Row %d: %v", row, err))
			continue
		}
		if isEmptyRecord(fields) || len(fields) < 2 {
			result.Problems = append(result.Problems, fmt.Sprintf("Row %d is empty or has insufficient data", row))
		}
	}

	if result.RowsChecked == 0 {
		result.Problems = append(result.Problems, ErrEmptySource.Error())
	}
	return result, nil
}

func isEmptyRecord(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
