package core

import (
	"encoding/csv"
	"fmt"
	"io"
)

// TemplateHeader is the column layout of an import file.
var TemplateHeader = []string{"username", "email", "role"}

var templateRows = [][]string{
	{"john_doe", "john.doe@example.com", DefaultRole},
	{"jane.smith", "jane.smith@example.com", ""},
}

// WriteTemplate writes an example import file using delim.
func WriteTemplate(w io.Writer, delim Delimiter) error {
	if delim == 0 {
		delim = DelimiterComma
	}
	if !delim.Valid() {
		return fmt.Errorf("unsupported delimiter %q", rune(delim))
	}

	cw := csv.NewWriter(w)
	cw.Comma = rune(delim)
	if err := cw.Write(TemplateHeader); err != nil {
		return fmt.Errorf("write template header: %w", err)
	}
	if err := cw.WriteAll(templateRows); err != nil {
		return fmt.Errorf("write template rows: %w", err)
	}
	return nil
}

// TemplateFilename is the suggested download name for the template.
func TemplateFilename() string {
	return "user_import_template.csv"
}
