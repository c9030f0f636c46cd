package rowsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/userimport/internal/core"
)

// CSV reads delimited text files.
type CSV struct {
	BaseDir string
}

// NewCSV returns a CSV source rooted at baseDir. An empty baseDir accepts any path.
func NewCSV(baseDir string) *CSV {
	return &CSV{BaseDir: baseDir}
}

// Open implements core.RowSource.
func (s *CSV) Open(ctx context.Context, locator string, delim core.Delimiter) (core.RowReader, error) {
	if !delim.Valid() {
		return nil, fmt.Errorf("unsupported delimiter %q", rune(delim))
	}
	path, err := resolve(s.BaseDir, locator)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	r := csv.NewReader(normalize(f))
	r.Comma = rune(delim)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return &csvReader{file: f, r: r, nextLine: 1}, nil
}

// csvReader surfaces blank lines that encoding/csv drops as empty records, so
// record ordinals keep matching physical line numbers. Blank lines after the
// last record are treated as end-of-file padding and not reported.
type csvReader struct {
	file *os.File
	r    *csv.Reader

	nextLine int // line the next record starts on when no blank lines intervene
	blanks   int // blank records still to emit before held
	held     []string
	heldErr  error
	holding  bool
}

func (c *csvReader) Next() ([]string, error) {
	if c.blanks > 0 {
		c.blanks--
		return []string{}, nil
	}
	if c.holding {
		c.holding = false
		rec, err := c.held, c.heldErr
		c.held, c.heldErr = nil, nil
		return rec, err
	}

	rec, err := c.read()
	if errors.Is(err, io.EOF) {
		return nil, err
	}
	if c.blanks > 0 {
		c.blanks--
		c.held, c.heldErr, c.holding = rec, err, true
		return []string{}, nil
	}
	return rec, err
}

// read returns the next record and sets blanks to the number of blank lines
// skipped in front of it.
func (c *csvReader) read() ([]string, error) {
	rec, err := c.r.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			c.skipTo(pe.StartLine)
			c.nextLine = pe.Line + 1
			return nil, &core.MalformedRecordError{Err: err}
		}
		return nil, err
	}

	start, _ := c.r.FieldPos(0)
	c.skipTo(start)
	last, _ := c.r.FieldPos(len(rec) - 1)
	c.nextLine = last + strings.Count(rec[len(rec)-1], "\n") + 1
	return rec, nil
}

func (c *csvReader) skipTo(line int) {
	if line > c.nextLine {
		c.blanks = line - c.nextLine
	}
}

func (c *csvReader) Close() error {
	return c.file.Close()
}
