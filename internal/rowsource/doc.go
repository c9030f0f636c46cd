// Package rowsource opens import files and yields their records.
//
// Locators are file paths. Relative paths resolve against the source's base
// directory and may not escape it. CSV and plain-text files are parsed with
// the delimiter chosen for the import; XLSX workbooks are read from their
// first sheet and ignore the delimiter.
package rowsource
