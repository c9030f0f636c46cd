package rowsource

import (
	"fmt"
	"path/filepath"
	"strings"
)

// resolve maps a locator to a file path inside baseDir. Absolute locators are
// accepted only when baseDir is empty.
func resolve(baseDir, locator string) (string, error) {
	if strings.TrimSpace(locator) == "" {
		return "", fmt.Errorf("no file provided")
	}
	if baseDir == "" {
		return filepath.Clean(locator), nil
	}
	if filepath.IsAbs(locator) {
		rel, err := filepath.Rel(baseDir, locator)
		if err != nil || strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("path %q is outside %s", locator, baseDir)
		}
		return filepath.Clean(locator), nil
	}

	path := filepath.Join(baseDir, locator)
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside %s", locator, baseDir)
	}
	return path, nil
}
