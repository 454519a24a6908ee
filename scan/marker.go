// Package scan discovers analyzer marker files in a build tree, runs the
// analyzer over each referenced bitcode file, and aggregates the per-program
// reports into single xunit and SARIF documents.
package scan

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MarkerFileExt marks files the analyzer's compiler wrappers leave
	// behind next to each compiled target.
	MarkerFileExt = ".ikosbin"
	// DatabaseFileExt is appended to the target path to name the analysis
	// database.
	DatabaseFileExt = ".ikosdb"
)

// Marker is one analyzer marker file: a small JSON document pointing at the
// bitcode to analyze and the executable it was compiled into.
type Marker struct {
	Path       string `json:"-"`
	Bitcode    string `json:"bc"`
	Executable string `json:"exe"`
}

// DatabasePath returns where the analysis database for this marker goes.
func (m Marker) DatabasePath() string {
	return m.Executable + DatabaseFileExt
}

// ScanMarkers returns the marker files under dir in sorted path order.
// Markers under CMakeFiles directories are compiler-probe leftovers, not
// real targets, and are skipped.
func ScanMarkers(dir string) ([]Marker, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, MarkerFileExt) {
			return nil
		}
		if strings.Contains(path, string(filepath.Separator)+"CMakeFiles"+string(filepath.Separator)) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for marker files: %w", dir, err)
	}
	sort.Strings(paths)

	markers := make([]Marker, 0, len(paths))
	for _, path := range paths {
		m, err := readMarker(path)
		if err != nil {
			return nil, err
		}
		markers = append(markers, m)
	}
	return markers, nil
}

func readMarker(path string) (Marker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Marker{}, fmt.Errorf("failed to read marker file %s: %w", path, err)
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return Marker{}, fmt.Errorf("failed to parse marker file %s: %w", path, err)
	}
	if m.Bitcode == "" || m.Executable == "" {
		return Marker{}, fmt.Errorf("marker file %s is missing bc or exe", path)
	}
	m.Path = path
	return m, nil
}
