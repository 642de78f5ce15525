package bench

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// List returns the sorted benchmark names found in dir (the stems of the
// *.inp input files).
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.inp"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".inp"))
	}
	sort.Strings(names)
	return names, nil
}

// InputFile resolves a benchmark name to its .inp file path. The name can
// be the full filename stem or a prefix that uniquely matches one file.
func InputFile(dir, name string) (string, error) {
	names, err := List(dir)
	if err != nil {
		return "", err
	}

	// Exact match first
	for _, n := range names {
		if n == name {
			return filepath.Join(dir, n+".inp"), nil
		}
	}

	// Prefix match
	var matches []string
	for _, n := range names {
		if strings.HasPrefix(n, name) {
			matches = append(matches, n)
		}
	}
	switch len(matches) {
	case 1:
		return filepath.Join(dir, matches[0]+".inp"), nil
	case 0:
		avail := strings.Join(names, ", ")
		if avail == "" {
			avail = "(none)"
		}
		return "", fmt.Errorf("unknown benchmark %q, available: %s", name, avail)
	default:
		return "", fmt.Errorf("ambiguous benchmark %q, matches: %s", name, strings.Join(matches, ", "))
	}
}
