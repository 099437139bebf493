// Package partition groups NetCDF file paths into sets that can be
// aggregated together.
//
// Two paths belong to the same group when their directory components are
// identical after every all-digit component (a date or version directory)
// is replaced with a placeholder. The basename is deliberately ignored:
// all files in the same directory shape are assumed aggregatable, so dates
// embedded only in filenames do not split a group. Some callers rely on
// basenames staying distinguishing within a group, so they are never
// normalised here.
package partition

import "strings"

const placeholder = 'x'

// Key returns the partition key for a path: the dirname with every
// all-digit component replaced by a same-length run of 'x'.
func Key(path string) string {
	components := strings.Split(path, "/")
	components = components[:len(components)-1]
	for i, comp := range components {
		if isNumeric(comp) {
			components[i] = strings.Repeat(string(placeholder), len(comp))
		}
	}
	return strings.Join(components, "/")
}

// Partition splits paths into groups keyed by Key. Every input path appears
// in exactly one group, and input order is preserved within each group.
func Partition(paths []string) map[string][]string {
	groups := make(map[string][]string)
	for _, path := range paths {
		key := Key(path)
		groups[key] = append(groups[key], path)
	}
	return groups
}

// Keys returns the partition keys in order of first appearance in paths.
func Keys(paths []string) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, path := range paths {
		key := Key(path)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
