package storage

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// markdownExts is the set of file extensions the editor opens, matched
// case-insensitively.
var markdownExts = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".mdown":    {},
	".mkd":      {},
	".txt":      {},
}

// IsMarkdownName reports whether name carries a markdown extension.
func IsMarkdownName(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := markdownExts[ext]
	return ok
}

func isHiddenName(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Collation is shared by every backend so listings sort identically
// regardless of where the entries came from.
var (
	collMu sync.Mutex
	coll   = collate.New(language.Und, collate.IgnoreCase)
)

func compareNames(a, b string) int {
	collMu.Lock()
	defer collMu.Unlock()
	return coll.CompareString(a, b)
}

// FilterSort applies the listing policy shared by all backends: hidden
// directories and non-markdown files are dropped, directories sort before
// files, and each group is in locale-aware ascending name order. The input
// slice is not modified.
func FilterSort(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			if isHiddenName(e.Name) {
				continue
			}
		} else if !IsMarkdownName(e.Name) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return compareNames(out[i].Name, out[j].Name) < 0
	})
	return out
}
