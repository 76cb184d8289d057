package persistence

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/DoubleBridges/mmx-engineering-spec-manager-sub000/internal/domain/project"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	storeExt         = ".db"
	storePlaceholder = "project"
)

// StoreLocator maps a project to the file of its dedicated store
type StoreLocator struct {
	dir string
}

// NewStoreLocator creates a locator rooted at dir
func NewStoreLocator(dir string) *StoreLocator {
	return &StoreLocator{dir: dir}
}

// Dir returns the stores directory
func (l *StoreLocator) Dir() string {
	return l.dir
}

// PathFor returns the store path for ref. The same ref always yields the
// same path.
func (l *StoreLocator) PathFor(ref project.StoreRef) string {
	return filepath.Join(l.dir, SanitizeStoreName(ref.Key())+storeExt)
}

// Exists reports whether the store file for ref is present
func (l *StoreLocator) Exists(ref project.StoreRef) bool {
	info, err := os.Stat(l.PathFor(ref))
	return err == nil && !info.IsDir()
}

// List returns the paths of every store in the directory, sorted
func (l *StoreLocator) List() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*"+storeExt))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// SanitizeStoreName folds accents and replaces every rune outside
// [A-Za-z0-9-_.] with '_'. Empty input yields the placeholder.
func SanitizeStoreName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}
	folded = strings.TrimSpace(folded)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if strings.Trim(out, ".") == "" {
		return storePlaceholder
	}
	return out
}
