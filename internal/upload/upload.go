// Package upload stores user-supplied image files under a served directory.
package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"riceMarketplace/models"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename reduces a client-supplied filename to a safe basename made
// of ASCII letters, digits, '_', '.' and '-'. Path components are flattened
// into the name, so "../../etc/passwd" becomes "etc_passwd". The result may be
// empty.
func SanitizeFilename(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	ascii, _, err := transform.String(t, name)
	if err != nil {
		return ""
	}
	ascii = strings.NewReplacer("/", " ", `\`, " ").Replace(ascii)
	ascii = strings.Join(strings.Fields(ascii), "_")
	ascii = unsafeChars.ReplaceAllString(ascii, "")
	return strings.Trim(ascii, "._")
}

// Store writes uploads into Dir.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes r to Dir under the sanitized form of name and returns that name.
// An existing file with the same name is replaced.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	clean := SanitizeFilename(name)
	if clean == "" {
		return "", models.NewValidationError("image", "invalid filename")
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(s.Path(clean))
	if err != nil {
		return "", fmt.Errorf("create %s: %w", clean, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", clean, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", clean, err)
	}
	return clean, nil
}

// Path returns the on-disk location of a stored filename.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	return nil
}
