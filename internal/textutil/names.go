package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeFileName trims surrounding whitespace and applies NFC normalization
// so the same visible name always maps to the same stored name.
func NormalizeFileName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// IsSafeFileName reports whether name can be used as a single path element
// under an episode directory. Empty names, parent references, separators, and
// hidden-file prefixes are rejected.
func IsSafeFileName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

// DeriveTitle builds a display title from an uploaded file name. Separator
// runs collapse to single spaces and words are title-cased. Returns "" when
// the name carries no usable characters.
func DeriveTitle(fileName string) string {
	if fileName == "" {
		return ""
	}
	base := filepath.Base(fileName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}
