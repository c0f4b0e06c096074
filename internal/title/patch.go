// Package title rewrites the <title> element of a site's entry file.
package title

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/sitegen/internal/fileutil"
)

// EntryFile is the file patched under a destination root.
const EntryFile = "index.html"

// ErrNoEntryFile is returned when the destination has no entry file.
var ErrNoEntryFile = errors.New("entry file not found")

// charRef matches a character reference at the start of the input.
var charRef = regexp.MustCompile(`^&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// escapeText escapes '&' and '<', the only characters that change meaning
// inside a title element. An '&' that already starts a character reference
// is kept, so titles exported pre-escaped are not escaped twice.
func escapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '<':
			b.WriteString("&lt;")
		case c == '&' && !charRef.MatchString(s[i:]):
			b.WriteString("&amp;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Patch replaces the inner text of the first <title> element (tag name
// matched case-insensitively) with title. Every other byte is kept. ok is
// false when the document has no complete title element.
func Patch(content []byte, title string) (out []byte, ok bool) {
	start, end, found := locate(content)
	if !found {
		return content, false
	}

	escaped := escapeText(title)
	out = make([]byte, 0, len(content)-(end-start)+len(escaped))
	out = append(out, content[:start]...)
	out = append(out, escaped...)
	out = append(out, content[end:]...)
	return out, true
}

// locate returns the byte range of the first title element's inner text.
// Comments, scripts and other raw text never produce a match.
func locate(content []byte) (start, end int, found bool) {
	z := html.NewTokenizer(bytes.NewReader(content))
	pos := 0
	start = -1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return 0, 0, false
		}
		tokenStart := pos
		pos += len(z.Raw())

		switch tt {
		case html.StartTagToken:
			if start < 0 && isTitle(z) {
				start = pos
			}
		case html.EndTagToken:
			if start >= 0 && isTitle(z) {
				return start, tokenStart, true
			}
		}
	}
}

func isTitle(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return string(name) == "title"
}

// PatchFile patches root/index.html. It returns ErrNoEntryFile when the
// file is missing and found=false when the file has no title element.
func PatchFile(root, title string) (found bool, err error) {
	path := filepath.Join(root, EntryFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("%s: %w", path, ErrNoEntryFile)
		}
		return false, err
	}

	_, err = fileutil.Rewrite(path, func(content []byte) ([]byte, bool, error) {
		out, ok := Patch(content, title)
		found = ok
		return out, ok && !bytes.Equal(out, content), nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// HasTitle reports whether content contains a title element.
func HasTitle(content []byte) bool {
	_, _, found := locate(content)
	return found
}
