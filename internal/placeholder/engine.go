// Package placeholder rewrites "{{ name }}" tokens in template files.
package placeholder

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/fileutil"
)

// Engine substitutes placeholder tokens. One pattern per key set is compiled
// and cached.
type Engine struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewEngine returns an Engine with an empty pattern cache.
func NewEngine() *Engine {
	return &Engine{patterns: make(map[string]*regexp.Regexp)}
}

// pattern matches "{{ k }}" for any k in keys and captures k.
func (e *Engine) pattern(keys []string) *regexp.Regexp {
	cacheKey := strings.Join(keys, "\x00")
	e.mu.Lock()
	defer e.mu.Unlock()
	re, ok := e.patterns[cacheKey]
	if !ok {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = regexp.QuoteMeta(k)
		}
		re = regexp.MustCompile(`\{\{\s*(` + strings.Join(quoted, "|") + `)\s*\}\}`)
		e.patterns[cacheKey] = re
	}
	return re
}

// ReplaceString replaces every "{{ key }}" in content for each key in values.
// Keys match exactly and case-sensitively; whitespace around the key is free.
// Content is scanned once, so inserted values are never substituted again.
func (e *Engine) ReplaceString(content string, values map[string]string) string {
	if len(values) == 0 {
		return content
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	re := e.pattern(keys)
	return re.ReplaceAllStringFunc(content, func(token string) string {
		return values[re.FindStringSubmatch(token)[1]]
	})
}

// ApplyFile rewrites path in place. It reports whether the file changed; a
// file without matching tokens is not rewritten.
func (e *Engine) ApplyFile(path string, values map[string]string) (bool, error) {
	return fileutil.Rewrite(path, func(content []byte) ([]byte, bool, error) {
		out := e.ReplaceString(string(content), values)
		return []byte(out), out != string(content), nil
	})
}

// Targets lists the regular files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func Targets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
