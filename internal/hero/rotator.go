// Package hero resolves the "[[ Quick | Fast | Speedy ]]" hero marker.
//
// A Rotator remembers which words it has handed out. It never repeats a word
// until every word of the vocabulary has been used once, at which point the
// memory is cleared and the cycle starts again. One Rotator is shared by all
// sites of a run, so the word a site receives depends on the sites built
// before it.
package hero

import (
	"math/rand/v2"
	"regexp"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/fileutil"
	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Vocabulary is the fixed word list, in marker order.
var Vocabulary = []string{"Quick", "Fast", "Speedy"}

var marker = regexp.MustCompile(`\[\[\s*Quick\s*\|\s*Fast\s*\|\s*Speedy\s*\]\]`)

// HasMarker reports whether content contains the hero marker.
func HasMarker(content []byte) bool {
	return marker.Match(content)
}

// Rotator holds the run-wide rotation state.
type Rotator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	used sets.Set[string]
}

// NewRotator returns a Rotator drawing from rng. A nil rng uses a randomly
// seeded source.
func NewRotator(rng *rand.Rand) *Rotator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Rotator{rng: rng, used: sets.New[string]()}
}

// Pick selects the next word and records it as used.
func (r *Rotator) Pick() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	available := r.used.Missing(Vocabulary)
	if len(available) == 0 {
		r.used.Clear()
		available = Vocabulary
	}
	word := available[r.rng.IntN(len(available))]
	r.used.Add(word)
	return word
}

// Used returns the words handed out since the last reset, in vocabulary order.
func (r *Rotator) Used() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, w := range Vocabulary {
		if r.used.Has(w) {
			out = append(out, w)
		}
	}
	return out
}

// Reset forgets all used words.
func (r *Rotator) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.used.Clear()
}

// Resolve replaces the first hero marker in content with a picked word.
// Later markers are left as they are. When content has no marker, no word is
// consumed and ok is false.
func (r *Rotator) Resolve(content []byte) (out []byte, word string, ok bool) {
	loc := marker.FindIndex(content)
	if loc == nil {
		return content, "", false
	}
	word = r.Pick()

	out = make([]byte, 0, len(content)-(loc[1]-loc[0])+len(word))
	out = append(out, content[:loc[0]]...)
	out = append(out, word...)
	out = append(out, content[loc[1]:]...)
	return out, word, true
}

// ApplyFile resolves the first marker in path and rewrites the file. It
// returns the chosen word, or "" when the file has no marker.
func (r *Rotator) ApplyFile(path string) (string, error) {
	var word string
	_, err := fileutil.Rewrite(path, func(content []byte) ([]byte, bool, error) {
		out, w, ok := r.Resolve(content)
		word = w
		return out, ok, nil
	})
	if err != nil {
		return "", err
	}
	return word, nil
}
