package resolver

import (
	"path"

	"github.com/z33toolchain/z33/internal/translate"
)

var f = translate.From

// ErrFileMissing reports a path the resolver holds no contents for.
type ErrFileMissing string

func (e ErrFileMissing) Error() string {
	return f("file %v missing", string(e))
}

// MapResolver is an in-memory FileResolver backed by a path-to-text
// map, for tests and embedded use.
type MapResolver map[string]string

// FileContents returns the text stored under the cleaned path.
func (mr MapResolver) FileContents(p string) (text string, err error) {
	text, ok := mr[path.Clean(p)]
	if !ok {
		err = ErrFileMissing(p)
	}
	return
}

// CanonicalPath cleans the path; the map key is the canonical form.
func (mr MapResolver) CanonicalPath(p string) (canonical string, err error) {
	canonical = path.Clean(p)
	return
}
