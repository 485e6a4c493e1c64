// Package resolver defines the FileResolver contract consumed by the
// preprocessor. The concrete file I/O layer (reading real files from
// disk, a virtual filesystem, an editor buffer) lives outside this
// module and is named here only by the interface it must satisfy.
package resolver

// FileResolver supplies file contents and canonical paths to the
// preprocessor. Both operations may fail; errors propagate unchanged.
type FileResolver interface {
	// FileContents returns the text of the file at path.
	FileContents(path string) (text string, err error)
	// CanonicalPath resolves path to a canonical, comparable form
	// (used for include-cycle detection).
	CanonicalPath(path string) (canonical string, err error)
}
