package preprocessor

import (
	"errors"

	"github.com/z33toolchain/z33/codemap"
	"github.com/z33toolchain/z33/internal/translate"
)

var f = translate.From

var (
	ErrDirectiveUnknown = errors.New(f("directive unknown"))
	ErrDirectiveTrail   = errors.New(f("text after directive"))
	ErrIncludeSyntax    = errors.New(f("'>' missing"))
	ErrIncludeCycle     = errors.New(f("include cycle"))
	ErrDefineSyntax     = errors.New(f("#define syntax"))
	ErrDefineDuplicate  = errors.New(f("#define duplicated"))
	ErrDefineLiteral    = errors.New(f("#define literal invalid"))
	ErrExprSyntax       = errors.New(f("condition must be defined(NAME) or notdefined(NAME)"))
	ErrElseifLonely     = errors.New(f("#elseif without #if"))
	ErrElseLonely       = errors.New(f("#else without #if"))
	ErrEndifLonely      = errors.New(f("#endif without #if"))
	ErrBranchAfterElse  = errors.New(f("branch after #else"))
	ErrIfUnclosed       = errors.New(f("#if without #endif"))
)

// ParseError carries the source span of a preprocessing error within
// the file being expanded.
type ParseError struct {
	Range codemap.Range
	Err   error
}

func (err *ParseError) Error() string {
	return f("%v-%v: %v", err.Range.Start, err.Range.End, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// parseErrAt wraps err with a span unless it already carries one.
func parseErrAt(rng codemap.Range, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Range: rng, Err: err}
}
