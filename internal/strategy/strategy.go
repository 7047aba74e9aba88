package strategy

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds. Strategies wrap underlying failures in *Error so callers
// can branch on the kind with errors.Is.
var (
	ErrDecode  = errors.New("strategy: malformed or unreadable input")
	ErrArchive = errors.New("strategy: corrupt or unreadable container")
	ErrEncode  = errors.New("strategy: output serialization failed")
)

// Error attaches an error kind and the failing operation to an
// underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// Progress reports a task's completion percentage. Values may be
// reported out of order by concurrent tickers; the caller is expected
// to clamp them monotonic.
type Progress func(percent int)

// Outcome is the normalized result every strategy produces. Savings is
// -1 unless the strategy fabricated its own percentage (simulation);
// otherwise the caller computes it from the byte sizes.
type Outcome struct {
	Data    []byte
	Real    bool
	Savings int
	Note    string
}

// Strategy transforms a file's bytes into (ideally) smaller bytes,
// streaming progress along the way.
type Strategy interface {
	Name() string
	Compress(ctx context.Context, filename string, data []byte, report Progress) (*Outcome, error)
}
