package searcher

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrCorrupted is wrapped by every Fault.
var ErrCorrupted = errors.New("search tree corrupted")

// Fault reports a broken invariant of the tree, the pool or the index. The
// engine that returned it must not be used for the rest of the game.
type Fault struct {
	Op     string
	Handle Handle
	Detail string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: node %d: %s", f.Op, f.Handle, f.Detail)
}

func (f *Fault) Unwrap() error {
	return ErrCorrupted
}

// fault panics in builds with the mctsdebug tag.
func fault(op string, h Handle, format string, args ...any) error {
	err := errors.WithStack(&Fault{Op: op, Handle: h, Detail: fmt.Sprintf(format, args...)})
	if strict {
		panic(err)
	}
	return err
}
