package makefoods

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/davecgh/go-spew/spew"
)

// Dump pretty-prints values to stderr prefixed with the caller's position.
func Dump(v ...any) {
	fdump(os.Stderr, 2, v...)
}

// Fdump is Dump with an explicit writer.
func Fdump(w io.Writer, v ...any) {
	fdump(w, 2, v...)
}

func fdump(w io.Writer, skip int, v ...any) {
	_, file, line, _ := runtime.Caller(skip)
	args := append([]any{fmt.Sprintf("%s:%d:", file, line)}, v...)
	spew.Fdump(w, args...)
}
