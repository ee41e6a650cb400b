package util

import (
	"errors"
	"io"
	"io/fs"
	"net"
	"os"
)

// DefaultBufSize is the read chunk size used for engine streams.  Engine
// output is line oriented and rarely exceeds a few KiB per burst.
const DefaultBufSize = 4 * 1024

// IsClosedErr reports whether err is what a reader or writer returns
// once the other side (or we ourselves) closed the stream.  Such errors
// mark the normal end of an engine connection rather than a failure.
func IsClosedErr(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, fs.ErrClosed) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
