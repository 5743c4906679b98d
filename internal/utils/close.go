package utils

import "io"

// Close closes c and drops the error. For deferred cleanup of response
// bodies and files that were only read.
func Close(c io.Closer) {
	_ = c.Close()
}
