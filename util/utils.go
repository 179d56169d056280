package util

import (
	"io"

	"github.com/dustin/go-humanize"
)

/*
Package util contains small helpers shared by the command line and the server.
*/

////////////////////////////////////////////////////////////////////////////////

// HumanBytes renders a byte count with binary units, e.g. "64 MiB".
func HumanBytes(n uint64) string {
	return humanize.IBytes(n)
}

// CountingWriter counts the bytes written through it.
type CountingWriter struct {
	w     io.Writer
	count int64
}

// NewCountingWriter wraps w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.count += int64(n)
	return n, err
}

// Count returns the number of bytes written so far.
func (c *CountingWriter) Count() int64 {
	return c.count
}
