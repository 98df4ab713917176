// Package stream decodes the research event stream: blank-line framed
// records, each carrying a "data: " prefixed JSON event.
package stream

import (
	"bytes"
	"errors"
	"io"
)

// Delimiter separates records on the wire.
var Delimiter = []byte("\n\n")

const readChunkSize = 4096

// Framer splits arbitrarily chunked input into complete records. Bytes after
// the last delimiter are held until a later Feed completes them.
type Framer struct {
	buf []byte
}

// Feed appends chunk to the carry-over buffer and returns every record that
// is now complete, in order.
func (f *Framer) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)
	var records []string
	for {
		idx := bytes.Index(f.buf, Delimiter)
		if idx < 0 {
			break
		}
		records = append(records, string(f.buf[:idx]))
		f.buf = f.buf[idx+len(Delimiter):]
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return records
}

// Pending reports how many bytes are waiting for a delimiter.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Reset drops any partial record.
func (f *Framer) Reset() {
	f.buf = nil
}

// Decoder yields records from r lazily. An unterminated trailing record is
// dropped when r reaches EOF.
type Decoder struct {
	r       io.Reader
	framer  Framer
	pending []string
	chunk   []byte
	err     error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, chunk: make([]byte, readChunkSize)}
}

// Next returns the next complete record. It returns io.EOF once the reader is
// exhausted and every complete record has been returned.
func (d *Decoder) Next() (string, error) {
	for len(d.pending) == 0 {
		if d.err != nil {
			return "", d.err
		}
		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.pending = append(d.pending, d.framer.Feed(d.chunk[:n])...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.framer.Reset()
				err = io.EOF
			}
			d.err = err
		}
	}
	record := d.pending[0]
	d.pending = d.pending[1:]
	return record, nil
}
