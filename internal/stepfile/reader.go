// Package stepfile provides a byte-addressable, windowed reader over a
// STEP physical-file (ISO-10303-21) encoded file.
package stepfile

import (
	"errors"
	"fmt"
	"io"
)

// bufSize is the size of the forward-scan read window.
const bufSize = 32 * 1024 * 1024

var ErrClosed = errors.New("stepfile: reader closed")

// Reader is a random-access view over a seekable byte sequence. It keeps a
// forward-scan buffer for the common case (sequential lexing) and falls
// back to direct reads at the source for out-of-window random access.
type Reader struct {
	src    io.ReaderAt
	size   int64
	buf    []byte
	bufOff int64 // absolute offset of buf[0]
	bufLen int
	pos    int64 // absolute cursor position
	EOF    bool
}

// New wraps src (total length size) in a windowed Reader positioned at 0.
func New(src io.ReaderAt, size int64) (*Reader, error) {
	r := &Reader{src: src, size: size}
	if err := r.fill(0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("stepfile: initial read: %w", err)
	}
	return r, nil
}

// fill reads a fresh window starting at absolute offset off.
func (r *Reader) fill(off int64) error {
	if off >= r.size {
		r.bufOff = off
		r.bufLen = 0
		r.EOF = true
		return io.EOF
	}
	want := bufSize
	if int64(want) > r.size-off {
		want = int(r.size - off)
	}
	if r.buf == nil || len(r.buf) < want {
		r.buf = make([]byte, want)
	}
	n, err := r.src.ReadAt(r.buf[:want], off)
	r.bufOff = off
	r.bufLen = n
	r.EOF = n == 0
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// inWindow reports whether absolute offset off is within the current buffer.
func (r *Reader) inWindow(off int64) bool {
	return off >= r.bufOff && off < r.bufOff+int64(r.bufLen)
}

// Peek returns the byte under the cursor without advancing it.
func (r *Reader) Peek() (byte, error) {
	if !r.inWindow(r.pos) {
		if err := r.fill(r.pos); err != nil {
			return 0, err
		}
	}
	if !r.inWindow(r.pos) {
		return 0, io.EOF
	}
	return r.buf[r.pos-r.bufOff], nil
}

// Advance moves the cursor forward one byte, refilling the window if needed.
func (r *Reader) Advance() {
	r.pos++
	if !r.inWindow(r.pos) && r.pos < r.size {
		_ = r.fill(r.pos)
	} else if r.pos >= r.size {
		r.EOF = true
	}
}

// Tell returns the current absolute cursor position.
func (r *Reader) Tell() int64 { return r.pos }

// Seek moves the cursor to an absolute offset, refilling the window only
// when the target falls outside it.
func (r *Reader) Seek(offset int64) {
	r.pos = offset
	if offset >= r.size {
		r.EOF = true
		return
	}
	if !r.inWindow(offset) {
		_ = r.fill(offset)
	}
	r.EOF = false
}

// ReadAt returns the byte at an arbitrary offset without disturbing the
// forward cursor. It is idempotent: repeated calls with the same offset
// return the same byte and leave Tell()/Peek() unaffected.
func (r *Reader) ReadAt(offset int64) (byte, error) {
	if r.inWindow(offset) {
		return r.buf[offset-r.bufOff], nil
	}
	if offset >= r.size {
		return 0, io.EOF
	}
	var b [1]byte
	if _, err := r.src.ReadAt(b[:], offset); err != nil {
		return 0, err
	}
	return b[0], nil
}

// Size returns the total length of the underlying byte sequence.
func (r *Reader) Size() int64 { return r.size }
