package binary

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// ErrOverflow is returned when a LEB128 value runs past its width.
var ErrOverflow = errors.New("leb128: overflow")

var errInvalidName = errors.New("invalid UTF-8 in name")

// Reader consumes module primitives from a byte slice. Positions are
// absolute so errors from nested blocks point into the whole module.
type Reader struct {
	data []byte
	pos  int
	base int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the absolute offset of the next unread byte.
func (r *Reader) Position() int { return r.base + r.pos }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.data) - r.pos }

func (r *Reader) ReadByte() (byte, error) {
	if r.Len() == 0 {
		return 0, io.EOF
	}
	r.pos++
	return r.data[r.pos-1], nil
}

// ReadBytes returns the next n bytes without copying.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	start := r.pos
	r.pos += n
	return r.data[start:r.pos], nil
}

// ReadBlock reads a u32 length and returns a Reader over that many bytes.
func (r *Reader) ReadBlock() (*Reader, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	base := r.Position()
	data, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	return &Reader{data: data, base: base}, nil
}

// leb reads at most ceil(bits/7) LEB128 groups. It returns the raw
// accumulated value, the shift reached and the last byte read.
func (r *Reader) leb(bits uint) (uint64, uint, byte, error) {
	var (
		v     uint64
		shift uint
	)
	limit := (bits + 6) / 7 * 7
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, 0, 0, err
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			return v, shift, b, nil
		}
		if shift >= limit {
			return 0, 0, 0, r.wrapError(ErrOverflow)
		}
	}
}

func (r *Reader) ReadU32() (uint32, error) {
	v, _, _, err := r.leb(32)
	return uint32(v), err
}

func (r *Reader) ReadU64() (uint64, error) {
	v, _, _, err := r.leb(64)
	return v, err
}

func (r *Reader) ReadS32() (int32, error) {
	v, err := r.signed(32)
	return int32(v), err
}

func (r *Reader) ReadS64() (int64, error) {
	return r.signed(64)
}

func (r *Reader) signed(bits uint) (int64, error) {
	v, shift, last, err := r.leb(bits)
	if err != nil {
		return 0, err
	}
	if shift < 64 && last&0x40 != 0 {
		v |= ^uint64(0) << shift
	}
	return int64(v), nil
}

func (r *Reader) ReadF32() (float32, error) {
	bits, err := r.ReadU32LE()
	return math.Float32frombits(bits), err
}

func (r *Reader) ReadF64() (float64, error) {
	buf, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// ReadName reads a length-prefixed UTF-8 string.
func (r *Reader) ReadName() (string, error) {
	block, err := r.ReadBlock()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(block.data) {
		return "", block.wrapError(errInvalidName)
	}
	return string(block.data), nil
}

// ReadU32LE reads a fixed-width little-endian uint32.
func (r *Reader) ReadU32LE() (uint32, error) {
	buf, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at position %d: %w", r.Position(), err)
}

// ParseError carries the section and absolute position of a decode failure.
type ParseError struct {
	Err      error
	Section  string
	Position int
}

func (e *ParseError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("wasm: at position %d: %v", e.Position, e.Err)
	}
	return fmt.Sprintf("wasm: %s at position %d: %v", e.Section, e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WrapError attaches section and the current position to err.
func (r *Reader) WrapError(section string, err error) error {
	return &ParseError{Err: err, Section: section, Position: r.Position()}
}
