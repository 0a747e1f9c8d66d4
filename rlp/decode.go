// Copyright 2025 The Ethwire Authors
// This file is part of Ethwire.
//
// Ethwire is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Ethwire is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Ethwire. If not, see <http://www.gnu.org/licenses/>.

package rlp

import (
	"errors"
	"fmt"
	"io"
)

// Kind represents the kind of value contained in an RLP stream.
type Kind int8

const (
	Byte Kind = iota
	String
	List
)

func (k Kind) String() string {
	switch k {
	case Byte:
		return "Byte"
	case String:
		return "String"
	case List:
		return "List"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

var (
	// EOL is returned when the end of the current list has been reached
	// during streaming. Decoders probe optional trailing fields with it.
	EOL = errors.New("rlp: end of list")

	ErrUnexpectedList   = errors.New("rlp: expected string, got list")
	ErrUnexpectedString = errors.New("rlp: expected list, got string")
	ErrCanonInt         = errors.New("rlp: non-canonical integer format")
	ErrCanonSize        = errors.New("rlp: non-canonical size information")
	ErrValueTooLarge    = errors.New("rlp: value size exceeds available input length")
	ErrUintOverflow     = errors.New("rlp: uint overflow")

	// ErrUnexpectedLength is returned by ListEnd when the declared payload
	// length does not match the bytes actually consumed.
	ErrUnexpectedLength = errors.New("rlp: declared length does not match consumed bytes")
)

// Stream decodes RLP values from a byte slice, one value at a time. It keeps
// an explicit cursor so callers can retain the exact raw sub-slice a value
// was decoded from. The input is only borrowed: returned byte slices alias
// the input and must be copied by callers that retain them.
type Stream struct {
	data  []byte
	pos   int
	ends  []int // absolute end offsets of open lists, innermost last
	scrap [10]int
}

// NewStream creates a stream decoding from data.
func NewStream(data []byte) *Stream {
	s := &Stream{data: data}
	s.ends = s.scrap[:0]
	return s
}

// Offset returns the current cursor position.
func (s *Stream) Offset() int {
	return s.pos
}

// Remaining returns the number of unconsumed input bytes.
func (s *Stream) Remaining() int {
	return len(s.data) - s.pos
}

// limit returns the absolute offset the next value must not run past.
func (s *Stream) limit() int {
	if len(s.ends) > 0 {
		return s.ends[len(s.ends)-1]
	}
	return len(s.data)
}

// Kind returns the kind and payload size of the next value without consuming
// it. At the end of the current list it returns EOL.
func (s *Stream) Kind() (Kind, uint64, error) {
	kind, size, _, err := s.peek()
	return kind, size, err
}

func (s *Stream) peek() (kind Kind, size uint64, hdrLen int, err error) {
	limit := s.limit()
	if s.pos >= limit {
		if len(s.ends) > 0 {
			return 0, 0, 0, EOL
		}
		return 0, 0, 0, io.EOF
	}
	b := s.data[s.pos]
	switch {
	case b < 0x80:
		return Byte, 1, 0, nil
	case b < 0xB8:
		size = uint64(b - 0x80)
		if size == 1 && s.pos+1 < limit && s.data[s.pos+1] < 0x80 {
			return 0, 0, 0, ErrCanonSize
		}
		kind, hdrLen = String, 1
	case b < 0xC0:
		size, hdrLen, err = s.longSize(b - 0xB7)
		kind = String
	case b < 0xF8:
		size = uint64(b - 0xC0)
		kind, hdrLen = List, 1
	default:
		size, hdrLen, err = s.longSize(b - 0xF7)
		kind = List
	}
	if err != nil {
		return 0, 0, 0, err
	}
	if uint64(s.pos+hdrLen)+size > uint64(limit) {
		return 0, 0, 0, ErrValueTooLarge
	}
	return kind, size, hdrLen, nil
}

func (s *Stream) longSize(sizeLen byte) (uint64, int, error) {
	limit := s.limit()
	if s.pos+1+int(sizeLen) > limit {
		return 0, 0, ErrValueTooLarge
	}
	if s.data[s.pos+1] == 0 {
		return 0, 0, ErrCanonSize
	}
	var size uint64
	for _, c := range s.data[s.pos+1 : s.pos+1+int(sizeLen)] {
		size = size<<8 | uint64(c)
	}
	if size < 56 {
		return 0, 0, ErrCanonSize
	}
	return size, 1 + int(sizeLen), nil
}

// List consumes a list header and returns the declared payload length.
// Elements of the list are read with the other stream methods until EOL;
// the caller must finish with ListEnd.
func (s *Stream) List() (uint64, error) {
	kind, size, hdrLen, err := s.peek()
	if err != nil {
		return 0, err
	}
	if kind != List {
		return 0, ErrUnexpectedString
	}
	s.pos += hdrLen
	s.ends = append(s.ends, s.pos+int(size))
	return size, nil
}

// ListEnd closes the innermost list. It is an error to close a list whose
// declared payload has not been fully consumed.
func (s *Stream) ListEnd() error {
	if len(s.ends) == 0 {
		return errors.New("rlp: not in a list")
	}
	end := s.ends[len(s.ends)-1]
	if s.pos != end {
		return ErrUnexpectedLength
	}
	s.ends = s.ends[:len(s.ends)-1]
	return nil
}

// Bytes reads a string value and returns its contents.
func (s *Stream) Bytes() ([]byte, error) {
	kind, size, hdrLen, err := s.peek()
	if err != nil {
		return nil, err
	}
	if kind == List {
		return nil, ErrUnexpectedList
	}
	if kind == Byte {
		b := s.data[s.pos : s.pos+1]
		s.pos++
		return b, nil
	}
	b := s.data[s.pos+hdrLen : s.pos+hdrLen+int(size)]
	s.pos += hdrLen + int(size)
	return b, nil
}

// ReadBytes reads a string value into dst, requiring its size to match
// exactly.
func (s *Stream) ReadBytes(dst []byte) error {
	b, err := s.Bytes()
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("rlp: byte string of wrong size, want %d, got %d", len(dst), len(b))
	}
	copy(dst, b)
	return nil
}

// Uint reads an integer of at most 8 bytes, enforcing canonical encoding.
func (s *Stream) Uint() (uint64, error) {
	b, err := s.uintBytes(8)
	if err != nil {
		return 0, err
	}
	var i uint64
	for _, c := range b {
		i = i<<8 | uint64(c)
	}
	return i, nil
}

// Uint256Bytes reads the payload of an integer of at most 32 bytes, enforcing
// canonical encoding. The result is in big-endian order and may be empty
// (zero value).
func (s *Stream) Uint256Bytes() ([]byte, error) {
	return s.uintBytes(32)
}

func (s *Stream) uintBytes(maxLen int) ([]byte, error) {
	kind, size, hdrLen, err := s.peek()
	if err != nil {
		return nil, err
	}
	switch kind {
	case List:
		return nil, ErrUnexpectedList
	case Byte:
		if s.data[s.pos] == 0 {
			return nil, ErrCanonInt
		}
		b := s.data[s.pos : s.pos+1]
		s.pos++
		return b, nil
	default:
		if int(size) > maxLen {
			return nil, ErrUintOverflow
		}
		b := s.data[s.pos+hdrLen : s.pos+hdrLen+int(size)]
		if len(b) > 0 && b[0] == 0 {
			return nil, ErrCanonInt
		}
		s.pos += hdrLen + int(size)
		return b, nil
	}
}

// Bool reads an integer that must be 0 or 1.
func (s *Stream) Bool() (bool, error) {
	i, err := s.Uint()
	if err != nil {
		return false, err
	}
	if i > 1 {
		return false, fmt.Errorf("rlp: invalid boolean value: %d", i)
	}
	return i == 1, nil
}

// Raw reads the next value, header included, without decoding it.
func (s *Stream) Raw() ([]byte, error) {
	kind, size, hdrLen, err := s.peek()
	if err != nil {
		return nil, err
	}
	total := hdrLen + int(size)
	if kind == Byte {
		total = 1
	}
	b := s.data[s.pos : s.pos+total]
	s.pos += total
	return b, nil
}
