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

// Package rlp implements the RLP wire primitive: length-prefixed string and
// list encoding with minimal-byte-length ("canonical") integers.
//
// General design:
//   - size functions are pure and cheap, it's fine to call them several times
//     while encoding one large object
//   - encode functions write to an io.Writer and use the caller's scratch
//     buffer b (at least 33 bytes) for prefixes and small values
//   - the Stream decoder operates on a byte slice and tracks its position,
//     so callers can recover the exact raw sub-slice a value was decoded from
package rlp

import (
	"encoding/binary"
	"io"
	"math/big"
	"math/bits"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// EmptyString is the encoding of a zero-length string.
const EmptyString = 0x80

// EmptyList is the encoding of a zero-length list.
const EmptyList = 0xC0

// ListPrefixLen returns the number of bytes the list prefix occupies for a
// payload of dataLen bytes.
func ListPrefixLen(dataLen int) int {
	if dataLen >= 56 {
		return 1 + (bits.Len64(uint64(dataLen))+7)/8
	}
	return 1
}

// IntLenExcludingHead returns the payload size of an integer, excluding the
// one-byte head. Values below 128 fit entirely in the head.
func IntLenExcludingHead(i uint64) int {
	if i < 128 {
		return 0
	}
	return (bits.Len64(i) + 7) / 8
}

// BigIntLenExcludingHead is IntLenExcludingHead for big.Int values.
func BigIntLenExcludingHead(i *big.Int) int {
	if i == nil || i.BitLen() < 8 {
		return 0
	}
	return (i.BitLen() + 7) / 8
}

// Uint256LenExcludingHead is IntLenExcludingHead for uint256 values.
func Uint256LenExcludingHead(i *uint256.Int) int {
	if i == nil || i.LtUint64(128) {
		return 0
	}
	return (i.BitLen() + 7) / 8
}

// StringPrefixLen returns the number of bytes the string prefix occupies for
// a payload of dataLen bytes. Single bytes below 128 are not covered: they
// carry no prefix at all.
func StringPrefixLen(dataLen int) int {
	if dataLen >= 56 {
		return 1 + (bits.Len64(uint64(dataLen))+7)/8
	}
	return 1
}

// StringLen returns the full encoded size of a byte string, including its head.
func StringLen(s []byte) int {
	switch n := len(s); {
	case n == 1 && s[0] < 128:
		return 1
	case n < 56:
		return 1 + n
	default:
		return 1 + (bits.Len64(uint64(n))+7)/8 + n
	}
}

func encodeSizePrefix(size int, base byte, w io.Writer, b []byte) error {
	if size >= 56 {
		beLen := (bits.Len64(uint64(size)) + 7) / 8
		b[0] = base + 55 + byte(beLen)
		binary.BigEndian.PutUint64(b[1:9], uint64(size))
		copy(b[1:1+beLen], b[9-beLen:9])
		_, err := w.Write(b[:1+beLen])
		return err
	}
	b[0] = base + byte(size)
	_, err := w.Write(b[:1])
	return err
}

// EncodeStructSizePrefix writes a list prefix for a payload of the given size.
func EncodeStructSizePrefix(size int, w io.Writer, b []byte) error {
	return encodeSizePrefix(size, 0xC0, w, b)
}

// EncodeStringSizePrefix writes a string prefix for a payload of the given
// size. Used to wrap typed-transaction envelopes when they are nested inside
// an enclosing list.
func EncodeStringSizePrefix(size int, w io.Writer, b []byte) error {
	return encodeSizePrefix(size, 0x80, w, b)
}

// EncodeInt writes the canonical encoding of i.
func EncodeInt(i uint64, w io.Writer, b []byte) error {
	if i == 0 {
		b[0] = EmptyString
		_, err := w.Write(b[:1])
		return err
	}
	if i < 128 {
		b[0] = byte(i)
		_, err := w.Write(b[:1])
		return err
	}
	beLen := (bits.Len64(i) + 7) / 8
	b[0] = EmptyString + byte(beLen)
	binary.BigEndian.PutUint64(b[1:], i)
	copy(b[1:], b[9-beLen:9])
	_, err := w.Write(b[:1+beLen])
	return err
}

// EncodeBigInt writes the canonical encoding of i. nil encodes as zero.
func EncodeBigInt(i *big.Int, w io.Writer, b []byte) error {
	if i == nil || i.BitLen() == 0 {
		b[0] = EmptyString
		_, err := w.Write(b[:1])
		return err
	}
	if i.BitLen() < 8 {
		b[0] = byte(i.Uint64())
		_, err := w.Write(b[:1])
		return err
	}
	beLen := (i.BitLen() + 7) / 8
	b[0] = EmptyString + byte(beLen)
	i.FillBytes(b[1 : 1+beLen])
	_, err := w.Write(b[:1+beLen])
	return err
}

// EncodeUint256 writes the canonical encoding of i. nil encodes as zero.
func EncodeUint256(i *uint256.Int, w io.Writer, b []byte) error {
	if i == nil {
		b[0] = EmptyString
		_, err := w.Write(b[:1])
		return err
	}
	return i.EncodeRLP(w)
}

// EncodeString writes the string encoding of s.
func EncodeString(s []byte, w io.Writer, b []byte) error {
	if len(s) == 1 && s[0] < 128 {
		_, err := w.Write(s)
		return err
	}
	if err := EncodeStringSizePrefix(len(s), w, b); err != nil {
		return err
	}
	_, err := w.Write(s)
	return err
}

// EncodeOptionalAddress writes addr as a 20-byte string, or the empty string
// when addr is nil.
func EncodeOptionalAddress(addr *common.Address, w io.Writer, b []byte) error {
	if addr == nil {
		b[0] = EmptyString
	} else {
		b[0] = EmptyString + 20
	}
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	if addr != nil {
		if _, err := w.Write(addr[:]); err != nil {
			return err
		}
	}
	return nil
}

// EncodeHash writes h as a 32-byte string.
func EncodeHash(h *common.Hash, w io.Writer, b []byte) error {
	b[0] = EmptyString + 32
	if _, err := w.Write(b[:1]); err != nil {
		return err
	}
	_, err := w.Write(h[:])
	return err
}

// AppendInt appends the canonical encoding of i to buf and returns the
// extended slice. Used for trie index keys.
func AppendInt(buf []byte, i uint64) []byte {
	if i == 0 {
		return append(buf, EmptyString)
	}
	if i < 128 {
		return append(buf, byte(i))
	}
	beLen := (bits.Len64(i) + 7) / 8
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], i)
	buf = append(buf, EmptyString+byte(beLen))
	return append(buf, be[8-beLen:]...)
}
