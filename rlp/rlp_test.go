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
	"bytes"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeIntRoundTrip(t *testing.T) {
	for _, i := range []uint64{0, 1, 127, 128, 255, 256, 0xFFFF, 1 << 20, 1<<63 + 17} {
		var buf bytes.Buffer
		var b [33]byte
		require.NoError(t, EncodeInt(i, &buf, b[:]))
		require.Equal(t, 1+IntLenExcludingHead(i), buf.Len())

		s := NewStream(buf.Bytes())
		got, err := s.Uint()
		require.NoError(t, err)
		assert.Equal(t, i, got)
		assert.Equal(t, 0, s.Remaining())
	}
}

func TestEncodeIntKnownValues(t *testing.T) {
	cases := []struct {
		i    uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x80}},
		{1024, []byte{0x82, 0x04, 0x00}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		var b [33]byte
		require.NoError(t, EncodeInt(c.i, &buf, b[:]))
		assert.Equal(t, c.want, buf.Bytes())
	}
}

func TestEncodeStringRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 2, 55, 56, 100, 1000} {
		payload := make([]byte, size)
		for i := range payload {
			payload[i] = byte(i + 1)
		}
		var buf bytes.Buffer
		var b [33]byte
		require.NoError(t, EncodeString(payload, &buf, b[:]))
		require.Equal(t, StringLen(payload), buf.Len())

		s := NewStream(buf.Bytes())
		got, err := s.Bytes()
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	}
}

func TestSingleByteStringHasNoPrefix(t *testing.T) {
	var buf bytes.Buffer
	var b [33]byte
	require.NoError(t, EncodeString([]byte{0x7F}, &buf, b[:]))
	assert.Equal(t, []byte{0x7F}, buf.Bytes())
}

func TestEncodeBigInt(t *testing.T) {
	for _, i := range []*big.Int{nil, big.NewInt(0), big.NewInt(1), big.NewInt(127), big.NewInt(128), big.NewInt(1 << 40)} {
		var buf bytes.Buffer
		var b [33]byte
		require.NoError(t, EncodeBigInt(i, &buf, b[:]))
		require.Equal(t, 1+BigIntLenExcludingHead(i), buf.Len())

		s := NewStream(buf.Bytes())
		got, err := s.Uint()
		require.NoError(t, err)
		if i == nil {
			assert.Zero(t, got)
		} else {
			assert.Equal(t, i.Uint64(), got)
		}
	}
}

func TestEncodeUint256MatchesEncodeInt(t *testing.T) {
	for _, i := range []uint64{0, 1, 127, 128, 1 << 40} {
		var intBuf, u256Buf bytes.Buffer
		var b [33]byte
		require.NoError(t, EncodeInt(i, &intBuf, b[:]))
		require.NoError(t, EncodeUint256(uint256.NewInt(i), &u256Buf, b[:]))
		assert.Equal(t, intBuf.Bytes(), u256Buf.Bytes())
	}
}

func TestListRoundTrip(t *testing.T) {
	// [[1, 2], "cat"]
	var inner, outer bytes.Buffer
	var b [33]byte
	require.NoError(t, EncodeInt(1, &inner, b[:]))
	require.NoError(t, EncodeInt(2, &inner, b[:]))

	innerSize := inner.Len()
	payloadSize := ListPrefixLen(innerSize) + innerSize + StringLen([]byte("cat"))
	require.NoError(t, EncodeStructSizePrefix(payloadSize, &outer, b[:]))
	require.NoError(t, EncodeStructSizePrefix(innerSize, &outer, b[:]))
	outer.Write(inner.Bytes())
	require.NoError(t, EncodeString([]byte("cat"), &outer, b[:]))

	s := NewStream(outer.Bytes())
	_, err := s.List()
	require.NoError(t, err)
	_, err = s.List()
	require.NoError(t, err)
	one, err := s.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), one)
	two, err := s.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), two)
	_, err = s.Uint()
	assert.ErrorIs(t, err, EOL)
	require.NoError(t, s.ListEnd())
	cat, err := s.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte("cat"), cat)
	require.NoError(t, s.ListEnd())
	assert.Equal(t, 0, s.Remaining())
}

func TestNonCanonicalInt(t *testing.T) {
	// zero must be the empty string, not 0x00
	s := NewStream([]byte{0x00})
	_, err := s.Uint()
	assert.ErrorIs(t, err, ErrCanonInt)

	// leading zero byte
	s = NewStream([]byte{0x82, 0x00, 0x01})
	_, err = s.Uint()
	assert.ErrorIs(t, err, ErrCanonInt)
}

func TestNonCanonicalSize(t *testing.T) {
	// single byte below 128 must not carry a string prefix
	s := NewStream([]byte{0x81, 0x05})
	_, err := s.Bytes()
	assert.ErrorIs(t, err, ErrCanonSize)

	// long form used for a short size
	s = NewStream(append([]byte{0xB8, 0x01}, 0x99))
	_, err = s.Bytes()
	assert.ErrorIs(t, err, ErrCanonSize)

	// leading zero in long size
	s = NewStream(append([]byte{0xB9, 0x00, 0x38}, make([]byte, 56)...))
	_, err = s.Bytes()
	assert.ErrorIs(t, err, ErrCanonSize)
}

func TestTruncatedValue(t *testing.T) {
	s := NewStream([]byte{0x83, 0x01, 0x02})
	_, err := s.Bytes()
	assert.ErrorIs(t, err, ErrValueTooLarge)

	// element running past its enclosing list end
	s = NewStream([]byte{0xC2, 0x83, 0x01})
	_, err = s.List()
	require.NoError(t, err)
	_, err = s.Bytes()
	assert.ErrorIs(t, err, ErrValueTooLarge)
}

func TestUintOverflow(t *testing.T) {
	payload := make([]byte, 9)
	payload[0] = 0x01
	var buf bytes.Buffer
	var b [33]byte
	require.NoError(t, EncodeString(payload, &buf, b[:]))

	s := NewStream(buf.Bytes())
	_, err := s.Uint()
	assert.ErrorIs(t, err, ErrUintOverflow)
}

func TestListEndMismatch(t *testing.T) {
	// list declares 2 payload bytes, we consume only 1
	s := NewStream([]byte{0xC2, 0x01, 0x02})
	_, err := s.List()
	require.NoError(t, err)
	_, err = s.Uint()
	require.NoError(t, err)
	assert.ErrorIs(t, s.ListEnd(), ErrUnexpectedLength)
}

func TestKindDoesNotConsume(t *testing.T) {
	s := NewStream([]byte{0xC1, 0x01})
	kind, size, err := s.Kind()
	require.NoError(t, err)
	assert.Equal(t, List, kind)
	assert.Equal(t, uint64(1), size)
	assert.Equal(t, 0, s.Offset())
}

func TestRaw(t *testing.T) {
	var buf bytes.Buffer
	var b [33]byte
	require.NoError(t, EncodeString([]byte("dog"), &buf, b[:]))
	require.NoError(t, EncodeInt(7, &buf, b[:]))

	s := NewStream(buf.Bytes())
	raw, err := s.Raw()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x83, 'd', 'o', 'g'}, raw)
	i, err := s.Uint()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), i)
}

func TestAppendInt(t *testing.T) {
	assert.Equal(t, []byte{0x80}, AppendInt(nil, 0))
	assert.Equal(t, []byte{0x05}, AppendInt(nil, 5))
	assert.Equal(t, []byte{0x81, 0x80}, AppendInt(nil, 128))
	assert.Equal(t, []byte{0x82, 0x01, 0x00}, AppendInt(nil, 256))
}
