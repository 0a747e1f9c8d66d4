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

package types

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// BloomByteLength is the number of bytes in a block's log bloom.
	BloomByteLength = 256

	BloomBitLength = 8 * BloomByteLength
)

// Bloom is the 2048-bit log bloom of a block.
type Bloom [BloomByteLength]byte

// add sets the three bloom bits derived from d, using hashbuf as a 6-byte
// scratch buffer.
func (b *Bloom) add(d []byte, hashbuf []byte) {
	sha := hasherPool.Get().(crypto.KeccakState)
	sha.Reset()
	//nolint:errcheck
	sha.Write(d)
	//nolint:errcheck
	sha.Read(hashbuf)
	hasherPool.Put(sha)
	for i := 0; i < 6; i += 2 {
		bit := binary.BigEndian.Uint16(hashbuf[i:]) & 0x7ff
		b[BloomByteLength-1-bit/8] |= byte(1 << (bit % 8))
	}
}

// Test reports whether the three bits derived from d are all set.
func (b Bloom) Test(d []byte) bool {
	var hashbuf [6]byte
	sha := hasherPool.Get().(crypto.KeccakState)
	sha.Reset()
	//nolint:errcheck
	sha.Write(d)
	//nolint:errcheck
	sha.Read(hashbuf[:])
	hasherPool.Put(sha)
	for i := 0; i < 6; i += 2 {
		bit := binary.BigEndian.Uint16(hashbuf[i:]) & 0x7ff
		if b[BloomByteLength-1-bit/8]&byte(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// LogsBloom returns the bloom of the given logs: each log contributes its
// address and every topic.
func LogsBloom(logs Logs) Bloom {
	var bloom Bloom
	var hashbuf [6]byte
	for _, l := range logs {
		bloom.add(l.Address[:], hashbuf[:])
		for _, topic := range l.Topics {
			bloom.add(topic[:], hashbuf[:])
		}
	}
	return bloom
}

// CreateBloom returns the combined bloom of all logs in the given receipts.
func CreateBloom(receipts Receipts) Bloom {
	var bloom Bloom
	var hashbuf [6]byte
	for _, receipt := range receipts {
		for _, l := range receipt.Logs {
			bloom.add(l.Address[:], hashbuf[:])
			for _, topic := range l.Topics {
				bloom.add(topic[:], hashbuf[:])
			}
		}
	}
	return bloom
}
