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
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/calaxis/ethwire/rlp"
)

// BlockNonce is the 64-bit proof-of-work nonce. It is always encoded as a
// full 8-byte string, zero included.
type BlockNonce [8]byte

// EncodeNonce converts the given integer to a block nonce.
func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	binary.BigEndian.PutUint64(n[:], i)
	return n
}

func (n BlockNonce) Uint64() uint64 {
	return binary.BigEndian.Uint64(n[:])
}

// Header represents a block header. The fields from BaseFee on form an
// ordered optional tail: each is present on the wire only when set, and a
// field may only be present when all fields before it are.
type Header struct {
	ParentHash  common.Hash
	UncleHash   common.Hash
	Coinbase    common.Address
	Root        common.Hash
	TxHash      common.Hash
	ReceiptHash common.Hash
	Bloom       Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       BlockNonce

	BaseFee               *big.Int     // EIP-1559
	WithdrawalsHash       *common.Hash // EIP-4895
	BlobGasUsed           *uint64      // EIP-4844
	ExcessBlobGas         *uint64      // EIP-4844
	ParentBeaconBlockRoot *common.Hash // EIP-4788
	RequestsHash          *common.Hash // EIP-7685
	BlockAccessListHash   *common.Hash // EIP-7928
}

func (h *Header) EncodingSize() int {
	encodingSize := 33 /* ParentHash */ + 33 /* UncleHash */ + 21 /* Coinbase */ + 33 /* Root */ + 33 /* TxHash */ +
		33 /* ReceiptHash */ + 259 /* Bloom */

	encodingSize += 1 + rlp.BigIntLenExcludingHead(h.Difficulty)
	encodingSize += 1 + rlp.BigIntLenExcludingHead(h.Number)
	encodingSize += 1 + rlp.IntLenExcludingHead(h.GasLimit)
	encodingSize += 1 + rlp.IntLenExcludingHead(h.GasUsed)
	encodingSize += 1 + rlp.IntLenExcludingHead(h.Time)
	encodingSize += rlp.StringLen(h.Extra)
	encodingSize += 33 /* MixDigest */ + 9 /* BlockNonce */

	if h.BaseFee != nil {
		encodingSize += 1 + rlp.BigIntLenExcludingHead(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		encodingSize += 33
	}
	if h.BlobGasUsed != nil {
		encodingSize += 1 + rlp.IntLenExcludingHead(*h.BlobGasUsed)
	}
	if h.ExcessBlobGas != nil {
		encodingSize += 1 + rlp.IntLenExcludingHead(*h.ExcessBlobGas)
	}
	if h.ParentBeaconBlockRoot != nil {
		encodingSize += 33
	}
	if h.RequestsHash != nil {
		encodingSize += 33
	}
	if h.BlockAccessListHash != nil {
		encodingSize += 33
	}
	return encodingSize
}

func (h *Header) EncodeRLP(w io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(h.EncodingSize(), w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&h.ParentHash, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&h.UncleHash, w, b[:]); err != nil {
		return err
	}
	coinbase := h.Coinbase
	if err := rlp.EncodeOptionalAddress(&coinbase, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&h.Root, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&h.TxHash, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&h.ReceiptHash, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeString(h.Bloom[:], w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeBigInt(h.Difficulty, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeBigInt(h.Number, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(h.GasLimit, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(h.GasUsed, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(h.Time, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeString(h.Extra, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&h.MixDigest, w, b[:]); err != nil {
		return err
	}
	b[0] = rlp.EmptyString + 8
	copy(b[1:9], h.Nonce[:])
	if _, err := w.Write(b[:9]); err != nil {
		return err
	}
	if h.BaseFee != nil {
		if err := rlp.EncodeBigInt(h.BaseFee, w, b[:]); err != nil {
			return err
		}
	}
	if h.WithdrawalsHash != nil {
		if err := rlp.EncodeHash(h.WithdrawalsHash, w, b[:]); err != nil {
			return err
		}
	}
	if h.BlobGasUsed != nil {
		if err := rlp.EncodeInt(*h.BlobGasUsed, w, b[:]); err != nil {
			return err
		}
	}
	if h.ExcessBlobGas != nil {
		if err := rlp.EncodeInt(*h.ExcessBlobGas, w, b[:]); err != nil {
			return err
		}
	}
	if h.ParentBeaconBlockRoot != nil {
		if err := rlp.EncodeHash(h.ParentBeaconBlockRoot, w, b[:]); err != nil {
			return err
		}
	}
	if h.RequestsHash != nil {
		if err := rlp.EncodeHash(h.RequestsHash, w, b[:]); err != nil {
			return err
		}
	}
	if h.BlockAccessListHash != nil {
		if err := rlp.EncodeHash(h.BlockAccessListHash, w, b[:]); err != nil {
			return err
		}
	}
	return nil
}

func (h *Header) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open header struct: %w", err)
	}
	if err = s.ReadBytes(h.ParentHash[:]); err != nil {
		return fmt.Errorf("read ParentHash: %w", err)
	}
	if err = s.ReadBytes(h.UncleHash[:]); err != nil {
		return fmt.Errorf("read UncleHash: %w", err)
	}
	if err = s.ReadBytes(h.Coinbase[:]); err != nil {
		return fmt.Errorf("read Coinbase: %w", err)
	}
	if err = s.ReadBytes(h.Root[:]); err != nil {
		return fmt.Errorf("read Root: %w", err)
	}
	if err = s.ReadBytes(h.TxHash[:]); err != nil {
		return fmt.Errorf("read TxHash: %w", err)
	}
	if err = s.ReadBytes(h.ReceiptHash[:]); err != nil {
		return fmt.Errorf("read ReceiptHash: %w", err)
	}
	if err = s.ReadBytes(h.Bloom[:]); err != nil {
		return fmt.Errorf("read Bloom: %w", err)
	}
	var b []byte
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read Difficulty: %w", err)
	}
	h.Difficulty = new(big.Int).SetBytes(b)
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read Number: %w", err)
	}
	h.Number = new(big.Int).SetBytes(b)
	if h.GasLimit, err = s.Uint(); err != nil {
		return fmt.Errorf("read GasLimit: %w", err)
	}
	if h.GasUsed, err = s.Uint(); err != nil {
		return fmt.Errorf("read GasUsed: %w", err)
	}
	if h.Time, err = s.Uint(); err != nil {
		return fmt.Errorf("read Time: %w", err)
	}
	if h.Extra, err = s.Bytes(); err != nil {
		return fmt.Errorf("read Extra: %w", err)
	}
	h.Extra = common.CopyBytes(h.Extra)
	if err = s.ReadBytes(h.MixDigest[:]); err != nil {
		return fmt.Errorf("read MixDigest: %w", err)
	}
	if err = s.ReadBytes(h.Nonce[:]); err != nil {
		return fmt.Errorf("read Nonce: %w", err)
	}

	// The remaining fields form the ordered optional tail; decoding stops
	// at the end of the list.
	if b, err = s.Uint256Bytes(); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read BaseFee: %w", err)
	}
	h.BaseFee = new(big.Int).SetBytes(b)

	var wh common.Hash
	if err = s.ReadBytes(wh[:]); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read WithdrawalsHash: %w", err)
	}
	h.WithdrawalsHash = &wh

	var blobGasUsed uint64
	if blobGasUsed, err = s.Uint(); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read BlobGasUsed: %w", err)
	}
	h.BlobGasUsed = &blobGasUsed

	var excessBlobGas uint64
	if excessBlobGas, err = s.Uint(); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read ExcessBlobGas: %w", err)
	}
	h.ExcessBlobGas = &excessBlobGas

	var beaconRoot common.Hash
	if err = s.ReadBytes(beaconRoot[:]); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read ParentBeaconBlockRoot: %w", err)
	}
	h.ParentBeaconBlockRoot = &beaconRoot

	var requestsHash common.Hash
	if err = s.ReadBytes(requestsHash[:]); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read RequestsHash: %w", err)
	}
	h.RequestsHash = &requestsHash

	var balHash common.Hash
	if err = s.ReadBytes(balHash[:]); err != nil {
		if errors.Is(err, rlp.EOL) {
			return h.closeAfterTail(s)
		}
		return fmt.Errorf("read BlockAccessListHash: %w", err)
	}
	h.BlockAccessListHash = &balHash

	return h.closeAfterTail(s)
}

func (h *Header) closeAfterTail(s *rlp.Stream) error {
	if err := s.ListEnd(); err != nil {
		return fmt.Errorf("close header struct: %w", err)
	}
	return nil
}

// Hash computes the keccak256 hash of the header's RLP encoding, which
// serves as the block's unique identifier.
func (h *Header) Hash() common.Hash {
	hash, _ := encodeHash(h.EncodeRLP)
	return hash
}

// CopyHeader creates a deep copy of a block header.
func CopyHeader(h *Header) *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	cpy.Extra = common.CopyBytes(h.Extra)
	if h.BaseFee != nil {
		cpy.BaseFee = new(big.Int).Set(h.BaseFee)
	}
	if h.WithdrawalsHash != nil {
		wh := *h.WithdrawalsHash
		cpy.WithdrawalsHash = &wh
	}
	if h.BlobGasUsed != nil {
		blobGasUsed := *h.BlobGasUsed
		cpy.BlobGasUsed = &blobGasUsed
	}
	if h.ExcessBlobGas != nil {
		excessBlobGas := *h.ExcessBlobGas
		cpy.ExcessBlobGas = &excessBlobGas
	}
	if h.ParentBeaconBlockRoot != nil {
		beaconRoot := *h.ParentBeaconBlockRoot
		cpy.ParentBeaconBlockRoot = &beaconRoot
	}
	if h.RequestsHash != nil {
		requestsHash := *h.RequestsHash
		cpy.RequestsHash = &requestsHash
	}
	if h.BlockAccessListHash != nil {
		balHash := *h.BlockAccessListHash
		cpy.BlockAccessListHash = &balHash
	}
	return &cpy
}
