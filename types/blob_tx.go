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
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/calaxis/ethwire/rlp"
)

// BlobTx is an EIP-4844 blob-carrying transaction. The consensus encoding
// references blobs through their versioned hashes only; the blob payloads
// travel separately as a sidecar.
type BlobTx struct {
	DynamicFeeTx
	MaxFeePerBlobGas    *uint256.Int
	BlobVersionedHashes []common.Hash
}

func (tx *BlobTx) Type() byte { return BlobTxType }

func (tx *BlobTx) GetBlobHashes() []common.Hash { return tx.BlobVersionedHashes }

func (tx *BlobTx) copy() Transaction {
	cpy := &BlobTx{
		DynamicFeeTx:        *tx.DynamicFeeTx.copy().(*DynamicFeeTx),
		MaxFeePerBlobGas:    new(uint256.Int),
		BlobVersionedHashes: make([]common.Hash, len(tx.BlobVersionedHashes)),
	}
	if tx.MaxFeePerBlobGas != nil {
		cpy.MaxFeePerBlobGas.Set(tx.MaxFeePerBlobGas)
	}
	copy(cpy.BlobVersionedHashes, tx.BlobVersionedHashes)
	return cpy
}

func blobVersionedHashesSize(hashes []common.Hash) int {
	return 33 * len(hashes)
}

func encodeBlobVersionedHashes(hashes []common.Hash, w io.Writer, b []byte) error {
	for i := 0; i < len(hashes); i++ {
		if err := rlp.EncodeHash(&hashes[i], w, b); err != nil {
			return err
		}
	}
	return nil
}

func decodeBlobVersionedHashes(hashes *[]common.Hash, s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open BlobVersionedHashes: %w", err)
	}
	var hash common.Hash
	for err = s.ReadBytes(hash[:]); err == nil; err = s.ReadBytes(hash[:]) {
		*hashes = append(*hashes, hash)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("read BlobVersionedHash: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close BlobVersionedHashes: %w", err)
	}
	return nil
}

func (tx *BlobTx) payloadSize(sig *Signature) int {
	payloadSize := tx.DynamicFeeTx.fieldsSize()
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.MaxFeePerBlobGas)
	hashesLen := blobVersionedHashesSize(tx.BlobVersionedHashes)
	payloadSize += rlp.ListPrefixLen(hashesLen) + hashesLen
	if sig != nil {
		payloadSize += sigPayloadSize(sig)
	}
	return payloadSize
}

func (tx *BlobTx) encodePayload(w io.Writer, b []byte, sig *Signature) error {
	if err := rlp.EncodeStructSizePrefix(tx.payloadSize(sig), w, b); err != nil {
		return err
	}
	if err := tx.DynamicFeeTx.encodeFields(w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.MaxFeePerBlobGas, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeStructSizePrefix(blobVersionedHashesSize(tx.BlobVersionedHashes), w, b); err != nil {
		return err
	}
	if err := encodeBlobVersionedHashes(tx.BlobVersionedHashes, w, b); err != nil {
		return err
	}
	if sig != nil {
		return encodeSignature(sig, w, b)
	}
	return nil
}

func (tx *BlobTx) decodePayload(s *rlp.Stream, sig *Signature) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	if err = tx.DynamicFeeTx.decodeFields(s); err != nil {
		return err
	}
	if tx.To == nil {
		return errors.New("read To: blob transaction cannot be a contract creation")
	}
	var b []byte
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read MaxFeePerBlobGas: %w", err)
	}
	tx.MaxFeePerBlobGas = new(uint256.Int).SetBytes(b)
	tx.BlobVersionedHashes = []common.Hash{}
	if err = decodeBlobVersionedHashes(&tx.BlobVersionedHashes, s); err != nil {
		return err
	}
	if err = decodeSignature(s, sig, true); err != nil {
		return err
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close BlobTx: %w", err)
	}
	return nil
}

func (tx *BlobTx) SigningHash(chainID *big.Int) common.Hash {
	hash, _ := encodeHash(func(w io.Writer) error {
		var b [33]byte
		b[0] = BlobTxType
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		return tx.encodePayload(w, b[:], nil)
	})
	return hash
}
