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

// Package kzg wraps the KZG cryptography used for blob commitments.
package kzg

import (
	"crypto/sha256"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// BlobCommitmentVersionKZG is the version byte of a KZG versioned hash.
	BlobCommitmentVersionKZG uint8 = 0x01
)

var (
	kzgCtx     *goethkzg.Context
	kzgCtxOnce sync.Once
)

// Ctx returns the KZG verification context, loading the embedded trusted
// setup on first use.
func Ctx() *goethkzg.Context {
	kzgCtxOnce.Do(func() {
		var err error
		kzgCtx, err = goethkzg.NewContext4096Secure()
		if err != nil {
			panic(err)
		}
	})
	return kzgCtx
}

// KZGToVersionedHash implements kzg_to_versioned_hash from EIP-4844:
// sha256 of the commitment with the first byte replaced by the version.
func KZGToVersionedHash(kzg goethkzg.KZGCommitment) common.Hash {
	h := common.Hash(sha256.Sum256(kzg[:]))
	h[0] = BlobCommitmentVersionKZG
	return h
}
