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
	"bytes"
	"errors"
	"fmt"
	"io"

	goethkzg "github.com/crate-crypto/go-eth-kzg"
	"github.com/ethereum/go-ethereum/common"

	"github.com/calaxis/ethwire/crypto/kzg"
	"github.com/calaxis/ethwire/rlp"
)

const (
	// BlobSize is the number of bytes in one blob: 4096 field elements of
	// 32 bytes each.
	BlobSize = 4096 * 32

	// KZGSize is the size of a compressed BLS12-381 G1 element, used for
	// both commitments and proofs.
	KZGSize = 48

	// CellProofsPerBlob is the number of cell proofs covering one blob's
	// extended representation in the v1 sidecar shape.
	CellProofsPerBlob = goethkzg.CellsPerExtBlob

	// SidecarVersionV1 is the version marker of the cell-proof sidecar shape.
	SidecarVersionV1 = byte(1)
)

var (
	// ErrInvalidProof is returned when KZG verification of a sidecar fails.
	ErrInvalidProof = errors.New("invalid KZG proof")

	errUnknownSidecarVersion = errors.New("unknown blob sidecar version")
)

// WrongVersionedHashError is returned when a sidecar commitment does not
// hash to the versioned hash the transaction commits to.
type WrongVersionedHashError struct {
	Have     common.Hash
	Expected common.Hash
}

func (e WrongVersionedHashError) Error() string {
	return fmt.Sprintf("wrong versioned hash: have %x, expected %x", e.Have, e.Expected)
}

type Blob [BlobSize]byte

type KZGCommitment [KZGSize]byte // compressed BLS12-381 G1 element

type KZGProof [KZGSize]byte

// ComputeVersionedHash returns the versioned hash committing to this
// commitment in a blob transaction.
func (c KZGCommitment) ComputeVersionedHash() common.Hash {
	return kzg.KZGToVersionedHash(goethkzg.KZGCommitment(c))
}

type Blobs []Blob

type BlobKzgs []KZGCommitment

type KZGProofs []KZGProof

func (blobs Blobs) payloadSize() int {
	return len(blobs) * (rlp.StringPrefixLen(BlobSize) + BlobSize)
}

func (blobs Blobs) encodePayload(w io.Writer, b []byte) error {
	if err := rlp.EncodeStructSizePrefix(blobs.payloadSize(), w, b); err != nil {
		return err
	}
	for i := range blobs {
		if err := rlp.EncodeString(blobs[i][:], w, b); err != nil {
			return err
		}
	}
	return nil
}

func (blobs *Blobs) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Blobs: %w", err)
	}
	var b []byte
	for b, err = s.Bytes(); err == nil; b, err = s.Bytes() {
		if len(b) != BlobSize {
			return fmt.Errorf("wrong size for Blob: %d", len(b))
		}
		var blob Blob
		copy(blob[:], b)
		*blobs = append(*blobs, blob)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("read Blob: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Blobs: %w", err)
	}
	return nil
}

func (li BlobKzgs) payloadSize() int {
	return 49 * len(li)
}

func (li BlobKzgs) encodePayload(w io.Writer, b []byte) error {
	if err := rlp.EncodeStructSizePrefix(li.payloadSize(), w, b); err != nil {
		return err
	}
	for i := range li {
		if err := rlp.EncodeString(li[i][:], w, b); err != nil {
			return err
		}
	}
	return nil
}

func (li *BlobKzgs) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Commitments: %w", err)
	}
	var b []byte
	for b, err = s.Bytes(); err == nil; b, err = s.Bytes() {
		if len(b) != KZGSize {
			return fmt.Errorf("wrong size for Commitment: %d", len(b))
		}
		var cmtmt KZGCommitment
		copy(cmtmt[:], b)
		*li = append(*li, cmtmt)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("read Commitment: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Commitments: %w", err)
	}
	return nil
}

func (li KZGProofs) payloadSize() int {
	return 49 * len(li)
}

func (li KZGProofs) encodePayload(w io.Writer, b []byte) error {
	if err := rlp.EncodeStructSizePrefix(li.payloadSize(), w, b); err != nil {
		return err
	}
	for i := range li {
		if err := rlp.EncodeString(li[i][:], w, b); err != nil {
			return err
		}
	}
	return nil
}

func (li *KZGProofs) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Proofs: %w", err)
	}
	var b []byte
	for b, err = s.Bytes(); err == nil; b, err = s.Bytes() {
		if len(b) != KZGSize {
			return fmt.Errorf("wrong size for Proof: %d", len(b))
		}
		var proof KZGProof
		copy(proof[:], b)
		*li = append(*li, proof)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("read Proof: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Proofs: %w", err)
	}
	return nil
}

// ComputeCommitmentsAndProofs derives per-blob commitments, versioned hashes
// and proofs for sidecar construction.
func (blobs Blobs) ComputeCommitmentsAndProofs() (commitments BlobKzgs, versionedHashes []common.Hash, proofs KZGProofs, err error) {
	commitments = make(BlobKzgs, len(blobs))
	proofs = make(KZGProofs, len(blobs))
	versionedHashes = make([]common.Hash, len(blobs))

	kzgCtx := kzg.Ctx()
	for i := range blobs {
		blob := goethkzg.Blob(blobs[i])
		commitment, err := kzgCtx.BlobToKZGCommitment(&blob, 1)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("could not convert blob to commitment: %w", err)
		}
		proof, err := kzgCtx.ComputeBlobKZGProof(&blob, commitment, 1)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("could not compute proof for blob: %w", err)
		}
		commitments[i] = KZGCommitment(commitment)
		proofs[i] = KZGProof(proof)
		versionedHashes[i] = kzg.KZGToVersionedHash(commitment)
	}
	return commitments, versionedHashes, proofs, nil
}

// BlobSidecar is the capability interface over the sidecar shapes. Validate
// checks the sidecar against the versioned hashes a blob transaction commits
// to: length checks first, then versioned-hash comparison, then KZG proof
// verification. A sidecar is accepted whole or rejected whole.
type BlobSidecar interface {
	SidecarVersion() byte
	BlobCount() int
	BlobKzgs() BlobKzgs
	Validate(versionedHashes []common.Hash) error
	EncodingSize() int
	EncodeRLP(w io.Writer) error
}

// checkVersionedHashes compares each commitment's versioned hash to the
// expected one, in order.
func checkVersionedHashes(commitments BlobKzgs, versionedHashes []common.Hash) error {
	for i := range commitments {
		if computed := commitments[i].ComputeVersionedHash(); computed != versionedHashes[i] {
			return WrongVersionedHashError{Have: computed, Expected: versionedHashes[i]}
		}
	}
	return nil
}

// BlobTxSidecar is the EIP-4844 sidecar shape: one commitment and one proof
// per blob.
type BlobTxSidecar struct {
	Blobs       Blobs
	Commitments BlobKzgs
	Proofs      KZGProofs
}

func (sc *BlobTxSidecar) SidecarVersion() byte { return 0 }

func (sc *BlobTxSidecar) BlobCount() int { return len(sc.Blobs) }

func (sc *BlobTxSidecar) BlobKzgs() BlobKzgs { return sc.Commitments }

func (sc *BlobTxSidecar) Validate(versionedHashes []common.Hash) error {
	if len(sc.Blobs) == 0 {
		return errors.New("sidecar must contain at least one blob")
	}
	if len(versionedHashes) != len(sc.Commitments) {
		return fmt.Errorf("mismatched versioned hash count: %d hashes, %d commitments",
			len(versionedHashes), len(sc.Commitments))
	}
	if len(sc.Blobs) != len(sc.Commitments) || len(sc.Blobs) != len(sc.Proofs) {
		return fmt.Errorf("mismatched sidecar lengths: %d blobs, %d commitments, %d proofs",
			len(sc.Blobs), len(sc.Commitments), len(sc.Proofs))
	}
	if err := checkVersionedHashes(sc.Commitments, versionedHashes); err != nil {
		return err
	}
	kzgCtx := kzg.Ctx()
	for i := range sc.Blobs {
		blob := goethkzg.Blob(sc.Blobs[i])
		err := kzgCtx.VerifyBlobKZGProof(&blob, goethkzg.KZGCommitment(sc.Commitments[i]), goethkzg.KZGProof(sc.Proofs[i]))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
	}
	return nil
}

func (sc *BlobTxSidecar) payloadSize() int {
	blobsLen := sc.Blobs.payloadSize()
	size := rlp.ListPrefixLen(blobsLen) + blobsLen
	commitmentsLen := sc.Commitments.payloadSize()
	size += rlp.ListPrefixLen(commitmentsLen) + commitmentsLen
	proofsLen := sc.Proofs.payloadSize()
	size += rlp.ListPrefixLen(proofsLen) + proofsLen
	return size
}

func (sc *BlobTxSidecar) EncodingSize() int {
	payloadSize := sc.payloadSize()
	return rlp.ListPrefixLen(payloadSize) + payloadSize
}

func (sc *BlobTxSidecar) EncodeRLP(w io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(sc.payloadSize(), w, b[:]); err != nil {
		return err
	}
	if err := sc.Blobs.encodePayload(w, b[:]); err != nil {
		return err
	}
	if err := sc.Commitments.encodePayload(w, b[:]); err != nil {
		return err
	}
	return sc.Proofs.encodePayload(w, b[:])
}

func (sc *BlobTxSidecar) decodeBody(s *rlp.Stream) error {
	sc.Blobs = Blobs{}
	if err := sc.Blobs.DecodeRLP(s); err != nil {
		return err
	}
	sc.Commitments = BlobKzgs{}
	if err := sc.Commitments.DecodeRLP(s); err != nil {
		return err
	}
	sc.Proofs = KZGProofs{}
	if err := sc.Proofs.DecodeRLP(s); err != nil {
		return err
	}
	if err := s.ListEnd(); err != nil {
		return fmt.Errorf("close BlobTxSidecar: %w", err)
	}
	return nil
}

// BlobTxSidecarV1 is the EIP-7594 sidecar shape: one commitment per blob
// and CellProofsPerBlob cell proofs per blob, covering the erasure-coded
// extension.
type BlobTxSidecarV1 struct {
	Blobs       Blobs
	Commitments BlobKzgs
	CellProofs  KZGProofs
}

func (sc *BlobTxSidecarV1) SidecarVersion() byte { return SidecarVersionV1 }

func (sc *BlobTxSidecarV1) BlobCount() int { return len(sc.Blobs) }

func (sc *BlobTxSidecarV1) BlobKzgs() BlobKzgs { return sc.Commitments }

func (sc *BlobTxSidecarV1) Validate(versionedHashes []common.Hash) error {
	if len(sc.Blobs) == 0 {
		return errors.New("sidecar must contain at least one blob")
	}
	if len(versionedHashes) != len(sc.Commitments) {
		return fmt.Errorf("mismatched versioned hash count: %d hashes, %d commitments",
			len(versionedHashes), len(sc.Commitments))
	}
	if len(sc.Blobs) != len(sc.Commitments) {
		return fmt.Errorf("mismatched sidecar lengths: %d blobs, %d commitments",
			len(sc.Blobs), len(sc.Commitments))
	}
	if len(sc.CellProofs) != len(sc.Blobs)*CellProofsPerBlob {
		return fmt.Errorf("mismatched cell proof count: %d proofs for %d blobs",
			len(sc.CellProofs), len(sc.Blobs))
	}
	if err := checkVersionedHashes(sc.Commitments, versionedHashes); err != nil {
		return err
	}

	kzgCtx := kzg.Ctx()
	commitments := make([]goethkzg.KZGCommitment, 0, len(sc.CellProofs))
	indices := make([]uint64, 0, len(sc.CellProofs))
	cells := make([]*goethkzg.Cell, 0, len(sc.CellProofs))
	proofs := make([]goethkzg.KZGProof, 0, len(sc.CellProofs))
	for i := range sc.Blobs {
		blob := goethkzg.Blob(sc.Blobs[i])
		blobCells, err := kzgCtx.ComputeCells(&blob, 1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProof, err)
		}
		for j := 0; j < CellProofsPerBlob; j++ {
			commitments = append(commitments, goethkzg.KZGCommitment(sc.Commitments[i]))
			indices = append(indices, uint64(j))
			cells = append(cells, blobCells[j])
			proofs = append(proofs, goethkzg.KZGProof(sc.CellProofs[i*CellProofsPerBlob+j]))
		}
	}
	if err := kzgCtx.VerifyCellKZGProofBatch(commitments, indices, cells, proofs); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

func (sc *BlobTxSidecarV1) payloadSize() int {
	size := 1 // version marker
	blobsLen := sc.Blobs.payloadSize()
	size += rlp.ListPrefixLen(blobsLen) + blobsLen
	commitmentsLen := sc.Commitments.payloadSize()
	size += rlp.ListPrefixLen(commitmentsLen) + commitmentsLen
	proofsLen := sc.CellProofs.payloadSize()
	size += rlp.ListPrefixLen(proofsLen) + proofsLen
	return size
}

func (sc *BlobTxSidecarV1) EncodingSize() int {
	payloadSize := sc.payloadSize()
	return rlp.ListPrefixLen(payloadSize) + payloadSize
}

func (sc *BlobTxSidecarV1) EncodeRLP(w io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(sc.payloadSize(), w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(uint64(SidecarVersionV1), w, b[:]); err != nil {
		return err
	}
	if err := sc.Blobs.encodePayload(w, b[:]); err != nil {
		return err
	}
	if err := sc.Commitments.encodePayload(w, b[:]); err != nil {
		return err
	}
	return sc.CellProofs.encodePayload(w, b[:])
}

func (sc *BlobTxSidecarV1) decodeBody(s *rlp.Stream) error {
	sc.Blobs = Blobs{}
	if err := sc.Blobs.DecodeRLP(s); err != nil {
		return err
	}
	sc.Commitments = BlobKzgs{}
	if err := sc.Commitments.DecodeRLP(s); err != nil {
		return err
	}
	sc.CellProofs = KZGProofs{}
	if err := sc.CellProofs.DecodeRLP(s); err != nil {
		return err
	}
	if err := s.ListEnd(); err != nil {
		return fmt.Errorf("close BlobTxSidecarV1: %w", err)
	}
	return nil
}

// DecodeBlobSidecar decodes a sidecar, selecting the shape by the version
// marker following the outer list header: an integer marker selects the
// cell-proof shape, a bare blob list the original one. Trailing bytes are
// an error.
func DecodeBlobSidecar(data []byte) (BlobSidecar, error) {
	s := rlp.NewStream(data)
	sc, err := decodeBlobSidecar(s)
	if err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return sc, nil
}

func decodeBlobSidecar(s *rlp.Stream) (BlobSidecar, error) {
	_, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("open BlobSidecar: %w", err)
	}
	kind, _, err := s.Kind()
	if err != nil {
		return nil, fmt.Errorf("read BlobSidecar version: %w", err)
	}
	if kind == rlp.List {
		sc := &BlobTxSidecar{}
		if err = sc.decodeBody(s); err != nil {
			return nil, err
		}
		return sc, nil
	}
	version, err := s.Uint()
	if err != nil {
		return nil, fmt.Errorf("read BlobSidecar version: %w", err)
	}
	if version != uint64(SidecarVersionV1) {
		return nil, fmt.Errorf("%w: %d", errUnknownSidecarVersion, version)
	}
	sc := &BlobTxSidecarV1{}
	if err = sc.decodeBody(s); err != nil {
		return nil, err
	}
	return sc, nil
}

// MarshalSidecarBinary returns the canonical sidecar encoding.
func MarshalSidecarBinary(sc BlobSidecar) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(sc.EncodingSize())
	if err := sc.EncodeRLP(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
