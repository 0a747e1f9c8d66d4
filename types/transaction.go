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

// Package types contains the consensus wire types: typed transactions,
// blocks, receipts and blob sidecars, with their canonical RLP codecs.
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

// Transaction type discriminants. Legacy transactions carry no discriminant
// on the wire; every other kind is preceded by its type byte.
const (
	LegacyTxType     byte = 0x00
	AccessListTxType byte = 0x01
	DynamicFeeTxType byte = 0x02
	BlobTxType       byte = 0x03
	SetCodeTxType    byte = 0x04
	DepositTxType    byte = 0x7E
)

var (
	ErrTxTypeNotSupported = errors.New("transaction type not supported")
	ErrInvalidSig         = errors.New("invalid transaction v, r, s values")

	// ErrInvalidYParity is returned when a typed transaction's recovery
	// indicator is not a bare parity bit.
	ErrInvalidYParity = errors.New("recovery indicator of a typed transaction must be 0 or 1")
)

// Signature holds the raw signature scalars of a transaction. For typed
// transactions V is a bare parity bit; for legacy transactions it may embed
// a chain id per EIP-155.
type Signature struct {
	V uint256.Int
	R uint256.Int
	S uint256.Int
}

// Transaction is the capability interface over all transaction variants.
// A Transaction value holds unsigned fields only; the signature is bound by
// the Signed wrapper.
type Transaction interface {
	Type() byte
	GetChainID() *uint256.Int
	GetNonce() uint64
	GetTip() *uint256.Int
	GetFeeCap() *uint256.Int
	GetGasLimit() uint64
	GetTo() *common.Address
	GetValue() *uint256.Int
	GetData() []byte
	GetAccessList() AccessList
	GetBlobHashes() []common.Hash
	GetAuthorizations() []Authorization

	// SigningHash returns the digest the sender signs.
	SigningHash(chainID *big.Int) common.Hash

	copy() Transaction

	// payloadSize returns the size of the transaction's field list, without
	// the list prefix and without the envelope. A nil sig selects the
	// unsigned form.
	payloadSize(sig *Signature) int

	// encodePayload writes the field list, prefix included. A nil sig
	// selects the unsigned form.
	encodePayload(w io.Writer, b []byte, sig *Signature) error

	// decodePayload reads the field list, filling sig with the trailing
	// signature fields where the variant carries them.
	decodePayload(s *rlp.Stream, sig *Signature) error
}

// sigPayloadSize is the encoded size of the trailing (V, R, S) fields.
func sigPayloadSize(sig *Signature) int {
	size := 1 + rlp.Uint256LenExcludingHead(&sig.V)
	size += 1 + rlp.Uint256LenExcludingHead(&sig.R)
	size += 1 + rlp.Uint256LenExcludingHead(&sig.S)
	return size
}

func encodeSignature(sig *Signature, w io.Writer, b []byte) error {
	if err := rlp.EncodeUint256(&sig.V, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(&sig.R, w, b); err != nil {
		return err
	}
	return rlp.EncodeUint256(&sig.S, w, b)
}

// decodeSignature reads the trailing (V, R, S) fields. When parityOnly is
// set, a V outside {0, 1} is rejected.
func decodeSignature(s *rlp.Stream, sig *Signature, parityOnly bool) error {
	b, err := s.Uint256Bytes()
	if err != nil {
		return fmt.Errorf("read V: %w", err)
	}
	sig.V.SetBytes(b)
	if parityOnly && sig.V.GtUint64(1) {
		return ErrInvalidYParity
	}
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read R: %w", err)
	}
	sig.R.SetBytes(b)
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read S: %w", err)
	}
	sig.S.SetBytes(b)
	return nil
}

// DecodeTransaction decodes a transaction from its canonical encoding: a
// bare RLP list for legacy transactions, or a type byte followed by an RLP
// list for typed ones. Trailing bytes are an error.
func DecodeTransaction(data []byte) (*Signed, error) {
	if len(data) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if data[0] >= 0xC0 {
		s := rlp.NewStream(data)
		signed, err := decodeLegacy(s)
		if err != nil {
			return nil, err
		}
		if s.Remaining() != 0 {
			return nil, rlp.ErrUnexpectedLength
		}
		return signed, nil
	}
	return decodeTyped(data)
}

// DecodeRLPTransaction decodes one transaction nested inside an enclosing
// list, where typed envelopes appear wrapped in an RLP string.
func DecodeRLPTransaction(s *rlp.Stream) (*Signed, error) {
	kind, _, err := s.Kind()
	if err != nil {
		return nil, err
	}
	if kind == rlp.List {
		return decodeLegacy(s)
	}
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return decodeTyped(data)
}

func decodeLegacy(s *rlp.Stream) (*Signed, error) {
	tx := &LegacyTx{}
	var sig Signature
	if err := tx.decodePayload(s, &sig); err != nil {
		return nil, err
	}
	return IntoSigned(tx, sig), nil
}

// decodeTyped decodes a typed envelope: data[0] is the discriminant, the
// rest is the field list. An unknown discriminant is a hard error, never a
// fallback to legacy.
func decodeTyped(data []byte) (*Signed, error) {
	if len(data) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	var tx Transaction
	switch data[0] {
	case AccessListTxType:
		tx = &AccessListTx{}
	case DynamicFeeTxType:
		tx = &DynamicFeeTx{}
	case BlobTxType:
		tx = &BlobTx{}
	case SetCodeTxType:
		tx = &SetCodeTx{}
	case DepositTxType:
		tx = &DepositTx{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrTxTypeNotSupported, data[0])
	}
	s := rlp.NewStream(data[1:])
	var sig Signature
	if err := tx.decodePayload(s, &sig); err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return IntoSigned(tx, sig), nil
}
