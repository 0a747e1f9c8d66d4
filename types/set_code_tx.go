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

	"github.com/calaxis/ethwire/rlp"
)

// SetCodeTx is an EIP-7702 transaction carrying a list of signed delegation
// tuples alongside the usual dynamic-fee fields.
type SetCodeTx struct {
	DynamicFeeTx
	Authorizations []Authorization
}

func (tx *SetCodeTx) Type() byte { return SetCodeTxType }

func (tx *SetCodeTx) GetAuthorizations() []Authorization { return tx.Authorizations }

func (tx *SetCodeTx) copy() Transaction {
	cpy := &SetCodeTx{
		DynamicFeeTx:   *tx.DynamicFeeTx.copy().(*DynamicFeeTx),
		Authorizations: make([]Authorization, len(tx.Authorizations)),
	}
	for i := range tx.Authorizations {
		cpy.Authorizations[i] = tx.Authorizations[i].copy()
	}
	return cpy
}

func (tx *SetCodeTx) payloadSize(sig *Signature) int {
	payloadSize := tx.DynamicFeeTx.fieldsSize()
	authLen := authorizationsSize(tx.Authorizations)
	payloadSize += rlp.ListPrefixLen(authLen) + authLen
	if sig != nil {
		payloadSize += sigPayloadSize(sig)
	}
	return payloadSize
}

func (tx *SetCodeTx) encodePayload(w io.Writer, b []byte, sig *Signature) error {
	if err := rlp.EncodeStructSizePrefix(tx.payloadSize(sig), w, b); err != nil {
		return err
	}
	if err := tx.DynamicFeeTx.encodeFields(w, b); err != nil {
		return err
	}
	if err := rlp.EncodeStructSizePrefix(authorizationsSize(tx.Authorizations), w, b); err != nil {
		return err
	}
	if err := encodeAuthorizations(tx.Authorizations, w, b); err != nil {
		return err
	}
	if sig != nil {
		return encodeSignature(sig, w, b)
	}
	return nil
}

func (tx *SetCodeTx) decodePayload(s *rlp.Stream, sig *Signature) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	if err = tx.DynamicFeeTx.decodeFields(s); err != nil {
		return err
	}
	if tx.To == nil {
		return errors.New("read To: set code transaction cannot be a contract creation")
	}
	tx.Authorizations = []Authorization{}
	if err = decodeAuthorizations(&tx.Authorizations, s); err != nil {
		return err
	}
	if err = decodeSignature(s, sig, true); err != nil {
		return err
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close SetCodeTx: %w", err)
	}
	return nil
}

func (tx *SetCodeTx) SigningHash(chainID *big.Int) common.Hash {
	hash, _ := encodeHash(func(w io.Writer) error {
		var b [33]byte
		b[0] = SetCodeTxType
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		return tx.encodePayload(w, b[:], nil)
	})
	return hash
}
