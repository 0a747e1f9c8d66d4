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
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/calaxis/ethwire/rlp"
)

// DynamicFeeTx is an EIP-1559 transaction. It replaces the single gas price
// with a priority fee (Tip) and a fee cap.
type DynamicFeeTx struct {
	ChainID    *uint256.Int
	Nonce      uint64
	Tip        *uint256.Int
	FeeCap     *uint256.Int
	GasLimit   uint64
	To         *common.Address // nil means contract creation
	Value      *uint256.Int
	Data       []byte
	AccessList AccessList
}

func (tx *DynamicFeeTx) Type() byte { return DynamicFeeTxType }

func (tx *DynamicFeeTx) GetChainID() *uint256.Int { return tx.ChainID }

func (tx *DynamicFeeTx) GetNonce() uint64 { return tx.Nonce }

func (tx *DynamicFeeTx) GetTip() *uint256.Int { return tx.Tip }

func (tx *DynamicFeeTx) GetFeeCap() *uint256.Int { return tx.FeeCap }

func (tx *DynamicFeeTx) GetGasLimit() uint64 { return tx.GasLimit }

func (tx *DynamicFeeTx) GetTo() *common.Address { return tx.To }

func (tx *DynamicFeeTx) GetValue() *uint256.Int { return tx.Value }

func (tx *DynamicFeeTx) GetData() []byte { return tx.Data }

func (tx *DynamicFeeTx) GetAccessList() AccessList { return tx.AccessList }

func (tx *DynamicFeeTx) GetBlobHashes() []common.Hash { return nil }

func (tx *DynamicFeeTx) GetAuthorizations() []Authorization { return nil }

func (tx *DynamicFeeTx) copy() Transaction {
	cpy := &DynamicFeeTx{
		ChainID:    new(uint256.Int),
		Nonce:      tx.Nonce,
		Tip:        new(uint256.Int),
		FeeCap:     new(uint256.Int),
		GasLimit:   tx.GasLimit,
		Value:      new(uint256.Int),
		Data:       common.CopyBytes(tx.Data),
		AccessList: tx.AccessList.copy(),
	}
	if tx.To != nil {
		to := *tx.To
		cpy.To = &to
	}
	if tx.ChainID != nil {
		cpy.ChainID.Set(tx.ChainID)
	}
	if tx.Tip != nil {
		cpy.Tip.Set(tx.Tip)
	}
	if tx.FeeCap != nil {
		cpy.FeeCap.Set(tx.FeeCap)
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	return cpy
}

func (tx *DynamicFeeTx) fieldsSize() int {
	payloadSize := 1 + rlp.Uint256LenExcludingHead(tx.ChainID)
	payloadSize += 1 + rlp.IntLenExcludingHead(tx.Nonce)
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.Tip)
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.FeeCap)
	payloadSize += 1 + rlp.IntLenExcludingHead(tx.GasLimit)
	payloadSize++
	if tx.To != nil {
		payloadSize += 20
	}
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.Value)
	payloadSize += rlp.StringLen(tx.Data)
	accessListLen := accessListSize(tx.AccessList)
	payloadSize += rlp.ListPrefixLen(accessListLen) + accessListLen
	return payloadSize
}

func (tx *DynamicFeeTx) payloadSize(sig *Signature) int {
	payloadSize := tx.fieldsSize()
	if sig != nil {
		payloadSize += sigPayloadSize(sig)
	}
	return payloadSize
}

func (tx *DynamicFeeTx) encodeFields(w io.Writer, b []byte) error {
	if err := rlp.EncodeUint256(tx.ChainID, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeInt(tx.Nonce, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.Tip, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.FeeCap, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeInt(tx.GasLimit, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeOptionalAddress(tx.To, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.Value, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeString(tx.Data, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeStructSizePrefix(accessListSize(tx.AccessList), w, b); err != nil {
		return err
	}
	return encodeAccessList(tx.AccessList, w, b)
}

func (tx *DynamicFeeTx) encodePayload(w io.Writer, b []byte, sig *Signature) error {
	if err := rlp.EncodeStructSizePrefix(tx.payloadSize(sig), w, b); err != nil {
		return err
	}
	if err := tx.encodeFields(w, b); err != nil {
		return err
	}
	if sig != nil {
		return encodeSignature(sig, w, b)
	}
	return nil
}

func (tx *DynamicFeeTx) decodeFields(s *rlp.Stream) error {
	b, err := s.Uint256Bytes()
	if err != nil {
		return fmt.Errorf("read ChainID: %w", err)
	}
	tx.ChainID = new(uint256.Int).SetBytes(b)
	if tx.Nonce, err = s.Uint(); err != nil {
		return fmt.Errorf("read Nonce: %w", err)
	}
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read Tip: %w", err)
	}
	tx.Tip = new(uint256.Int).SetBytes(b)
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read FeeCap: %w", err)
	}
	tx.FeeCap = new(uint256.Int).SetBytes(b)
	if tx.GasLimit, err = s.Uint(); err != nil {
		return fmt.Errorf("read GasLimit: %w", err)
	}
	if b, err = s.Bytes(); err != nil {
		return fmt.Errorf("read To: %w", err)
	}
	if len(b) > 0 && len(b) != 20 {
		return fmt.Errorf("wrong size for To: %d", len(b))
	}
	if len(b) > 0 {
		tx.To = &common.Address{}
		copy((*tx.To)[:], b)
	}
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read Value: %w", err)
	}
	tx.Value = new(uint256.Int).SetBytes(b)
	if tx.Data, err = s.Bytes(); err != nil {
		return fmt.Errorf("read Data: %w", err)
	}
	tx.Data = common.CopyBytes(tx.Data)
	tx.AccessList = AccessList{}
	if err = decodeAccessList(&tx.AccessList, s); err != nil {
		return fmt.Errorf("read AccessList: %w", err)
	}
	return nil
}

func (tx *DynamicFeeTx) decodePayload(s *rlp.Stream, sig *Signature) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	if err = tx.decodeFields(s); err != nil {
		return err
	}
	if err = decodeSignature(s, sig, true); err != nil {
		return err
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close DynamicFeeTx: %w", err)
	}
	return nil
}

func (tx *DynamicFeeTx) SigningHash(chainID *big.Int) common.Hash {
	hash, _ := encodeHash(func(w io.Writer) error {
		var b [33]byte
		b[0] = DynamicFeeTxType
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		return tx.encodePayload(w, b[:], nil)
	})
	return hash
}
