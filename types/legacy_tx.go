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

// LegacyTx is the original transaction kind. It is encoded as a bare RLP
// list with no type discriminant.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *uint256.Int
	GasLimit uint64
	To       *common.Address // nil means contract creation
	Value    *uint256.Int
	Data     []byte
}

func (tx *LegacyTx) Type() byte { return LegacyTxType }

func (tx *LegacyTx) GetChainID() *uint256.Int { return nil }

func (tx *LegacyTx) GetNonce() uint64 { return tx.Nonce }

func (tx *LegacyTx) GetTip() *uint256.Int { return tx.GasPrice }

func (tx *LegacyTx) GetFeeCap() *uint256.Int { return tx.GasPrice }

func (tx *LegacyTx) GetGasLimit() uint64 { return tx.GasLimit }

func (tx *LegacyTx) GetTo() *common.Address { return tx.To }

func (tx *LegacyTx) GetValue() *uint256.Int { return tx.Value }

func (tx *LegacyTx) GetData() []byte { return tx.Data }

func (tx *LegacyTx) GetAccessList() AccessList { return nil }

func (tx *LegacyTx) GetBlobHashes() []common.Hash { return nil }

func (tx *LegacyTx) GetAuthorizations() []Authorization { return nil }

func (tx *LegacyTx) copy() Transaction {
	cpy := &LegacyTx{
		Nonce:    tx.Nonce,
		GasPrice: new(uint256.Int),
		GasLimit: tx.GasLimit,
		Value:    new(uint256.Int),
		Data:     common.CopyBytes(tx.Data),
	}
	if tx.To != nil {
		to := *tx.To
		cpy.To = &to
	}
	if tx.GasPrice != nil {
		cpy.GasPrice.Set(tx.GasPrice)
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	return cpy
}

func (tx *LegacyTx) fieldsSize() int {
	payloadSize := 1 + rlp.IntLenExcludingHead(tx.Nonce)
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.GasPrice)
	payloadSize += 1 + rlp.IntLenExcludingHead(tx.GasLimit)
	payloadSize++
	if tx.To != nil {
		payloadSize += 20
	}
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.Value)
	payloadSize += rlp.StringLen(tx.Data)
	return payloadSize
}

func (tx *LegacyTx) payloadSize(sig *Signature) int {
	payloadSize := tx.fieldsSize()
	if sig != nil {
		payloadSize += sigPayloadSize(sig)
	}
	return payloadSize
}

func (tx *LegacyTx) encodeFields(w io.Writer, b []byte) error {
	if err := rlp.EncodeInt(tx.Nonce, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.GasPrice, w, b); err != nil {
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
	return rlp.EncodeString(tx.Data, w, b)
}

func (tx *LegacyTx) encodePayload(w io.Writer, b []byte, sig *Signature) error {
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

func (tx *LegacyTx) decodePayload(s *rlp.Stream, sig *Signature) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	if tx.Nonce, err = s.Uint(); err != nil {
		return fmt.Errorf("read Nonce: %w", err)
	}
	var b []byte
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read GasPrice: %w", err)
	}
	tx.GasPrice = new(uint256.Int).SetBytes(b)
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
	if err = decodeSignature(s, sig, false); err != nil {
		return err
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close LegacyTx: %w", err)
	}
	return nil
}

// SigningHash returns the pre-signature digest. With a non-zero chainID the
// EIP-155 form is used: the chain id and two zero fields are appended to the
// unsigned field list.
func (tx *LegacyTx) SigningHash(chainID *big.Int) common.Hash {
	protected := chainID != nil && chainID.Sign() != 0
	hash, _ := encodeHash(func(w io.Writer) error {
		payloadSize := tx.fieldsSize()
		if protected {
			payloadSize += 1 + rlp.BigIntLenExcludingHead(chainID) + 2
		}
		var b [33]byte
		if err := rlp.EncodeStructSizePrefix(payloadSize, w, b[:]); err != nil {
			return err
		}
		if err := tx.encodeFields(w, b[:]); err != nil {
			return err
		}
		if protected {
			if err := rlp.EncodeBigInt(chainID, w, b[:]); err != nil {
				return err
			}
			if err := rlp.EncodeInt(0, w, b[:]); err != nil {
				return err
			}
			return rlp.EncodeInt(0, w, b[:])
		}
		return nil
	})
	return hash
}
