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

// DepositTx is a system transaction derived from L1 deposit events. It
// carries no signature: the sender is named explicitly in the From field and
// authenticated by the deposit's origin, identified by SourceHash.
type DepositTx struct {
	SourceHash common.Hash
	From       common.Address
	To         *common.Address // nil means contract creation
	Mint       *uint256.Int    // nil means no mint; encoded as an empty string
	Value      *uint256.Int
	GasLimit   uint64
	IsSystemTx bool
	Data       []byte
}

func (tx *DepositTx) Type() byte { return DepositTxType }

func (tx *DepositTx) GetChainID() *uint256.Int { return nil }

func (tx *DepositTx) GetNonce() uint64 { return 0 }

func (tx *DepositTx) GetTip() *uint256.Int { return uint256.NewInt(0) }

func (tx *DepositTx) GetFeeCap() *uint256.Int { return uint256.NewInt(0) }

func (tx *DepositTx) GetGasLimit() uint64 { return tx.GasLimit }

func (tx *DepositTx) GetTo() *common.Address { return tx.To }

func (tx *DepositTx) GetValue() *uint256.Int { return tx.Value }

func (tx *DepositTx) GetData() []byte { return tx.Data }

func (tx *DepositTx) GetAccessList() AccessList { return nil }

func (tx *DepositTx) GetBlobHashes() []common.Hash { return nil }

func (tx *DepositTx) GetAuthorizations() []Authorization { return nil }

// GetFrom returns the deposit sender. Deposits bypass signature recovery.
func (tx *DepositTx) GetFrom() common.Address { return tx.From }

func (tx *DepositTx) copy() Transaction {
	cpy := &DepositTx{
		SourceHash: tx.SourceHash,
		From:       tx.From,
		Value:      new(uint256.Int),
		GasLimit:   tx.GasLimit,
		IsSystemTx: tx.IsSystemTx,
		Data:       common.CopyBytes(tx.Data),
	}
	if tx.To != nil {
		to := *tx.To
		cpy.To = &to
	}
	if tx.Mint != nil {
		cpy.Mint = new(uint256.Int).Set(tx.Mint)
	}
	if tx.Value != nil {
		cpy.Value.Set(tx.Value)
	}
	return cpy
}

func (tx *DepositTx) payloadSize(sig *Signature) int {
	payloadSize := 33
	payloadSize += 21
	payloadSize++
	if tx.To != nil {
		payloadSize += 20
	}
	payloadSize++
	if tx.Mint != nil {
		payloadSize += rlp.Uint256LenExcludingHead(tx.Mint)
	}
	payloadSize += 1 + rlp.Uint256LenExcludingHead(tx.Value)
	payloadSize += 1 + rlp.IntLenExcludingHead(tx.GasLimit)
	payloadSize++
	if tx.IsSystemTx {
		payloadSize += rlp.IntLenExcludingHead(1)
	}
	payloadSize += rlp.StringLen(tx.Data)
	return payloadSize
}

func (tx *DepositTx) encodePayload(w io.Writer, b []byte, sig *Signature) error {
	if err := rlp.EncodeStructSizePrefix(tx.payloadSize(nil), w, b); err != nil {
		return err
	}
	if err := rlp.EncodeHash(&tx.SourceHash, w, b); err != nil {
		return err
	}
	from := tx.From
	if err := rlp.EncodeOptionalAddress(&from, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeOptionalAddress(tx.To, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.Mint, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.Value, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeInt(tx.GasLimit, w, b); err != nil {
		return err
	}
	var isSystem uint64
	if tx.IsSystemTx {
		isSystem = 1
	}
	if err := rlp.EncodeInt(isSystem, w, b); err != nil {
		return err
	}
	return rlp.EncodeString(tx.Data, w, b)
}

func (tx *DepositTx) decodePayload(s *rlp.Stream, sig *Signature) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	if err = s.ReadBytes(tx.SourceHash[:]); err != nil {
		return fmt.Errorf("read SourceHash: %w", err)
	}
	if err = s.ReadBytes(tx.From[:]); err != nil {
		return fmt.Errorf("read From: %w", err)
	}
	var b []byte
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
		return fmt.Errorf("read Mint: %w", err)
	}
	if len(b) > 0 {
		tx.Mint = new(uint256.Int).SetBytes(b)
	}
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read Value: %w", err)
	}
	tx.Value = new(uint256.Int).SetBytes(b)
	if tx.GasLimit, err = s.Uint(); err != nil {
		return fmt.Errorf("read GasLimit: %w", err)
	}
	if tx.IsSystemTx, err = s.Bool(); err != nil {
		return fmt.Errorf("read IsSystemTx: %w", err)
	}
	if tx.Data, err = s.Bytes(); err != nil {
		return fmt.Errorf("read Data: %w", err)
	}
	tx.Data = common.CopyBytes(tx.Data)
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close DepositTx: %w", err)
	}
	return nil
}

// SigningHash is not meaningful for deposits; they carry no signature.
func (tx *DepositTx) SigningHash(chainID *big.Int) common.Hash {
	return common.Hash{}
}
