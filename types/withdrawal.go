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
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"github.com/calaxis/ethwire/rlp"
)

// Withdrawal represents a validator withdrawal from the consensus layer,
// per EIP-4895. Amount is denominated in Gwei.
type Withdrawal struct {
	Index     uint64
	Validator uint64
	Address   common.Address
	Amount    uint64
}

func (w *Withdrawal) EncodingSize() int {
	size := 1 + rlp.IntLenExcludingHead(w.Index)
	size += 1 + rlp.IntLenExcludingHead(w.Validator)
	size += 21
	size += 1 + rlp.IntLenExcludingHead(w.Amount)
	return size
}

func (w *Withdrawal) EncodeRLP(ow io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(w.EncodingSize(), ow, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(w.Index, ow, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeInt(w.Validator, ow, b[:]); err != nil {
		return err
	}
	addr := w.Address
	if err := rlp.EncodeOptionalAddress(&addr, ow, b[:]); err != nil {
		return err
	}
	return rlp.EncodeInt(w.Amount, ow, b[:])
}

func (w *Withdrawal) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Withdrawal: %w", err)
	}
	if w.Index, err = s.Uint(); err != nil {
		return fmt.Errorf("read Index: %w", err)
	}
	if w.Validator, err = s.Uint(); err != nil {
		return fmt.Errorf("read Validator: %w", err)
	}
	if err = s.ReadBytes(w.Address[:]); err != nil {
		return fmt.Errorf("read Address: %w", err)
	}
	if w.Amount, err = s.Uint(); err != nil {
		return fmt.Errorf("read Amount: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Withdrawal: %w", err)
	}
	return nil
}

func (w *Withdrawal) copy() *Withdrawal {
	cpy := *w
	return &cpy
}

// Withdrawals implements DerivableList for withdrawal root derivation.
type Withdrawals []*Withdrawal

func (ws Withdrawals) Len() int { return len(ws) }

// EncodeIndex encodes the i'th withdrawal. It does not check for errors
// because the withdrawal codec cannot fail writing to a bytes.Buffer.
func (ws Withdrawals) EncodeIndex(i int, w *bytes.Buffer) {
	//nolint:errcheck
	ws[i].EncodeRLP(w)
}

func (ws Withdrawals) encodingSize() int {
	size := 0
	for _, w := range ws {
		structSize := w.EncodingSize()
		size += rlp.ListPrefixLen(structSize) + structSize
	}
	return size
}
