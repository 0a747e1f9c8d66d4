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

// AccessTuple is the element type of an access list.
type AccessTuple struct {
	Address     common.Address
	StorageKeys []common.Hash
}

// AccessList is an EIP-2930 access list.
type AccessList []AccessTuple

// StorageKeys returns the total number of storage keys in the access list.
func (al AccessList) StorageKeys() int {
	sum := 0
	for _, tuple := range al {
		sum += len(tuple.StorageKeys)
	}
	return sum
}

func (al AccessList) copy() AccessList {
	if al == nil {
		return nil
	}
	cpy := make(AccessList, len(al))
	for i, tuple := range al {
		cpy[i].Address = tuple.Address
		cpy[i].StorageKeys = make([]common.Hash, len(tuple.StorageKeys))
		copy(cpy[i].StorageKeys, tuple.StorageKeys)
	}
	return cpy
}

// AccessListTx is an EIP-2930 access list transaction.
type AccessListTx struct {
	LegacyTx
	ChainID    *uint256.Int
	AccessList AccessList
}

func (tx *AccessListTx) Type() byte { return AccessListTxType }

func (tx *AccessListTx) GetChainID() *uint256.Int { return tx.ChainID }

func (tx *AccessListTx) GetAccessList() AccessList { return tx.AccessList }

func (tx *AccessListTx) copy() Transaction {
	cpy := &AccessListTx{
		LegacyTx:   *tx.LegacyTx.copy().(*LegacyTx),
		ChainID:    new(uint256.Int),
		AccessList: tx.AccessList.copy(),
	}
	if tx.ChainID != nil {
		cpy.ChainID.Set(tx.ChainID)
	}
	return cpy
}

func accessListSize(al AccessList) int {
	accessListLen := 0
	for _, tuple := range al {
		tupleLen := 21
		// each storage key takes 33 bytes
		storageLen := 33 * len(tuple.StorageKeys)
		tupleLen += rlp.ListPrefixLen(storageLen) + storageLen
		accessListLen += rlp.ListPrefixLen(tupleLen) + tupleLen
	}
	return accessListLen
}

func encodeAccessList(al AccessList, w io.Writer, b []byte) error {
	for i := 0; i < len(al); i++ {
		tupleLen := 21
		storageLen := 33 * len(al[i].StorageKeys)
		tupleLen += rlp.ListPrefixLen(storageLen) + storageLen
		if err := rlp.EncodeStructSizePrefix(tupleLen, w, b); err != nil {
			return err
		}
		addr := al[i].Address
		if err := rlp.EncodeOptionalAddress(&addr, w, b); err != nil {
			return err
		}
		if err := rlp.EncodeStructSizePrefix(storageLen, w, b); err != nil {
			return err
		}
		b[0] = rlp.EmptyString + 32
		for idx := 0; idx < len(al[i].StorageKeys); idx++ {
			if _, err := w.Write(b[:1]); err != nil {
				return err
			}
			if _, err := w.Write(al[i].StorageKeys[idx][:]); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeAccessList(al *AccessList, s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open AccessList: %w", err)
	}
	for _, err = s.List(); err == nil; _, err = s.List() {
		*al = append(*al, AccessTuple{StorageKeys: []common.Hash{}})
		tuple := &(*al)[len(*al)-1]
		if err = s.ReadBytes(tuple.Address[:]); err != nil {
			return fmt.Errorf("read Address: %w", err)
		}
		if _, err = s.List(); err != nil {
			return fmt.Errorf("open StorageKeys: %w", err)
		}
		var b []byte
		for b, err = s.Bytes(); err == nil; b, err = s.Bytes() {
			if len(b) != 32 {
				return fmt.Errorf("wrong size for StorageKey: %d", len(b))
			}
			tuple.StorageKeys = append(tuple.StorageKeys, common.BytesToHash(b))
		}
		if !errors.Is(err, rlp.EOL) {
			return fmt.Errorf("read StorageKey: %w", err)
		}
		if err = s.ListEnd(); err != nil {
			return fmt.Errorf("close StorageKeys: %w", err)
		}
		if err = s.ListEnd(); err != nil {
			return fmt.Errorf("close AccessTuple: %w", err)
		}
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("open AccessTuple: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close AccessList: %w", err)
	}
	return nil
}

func (tx *AccessListTx) payloadSize(sig *Signature) int {
	payloadSize := 1 + rlp.Uint256LenExcludingHead(tx.ChainID)
	payloadSize += tx.fieldsSize()
	accessListLen := accessListSize(tx.AccessList)
	payloadSize += rlp.ListPrefixLen(accessListLen) + accessListLen
	if sig != nil {
		payloadSize += sigPayloadSize(sig)
	}
	return payloadSize
}

func (tx *AccessListTx) encodePayload(w io.Writer, b []byte, sig *Signature) error {
	if err := rlp.EncodeStructSizePrefix(tx.payloadSize(sig), w, b); err != nil {
		return err
	}
	if err := rlp.EncodeUint256(tx.ChainID, w, b); err != nil {
		return err
	}
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
	if err := rlp.EncodeString(tx.Data, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeStructSizePrefix(accessListSize(tx.AccessList), w, b); err != nil {
		return err
	}
	if err := encodeAccessList(tx.AccessList, w, b); err != nil {
		return err
	}
	if sig != nil {
		return encodeSignature(sig, w, b)
	}
	return nil
}

func (tx *AccessListTx) decodePayload(s *rlp.Stream, sig *Signature) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	var b []byte
	if b, err = s.Uint256Bytes(); err != nil {
		return fmt.Errorf("read ChainID: %w", err)
	}
	tx.ChainID = new(uint256.Int).SetBytes(b)
	if tx.Nonce, err = s.Uint(); err != nil {
		return fmt.Errorf("read Nonce: %w", err)
	}
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
	tx.AccessList = AccessList{}
	if err = decodeAccessList(&tx.AccessList, s); err != nil {
		return fmt.Errorf("read AccessList: %w", err)
	}
	if err = decodeSignature(s, sig, true); err != nil {
		return err
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close AccessListTx: %w", err)
	}
	return nil
}

func (tx *AccessListTx) SigningHash(chainID *big.Int) common.Hash {
	hash, _ := encodeHash(func(w io.Writer) error {
		var b [33]byte
		b[0] = AccessListTxType
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		return tx.encodePayload(w, b[:], nil)
	})
	return hash
}
