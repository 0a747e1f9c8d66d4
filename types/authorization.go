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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/calaxis/ethwire/rlp"
)

// authSigningPrefix precedes the authorization payload in the signing
// preimage, per EIP-7702.
const authSigningPrefix = 0x05

// Authorization is an EIP-7702 delegation tuple carried by a set-code
// transaction. Each tuple is independently signed by the authorizing account.
type Authorization struct {
	ChainID uint256.Int
	Address common.Address
	Nonce   uint64
	YParity uint8
	R       uint256.Int
	S       uint256.Int
}

func (ath *Authorization) copy() Authorization {
	return Authorization{
		ChainID: ath.ChainID,
		Address: ath.Address,
		Nonce:   ath.Nonce,
		YParity: ath.YParity,
		R:       ath.R,
		S:       ath.S,
	}
}

// SigningHash returns the digest the authorizing account signs:
// keccak256(0x05 || rlp([chain_id, address, nonce])).
func (ath *Authorization) SigningHash() (common.Hash, error) {
	return encodeHash(func(w io.Writer) error {
		payloadSize := 1 + rlp.Uint256LenExcludingHead(&ath.ChainID)
		payloadSize += 21
		payloadSize += 1 + rlp.IntLenExcludingHead(ath.Nonce)
		var b [33]byte
		b[0] = authSigningPrefix
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
		if err := rlp.EncodeStructSizePrefix(payloadSize, w, b[:]); err != nil {
			return err
		}
		if err := rlp.EncodeUint256(&ath.ChainID, w, b[:]); err != nil {
			return err
		}
		addr := ath.Address
		if err := rlp.EncodeOptionalAddress(&addr, w, b[:]); err != nil {
			return err
		}
		return rlp.EncodeInt(ath.Nonce, w, b[:])
	})
}

// RecoverSigner recovers the authorizing account from the tuple signature.
func (ath *Authorization) RecoverSigner() (common.Address, error) {
	if ath.YParity > 1 {
		return common.Address{}, ErrInvalidYParity
	}
	if !crypto.ValidateSignatureValues(ath.YParity, ath.R.ToBig(), ath.S.ToBig(), true) {
		return common.Address{}, ErrInvalidSig
	}
	hash, err := ath.SigningHash()
	if err != nil {
		return common.Address{}, err
	}
	var sig [65]byte
	r := ath.R.Bytes32()
	s := ath.S.Bytes32()
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = ath.YParity
	pub, err := crypto.Ecrecover(hash[:], sig[:])
	if err != nil {
		return common.Address{}, err
	}
	if len(pub) == 0 || pub[0] != 4 {
		return common.Address{}, errors.New("invalid public key")
	}
	var addr common.Address
	copy(addr[:], crypto.Keccak256(pub[1:])[12:])
	return addr, nil
}

func authorizationSize(ath *Authorization) int {
	size := 1 + rlp.Uint256LenExcludingHead(&ath.ChainID)
	size += 21
	size += 1 + rlp.IntLenExcludingHead(ath.Nonce)
	size += 1 + rlp.IntLenExcludingHead(uint64(ath.YParity))
	size += 1 + rlp.Uint256LenExcludingHead(&ath.R)
	size += 1 + rlp.Uint256LenExcludingHead(&ath.S)
	return size
}

func authorizationsSize(auths []Authorization) int {
	total := 0
	for i := range auths {
		size := authorizationSize(&auths[i])
		total += rlp.ListPrefixLen(size) + size
	}
	return total
}

func encodeAuthorizations(auths []Authorization, w io.Writer, b []byte) error {
	for i := range auths {
		ath := &auths[i]
		if err := rlp.EncodeStructSizePrefix(authorizationSize(ath), w, b); err != nil {
			return err
		}
		if err := rlp.EncodeUint256(&ath.ChainID, w, b); err != nil {
			return err
		}
		addr := ath.Address
		if err := rlp.EncodeOptionalAddress(&addr, w, b); err != nil {
			return err
		}
		if err := rlp.EncodeInt(ath.Nonce, w, b); err != nil {
			return err
		}
		if err := rlp.EncodeInt(uint64(ath.YParity), w, b); err != nil {
			return err
		}
		if err := rlp.EncodeUint256(&ath.R, w, b); err != nil {
			return err
		}
		if err := rlp.EncodeUint256(&ath.S, w, b); err != nil {
			return err
		}
	}
	return nil
}

func decodeAuthorizations(auths *[]Authorization, s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Authorizations: %w", err)
	}
	for _, err = s.List(); err == nil; _, err = s.List() {
		var ath Authorization
		var b []byte
		if b, err = s.Uint256Bytes(); err != nil {
			return fmt.Errorf("read ChainID: %w", err)
		}
		ath.ChainID.SetBytes(b)
		if err = s.ReadBytes(ath.Address[:]); err != nil {
			return fmt.Errorf("read Address: %w", err)
		}
		if ath.Nonce, err = s.Uint(); err != nil {
			return fmt.Errorf("read Nonce: %w", err)
		}
		var yParity uint64
		if yParity, err = s.Uint(); err != nil {
			return fmt.Errorf("read YParity: %w", err)
		}
		if yParity > 1 {
			return fmt.Errorf("read YParity: %w", ErrInvalidYParity)
		}
		ath.YParity = uint8(yParity)
		if b, err = s.Uint256Bytes(); err != nil {
			return fmt.Errorf("read R: %w", err)
		}
		ath.R.SetBytes(b)
		if b, err = s.Uint256Bytes(); err != nil {
			return fmt.Errorf("read S: %w", err)
		}
		ath.S.SetBytes(b)
		if err = s.ListEnd(); err != nil {
			return fmt.Errorf("close Authorization: %w", err)
		}
		*auths = append(*auths, ath)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("open Authorization: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Authorizations: %w", err)
	}
	return nil
}
