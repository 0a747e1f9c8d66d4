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
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var ErrInvalidChainID = errors.New("invalid chain id for signer")

// Signer recovers and produces transaction signatures for one chain.
type Signer struct {
	chainID *big.Int
}

// NewSigner creates a signer bound to chainID. A nil chainID only handles
// unprotected legacy transactions.
func NewSigner(chainID *big.Int) *Signer {
	sg := &Signer{}
	if chainID != nil && chainID.Sign() != 0 {
		sg.chainID = new(big.Int).Set(chainID)
	}
	return sg
}

// ChainID returns the signer's chain id, nil for the pre-EIP-155 signer.
func (sg *Signer) ChainID() *big.Int {
	return sg.chainID
}

// DeriveChainID derives the chain id from an EIP-155 v value.
func DeriveChainID(v *uint256.Int) *uint256.Int {
	if v.IsUint64() {
		vu := v.Uint64()
		if vu == 27 || vu == 28 {
			return new(uint256.Int)
		}
		return new(uint256.Int).SetUint64((vu - 35) / 2)
	}
	r := new(uint256.Int).Sub(v, uint256.NewInt(35))
	return r.Rsh(r, 1)
}

// Sender recovers the sending address. The result is cached on the
// transaction; repeated calls do not redo the ECDSA recovery. Deposit
// transactions name their sender explicitly and bypass recovery.
func (sg *Signer) Sender(txn *Signed) (common.Address, error) {
	if from, ok := txn.cachedSender(); ok {
		return from, nil
	}
	if deposit, ok := txn.inner.(*DepositTx); ok {
		txn.SetSender(deposit.From)
		return deposit.From, nil
	}
	var parity uint256.Int
	var signingChainID *big.Int
	switch txn.inner.Type() {
	case LegacyTxType:
		if txn.Protected() {
			chainID := DeriveChainID(&txn.sig.V).ToBig()
			if sg.chainID == nil || chainID.Cmp(sg.chainID) != 0 {
				return common.Address{}, ErrInvalidChainID
			}
			signingChainID = sg.chainID
			// v = chainID*2 + 35 + parity
			parity.Sub(&txn.sig.V, new(uint256.Int).SetUint64(35))
			parity.Sub(&parity, new(uint256.Int).Lsh(uint256.MustFromBig(chainID), 1))
		} else {
			parity.Sub(&txn.sig.V, uint256.NewInt(27))
		}
	default:
		txChainID := txn.inner.GetChainID()
		if sg.chainID == nil || txChainID == nil || txChainID.ToBig().Cmp(sg.chainID) != 0 {
			return common.Address{}, ErrInvalidChainID
		}
		parity.Set(&txn.sig.V)
	}
	from, err := recoverPlain(txn.inner.SigningHash(signingChainID), &txn.sig.R, &txn.sig.S, &parity)
	if err != nil {
		return common.Address{}, err
	}
	txn.SetSender(from)
	return from, nil
}

func recoverPlain(sighash common.Hash, R, S, parity *uint256.Int) (common.Address, error) {
	if parity.GtUint64(1) {
		return common.Address{}, ErrInvalidSig
	}
	if !crypto.ValidateSignatureValues(byte(parity.Uint64()), R.ToBig(), S.ToBig(), true) {
		return common.Address{}, ErrInvalidSig
	}
	var sig [65]byte
	r := R.Bytes32()
	s := S.Bytes32()
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = byte(parity.Uint64())
	pub, err := crypto.Ecrecover(sighash[:], sig[:])
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

// SignTx signs tx with prv and returns the signed wrapper. Legacy
// transactions get the EIP-155 v form when the signer has a chain id.
func SignTx(tx Transaction, sg *Signer, prv *ecdsa.PrivateKey) (*Signed, error) {
	if tx.Type() == DepositTxType {
		return nil, errors.New("deposit transactions cannot be signed")
	}
	h := tx.SigningHash(sg.chainID)
	raw, err := crypto.Sign(h[:], prv)
	if err != nil {
		return nil, err
	}
	var sig Signature
	sig.R.SetBytes(raw[:32])
	sig.S.SetBytes(raw[32:64])
	parity := uint64(raw[64])
	if tx.Type() == LegacyTxType {
		if sg.chainID != nil {
			sig.V.Set(uint256.MustFromBig(sg.chainID))
			sig.V.Lsh(&sig.V, 1)
			sig.V.AddUint64(&sig.V, 35+parity)
		} else {
			sig.V.SetUint64(27 + parity)
		}
	} else {
		sig.V.SetUint64(parity)
	}
	return IntoSigned(tx, sig), nil
}
