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
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/calaxis/ethwire/rlp"
)

// Signed binds a transaction to its signature. The transaction hash is
// computed lazily from the canonical envelope and cached; a Signed value
// must therefore not be mutated after first use.
type Signed struct {
	inner Transaction
	sig   Signature

	hash atomic.Pointer[common.Hash]
	from atomic.Pointer[common.Address]
}

// IntoSigned wraps tx with sig. For deposit transactions sig is ignored on
// the wire but kept for interface uniformity.
func IntoSigned(tx Transaction, sig Signature) *Signed {
	return &Signed{inner: tx, sig: sig}
}

// Tx returns the wrapped transaction. The returned value is shared, not a
// copy; callers must not mutate it.
func (txn *Signed) Tx() Transaction { return txn.inner }

func (txn *Signed) Type() byte { return txn.inner.Type() }

func (txn *Signed) GetNonce() uint64 { return txn.inner.GetNonce() }

func (txn *Signed) GetGasLimit() uint64 { return txn.inner.GetGasLimit() }

func (txn *Signed) GetTo() *common.Address { return txn.inner.GetTo() }

func (txn *Signed) GetValue() *uint256.Int { return txn.inner.GetValue() }

func (txn *Signed) GetData() []byte { return txn.inner.GetData() }

func (txn *Signed) GetBlobHashes() []common.Hash { return txn.inner.GetBlobHashes() }

// Signature returns a copy of the raw signature scalars.
func (txn *Signed) Signature() Signature { return txn.sig }

// RawSignatureValues returns the V, R, S signature values as big integers.
func (txn *Signed) RawSignatureValues() (v, r, s *big.Int) {
	return txn.sig.V.ToBig(), txn.sig.R.ToBig(), txn.sig.S.ToBig()
}

// GetChainID returns the chain id the transaction is bound to, deriving it
// from V for protected legacy transactions. Unprotected legacy transactions
// and deposits return nil.
func (txn *Signed) GetChainID() *uint256.Int {
	if txn.inner.Type() == LegacyTxType {
		if !txn.Protected() {
			return nil
		}
		return DeriveChainID(&txn.sig.V)
	}
	return txn.inner.GetChainID()
}

// Protected reports whether the transaction commits to a chain id. All typed
// transactions do; legacy transactions only in the EIP-155 form.
func (txn *Signed) Protected() bool {
	if txn.inner.Type() != LegacyTxType {
		return true
	}
	v := txn.sig.V.Uint64()
	return txn.sig.V.GtUint64(28) || (v != 27 && v != 28)
}

// SigningHash returns the digest that was signed to produce the signature.
func (txn *Signed) SigningHash(chainID *big.Int) common.Hash {
	return txn.inner.SigningHash(chainID)
}

// StripSignature returns a deep copy of the unsigned transaction.
func (txn *Signed) StripSignature() Transaction {
	return txn.inner.copy()
}

// sigForEncoding returns the signature to put on the wire; deposits carry
// none.
func (txn *Signed) sigForEncoding() *Signature {
	if txn.inner.Type() == DepositTxType {
		return nil
	}
	return &txn.sig
}

// encodeEnvelope writes the canonical encoding: the bare field list for
// legacy transactions, the type byte followed by the field list otherwise.
func (txn *Signed) encodeEnvelope(w io.Writer) error {
	var b [33]byte
	if txn.inner.Type() != LegacyTxType {
		b[0] = txn.inner.Type()
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
	}
	return txn.inner.encodePayload(w, b[:], &txn.sig)
}

// envelopeSize returns the length of the canonical encoding.
func (txn *Signed) envelopeSize() int {
	payloadSize := txn.inner.payloadSize(txn.sigForEncoding())
	size := rlp.ListPrefixLen(payloadSize) + payloadSize
	if txn.inner.Type() != LegacyTxType {
		size++
	}
	return size
}

// MarshalBinary returns the canonical encoding.
func (txn *Signed) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(txn.envelopeSize())
	if err := txn.encodeEnvelope(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodingSize returns the length of the nested encoding: for typed
// transactions the envelope is wrapped in an RLP string.
func (txn *Signed) EncodingSize() int {
	envelope := txn.envelopeSize()
	if txn.inner.Type() == LegacyTxType {
		return envelope
	}
	return rlp.StringPrefixLen(envelope) + envelope
}

// EncodeRLP writes the nested encoding used inside enclosing lists: legacy
// transactions appear as bare lists, typed ones as strings holding the
// envelope.
func (txn *Signed) EncodeRLP(w io.Writer) error {
	if txn.inner.Type() != LegacyTxType {
		var b [33]byte
		if err := rlp.EncodeStringSizePrefix(txn.envelopeSize(), w, b[:]); err != nil {
			return err
		}
	}
	return txn.encodeEnvelope(w)
}

// Hash returns the transaction hash, keccak256 of the canonical encoding.
// The first computed value is cached; concurrent callers may race to fill
// the cache but always observe the same hash.
func (txn *Signed) Hash() common.Hash {
	if hash := txn.hash.Load(); hash != nil {
		return *hash
	}
	hash, _ := encodeHash(txn.encodeEnvelope)
	txn.hash.Store(&hash)
	return hash
}

// Equal reports whether two signed transactions have both the same hash and
// the same canonical encoding.
func (txn *Signed) Equal(other *Signed) bool {
	if txn.Hash() != other.Hash() {
		return false
	}
	a, err := txn.MarshalBinary()
	if err != nil {
		return false
	}
	b, err := other.MarshalBinary()
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

// SetSender caches the recovered sender address.
func (txn *Signed) SetSender(addr common.Address) {
	txn.from.Store(&addr)
}

// cachedSender returns the previously recovered sender, if any.
func (txn *Signed) cachedSender() (common.Address, bool) {
	if from := txn.from.Load(); from != nil {
		return *from, true
	}
	return common.Address{}, false
}
