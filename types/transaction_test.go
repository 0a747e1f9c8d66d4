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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calaxis/ethwire/rlp"
)

var testAddr = common.HexToAddress("0xb94f5374fce5edbc8e2a8697c15331677e6ebf0b")

func parityOneSig() Signature {
	var sig Signature
	sig.V.SetUint64(1)
	sig.R.SetUint64(0xdeadbeef)
	sig.S.SetUint64(0xcafebabe)
	return sig
}

func sampleLegacyTx() *LegacyTx {
	return &LegacyTx{
		Nonce:    3,
		GasPrice: uint256.NewInt(1_000_000_000),
		GasLimit: 25000,
		To:       &testAddr,
		Value:    uint256.NewInt(10),
		Data:     common.FromHex("5544"),
	}
}

func sampleAccessListTx() *AccessListTx {
	return &AccessListTx{
		LegacyTx: *sampleLegacyTx(),
		ChainID:  uint256.NewInt(1),
		AccessList: AccessList{
			{
				Address: testAddr,
				StorageKeys: []common.Hash{
					common.HexToHash("0x01"),
					common.HexToHash("0x02"),
				},
			},
			{Address: common.HexToAddress("0x02"), StorageKeys: []common.Hash{}},
		},
	}
}

func sampleDynamicFeeTx() *DynamicFeeTx {
	return &DynamicFeeTx{
		ChainID:  uint256.NewInt(1),
		Nonce:    7,
		Tip:      uint256.NewInt(2),
		FeeCap:   uint256.NewInt(100),
		GasLimit: 21000,
		To:       &testAddr,
		Value:    uint256.NewInt(1),
		Data:     nil,
		AccessList: AccessList{
			{Address: testAddr, StorageKeys: []common.Hash{common.HexToHash("0xff")}},
		},
	}
}

func sampleBlobTx() *BlobTx {
	return &BlobTx{
		DynamicFeeTx:     *sampleDynamicFeeTx(),
		MaxFeePerBlobGas: uint256.NewInt(5),
		BlobVersionedHashes: []common.Hash{
			common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000001"),
			common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000002"),
		},
	}
}

func sampleSetCodeTx() *SetCodeTx {
	return &SetCodeTx{
		DynamicFeeTx: *sampleDynamicFeeTx(),
		Authorizations: []Authorization{
			{
				ChainID: *uint256.NewInt(1),
				Address: testAddr,
				Nonce:   9,
				YParity: 1,
				R:       *uint256.NewInt(0x1111),
				S:       *uint256.NewInt(0x2222),
			},
		},
	}
}

func sampleDepositTx() *DepositTx {
	return &DepositTx{
		SourceHash: common.HexToHash("0xaa"),
		From:       testAddr,
		To:         &testAddr,
		Mint:       uint256.NewInt(77),
		Value:      uint256.NewInt(5),
		GasLimit:   100000,
		IsSystemTx: true,
		Data:       common.FromHex("f00d"),
	}
}

func roundTrip(t *testing.T, txn *Signed) *Signed {
	t.Helper()
	data, err := txn.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, txn.envelopeSize(), len(data))

	decoded, err := DecodeTransaction(data)
	require.NoError(t, err)
	assert.True(t, txn.Equal(decoded))
	assert.Equal(t, txn.Hash(), decoded.Hash())
	return decoded
}

func TestLegacyTxRoundTrip(t *testing.T) {
	var sig Signature
	sig.V.SetUint64(28)
	sig.R.SetUint64(0x1234)
	sig.S.SetUint64(0x5678)
	txn := IntoSigned(sampleLegacyTx(), sig)

	decoded := roundTrip(t, txn)
	assert.Equal(t, byte(LegacyTxType), decoded.Type())
	assert.Equal(t, uint64(3), decoded.GetNonce())
	assert.Equal(t, testAddr, *decoded.GetTo())
	assert.False(t, decoded.Protected())

	data, err := txn.MarshalBinary()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, data[0], byte(0xC0))
}

func TestLegacyTxEIP155RoundTrip(t *testing.T) {
	var sig Signature
	sig.V.SetUint64(37) // chain id 1, parity 0
	sig.R.SetUint64(0x1234)
	sig.S.SetUint64(0x5678)
	txn := IntoSigned(sampleLegacyTx(), sig)

	decoded := roundTrip(t, txn)
	assert.True(t, decoded.Protected())
	require.NotNil(t, decoded.GetChainID())
	assert.Equal(t, uint64(1), decoded.GetChainID().Uint64())
}

func TestAccessListTxRoundTrip(t *testing.T) {
	txn := IntoSigned(sampleAccessListTx(), parityOneSig())

	decoded := roundTrip(t, txn)
	assert.Equal(t, byte(AccessListTxType), decoded.Type())
	al := decoded.Tx().GetAccessList()
	require.Len(t, al, 2)
	assert.Equal(t, testAddr, al[0].Address)
	require.Len(t, al[0].StorageKeys, 2)
	assert.Equal(t, 2, al.StorageKeys())
	assert.Empty(t, al[1].StorageKeys)

	data, err := txn.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(AccessListTxType), data[0])
}

func TestDynamicFeeTxRoundTrip(t *testing.T) {
	txn := IntoSigned(sampleDynamicFeeTx(), parityOneSig())

	decoded := roundTrip(t, txn)
	inner := decoded.Tx().(*DynamicFeeTx)
	assert.Equal(t, uint64(2), inner.Tip.Uint64())
	assert.Equal(t, uint64(100), inner.FeeCap.Uint64())
}

func TestBlobTxRoundTrip(t *testing.T) {
	txn := IntoSigned(sampleBlobTx(), parityOneSig())

	decoded := roundTrip(t, txn)
	inner := decoded.Tx().(*BlobTx)
	assert.Equal(t, uint64(5), inner.MaxFeePerBlobGas.Uint64())
	require.Len(t, decoded.GetBlobHashes(), 2)
}

func TestSetCodeTxRoundTrip(t *testing.T) {
	txn := IntoSigned(sampleSetCodeTx(), parityOneSig())

	decoded := roundTrip(t, txn)
	auths := decoded.Tx().GetAuthorizations()
	require.Len(t, auths, 1)
	assert.Equal(t, testAddr, auths[0].Address)
	assert.Equal(t, uint64(9), auths[0].Nonce)
	assert.Equal(t, uint8(1), auths[0].YParity)
}

func TestDepositTxRoundTrip(t *testing.T) {
	txn := IntoSigned(sampleDepositTx(), Signature{})

	decoded := roundTrip(t, txn)
	inner := decoded.Tx().(*DepositTx)
	assert.Equal(t, testAddr, inner.From)
	require.NotNil(t, inner.Mint)
	assert.Equal(t, uint64(77), inner.Mint.Uint64())
	assert.True(t, inner.IsSystemTx)
}

func TestDepositTxNilMintRoundTrip(t *testing.T) {
	deposit := sampleDepositTx()
	deposit.Mint = nil
	txn := IntoSigned(deposit, Signature{})

	decoded := roundTrip(t, txn)
	assert.Nil(t, decoded.Tx().(*DepositTx).Mint)
}

func TestUnknownTxTypeRejected(t *testing.T) {
	_, err := DecodeTransaction([]byte{0x05, 0xC0})
	assert.ErrorIs(t, err, ErrTxTypeNotSupported)

	// 0x7D is below 0x80 but not a known discriminant; it must not fall
	// back to legacy decoding
	_, err = DecodeTransaction([]byte{0x7D, 0xC0})
	assert.ErrorIs(t, err, ErrTxTypeNotSupported)
}

func TestTypedTxInvalidYParity(t *testing.T) {
	var sig Signature
	sig.V.SetUint64(27)
	sig.R.SetUint64(1)
	sig.S.SetUint64(1)
	data, err := IntoSigned(sampleDynamicFeeTx(), sig).MarshalBinary()
	require.NoError(t, err)

	_, err = DecodeTransaction(data)
	assert.ErrorIs(t, err, ErrInvalidYParity)
}

func TestTrailingBytesRejected(t *testing.T) {
	for _, txn := range []*Signed{
		IntoSigned(sampleLegacyTx(), parityOneSig()),
		IntoSigned(sampleDynamicFeeTx(), parityOneSig()),
	} {
		data, err := txn.MarshalBinary()
		require.NoError(t, err)
		_, err = DecodeTransaction(append(data, 0x00))
		assert.ErrorIs(t, err, rlp.ErrUnexpectedLength)
	}
}

func TestTruncatedTxRejected(t *testing.T) {
	data, err := IntoSigned(sampleDynamicFeeTx(), parityOneSig()).MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeTransaction(data[:len(data)-1])
	assert.Error(t, err)

	_, err = DecodeTransaction(nil)
	assert.Error(t, err)
}

func TestDecodedDataIsOwned(t *testing.T) {
	txn := IntoSigned(sampleLegacyTx(), parityOneSig())
	data, err := txn.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeTransaction(data)
	require.NoError(t, err)
	want := common.CopyBytes(decoded.GetData())
	for i := range data {
		data[i] = 0xFF
	}
	assert.Equal(t, want, decoded.GetData())
}

func TestBlobTxRequiresTo(t *testing.T) {
	blobTx := sampleBlobTx()
	blobTx.To = nil
	data, err := IntoSigned(blobTx, parityOneSig()).MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeTransaction(data)
	assert.Error(t, err)
}

func TestSigningHashIgnoresSignature(t *testing.T) {
	tx := sampleDynamicFeeTx()
	chainID := tx.ChainID.ToBig()

	sigA := parityOneSig()
	var sigB Signature
	sigB.V.SetUint64(0)
	sigB.R.SetUint64(0x9999)
	sigB.S.SetUint64(0x8888)

	a := IntoSigned(tx, sigA)
	b := IntoSigned(tx.copy(), sigB)
	assert.Equal(t, a.SigningHash(chainID), b.SigningHash(chainID))
	assert.NotEqual(t, a.Hash(), b.Hash())
}
