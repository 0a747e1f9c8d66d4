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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calaxis/ethwire/rlp"
)

func sampleHeader() *Header {
	wh := common.HexToHash("0x11")
	blobGasUsed := uint64(131072)
	excessBlobGas := uint64(0)
	beaconRoot := common.HexToHash("0x22")
	return &Header{
		ParentHash:  common.HexToHash("0x01"),
		UncleHash:   EmptyUncleHash,
		Coinbase:    testAddr,
		Root:        common.HexToHash("0x02"),
		TxHash:      EmptyRootHash,
		ReceiptHash: EmptyRootHash,
		Difficulty:  big.NewInt(0),
		Number:      big.NewInt(1_000_000),
		GasLimit:    30_000_000,
		GasUsed:     21_000,
		Time:        1_700_000_000,
		Extra:       []byte("ethwire"),
		MixDigest:   common.HexToHash("0x03"),
		Nonce:       EncodeNonce(0),

		BaseFee:               big.NewInt(7),
		WithdrawalsHash:       &wh,
		BlobGasUsed:           &blobGasUsed,
		ExcessBlobGas:         &excessBlobGas,
		ParentBeaconBlockRoot: &beaconRoot,
	}
}

func encodeToBytes(t *testing.T, size int, encode func(*bytes.Buffer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, encode(&buf))
	require.Equal(t, size, buf.Len())
	return buf.Bytes()
}

func TestHeaderRoundTrip(t *testing.T) {
	header := sampleHeader()
	data := encodeToBytes(t, rlpListLen(header.EncodingSize()), func(buf *bytes.Buffer) error {
		return header.EncodeRLP(buf)
	})

	decoded := &Header{}
	require.NoError(t, decoded.DecodeRLP(newStreamOf(data)))
	assert.Equal(t, header, decoded)
	assert.Equal(t, header.Hash(), decoded.Hash())
}

func TestHeaderOptionalTailStopsAtFirstAbsent(t *testing.T) {
	header := sampleHeader()
	header.WithdrawalsHash = nil
	header.BlobGasUsed = nil
	header.ExcessBlobGas = nil
	header.ParentBeaconBlockRoot = nil

	data := encodeToBytes(t, rlpListLen(header.EncodingSize()), func(buf *bytes.Buffer) error {
		return header.EncodeRLP(buf)
	})

	decoded := &Header{}
	require.NoError(t, decoded.DecodeRLP(newStreamOf(data)))
	require.NotNil(t, decoded.BaseFee)
	assert.Nil(t, decoded.WithdrawalsHash)
	assert.Nil(t, decoded.BlobGasUsed)
	assert.Nil(t, decoded.ParentBeaconBlockRoot)
	assert.Nil(t, decoded.RequestsHash)
	assert.Nil(t, decoded.BlockAccessListHash)
}

func TestHeaderLegacyShape(t *testing.T) {
	header := sampleHeader()
	header.BaseFee = nil
	header.WithdrawalsHash = nil
	header.BlobGasUsed = nil
	header.ExcessBlobGas = nil
	header.ParentBeaconBlockRoot = nil

	data := encodeToBytes(t, rlpListLen(header.EncodingSize()), func(buf *bytes.Buffer) error {
		return header.EncodeRLP(buf)
	})

	decoded := &Header{}
	require.NoError(t, decoded.DecodeRLP(newStreamOf(data)))
	assert.Equal(t, header, decoded)
}

func TestCopyHeaderIsDeep(t *testing.T) {
	header := sampleHeader()
	cpy := CopyHeader(header)
	cpy.Number.SetUint64(5)
	cpy.Extra[0] = 'X'
	*cpy.WithdrawalsHash = common.HexToHash("0xff")

	assert.Equal(t, uint64(1_000_000), header.Number.Uint64())
	assert.Equal(t, byte('e'), header.Extra[0])
	assert.Equal(t, common.HexToHash("0x11"), *header.WithdrawalsHash)
}

func sampleBlockTxs(t *testing.T) Transactions {
	t.Helper()
	var legacySig Signature
	legacySig.V.SetUint64(37)
	legacySig.R.SetUint64(0x1234)
	legacySig.S.SetUint64(0x5678)
	return Transactions{
		IntoSigned(sampleLegacyTx(), legacySig),
		IntoSigned(sampleDynamicFeeTx(), parityOneSig()),
		IntoSigned(sampleBlobTx(), parityOneSig()),
	}
}

func TestBlockRoundTrip(t *testing.T) {
	txs := sampleBlockTxs(t)
	withdrawals := Withdrawals{
		{Index: 1, Validator: 2, Address: testAddr, Amount: 3},
		{Index: 2, Validator: 2, Address: testAddr, Amount: 100},
	}
	block := NewBlock(sampleHeader(), txs, nil, nil, withdrawals)

	data, err := block.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, block.EncodingSize(), len(data))

	decoded, err := DecodeBlock(data)
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), decoded.Hash())
	require.Len(t, decoded.Transactions(), 3)
	for i := range txs {
		assert.True(t, txs[i].Equal(decoded.Transactions()[i]))
	}
	require.Len(t, decoded.Withdrawals(), 2)
	assert.Equal(t, withdrawals[1].Amount, decoded.Withdrawals()[1].Amount)
	assert.Empty(t, decoded.Uncles())
}

func TestBlockEmptyBodyRoundTrip(t *testing.T) {
	header := sampleHeader()
	header.WithdrawalsHash = nil // pre-Shanghai shape: no withdrawals element
	header.BlobGasUsed = nil
	header.ExcessBlobGas = nil
	header.ParentBeaconBlockRoot = nil
	block := NewBlock(header, nil, nil, nil, nil)

	assert.Equal(t, EmptyRootHash, block.HeaderNoCopy().TxHash)
	assert.Equal(t, EmptyUncleHash, block.HeaderNoCopy().UncleHash)

	data, err := block.MarshalBinary()
	require.NoError(t, err)
	decoded, err := DecodeBlock(data)
	require.NoError(t, err)
	assert.Empty(t, decoded.Transactions())
	assert.Empty(t, decoded.Uncles())
	assert.Nil(t, decoded.Withdrawals())
	assert.Equal(t, block.Hash(), decoded.Hash())
}

func TestBlockWithEmptyWithdrawalsList(t *testing.T) {
	// empty withdrawals and absent withdrawals are different wire shapes
	block := NewBlock(sampleHeader(), nil, nil, nil, Withdrawals{})
	data, err := block.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeBlock(data)
	require.NoError(t, err)
	require.NotNil(t, decoded.Withdrawals())
	assert.Empty(t, decoded.Withdrawals())
	assert.Equal(t, EmptyWithdrawalsHash, *decoded.HeaderNoCopy().WithdrawalsHash)
}

func TestDecodeBlockSealedMatchesSlowPath(t *testing.T) {
	block := NewBlock(sampleHeader(), sampleBlockTxs(t), nil, nil, nil)
	data, err := block.MarshalBinary()
	require.NoError(t, err)

	decoded, sealHash, err := DecodeBlockSealed(data)
	require.NoError(t, err)
	assert.Equal(t, block.HeaderNoCopy().Hash(), sealHash)
	assert.Equal(t, sealHash, decoded.Hash())
}

func TestBodyRoundTrip(t *testing.T) {
	body := &Body{
		Transactions: sampleBlockTxs(t),
		Uncles:       []*Header{},
		Withdrawals:  Withdrawals{{Index: 9, Validator: 1, Address: testAddr, Amount: 64}},
	}

	data := encodeToBytes(t, body.EncodingSize(), func(buf *bytes.Buffer) error {
		return body.EncodeRLP(buf)
	})
	decoded, err := DecodeBody(data)
	require.NoError(t, err)
	require.Len(t, decoded.Transactions, 3)
	for i := range body.Transactions {
		assert.True(t, body.Transactions[i].Equal(decoded.Transactions[i]))
	}
	require.Len(t, decoded.Withdrawals, 1)
	assert.Equal(t, uint64(64), decoded.Withdrawals[0].Amount)
}

func TestBlockTrailingBytesRejected(t *testing.T) {
	block := NewBlock(sampleHeader(), nil, nil, nil, nil)
	data, err := block.MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeBlock(append(data, 0x01))
	assert.Error(t, err)
}

func TestCalcUncleHash(t *testing.T) {
	assert.Equal(t, EmptyUncleHash, CalcUncleHash(nil))

	uncle := sampleHeader()
	hash := CalcUncleHash([]*Header{uncle})
	assert.NotEqual(t, EmptyUncleHash, hash)
	assert.Equal(t, hash, CalcUncleHash([]*Header{CopyHeader(uncle)}))
}

func TestDeriveShaEmpty(t *testing.T) {
	assert.Equal(t, EmptyRootHash, DeriveSha(Transactions{}))
}

func TestDeriveShaOrderSensitive(t *testing.T) {
	txs := sampleBlockTxs(t)
	reversed := Transactions{txs[2], txs[1], txs[0]}
	assert.NotEqual(t, DeriveSha(txs), DeriveSha(reversed))
}

// rlpListLen is the full encoded length of a list with the given payload size.
func rlpListLen(payloadSize int) int {
	return rlp.ListPrefixLen(payloadSize) + payloadSize
}

func newStreamOf(data []byte) *rlp.Stream { return rlp.NewStream(data) }
