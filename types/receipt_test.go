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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calaxis/ethwire/rlp"
)

func sampleLogs() Logs {
	return Logs{
		{
			Address: testAddr,
			Topics:  []common.Hash{common.HexToHash("0x01"), common.HexToHash("0x02")},
			Data:    common.FromHex("aabbcc"),
		},
		{
			Address: common.HexToAddress("0x02"),
			Topics:  []common.Hash{},
			Data:    []byte{},
		},
	}
}

func sampleReceipt(txType byte) *Receipt {
	r := &Receipt{
		Type:              txType,
		Status:            ReceiptStatusSuccessful,
		CumulativeGasUsed: 42_000,
		Logs:              sampleLogs(),
	}
	r.Bloom = LogsBloom(r.Logs)
	return r
}

func receiptRoundTrip(t *testing.T, r *Receipt) *Receipt {
	t.Helper()
	data, err := r.MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, r.envelopeSize(), len(data))

	decoded, err := DecodeReceipt(data)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
	return decoded
}

func TestLegacyReceiptRoundTrip(t *testing.T) {
	decoded := receiptRoundTrip(t, sampleReceipt(LegacyTxType))
	assert.Equal(t, ReceiptStatusSuccessful, decoded.Status)
	require.Len(t, decoded.Logs, 2)
	assert.Equal(t, testAddr, decoded.Logs[0].Address)
	assert.Empty(t, decoded.Logs[1].Topics)
}

func TestTypedReceiptRoundTrip(t *testing.T) {
	for _, txType := range []byte{AccessListTxType, DynamicFeeTxType, BlobTxType, SetCodeTxType, DepositTxType} {
		decoded := receiptRoundTrip(t, sampleReceipt(txType))
		assert.Equal(t, txType, decoded.Type)
	}
}

func TestFailedReceiptRoundTrip(t *testing.T) {
	r := sampleReceipt(DynamicFeeTxType)
	r.Status = ReceiptStatusFailed
	r.Logs = Logs{}
	r.Bloom = Bloom{}

	decoded := receiptRoundTrip(t, r)
	assert.Equal(t, ReceiptStatusFailed, decoded.Status)
	assert.Empty(t, decoded.Logs)
}

func TestPostStateReceiptRoundTrip(t *testing.T) {
	r := sampleReceipt(LegacyTxType)
	r.Status = 0
	r.PostState = common.HexToHash("0xdead").Bytes()

	decoded := receiptRoundTrip(t, r)
	assert.Equal(t, r.PostState, decoded.PostState)
}

func TestReceiptInvalidStatusRejected(t *testing.T) {
	r := sampleReceipt(LegacyTxType)
	data, err := r.MarshalBinary()
	require.NoError(t, err)

	// the status byte 0x01 sits right after the 3-byte list prefix; 0x02 is
	// not a valid status and not a post-state either
	require.Equal(t, byte(0x01), data[3])
	data[3] = 0x02
	_, err = DecodeReceipt(data)
	assert.ErrorIs(t, err, errInvalidReceiptStatus)
}

func TestReceiptUnknownTypeRejected(t *testing.T) {
	_, err := DecodeReceipt([]byte{0x05, 0xC0})
	assert.ErrorIs(t, err, ErrTxTypeNotSupported)
}

func TestReceiptTruncatedByOneRejected(t *testing.T) {
	data, err := sampleReceipt(BlobTxType).MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeReceipt(data[:len(data)-1])
	assert.Error(t, err)
}

func TestReceiptTrailingBytesRejected(t *testing.T) {
	data, err := sampleReceipt(LegacyTxType).MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeReceipt(append(data, 0x00))
	assert.ErrorIs(t, err, rlp.ErrUnexpectedLength)
}

func TestReceiptsDeriveSha(t *testing.T) {
	receipts := Receipts{sampleReceipt(LegacyTxType), sampleReceipt(DynamicFeeTxType)}
	root := DeriveSha(receipts)
	assert.NotEqual(t, EmptyRootHash, root)
	assert.NotEqual(t, root, DeriveSha(Receipts{receipts[1], receipts[0]}))
}

func TestLogsBloom(t *testing.T) {
	logs := sampleLogs()
	bloom := LogsBloom(logs)
	assert.True(t, bloom.Test(logs[0].Address[:]))
	assert.True(t, bloom.Test(logs[0].Topics[0][:]))
	assert.True(t, bloom.Test(logs[1].Address[:]))
	assert.False(t, bloom.Test([]byte("not in the bloom")))

	assert.Equal(t, Bloom{}, LogsBloom(nil))
}

func TestCreateBloomMatchesLogsBloom(t *testing.T) {
	r := sampleReceipt(DynamicFeeTxType)
	assert.Equal(t, LogsBloom(r.Logs), CreateBloom(Receipts{r}))

	empty := &Receipt{Type: DynamicFeeTxType, Status: ReceiptStatusSuccessful}
	assert.Equal(t, Bloom{}, CreateBloom(Receipts{empty}))
}
