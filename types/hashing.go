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
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/calaxis/ethwire/rlp"
)

var (
	// EmptyRootHash is the root of an empty ordered trie: the
	// transactions/receipts/withdrawals root of an empty sequence.
	EmptyRootHash = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyUncleHash is the hash of an empty ommer list, keccak256(rlp([])).
	EmptyUncleHash = common.HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")

	// EmptyWithdrawalsHash is the withdrawals root of a block without
	// withdrawals.
	EmptyWithdrawalsHash = EmptyRootHash
)

var hasherPool = sync.Pool{
	New: func() any { return crypto.NewKeccakState() },
}

// encodeHash hashes whatever encode writes.
func encodeHash(encode func(io.Writer) error) (h common.Hash, err error) {
	sha := hasherPool.Get().(crypto.KeccakState)
	defer hasherPool.Put(sha)
	sha.Reset()
	if err = encode(sha); err != nil {
		return common.Hash{}, err
	}
	//nolint:errcheck
	sha.Read(h[:])
	return h, nil
}

// DerivableList is a sequence whose elements can be encoded by index for
// ordered-trie root derivation.
type DerivableList interface {
	Len() int
	EncodeIndex(i int, w *bytes.Buffer)
}

// DeriveSha computes the ordered-trie root of list, keyed by the RLP
// encoding of each element's index. The insertion order (1..0x7f, then 0,
// then the rest) keeps the stack trie building along a single frontier.
func DeriveSha(list DerivableList) common.Hash {
	st := trie.NewStackTrie(nil)
	var indexBuf []byte
	valueBuf := new(bytes.Buffer)
	for i := 1; i < list.Len() && i <= 0x7f; i++ {
		indexBuf = rlp.AppendInt(indexBuf[:0], uint64(i))
		valueBuf.Reset()
		list.EncodeIndex(i, valueBuf)
		st.Update(indexBuf, common.CopyBytes(valueBuf.Bytes()))
	}
	if list.Len() > 0 {
		indexBuf = rlp.AppendInt(indexBuf[:0], 0)
		valueBuf.Reset()
		list.EncodeIndex(0, valueBuf)
		st.Update(indexBuf, common.CopyBytes(valueBuf.Bytes()))
	}
	for i := 0x80; i < list.Len(); i++ {
		indexBuf = rlp.AppendInt(indexBuf[:0], uint64(i))
		valueBuf.Reset()
		list.EncodeIndex(i, valueBuf)
		st.Update(indexBuf, common.CopyBytes(valueBuf.Bytes()))
	}
	return st.Hash()
}
