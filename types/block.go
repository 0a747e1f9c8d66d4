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
	"errors"
	"fmt"
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/calaxis/ethwire/rlp"
)

// Transactions implements DerivableList for transaction root derivation.
type Transactions []*Signed

func (txs Transactions) Len() int { return len(txs) }

// EncodeIndex encodes the i'th transaction in its canonical envelope form,
// without the string wrapping used inside enclosing lists.
func (txs Transactions) EncodeIndex(i int, w *bytes.Buffer) {
	//nolint:errcheck
	txs[i].encodeEnvelope(w)
}

func (txs Transactions) encodingSize() int {
	size := 0
	for _, txn := range txs {
		size += txn.EncodingSize()
	}
	return size
}

// Body is the non-header content of a block.
type Body struct {
	Transactions Transactions
	Uncles       []*Header
	Withdrawals  Withdrawals // nil means the pre-Shanghai form without the field
}

// Block is a header with its body. The block hash is computed lazily from
// the header and cached; blocks must not be mutated after first use.
type Block struct {
	header       *Header
	transactions Transactions
	uncles       []*Header
	withdrawals  Withdrawals

	hash atomic.Pointer[common.Hash]
}

// NewBlock creates a block, deriving the header's commitment fields
// (TxHash, UncleHash, ReceiptHash, Bloom, WithdrawalsHash) from the given
// contents. The input header is copied.
func NewBlock(header *Header, txs Transactions, uncles []*Header, receipts Receipts, withdrawals Withdrawals) *Block {
	b := &Block{header: CopyHeader(header)}

	if len(txs) == 0 {
		b.header.TxHash = EmptyRootHash
	} else {
		b.header.TxHash = DeriveSha(txs)
		b.transactions = make(Transactions, len(txs))
		copy(b.transactions, txs)
	}

	if len(receipts) == 0 {
		b.header.ReceiptHash = EmptyRootHash
		b.header.Bloom = Bloom{}
	} else {
		b.header.ReceiptHash = DeriveSha(receipts)
		b.header.Bloom = CreateBloom(receipts)
	}

	b.header.UncleHash = CalcUncleHash(uncles)
	if len(uncles) > 0 {
		b.uncles = make([]*Header, len(uncles))
		for i := range uncles {
			b.uncles[i] = CopyHeader(uncles[i])
		}
	}

	if withdrawals != nil {
		if len(withdrawals) == 0 {
			wh := EmptyWithdrawalsHash
			b.header.WithdrawalsHash = &wh
		} else {
			wh := DeriveSha(withdrawals)
			b.header.WithdrawalsHash = &wh
		}
		b.withdrawals = make(Withdrawals, len(withdrawals))
		for i := range withdrawals {
			b.withdrawals[i] = withdrawals[i].copy()
		}
	}

	return b
}

// NewBlockWithHeader creates a block with the given header data and no body.
// The header is copied; commitment fields are taken as given.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: CopyHeader(header)}
}

// WithBody returns a copy of the block sharing the given body contents.
func (bb *Block) WithBody(body Body) *Block {
	return &Block{
		header:       bb.header,
		transactions: body.Transactions,
		uncles:       body.Uncles,
		withdrawals:  body.Withdrawals,
	}
}

// Header returns a deep copy of the block header.
func (bb *Block) Header() *Header { return CopyHeader(bb.header) }

// HeaderNoCopy returns the shared header; the caller must not mutate it.
func (bb *Block) HeaderNoCopy() *Header { return bb.header }

func (bb *Block) Transactions() Transactions { return bb.transactions }

func (bb *Block) Uncles() []*Header { return bb.uncles }

func (bb *Block) Withdrawals() Withdrawals { return bb.withdrawals }

func (bb *Block) Body() *Body {
	return &Body{Transactions: bb.transactions, Uncles: bb.uncles, Withdrawals: bb.withdrawals}
}

func (bb *Block) Number() *big.Int { return bb.header.Number }

func (bb *Block) NumberU64() uint64 { return bb.header.Number.Uint64() }

func (bb *Block) ParentHash() common.Hash { return bb.header.ParentHash }

func (bb *Block) Time() uint64 { return bb.header.Time }

// Hash returns the block hash, the keccak256 of the header encoding. The
// first computed value is cached.
func (bb *Block) Hash() common.Hash {
	if hash := bb.hash.Load(); hash != nil {
		return *hash
	}
	hash := bb.header.Hash()
	bb.hash.Store(&hash)
	return hash
}

// sealHash pre-fills the hash cache with a hash computed outside the header
// codec, from the raw bytes the header was decoded from.
func (bb *Block) sealHash(hash common.Hash) {
	bb.hash.Store(&hash)
}

// CalcUncleHash returns the hash of the given uncle list.
func CalcUncleHash(uncles []*Header) common.Hash {
	if len(uncles) == 0 {
		return EmptyUncleHash
	}
	hash, _ := encodeHash(func(w io.Writer) error {
		return encodeUncles(uncles, w)
	})
	return hash
}

func unclesSize(uncles []*Header) int {
	size := 0
	for _, uncle := range uncles {
		structSize := uncle.EncodingSize()
		size += rlp.ListPrefixLen(structSize) + structSize
	}
	return size
}

func encodeUncles(uncles []*Header, w io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(unclesSize(uncles), w, b[:]); err != nil {
		return err
	}
	for _, uncle := range uncles {
		if err := uncle.EncodeRLP(w); err != nil {
			return err
		}
	}
	return nil
}

// bodyPayloadSize is the size of the transactions, uncles and optional
// withdrawals elements, without any enclosing prefix.
func bodyPayloadSize(txs Transactions, uncles []*Header, withdrawals Withdrawals) int {
	txsLen := txs.encodingSize()
	size := rlp.ListPrefixLen(txsLen) + txsLen
	unclesLen := unclesSize(uncles)
	size += rlp.ListPrefixLen(unclesLen) + unclesLen
	if withdrawals != nil {
		withdrawalsLen := withdrawals.encodingSize()
		size += rlp.ListPrefixLen(withdrawalsLen) + withdrawalsLen
	}
	return size
}

func encodeBodyPayload(txs Transactions, uncles []*Header, withdrawals Withdrawals, w io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(txs.encodingSize(), w, b[:]); err != nil {
		return err
	}
	for _, txn := range txs {
		if err := txn.EncodeRLP(w); err != nil {
			return err
		}
	}
	if err := encodeUncles(uncles, w); err != nil {
		return err
	}
	if withdrawals != nil {
		if err := rlp.EncodeStructSizePrefix(withdrawals.encodingSize(), w, b[:]); err != nil {
			return err
		}
		for _, withdrawal := range withdrawals {
			if err := withdrawal.EncodeRLP(w); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeTransactions(txs *Transactions, s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Transactions: %w", err)
	}
	var txn *Signed
	for txn, err = DecodeRLPTransaction(s); err == nil; txn, err = DecodeRLPTransaction(s) {
		*txs = append(*txs, txn)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("read Transaction: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Transactions: %w", err)
	}
	return nil
}

func decodeUncles(uncles *[]*Header, s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Uncles: %w", err)
	}
	for {
		kind, _, kerr := s.Kind()
		if errors.Is(kerr, rlp.EOL) {
			break
		}
		if kerr != nil {
			return fmt.Errorf("read Uncle: %w", kerr)
		}
		if kind != rlp.List {
			return rlp.ErrUnexpectedString
		}
		uncle := &Header{}
		if err = uncle.DecodeRLP(s); err != nil {
			return fmt.Errorf("read Uncle: %w", err)
		}
		*uncles = append(*uncles, uncle)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Uncles: %w", err)
	}
	return nil
}

// decodeWithdrawals reads the optional trailing withdrawals list. At the end
// of the enclosing list it leaves the target nil.
func decodeWithdrawals(withdrawals *Withdrawals, s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		if errors.Is(err, rlp.EOL) {
			return nil
		}
		return fmt.Errorf("open Withdrawals: %w", err)
	}
	*withdrawals = Withdrawals{}
	for {
		kind, _, kerr := s.Kind()
		if errors.Is(kerr, rlp.EOL) {
			break
		}
		if kerr != nil {
			return fmt.Errorf("read Withdrawal: %w", kerr)
		}
		if kind != rlp.List {
			return rlp.ErrUnexpectedString
		}
		withdrawal := &Withdrawal{}
		if err = withdrawal.DecodeRLP(s); err != nil {
			return err
		}
		*withdrawals = append(*withdrawals, withdrawal)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Withdrawals: %w", err)
	}
	return nil
}

func (body *Body) EncodingSize() int {
	payloadSize := bodyPayloadSize(body.Transactions, body.Uncles, body.Withdrawals)
	return rlp.ListPrefixLen(payloadSize) + payloadSize
}

func (body *Body) EncodeRLP(w io.Writer) error {
	var b [33]byte
	payloadSize := bodyPayloadSize(body.Transactions, body.Uncles, body.Withdrawals)
	if err := rlp.EncodeStructSizePrefix(payloadSize, w, b[:]); err != nil {
		return err
	}
	return encodeBodyPayload(body.Transactions, body.Uncles, body.Withdrawals, w)
}

func (body *Body) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Body: %w", err)
	}
	body.Transactions = Transactions{}
	if err = decodeTransactions(&body.Transactions, s); err != nil {
		return err
	}
	if err = decodeUncles(&body.Uncles, s); err != nil {
		return err
	}
	if err = decodeWithdrawals(&body.Withdrawals, s); err != nil {
		return err
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Body: %w", err)
	}
	return nil
}

// DecodeBody decodes a block body from its canonical encoding. Trailing
// bytes are an error.
func DecodeBody(data []byte) (*Body, error) {
	s := rlp.NewStream(data)
	body := &Body{}
	if err := body.DecodeRLP(s); err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return body, nil
}

func (bb *Block) EncodingSize() int {
	headerLen := bb.header.EncodingSize()
	payloadSize := rlp.ListPrefixLen(headerLen) + headerLen
	payloadSize += bodyPayloadSize(bb.transactions, bb.uncles, bb.withdrawals)
	return rlp.ListPrefixLen(payloadSize) + payloadSize
}

// EncodeRLP writes the block wire form: a flat list of the header, the
// transactions, the uncles and, when present, the withdrawals.
func (bb *Block) EncodeRLP(w io.Writer) error {
	var b [33]byte
	headerLen := bb.header.EncodingSize()
	payloadSize := rlp.ListPrefixLen(headerLen) + headerLen
	payloadSize += bodyPayloadSize(bb.transactions, bb.uncles, bb.withdrawals)
	if err := rlp.EncodeStructSizePrefix(payloadSize, w, b[:]); err != nil {
		return err
	}
	if err := bb.header.EncodeRLP(w); err != nil {
		return err
	}
	return encodeBodyPayload(bb.transactions, bb.uncles, bb.withdrawals, w)
}

// MarshalBinary returns the canonical block encoding.
func (bb *Block) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(bb.EncodingSize())
	if err := bb.EncodeRLP(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBlock(s *rlp.Stream, sealed bool) (*Block, error) {
	_, err := s.List()
	if err != nil {
		return nil, fmt.Errorf("open Block: %w", err)
	}
	// The header is decoded from its captured raw bytes so the sealed form
	// can hash exactly what came off the wire without re-encoding.
	rawHeader, err := s.Raw()
	if err != nil {
		return nil, fmt.Errorf("read Header: %w", err)
	}
	bb := &Block{header: &Header{}}
	hs := rlp.NewStream(rawHeader)
	if err = bb.header.DecodeRLP(hs); err != nil {
		return nil, err
	}
	if sealed {
		bb.sealHash(common.BytesToHash(crypto.Keccak256(rawHeader)))
	}
	bb.transactions = Transactions{}
	if err = decodeTransactions(&bb.transactions, s); err != nil {
		return nil, err
	}
	if err = decodeUncles(&bb.uncles, s); err != nil {
		return nil, err
	}
	if err = decodeWithdrawals(&bb.withdrawals, s); err != nil {
		return nil, err
	}
	if err = s.ListEnd(); err != nil {
		return nil, fmt.Errorf("close Block: %w", err)
	}
	return bb, nil
}

// DecodeBlock decodes a block from its canonical encoding. Trailing bytes
// are an error.
func DecodeBlock(data []byte) (*Block, error) {
	s := rlp.NewStream(data)
	bb, err := decodeBlock(s, false)
	if err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return bb, nil
}

// DecodeBlockSealed decodes a block and computes its hash from the raw
// header bytes in the same pass, avoiding a re-encode. The returned block
// has the hash cache pre-filled.
func DecodeBlockSealed(data []byte) (*Block, common.Hash, error) {
	s := rlp.NewStream(data)
	bb, err := decodeBlock(s, true)
	if err != nil {
		return nil, common.Hash{}, err
	}
	if s.Remaining() != 0 {
		return nil, common.Hash{}, rlp.ErrUnexpectedLength
	}
	return bb, bb.Hash(), nil
}
