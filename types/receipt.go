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

	"github.com/ethereum/go-ethereum/common"

	"github.com/calaxis/ethwire/rlp"
)

const (
	// ReceiptStatusFailed is the status of a transaction whose execution failed.
	ReceiptStatusFailed = uint64(0)

	// ReceiptStatusSuccessful is the status of a transaction whose execution succeeded.
	ReceiptStatusSuccessful = uint64(1)
)

var errInvalidReceiptStatus = errors.New("invalid receipt status")

// Receipt holds the consensus fields of a transaction receipt. The first
// field is two-shape: pre-Byzantium receipts commit to a 32-byte post-state
// root, later ones to a one-bit status.
type Receipt struct {
	Type              byte
	PostState         []byte // 32 bytes when present; empty means Status applies
	Status            uint64
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              Logs
}

func (r *Receipt) statusLen() int {
	if len(r.PostState) == 32 {
		return 33
	}
	// 0x80 for failed, a single byte for successful
	return 1
}

func (r *Receipt) payloadSize() int {
	size := r.statusLen()
	size += 1 + rlp.IntLenExcludingHead(r.CumulativeGasUsed)
	size += rlp.StringLen(r.Bloom[:])
	logsLen := logsSize(r.Logs)
	size += rlp.ListPrefixLen(logsLen) + logsLen
	return size
}

func (r *Receipt) encodePayload(w io.Writer, b []byte) error {
	if err := rlp.EncodeStructSizePrefix(r.payloadSize(), w, b); err != nil {
		return err
	}
	if len(r.PostState) == 32 {
		if err := rlp.EncodeString(r.PostState, w, b); err != nil {
			return err
		}
	} else {
		if err := rlp.EncodeInt(r.Status, w, b); err != nil {
			return err
		}
	}
	if err := rlp.EncodeInt(r.CumulativeGasUsed, w, b); err != nil {
		return err
	}
	if err := rlp.EncodeString(r.Bloom[:], w, b); err != nil {
		return err
	}
	if err := rlp.EncodeStructSizePrefix(logsSize(r.Logs), w, b); err != nil {
		return err
	}
	for _, l := range r.Logs {
		if err := l.EncodeRLP(w); err != nil {
			return err
		}
	}
	return nil
}

func (r *Receipt) decodePayload(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return err
	}
	var b []byte
	if b, err = s.Bytes(); err != nil {
		return fmt.Errorf("read PostStateOrStatus: %w", err)
	}
	switch len(b) {
	case 32:
		r.PostState = common.CopyBytes(b)
	case 0:
		r.Status = ReceiptStatusFailed
	case 1:
		if b[0] != 1 {
			return errInvalidReceiptStatus
		}
		r.Status = ReceiptStatusSuccessful
	default:
		return errInvalidReceiptStatus
	}
	if r.CumulativeGasUsed, err = s.Uint(); err != nil {
		return fmt.Errorf("read CumulativeGasUsed: %w", err)
	}
	if err = s.ReadBytes(r.Bloom[:]); err != nil {
		return fmt.Errorf("read Bloom: %w", err)
	}
	if _, err = s.List(); err != nil {
		return fmt.Errorf("open Logs: %w", err)
	}
	r.Logs = Logs{}
	for {
		kind, _, kerr := s.Kind()
		if errors.Is(kerr, rlp.EOL) {
			break
		}
		if kerr != nil {
			return fmt.Errorf("read Log: %w", kerr)
		}
		if kind != rlp.List {
			return rlp.ErrUnexpectedString
		}
		l := &Log{}
		if err = l.DecodeRLP(s); err != nil {
			return err
		}
		r.Logs = append(r.Logs, l)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Logs: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Receipt: %w", err)
	}
	return nil
}

// encodeEnvelope writes the canonical receipt encoding: the bare field list
// for legacy receipts, the transaction type byte followed by the field list
// otherwise.
func (r *Receipt) encodeEnvelope(w io.Writer) error {
	var b [33]byte
	if r.Type != LegacyTxType {
		b[0] = r.Type
		if _, err := w.Write(b[:1]); err != nil {
			return err
		}
	}
	return r.encodePayload(w, b[:])
}

func (r *Receipt) envelopeSize() int {
	payloadSize := r.payloadSize()
	size := rlp.ListPrefixLen(payloadSize) + payloadSize
	if r.Type != LegacyTxType {
		size++
	}
	return size
}

// MarshalBinary returns the canonical receipt encoding.
func (r *Receipt) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(r.envelopeSize())
	if err := r.encodeEnvelope(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeRLP writes the nested encoding used inside enclosing lists: legacy
// receipts appear as bare lists, typed ones as strings holding the envelope.
func (r *Receipt) EncodeRLP(w io.Writer) error {
	if r.Type != LegacyTxType {
		var b [33]byte
		if err := rlp.EncodeStringSizePrefix(r.envelopeSize(), w, b[:]); err != nil {
			return err
		}
	}
	return r.encodeEnvelope(w)
}

// DecodeReceipt decodes a receipt from its canonical encoding. Trailing
// bytes are an error.
func DecodeReceipt(data []byte) (*Receipt, error) {
	if len(data) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	if data[0] >= 0xC0 {
		s := rlp.NewStream(data)
		r := &Receipt{Type: LegacyTxType}
		if err := r.decodePayload(s); err != nil {
			return nil, err
		}
		if s.Remaining() != 0 {
			return nil, rlp.ErrUnexpectedLength
		}
		return r, nil
	}
	return decodeTypedReceipt(data)
}

func decodeTypedReceipt(data []byte) (*Receipt, error) {
	if len(data) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	switch data[0] {
	case AccessListTxType, DynamicFeeTxType, BlobTxType, SetCodeTxType, DepositTxType:
	default:
		return nil, fmt.Errorf("%w: %d", ErrTxTypeNotSupported, data[0])
	}
	r := &Receipt{Type: data[0]}
	s := rlp.NewStream(data[1:])
	if err := r.decodePayload(s); err != nil {
		return nil, err
	}
	if s.Remaining() != 0 {
		return nil, rlp.ErrUnexpectedLength
	}
	return r, nil
}

// DecodeRLPReceipt decodes one receipt nested inside an enclosing list,
// where typed envelopes appear wrapped in an RLP string.
func DecodeRLPReceipt(s *rlp.Stream) (*Receipt, error) {
	kind, _, err := s.Kind()
	if err != nil {
		return nil, err
	}
	if kind == rlp.List {
		r := &Receipt{Type: LegacyTxType}
		if err = r.decodePayload(s); err != nil {
			return nil, err
		}
		return r, nil
	}
	data, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	return decodeTypedReceipt(data)
}

// Receipts implements DerivableList for receipt root derivation.
type Receipts []*Receipt

func (rs Receipts) Len() int { return len(rs) }

// EncodeIndex encodes the i'th receipt in its canonical envelope form.
func (rs Receipts) EncodeIndex(i int, w *bytes.Buffer) {
	//nolint:errcheck
	rs[i].encodeEnvelope(w)
}
