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

	"github.com/calaxis/ethwire/rlp"
)

// Log is an event emitted by a contract, as committed to by the receipt
// root. Only the consensus fields are kept.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

func (l *Log) payloadSize() int {
	size := 21
	topicsLen := 33 * len(l.Topics)
	size += rlp.ListPrefixLen(topicsLen) + topicsLen
	size += rlp.StringLen(l.Data)
	return size
}

func (l *Log) EncodeRLP(w io.Writer) error {
	var b [33]byte
	if err := rlp.EncodeStructSizePrefix(l.payloadSize(), w, b[:]); err != nil {
		return err
	}
	addr := l.Address
	if err := rlp.EncodeOptionalAddress(&addr, w, b[:]); err != nil {
		return err
	}
	if err := rlp.EncodeStructSizePrefix(33*len(l.Topics), w, b[:]); err != nil {
		return err
	}
	for i := range l.Topics {
		if err := rlp.EncodeHash(&l.Topics[i], w, b[:]); err != nil {
			return err
		}
	}
	return rlp.EncodeString(l.Data, w, b[:])
}

func (l *Log) DecodeRLP(s *rlp.Stream) error {
	_, err := s.List()
	if err != nil {
		return fmt.Errorf("open Log: %w", err)
	}
	if err = s.ReadBytes(l.Address[:]); err != nil {
		return fmt.Errorf("read Address: %w", err)
	}
	if _, err = s.List(); err != nil {
		return fmt.Errorf("open Topics: %w", err)
	}
	l.Topics = []common.Hash{}
	var topic common.Hash
	for err = s.ReadBytes(topic[:]); err == nil; err = s.ReadBytes(topic[:]) {
		l.Topics = append(l.Topics, topic)
	}
	if !errors.Is(err, rlp.EOL) {
		return fmt.Errorf("read Topic: %w", err)
	}
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Topics: %w", err)
	}
	if l.Data, err = s.Bytes(); err != nil {
		return fmt.Errorf("read Data: %w", err)
	}
	l.Data = common.CopyBytes(l.Data)
	if err = s.ListEnd(); err != nil {
		return fmt.Errorf("close Log: %w", err)
	}
	return nil
}

func (l *Log) copy() *Log {
	cpy := &Log{
		Address: l.Address,
		Topics:  make([]common.Hash, len(l.Topics)),
		Data:    common.CopyBytes(l.Data),
	}
	copy(cpy.Topics, l.Topics)
	return cpy
}

// Logs is a list of logs.
type Logs []*Log

func logsSize(logs Logs) int {
	size := 0
	for _, l := range logs {
		structSize := l.payloadSize()
		size += rlp.ListPrefixLen(structSize) + structSize
	}
	return size
}
