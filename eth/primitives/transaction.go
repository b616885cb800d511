// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package primitives

// TransactionInput is the wire-form transaction as submitted by a
// client via eth_sendRawTransaction, after RLP-decode and signature
// recovery (both out of scope — assumed already done by the caller).
type TransactionInput struct {
	Hash    Hash
	Nonce   Nonce
	From    Address // as-declared sender
	Signer  Address // EC-recovered sender
	To      *Address
	Input   Bytes
	Gas     Gas
	Value   Wei
	ChainID uint64
	V, R, S []byte
}

// TransactionMined is a TransactionInput together with its execution
// result and mined logs, as it appears inside a Block.
type TransactionMined struct {
	Input           TransactionInput
	Execution       Execution
	Logs            []LogMined
	TransactionIndex Index
}
