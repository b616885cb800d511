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

package executor

import "github.com/pkg/errors"

// ErrExhausted is returned by Transact when the conflict-retry loop
// runs out of attempts or wall-clock budget without a clean commit.
var ErrExhausted = errors.New("transact: retries exhausted")

// ErrUnsupportedRecipient is returned when a from/to string isn't a
// parseable 0x address — most notably an ENS-style name, which this
// system does not resolve.
var ErrUnsupportedRecipient = errors.New("unsupported recipient: not a 0x address")
