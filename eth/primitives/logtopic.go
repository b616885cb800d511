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

import (
	"database/sql/driver"

	"github.com/klaytn/evmexec/common/hexutil"
	"github.com/pkg/errors"
)

const LogTopicLength = 32

// LogTopic is an indexed EVM log topic, always exactly 32 bytes.
type LogTopic [LogTopicLength]byte

func BytesToLogTopic(b []byte) LogTopic {
	var t LogTopic
	if len(b) > LogTopicLength {
		b = b[len(b)-LogTopicLength:]
	}
	copy(t[LogTopicLength-len(b):], b)
	return t
}

func LogTopicFromHex(s string) (LogTopic, error) {
	b, err := hexutil.DecodeFixed(s, LogTopicLength)
	if err != nil {
		return LogTopic{}, errors.Wrapf(ErrInvalidFormat, "log topic %q: %v", s, err)
	}
	var t LogTopic
	copy(t[:], b)
	return t, nil
}

func (t LogTopic) Bytes() []byte { return t[:] }

func (t LogTopic) String() string { return hexutil.Encode(t[:]) }

func (t LogTopic) Value() (driver.Value, error) { return t.Bytes(), nil }

func (t *LogTopic) Scan(src interface{}) error {
	b, ok := src.([]byte)
	if !ok || len(b) != LogTopicLength {
		return errors.Wrapf(ErrInvalidFormat, "log topic column %v", src)
	}
	copy(t[:], b)
	return nil
}
