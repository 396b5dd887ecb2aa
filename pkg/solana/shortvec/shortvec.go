// Package shortvec implements the compact-u16 length prefix used throughout
// the Solana transaction wire format.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedLen = 3

// EncodeLen encodes the specified len into the writer.
//
// If len > math.MaxUint16, an error is returned.
func EncodeLen(w io.Writer, len int) (n int, err error) {
	if len < 0 {
		return 0, errors.Errorf("negative len: %d", len)
	}
	if len > math.MaxUint16 {
		return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
	}

	written := 0
	valBuf := make([]byte, 1)

	for {
		valBuf[0] = byte(len & 0x7f)
		len >>= 7
		if len == 0 {
			n, err := w.Write(valBuf)
			written += n

			return written, err
		}

		valBuf[0] |= 0x80
		n, err := w.Write(valBuf)
		written += n
		if err != nil {
			return written, err
		}
	}
}

// DecodeLen decodes a shortvec encoded len from the reader.
//
// Encodings longer than 3 bytes, values above math.MaxUint16 and
// non-canonical encodings (a trailing zero continuation) are rejected.
func DecodeLen(r io.Reader) (val int, err error) {
	var offset int
	valBuf := make([]byte, 1)

	for {
		if offset == maxEncodedLen {
			return 0, errors.Errorf("invalid size: %d (max %d)", offset+1, maxEncodedLen)
		}

		if _, err := io.ReadFull(r, valBuf); err != nil {
			return 0, err
		}

		if offset > 0 && valBuf[0] == 0 {
			return 0, errors.New("non-canonical encoding")
		}

		val |= int(valBuf[0]&0x7f) << (offset * 7)
		offset++

		if valBuf[0]&0x80 == 0 {
			break
		}
	}

	if val > math.MaxUint16 {
		return 0, errors.Errorf("len exceeds %d", math.MaxUint16)
	}

	return val, nil
}
