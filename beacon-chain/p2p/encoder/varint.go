// Package encoder implements the wire framing of §4.9: a LEB128 length
// prefix followed by a snappy-compressed payload, frame-less for phase0/
// altair and framed ("SZ") for bellatrix+, matching the teacher's db/kv
// per-fork compression split.
package encoder

import (
	"encoding/binary"
	"io"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// maxVarintBytes bounds how many continuation bytes readVarint will accept
// before concluding the stream is malicious or corrupt (§4.9).
const maxVarintBytes = 10

// writeVarint writes n as an unsigned LEB128 varint, the length prefix
// every wire message carries ahead of its (possibly compressed) payload.
func writeVarint(w io.Writer, n uint64) (int, error) {
	buf := make([]byte, binary.MaxVarintLen64)
	l := binary.PutUvarint(buf, n)
	return w.Write(buf[:l])
}

// readVarint reads an unsigned LEB128 varint, rejecting a prefix with zero
// value (ErrZeroSizePrefix) or one that runs past maxVarintBytes without
// terminating (ErrSizePrefixOverflow) — both are wire-level protocol
// violations, not transient errors.
func readVarint(r io.Reader) (uint64, error) {
	var x uint64
	var s uint
	buf := make([]byte, 1)
	for i := 0; i < maxVarintBytes; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		b := buf[0]
		if b < 0x80 {
			x |= uint64(b) << s
			if x == 0 {
				return 0, types.ErrZeroSizePrefix
			}
			return x, nil
		}
		x |= uint64(b&0x7f) << s
		s += 7
	}
	return 0, types.ErrSizePrefixOverflow
}
