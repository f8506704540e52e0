package kv

import (
	"bytes"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// snappyEncode compresses an SSZ-encoded block/state the way it is stored
// on disk for the given fork: phase0/altair use frame-less snappy, and
// bellatrix+ use framed snappy ("SZ") to match the wire framing those forks
// introduced (§4.2).
func snappyEncode(fork types.Fork, raw []byte) []byte {
	if fork >= types.ForkBellatrix {
		var buf bytes.Buffer
		w := snappy.NewBufferedWriter(&buf)
		_, _ = w.Write(raw)
		_ = w.Close()
		return buf.Bytes()
	}
	return snappy.Encode(nil, raw)
}

func snappyDecode(fork types.Fork, compressed []byte) ([]byte, error) {
	if fork >= types.ForkBellatrix {
		r := snappy.NewReader(bytes.NewReader(compressed))
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(r); err != nil {
			return nil, errors.Wrap(types.ErrInvalidSnappyBytes, err.Error())
		}
		return buf.Bytes(), nil
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidSnappyBytes, err.Error())
	}
	return raw, nil
}

func blockBucketFor(fork types.Fork) []byte {
	switch fork {
	case types.ForkPhase0:
		return bucketBlocksPhase0
	case types.ForkAltair:
		return bucketBlocksAltair
	default:
		return bucketBlocksBellatrix
	}
}
