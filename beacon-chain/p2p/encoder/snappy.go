package encoder

import (
	"bytes"
	"io"
	"sync"

	"github.com/golang/snappy"

	types "github.com/nodecore-labs/sentinel/beacon-chain/core/types"
)

// MaxChunkSize is the largest single message this encoder will read or
// write, guarding against a peer claiming an unbounded length prefix.
const MaxChunkSize = 10 * 1 << 20 // 10 MiB, matches mainnet's MAX_CHUNK_SIZE.

var bufReaderPool = sync.Pool{
	New: func() interface{} {
		return snappy.NewReader(nil)
	},
}

var bufWriterPool = sync.Pool{
	New: func() interface{} {
		return snappy.NewBufferedWriter(nil)
	},
}

func newBufferedReader(r io.Reader) *snappy.Reader {
	sr := bufReaderPool.Get().(*snappy.Reader)
	sr.Reset(r)
	return sr
}

func newBufferedWriter(w io.Writer) *snappy.Writer {
	sw := bufWriterPool.Get().(*snappy.Writer)
	sw.Reset(w)
	return sw
}

// ResponseCode is the single status byte every request/response stream
// begins with (§4.9).
type ResponseCode byte

const (
	ResponseSuccess             ResponseCode = 0
	ResponseInvalidRequest      ResponseCode = 1
	ResponseServerError         ResponseCode = 2
	ResponseResourceUnavailable ResponseCode = 3
)

// EncodeWithLength writes the frame-less form used by phase0/altair: a
// varint length prefix over the uncompressed payload size, followed by the
// block-compressed (not streaming-framed) snappy bytes — the same split
// db/kv uses to pick a block codec per fork (§4.2, §4.9).
func EncodeWithLength(w io.Writer, raw []byte) (int, error) {
	compressed := snappy.Encode(nil, raw)
	n, err := writeVarint(w, uint64(len(raw)))
	if err != nil {
		return n, err
	}
	m, err := w.Write(compressed)
	return n + m, err
}

// DecodeWithLength reads the frame-less form, rejecting a declared length
// above MaxChunkSize before allocating (§4.9 "size-prefix overflow").
func DecodeWithLength(r io.Reader) ([]byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if length > MaxChunkSize {
		return nil, types.ErrSizePrefixOverflow
	}
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, types.ErrInvalidSnappyBytes
	}
	if uint64(len(raw)) != length {
		return nil, types.ErrInvalidSnappyBytes
	}
	return raw, nil
}

// EncodeFramed writes the "SZ" framed form used from bellatrix onward,
// where the streaming snappy framing format (per-chunk checksums) carries
// the payload, matching the db/kv per-fork compression split.
func EncodeFramed(w io.Writer, raw []byte) (int, error) {
	var compressed bytes.Buffer
	fw := newBufferedWriter(&compressed)
	if _, err := fw.Write(raw); err != nil {
		return 0, err
	}
	if err := fw.Close(); err != nil {
		return 0, err
	}
	bufWriterPool.Put(fw)
	n, err := writeVarint(w, uint64(len(raw)))
	if err != nil {
		return n, err
	}
	m, err := io.Copy(w, &compressed)
	return n + int(m), err
}

// DecodeFramed reads the bellatrix+ framed form.
func DecodeFramed(r io.Reader) ([]byte, error) {
	length, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if length > MaxChunkSize {
		return nil, types.ErrSizePrefixOverflow
	}
	sr := newBufferedReader(r)
	defer bufReaderPool.Put(sr)
	out := make([]byte, length)
	if _, err := io.ReadFull(sr, out); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, types.ErrUnexpectedEOF
		}
		return nil, types.ErrInvalidSnappyBytes
	}
	return out, nil
}
