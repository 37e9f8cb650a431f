package compression

import (
	"github.com/cockroachdb/errors"
)

// Compressed stream format (ORC): a sequence of chunks, each prefixed by a
// 3-byte little-endian header holding (length << 1) | isOriginal.
// isOriginal chunks are stored uncompressed because compression did not
// make them smaller. Streams of kind NONE carry no headers at all.

const (
	ChunkHeaderSize = 3
	// DefaultBlockSize is the default uncompressed size of one chunk.
	DefaultBlockSize = 256 * 1024
	// MaxBlockSize is the largest length a chunk header can hold.
	MaxBlockSize = 1<<23 - 1
)

// PutChunkHeader writes the header of a chunk of length bytes into dst.
func PutChunkHeader(dst []byte, length int, original bool) {
	v := length << 1
	if original {
		v |= 1
	}
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

// ReadChunkHeader reads the header at the start of data.
func ReadChunkHeader(data []byte) (length int, original bool, err error) {
	if len(data) < ChunkHeaderSize {
		return 0, false, errors.Wrapf(ErrCorruptChunk, "need %d header bytes, have %d", ChunkHeaderSize, len(data))
	}
	v := int(data[0]) | int(data[1])<<8 | int(data[2])<<16
	return v >> 1, v&1 == 1, nil
}

func checkBlockSize(blockSize int) error {
	if blockSize <= 0 || blockSize > MaxBlockSize {
		return errors.Newf("block size %d out of range (1..%d)", blockSize, MaxBlockSize)
	}
	return nil
}

// CompressStream splits data into chunks of at most blockSize bytes and
// compresses each of them.
func CompressStream(codec Codec, data []byte, blockSize int) ([]byte, error) {
	if codec.Kind() == KindNone {
		return append([]byte(nil), data...), nil
	}
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)/2+ChunkHeaderSize)
	for start := 0; start < len(data); start += blockSize {
		end := start + blockSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]
		compressed, ok, err := codec.Compress(chunk)
		if err != nil {
			return nil, errors.Wrapf(err, "chunk at offset %d", start)
		}
		payload := compressed
		if !ok {
			payload = chunk
		}
		var header [ChunkHeaderSize]byte
		PutChunkHeader(header[:], len(payload), !ok)
		out = append(out, header[:]...)
		out = append(out, payload...)
	}
	return out, nil
}

// DecompressStream reverses CompressStream. blockSize must be at least the
// value used when the stream was written.
func DecompressStream(codec Codec, data []byte, blockSize int) ([]byte, error) {
	if codec.Kind() == KindNone {
		return append([]byte(nil), data...), nil
	}
	if err := checkBlockSize(blockSize); err != nil {
		return nil, err
	}
	var out []byte
	for pos := 0; pos < len(data); {
		length, original, err := ReadChunkHeader(data[pos:])
		if err != nil {
			return nil, errors.Wrapf(err, "offset %d", pos)
		}
		pos += ChunkHeaderSize
		if pos+length > len(data) {
			return nil, errors.Wrapf(ErrCorruptChunk,
				"chunk at offset %d needs %d bytes, have %d", pos, length, len(data)-pos)
		}
		payload := data[pos : pos+length]
		pos += length
		if original {
			if length > blockSize {
				return nil, errors.Wrapf(ErrCorruptChunk, "original chunk of %d bytes exceeds block size %d", length, blockSize)
			}
			out = append(out, payload...)
			continue
		}
		chunk, err := codec.Decompress(payload, blockSize)
		if err != nil {
			return nil, errors.Wrapf(err, "%s chunk at offset %d", codec.Kind(), pos-length)
		}
		out = append(out, chunk...)
	}
	return out, nil
}
