package compression

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
)

// zstdDecoder is shared by every ZstdCodec; DecodeAll is safe for concurrent use.
// It never decodes more than MaxBlockSize bytes.
var (
	zstdDecoderOnce sync.Once
	zstdDec         *zstd.Decoder
	zstdDecErr      error
)

func getZstdDecoder() (*zstd.Decoder, error) {
	zstdDecoderOnce.Do(func() {
		zstdDec, zstdDecErr = zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(0),
			zstd.WithDecoderMaxMemory(MaxBlockSize))
	})
	return zstdDec, zstdDecErr
}

// ZstdCodec implements zstd compression. FASTEST, FAST and DEFAULT map to
// zstd levels 1, 2 and 3.
type ZstdCodec struct {
	settings settings
	encoder  *zstd.Encoder
	err      error
}

func (s settings) zstdLevel() int {
	switch s.speed {
	case ModFastest:
		return 1
	case ModFast:
		return 2
	default:
		return 3
	}
}

func newZstdCodec(s settings) (*ZstdCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(s.zstdLevel())))
	if err != nil {
		return nil, errors.Wrap(err, "zstd encoder")
	}
	return &ZstdCodec{settings: s, encoder: enc}, nil
}

func (c *ZstdCodec) Kind() Kind { return KindZstd }

func (c *ZstdCodec) Compress(src []byte) ([]byte, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	if len(src) == 0 {
		return nil, false, nil
	}
	dst := c.encoder.EncodeAll(src, make([]byte, 0, len(src)))
	if !smaller(dst, src) {
		return nil, false, nil
	}
	return dst, true, nil
}

func (c *ZstdCodec) Decompress(src []byte, maxSize int) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, errors.Wrap(err, "zstd decoder")
	}
	// Frames declaring their size are rejected before any allocation.
	var h zstd.Header
	if err := h.Decode(src); err == nil && h.HasFCS && h.FrameContentSize > uint64(maxSize) {
		return nil, errors.Wrapf(ErrCorruptChunk,
			"zstd frame of %d bytes exceeds %d", h.FrameContentSize, maxSize)
	}
	dst, err := dec.DecodeAll(src, make([]byte, 0, maxSize))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "zstd decompress"), ErrCorruptChunk)
	}
	if len(dst) > maxSize {
		return nil, errors.Wrapf(ErrCorruptChunk, "zstd output of %d bytes exceeds %d", len(dst), maxSize)
	}
	return dst, nil
}

func (c *ZstdCodec) Modify(mods ...Modifier) Codec {
	s := c.settings.apply(mods)
	if s.zstdLevel() == c.settings.zstdLevel() {
		return &ZstdCodec{settings: s, encoder: c.encoder, err: c.err}
	}
	modified, err := newZstdCodec(s)
	if err != nil {
		return &ZstdCodec{settings: s, err: err}
	}
	return modified
}
