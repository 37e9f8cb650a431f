package compression

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"
)

// ZlibCodec implements ORC's ZLIB kind, which is raw deflate without the
// zlib header or checksum.
type ZlibCodec struct {
	settings settings
}

func (c *ZlibCodec) Kind() Kind { return KindZlib }

func (c *ZlibCodec) level() int {
	switch c.settings.speed {
	case ModFastest:
		return flate.BestSpeed
	case ModFast:
		return 3
	default:
		if !c.settings.text {
			return flate.DefaultCompression
		}
		return flate.BestCompression
	}
}

func (c *ZlibCodec) Compress(src []byte) ([]byte, bool, error) {
	if len(src) == 0 {
		return nil, false, nil
	}
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, c.level())
	if err != nil {
		return nil, false, errors.Wrap(err, "zlib compress")
	}
	if _, err := w.Write(src); err != nil {
		return nil, false, errors.Wrap(err, "zlib compress")
	}
	if err := w.Close(); err != nil {
		return nil, false, errors.Wrap(err, "zlib compress")
	}
	if !smaller(buf.Bytes(), src) {
		return nil, false, nil
	}
	return buf.Bytes(), true, nil
}

func (c *ZlibCodec) Decompress(src []byte, maxSize int) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	dst, err := io.ReadAll(io.LimitReader(r, int64(maxSize)+1))
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "zlib decompress"), ErrCorruptChunk)
	}
	if len(dst) > maxSize {
		return nil, errors.Wrapf(ErrCorruptChunk, "zlib output exceeds %d bytes", maxSize)
	}
	return dst, nil
}

func (c *ZlibCodec) Modify(mods ...Modifier) Codec {
	return &ZlibCodec{settings: c.settings.apply(mods)}
}
