package compression

import "github.com/cockroachdb/errors"

// NoneCodec stores data uncompressed.
type NoneCodec struct{}

func (c *NoneCodec) Kind() Kind { return KindNone }

func (c *NoneCodec) Compress(src []byte) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *NoneCodec) Decompress(src []byte, maxSize int) ([]byte, error) {
	if len(src) > maxSize {
		return nil, errors.Wrapf(ErrCorruptChunk, "%d bytes exceed limit %d", len(src), maxSize)
	}
	dst := make([]byte, len(src))
	copy(dst, src)
	return dst, nil
}

func (c *NoneCodec) Modify(mods ...Modifier) Codec { return c }
