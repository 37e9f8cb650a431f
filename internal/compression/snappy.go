package compression

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
)

// SnappyCodec implements snappy block compression. Snappy has no tuning
// knobs, so modifiers are ignored.
type SnappyCodec struct{}

func (c *SnappyCodec) Kind() Kind { return KindSnappy }

func (c *SnappyCodec) Compress(src []byte) ([]byte, bool, error) {
	if len(src) == 0 {
		return nil, false, nil
	}
	dst := snappy.Encode(nil, src)
	if !smaller(dst, src) {
		return nil, false, nil
	}
	return dst, true, nil
}

func (c *SnappyCodec) Decompress(src []byte, maxSize int) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "snappy decompress"), ErrCorruptChunk)
	}
	if n > maxSize {
		return nil, errors.Wrapf(ErrCorruptChunk, "snappy output of %d bytes exceeds %d", n, maxSize)
	}
	dst, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "snappy decompress"), ErrCorruptChunk)
	}
	return dst, nil
}

func (c *SnappyCodec) Modify(mods ...Modifier) Codec { return c }
