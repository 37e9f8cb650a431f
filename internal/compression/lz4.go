package compression

import (
	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4/v4"
)

// LZ4Codec implements LZ4 block compression. TEXT data is compressed with
// the high compression variant.
type LZ4Codec struct {
	settings settings
}

func (c *LZ4Codec) Kind() Kind { return KindLZ4 }

func (c *LZ4Codec) Compress(src []byte) ([]byte, bool, error) {
	if len(src) == 0 {
		return nil, false, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	var (
		n   int
		err error
	)
	if c.settings.text && c.settings.speed == ModDefault {
		n, err = lz4.CompressBlockHC(src, dst, lz4.Level9, nil, nil)
	} else {
		n, err = lz4.CompressBlock(src, dst, nil)
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "lz4 compress")
	}
	// n == 0 means the data is incompressible.
	if n == 0 || !smaller(dst[:n], src) {
		return nil, false, nil
	}
	return dst[:n], true, nil
}

func (c *LZ4Codec) Decompress(src []byte, maxSize int) ([]byte, error) {
	if len(src) == 0 {
		return []byte{}, nil
	}
	dst := make([]byte, maxSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "lz4 decompress"), ErrCorruptChunk)
	}
	return dst[:n], nil
}

func (c *LZ4Codec) Modify(mods ...Modifier) Codec {
	return &LZ4Codec{settings: c.settings.apply(mods)}
}
