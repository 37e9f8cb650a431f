package compression

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind identifies a compression codec. The values match the ORC
// CompressionKind ordinals stored in file postscripts.
type Kind uint8

const (
	KindNone Kind = iota
	KindZlib
	KindSnappy
	KindLZO
	KindLZ4
	KindZstd
)

var kindNames = [...]string{
	KindNone:   "NONE",
	KindZlib:   "ZLIB",
	KindSnappy: "SNAPPY",
	KindLZO:    "LZO",
	KindLZ4:    "LZ4",
	KindZstd:   "ZSTD",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// ParseKind parses a codec name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for i, kn := range kindNames {
		if kn == n {
			return Kind(i), nil
		}
	}
	return 0, errors.Newf("unknown compression codec %q", name)
}

// Modifier tunes a codec for speed or for the kind of data it compresses.
type Modifier uint8

const (
	ModFastest Modifier = iota
	ModFast
	ModDefault
	ModText
	ModBinary
)

func (m Modifier) String() string {
	switch m {
	case ModFastest:
		return "FASTEST"
	case ModFast:
		return "FAST"
	case ModDefault:
		return "DEFAULT"
	case ModText:
		return "TEXT"
	case ModBinary:
		return "BINARY"
	}
	return "UNKNOWN"
}

// ParseModifier converts a modifier name (case-insensitive) to a Modifier.
func ParseModifier(name string) (Modifier, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	for m := ModFastest; m <= ModBinary; m++ {
		if m.String() == n {
			return m, nil
		}
	}
	return 0, errors.Newf("unknown codec modifier %q", name)
}

// settings is the result of applying modifiers.
type settings struct {
	speed Modifier // ModFastest, ModFast or ModDefault
	text  bool
}

func (s settings) apply(mods []Modifier) settings {
	for _, m := range mods {
		switch m {
		case ModFastest, ModFast, ModDefault:
			s.speed = m
		case ModText:
			s.text = true
		case ModBinary:
			s.text = false
		}
	}
	return s
}

var (
	// ErrUnsupportedCodec is returned for codecs that are recognized but not implemented.
	ErrUnsupportedCodec = errors.New("unsupported compression codec")
	// ErrCorruptChunk marks a compressed chunk that cannot be decoded.
	ErrCorruptChunk = errors.New("corrupt compressed chunk")
)

// Codec compresses and decompresses chunks. Codecs are immutable and safe
// for concurrent use.
type Codec interface {
	Kind() Kind
	// Compress returns ok=false, with no data, when the compressed form
	// would not be smaller than src.
	Compress(src []byte) (dst []byte, ok bool, err error)
	// Decompress fails when the output would exceed maxSize bytes.
	Decompress(src []byte, maxSize int) ([]byte, error)
	// Modify returns a codec with the modifiers applied.
	Modify(mods ...Modifier) Codec
}

// New returns the codec for kind with default settings.
func New(kind Kind) (Codec, error) {
	s := settings{speed: ModDefault}
	switch kind {
	case KindNone:
		return &NoneCodec{}, nil
	case KindZlib:
		return &ZlibCodec{settings: s}, nil
	case KindSnappy:
		return &SnappyCodec{}, nil
	case KindLZ4:
		return &LZ4Codec{settings: s}, nil
	case KindZstd:
		return newZstdCodec(s)
	default:
		return nil, errors.Wrapf(ErrUnsupportedCodec, "%s", kind)
	}
}

// smaller reports whether a compressed output is worth keeping.
func smaller(compressed, src []byte) bool {
	return len(compressed) < len(src)
}
