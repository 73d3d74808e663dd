package blob

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression tags the body of an envelope. Values are part of the
// stored format.
type Compression uint8

const (
	None Compression = 0
	LZ4  Compression = 1
	Zstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return Zstd, nil
	}
	return 0, fmt.Errorf("unknown compression %q", name)
}

var errIncompressible = errors.New("incompressible")

// maxLZ4Ratio is the most an LZ4 block can expand: a match length byte
// covers at most 255 output bytes.
const maxLZ4Ratio = 255

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("blob: zstd encoder: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxSize))
	if err != nil {
		panic("blob: zstd decoder: " + err.Error())
	}
}

func compress(raw []byte, c Compression) ([]byte, error) {
	switch c {
	case None:
		return raw, nil
	case LZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n == 0 || n >= len(raw) {
			return nil, errIncompressible
		}
		return dst[:n], nil
	case Zstd:
		out := zstdEncoder.EncodeAll(raw, nil)
		if len(out) >= len(raw) {
			return nil, errIncompressible
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported compression %s", c)
}

func decompress(body []byte, c Compression, size int) ([]byte, error) {
	switch c {
	case None:
		if len(body) != size {
			return nil, fmt.Errorf("body is %d bytes, want %d", len(body), size)
		}
		return body, nil
	case LZ4:
		if size > maxLZ4Ratio*len(body)+16 {
			return nil, fmt.Errorf("lz4: %d bytes cannot expand to %d", len(body), size)
		}
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(body, dst)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if n != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, want %d", n, size)
		}
		return dst, nil
	case Zstd:
		out, err := zstdDecoder.DecodeAll(body, make([]byte, 0, min(size, maxLZ4Ratio*len(body))))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, want %d", len(out), size)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported compression %s", c)
}
