package container

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressed payloads carry an 8-byte block header:
// [UncompressedSize uint32][CompressedSize uint32][Data...]
// If CompressedSize == 0, the block is stored uncompressed.
const blockHeaderSize = 8

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compressBlock compresses data with the codec selected by flag (flagZstd or
// flagLZ4) and prepends the block header. Incompressible data is stored raw
// with CompressedSize == 0.
func compressBlock(data []byte, flag uint8) ([]byte, error) {
	var compressed []byte
	switch flag {
	case flagZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	case flagLZ4:
		bound := lz4.CompressBlockBound(len(data))
		buf := make([]byte, bound)
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("container: lz4 compress: %w", err)
		}
		compressed = buf[:n] // n == 0 means incompressible
	default:
		return nil, fmt.Errorf("container: unknown compression flag %#x", flag)
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		out := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(out[4:], 0)
		copy(out[blockHeaderSize:], data)
		return out, nil
	}

	out := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[blockHeaderSize:], compressed)
	return out, nil
}

// decompressBlock reverses compressBlock.
func decompressBlock(data []byte, flag uint8) ([]byte, error) {
	if len(data) < blockHeaderSize {
		return nil, fmt.Errorf("block too small for header: %w", ErrCorrupt)
	}
	rawLen := binary.LittleEndian.Uint32(data[0:])
	compLen := binary.LittleEndian.Uint32(data[4:])

	if compLen == 0 {
		if uint32(len(data)-blockHeaderSize) < rawLen {
			return nil, fmt.Errorf("raw block truncated: %w", ErrCorrupt)
		}
		return data[blockHeaderSize : blockHeaderSize+rawLen], nil
	}
	if uint32(len(data)-blockHeaderSize) < compLen {
		return nil, fmt.Errorf("compressed block truncated: %w", ErrCorrupt)
	}
	payload := data[blockHeaderSize : blockHeaderSize+compLen]

	switch flag {
	case flagZstd:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(payload, make([]byte, 0, rawLen))
		putZstdDecoder(dec)
		if err != nil {
			return nil, fmt.Errorf("container: zstd decompress: %w", err)
		}
		if uint32(len(out)) != rawLen {
			return nil, fmt.Errorf("decompressed size mismatch: %w", ErrCorrupt)
		}
		return out, nil
	case flagLZ4:
		out := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("container: lz4 decompress: %w", err)
		}
		if uint32(n) != rawLen {
			return nil, fmt.Errorf("decompressed size mismatch: %w", ErrCorrupt)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("container: unknown compression flag %#x", flag)
	}
}
