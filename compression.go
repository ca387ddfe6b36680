package sarama

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io/ioutil"

	snappy "github.com/eapache/go-xerial-snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionCodec represents the various compression codecs recognized by
// Kafka in messages, encoded in the low three bits of a message's
// attributes byte per spec.md §4.1. This client treats the codec purely as
// compress(bytes) → bytes / decompress(bytes) → bytes collaborators per
// spec.md §1; the codecs below are the concrete libraries wired behind
// that contract.
type CompressionCodec int8

const (
	CompressionNone   CompressionCodec = 0
	CompressionGZIP   CompressionCodec = 1
	CompressionSnappy CompressionCodec = 2
	CompressionLZ4    CompressionCodec = 3
	CompressionZSTD   CompressionCodec = 4

	compressionCodecMask int8 = 0x07
)

func (cc CompressionCodec) String() string {
	switch cc {
	case CompressionNone:
		return "none"
	case CompressionGZIP:
		return "gzip"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", cc)
	}
}

// UnmarshalText parses a human-readable compression codec name, for use in
// configuration files and flags (e.g. "gzip", "snappy", "lz4", "zstd",
// "none").
func (cc *CompressionCodec) UnmarshalText(text []byte) error {
	switch string(text) {
	case "none":
		*cc = CompressionNone
	case "gzip":
		*cc = CompressionGZIP
	case "snappy":
		*cc = CompressionSnappy
	case "lz4":
		*cc = CompressionLZ4
	case "zstd":
		*cc = CompressionZSTD
	default:
		return fmt.Errorf("unknown compression codec %q", text)
	}
	return nil
}

// MarshalText renders the codec's human-readable name.
func (cc CompressionCodec) MarshalText() ([]byte, error) {
	return []byte(cc.String()), nil
}

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithWindowSize(1<<20))
var zstdDecoder, _ = zstd.NewReader(nil)

func compress(cc CompressionCodec, level int, data []byte) ([]byte, error) {
	switch cc {
	case CompressionNone:
		return data, nil
	case CompressionGZIP:
		var buf bytes.Buffer
		var writer *gzip.Writer
		if level != CompressionLevelDefault {
			var err error
			writer, err = gzip.NewWriterLevel(&buf, level)
			if err != nil {
				return nil, err
			}
		} else {
			writer = gzip.NewWriter(&buf)
		}
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionSnappy:
		return snappy.Encode(data), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		writer := lz4.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZSTD:
		return zstdEncoder.EncodeAll(data, nil), nil
	default:
		return nil, PacketEncodingError{fmt.Sprintf("unsupported compression codec (%d)", cc)}
	}
}

func decompress(cc CompressionCodec, data []byte) ([]byte, error) {
	switch cc {
	case CompressionNone:
		return data, nil
	case CompressionGZIP:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer reader.Close()
		return ioutil.ReadAll(reader)
	case CompressionSnappy:
		return snappy.Decode(data)
	case CompressionLZ4:
		reader := lz4.NewReader(bytes.NewReader(data))
		return ioutil.ReadAll(reader)
	case CompressionZSTD:
		return zstdDecoder.DecodeAll(data, nil)
	default:
		return nil, PacketDecodingError{fmt.Sprintf("invalid compression specified (%d)", cc)}
	}
}

// CompressionLevelDefault is the constant to use in CompressionLevel in
// the producer's config when the default compression level is desired.
const CompressionLevelDefault = -1000
