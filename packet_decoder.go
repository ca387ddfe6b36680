package sarama

import "github.com/rcrowley/go-metrics"

// packetDecoder is an interface providing helpers for reading with Kafka's
// encoding rules. Types implementing Decoder only need to worry about
// calling methods like GetString, not about reading length prefixes.
type packetDecoder interface {
	// Primitives
	getInt8() (int8, error)
	getInt16() (int16, error)
	getInt32() (int32, error)
	getInt64() (int64, error)
	getVarint() (int64, error)
	getUVarint() (uint64, error)
	getArrayLength() (int, error)
	getCompactArrayLength() (int, error)
	getBool() (bool, error)
	getEmptyTaggedFieldArray() (int, error)

	// Collections
	getBytes() ([]byte, error)
	getVarintBytes() ([]byte, error)
	getCompactBytes() ([]byte, error)
	getRawBytes(length int) ([]byte, error)
	getString() (string, error)
	getNullableString() (*string, error)
	getCompactString() (string, error)
	getCompactNullableString() (*string, error)
	getCompactInt32Array() ([]int32, error)
	getInt32Array() ([]int32, error)
	getInt64Array() ([]int64, error)
	getStringArray() ([]string, error)

	// Subsets
	remaining() int
	getSubset(length int) (packetDecoder, error)
	peek(offset, length int) (packetDecoder, error) // similar to getSubset, but it doesn't advance the offset of the current decoder
	peekInt8(offset int) (int8, error)               // similarly, but for int8s

	// Stacks, see PushDecoder
	push(in pushDecoder) error
	pop() error

	metricRegistry() metrics.Registry
}

// pushDecoder is the interface for decoders that are capable of being
// pushed onto the stack of a packetDecoder, used for length- or
// checksum-verified spans.
type pushDecoder interface {
	// saveOffset is called at the start of the field's decoding, so the
	// implementation can save the offset to come back to later.
	saveOffset(in int)

	// reserveLength returns the number of bytes (not necessarily just
	// the length field itself) to reserve at the beginning of the
	// decoding.
	reserveLength() int

	// check is called at the end of the field's decoding, so the
	// implementation can check that the reserved values matched what
	// was actually decoded.
	check(curOffset int, buf []byte) error
}
