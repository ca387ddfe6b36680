package sarama

import "github.com/rcrowley/go-metrics"

// packetEncoder is an interface providing helpers for writing with Kafka's
// encoding rules. Types implementing Encoder only need to worry about
// calling methods like PutString, not about passing the wire type (tag),
// or encoding length prefixes.
type packetEncoder interface {
	// Primitives
	putInt8(in int8)
	putInt16(in int16)
	putInt32(in int32)
	putInt64(in int64)
	putVarint(in int64)
	putUVarint(in uint64)
	putArrayLength(in int) error
	putCompactArrayLength(in int)
	putBool(in bool)

	// Collections
	putBytes(in []byte) error
	putVarintBytes(in []byte) error
	putCompactBytes(in []byte) error
	putRawBytes(in []byte) error
	putCompactString(in string) error
	putNullableCompactString(in *string) error
	putString(in string) error
	putNullableString(in *string) error
	putStringArray(in []string) error
	putCompactInt32Array(in []int32) error
	putInt32Array(in []int32) error
	putInt64Array(in []int64) error
	putEmptyTaggedFieldArray()

	// Stacks, see PushEncoder
	push(in pushEncoder)
	pop() error

	// To record the used space
	offset() int

	// To check compatibility with version
	putRawNullableBytes(in []byte) error

	metricRegistry() metrics.Registry
}

// pushEncoder is the interface for encoders that are capable of being pushed
// onto the stack of a packetEncoder, used for length- or checksum-prefixed
// spans (crc32Field, lengthField) whose content is not known until the
// remainder of the packet has been written.
type pushEncoder interface {
	// saveOffset is called at the start of the field's encoding, so the
	// implementation can save the offset to come back to later.
	saveOffset(in int)

	// reserveLength returns the number of bytes (not necessarily just
	// the length field itself) to reserve at the beginning of the
	// encoding.
	reserveLength() int

	// run is called at the end of the field's encoding, with the
	// current stream's encoder so that the field can write in its
	// saved offset and the length (and in some cases, checksum) of the
	// bytes written in between.
	run(curOffset int, buf []byte) error
}
