package sarama

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rcrowley/go-metrics"
)

// encoder and decoder are the interfaces that wrap the basic encode/decode
// methods used by every request and response type: anything implementing them can be
// turned into or read back from bytes using the wire codec of spec.md §4.1.
type encoder interface {
	encode(pe packetEncoder) error
}

type decoder interface {
	decode(pd packetDecoder) error
}

// versionedDecoder is the interface that a decoder implements when its
// wire format depends on the negotiated protocol version.
type versionedDecoder interface {
	decode(pd packetDecoder, version int16) error
}

// Encoder is the interface for the user-supplied Key/Value payloads of a
// ProducerMessage (spec's PendingMessage key/value). StringEncoder and
// ByteEncoder are the two built-in implementations.
type Encoder interface {
	Encode() ([]byte, error)
	Length() int
}

// lengthField implements pushEncoder/pushDecoder for the int32 size prefix
// that wraps every request and response (spec.md §4.1). On encode, it
// reserves four bytes then back-fills them once the remainder of the
// packet has been written; on decode, it checks the declared length
// against what was actually consumed.
type lengthField struct {
	startOffset int
}

func (l *lengthField) saveOffset(in int) {
	l.startOffset = in
}

func (l *lengthField) reserveLength() int {
	return 4
}

func (l *lengthField) run(curOffset int, buf []byte) error {
	binary.BigEndian.PutUint32(buf[l.startOffset:], uint32(curOffset-l.startOffset-4))
	return nil
}

func (l *lengthField) check(curOffset int, buf []byte) error {
	if int32(curOffset-l.startOffset-4) != int32(binary.BigEndian.Uint32(buf[l.startOffset:])) {
		return PacketDecodingError{"length field invalid"}
	}
	return nil
}

func encode(e encoder, registry metrics.Registry) ([]byte, error) {
	if e == nil {
		return nil, nil
	}

	var prepEnc prepEncoder
	var realEnc realEncoder

	prepEnc.registry = registry
	if err := e.encode(&prepEnc); err != nil {
		return nil, err
	}

	if prepEnc.length < 0 || prepEnc.length > math.MaxInt32 || prepEnc.length > int(MaxRequestSize) {
		return nil, PacketEncodingError{fmt.Sprintf("invalid request size (%d)", prepEnc.length)}
	}

	realEnc.raw = make([]byte, prepEnc.length)
	realEnc.registry = registry
	if err := e.encode(&realEnc); err != nil {
		return nil, err
	}

	return realEnc.raw, nil
}

func decode(buf []byte, in decoder, registry metrics.Registry) error {
	if len(buf) == 0 {
		return nil
	}
	helper := realDecoder{raw: buf, registry: registry}
	if err := in.decode(&helper); err != nil {
		return err
	}
	if helper.off != len(buf) {
		return PacketDecodingError{"invalid length"}
	}
	return nil
}

func versionedDecode(buf []byte, in versionedDecoder, version int16, registry metrics.Registry) error {
	if len(buf) == 0 {
		return nil
	}
	helper := realDecoder{raw: buf, registry: registry}
	if err := in.decode(&helper, version); err != nil {
		return err
	}
	if helper.off != len(buf) {
		return PacketDecodingError{"invalid length"}
	}
	return nil
}

// StringEncoder implements Encoder for Go strings so that they can be used
// as the Key or Value of a ProducerMessage.
type StringEncoder string

func (s StringEncoder) Encode() ([]byte, error) {
	return []byte(s), nil
}

func (s StringEncoder) Length() int {
	return len(s)
}

// ByteEncoder implements Encoder for Go byte slices so that they can be
// used as the Key or Value of a ProducerMessage.
type ByteEncoder []byte

func (b ByteEncoder) Encode() ([]byte, error) {
	return b, nil
}

func (b ByteEncoder) Length() int {
	return len(b)
}
