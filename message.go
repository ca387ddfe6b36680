package sarama

import (
	"fmt"
	"time"
)

// Message is a kafka message type ("ProducedRecord" in spec.md §3), wire
// form used inside a MessageSet for magic versions 0 and 1.
type Message struct {
	Codec            CompressionCodec // codec used to compress the message contents
	CompressionLevel int              // compression level
	LogAppendTime    bool             // the used timestamp is LogAppendTime
	Key              []byte           // the message key
	Value            []byte           // the message contents
	Set              *MessageSet      // the message set a wrapper message contains
	Version          int8             // v1 requires Kafka 0.10
	Timestamp        time.Time        // the timestamp of the message (version 1+ only)

	compressedCache []byte
	compressedSize  int // used for computing the compression ratio metric
}

func (m *Message) encode(pe packetEncoder) error {
	pe.push(newCRC32Field(crcIEEE))

	pe.putInt8(m.Version)

	attributes := int8(m.Codec) & compressionCodecMask
	if m.LogAppendTime {
		attributes |= 0x08
	}
	pe.putInt8(attributes)

	if m.Version >= 1 {
		timestamp := int64(-1)
		if !m.Timestamp.Before(time.Unix(0, 0)) {
			timestamp = m.Timestamp.UnixNano() / int64(time.Millisecond)
		}
		pe.putInt64(timestamp)
	}

	err := pe.putBytes(m.Key)
	if err != nil {
		return err
	}

	var payload []byte

	if m.Codec != CompressionNone {
		if m.compressedCache != nil {
			payload = m.compressedCache
			m.compressedCache = nil
		} else {
			if m.Value != nil {
				payload, err = compress(m.Codec, m.CompressionLevel, m.Value)
				if err != nil {
					return err
				}
				m.compressedCache = payload
			}
			m.compressedSize = len(payload)
		}
	} else {
		payload = m.Value
	}

	if err = pe.putBytes(payload); err != nil {
		return err
	}

	return pe.pop()
}

func (m *Message) decode(pd packetDecoder) (err error) {
	err = pd.push(newCRC32Field(crcIEEE))
	if err != nil {
		return err
	}

	m.Version, err = pd.getInt8()
	if err != nil {
		return err
	}

	if m.Version > 1 {
		return PacketDecodingError{fmt.Sprintf("unknown magic byte (%d)", m.Version)}
	}

	attribute, err := pd.getInt8()
	if err != nil {
		return err
	}
	m.Codec = CompressionCodec(attribute & compressionCodecMask)
	m.LogAppendTime = attribute&0x08 != 0

	if m.Version == 1 {
		millis, err := pd.getInt64()
		if err != nil {
			return err
		}
		if millis != -1 {
			m.Timestamp = time.Unix(millis/1000, (millis%1000)*int64(time.Millisecond))
		}
	}

	m.Key, err = pd.getBytes()
	if err != nil {
		return err
	}

	m.Value, err = pd.getBytes()
	if err != nil {
		return err
	}

	if m.Codec != CompressionNone && m.Value != nil {
		if m.Value, err = decompress(m.Codec, m.Value); err != nil {
			return err
		}
		if err := m.decodeSet(); err != nil {
			return err
		}
	}

	return pd.pop()
}

// decodeSet decodes a wrapped, compressed, nested MessageSet (a "Message"
// whose Value is itself a compressed MessageSet) per spec.md §4.7's
// "flatten nested sets" requirement.
func (m *Message) decodeSet() (err error) {
	pd := &realDecoder{raw: m.Value}
	m.Set = &MessageSet{}
	return m.Set.decode(pd)
}
