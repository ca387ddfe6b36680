package sarama

import (
	"time"

	"github.com/rcrowley/go-metrics"
)

const recordBatchOverhead = 49

// RecordBatch is the v2 record container (Kafka 0.11+), the successor to
// the legacy MessageSet used by magic 0/1. Unlike MessageSet, the whole
// batch of records is compressed together rather than message-by-message,
// and offsets/timestamps inside are deltas from FirstOffset/FirstTimestamp
// per spec.md §4.7's "flatten nested sets, rebase relative offsets"
// requirement.
type RecordBatch struct {
	FirstOffset          int64
	PartitionLeaderEpoch int32
	Version              int8
	Codec                CompressionCodec
	CompressionLevel     int
	Control              bool
	LogAppendTime        bool
	LastOffsetDelta      int32
	FirstTimestamp       time.Time
	MaxTimestamp         time.Time
	ProducerID           int64
	ProducerEpoch        int16
	FirstSequence        int32
	Records              []*Record

	PartialTrailingRecord bool

	compressedRecords []byte
	recordsLen        int
}

func (b *RecordBatch) computeAttributes() int16 {
	attr := int16(b.Codec) & int16(compressionCodecMask)
	if b.Control {
		attr |= 0x20
	}
	if b.LogAppendTime {
		attr |= 0x08
	}
	return attr
}

func (b *RecordBatch) encode(pe packetEncoder) error {
	if b.Version != 2 {
		return PacketEncodingError{"unsupported RecordBatch version"}
	}

	pe.putInt64(b.FirstOffset)
	pe.push(&lengthField{})
	pe.putInt32(b.PartitionLeaderEpoch)
	pe.putInt8(b.Version)
	pe.push(newCRC32Field(crcCastagnoli))

	pe.putInt16(b.computeAttributes())
	pe.putInt32(b.LastOffsetDelta)

	putTimestamp(pe, b.FirstTimestamp)
	putTimestamp(pe, b.MaxTimestamp)

	pe.putInt64(b.ProducerID)
	pe.putInt16(b.ProducerEpoch)
	pe.putInt32(b.FirstSequence)

	if err := pe.putArrayLength(len(b.Records)); err != nil {
		return err
	}

	if b.compressedRecords == nil {
		if err := b.encodeRecords(pe.metricRegistry()); err != nil {
			return err
		}
	}
	if err := pe.putRawBytes(b.compressedRecords); err != nil {
		return err
	}

	if err := pe.pop(); err != nil { // crc
		return err
	}
	return pe.pop() // length
}

// encodeRecords runs each Record through the two-pass encode() helper,
// concatenates the results, and (if a codec is set) compresses the whole
// batch in one shot, caching the outcome in compressedRecords so repeated
// encode() calls from the prep and real passes of encoder_decoder.go's
// encode() don't recompress.
func (b *RecordBatch) encodeRecords(registry metrics.Registry) error {
	var raw []byte
	for _, r := range b.Records {
		encoded, err := encode(r, registry)
		if err != nil {
			return err
		}
		raw = append(raw, encoded...)
	}
	b.recordsLen = len(raw)

	compressed, err := compress(b.Codec, b.CompressionLevel, raw)
	if err != nil {
		return err
	}
	b.compressedRecords = compressed
	return nil
}

func (b *RecordBatch) decode(pd packetDecoder) (err error) {
	if b.FirstOffset, err = pd.getInt64(); err != nil {
		return err
	}

	batchLen, err := pd.getInt32()
	if err != nil {
		return err
	}

	if b.PartitionLeaderEpoch, err = pd.getInt32(); err != nil {
		return err
	}

	if b.Version, err = pd.getInt8(); err != nil {
		return err
	}

	if err = pd.push(newCRC32Field(crcCastagnoli)); err != nil {
		return err
	}

	attributes, err := pd.getInt16()
	if err != nil {
		return err
	}
	b.Codec = CompressionCodec(int8(attributes) & compressionCodecMask)
	b.Control = attributes&0x20 != 0
	b.LogAppendTime = attributes&0x08 != 0

	if b.LastOffsetDelta, err = pd.getInt32(); err != nil {
		return err
	}

	if b.FirstTimestamp, err = getTimestamp(pd); err != nil {
		return err
	}

	if b.MaxTimestamp, err = getTimestamp(pd); err != nil {
		return err
	}

	if b.ProducerID, err = pd.getInt64(); err != nil {
		return err
	}

	if b.ProducerEpoch, err = pd.getInt16(); err != nil {
		return err
	}

	if b.FirstSequence, err = pd.getInt32(); err != nil {
		return err
	}

	numRecs, err := pd.getArrayLength()
	if err != nil {
		return err
	}

	// batchLen counts everything from PartitionLeaderEpoch onward; derive
	// how much of that is left for the (possibly compressed) records blob.
	recordsByteLen := int(batchLen) - recordBatchOverhead
	if recordsByteLen < 0 {
		recordsByteLen = 0
	}

	recordsBlob, err := pd.getRawBytes(recordsByteLen)
	if err != nil {
		if err == ErrInsufficientData {
			b.PartialTrailingRecord = true
			return pd.pop()
		}
		return err
	}

	if numRecs >= 0 {
		if err := b.decodeRecords(recordsBlob, numRecs, pd.metricRegistry()); err != nil {
			return err
		}
	}

	return pd.pop()
}

func (b *RecordBatch) decodeRecords(blob []byte, numRecs int, registry metrics.Registry) error {
	raw, err := decompress(b.Codec, blob)
	if err != nil {
		return err
	}
	b.recordsLen = len(raw)

	in := &realDecoder{raw: raw, registry: registry}
	b.Records = make([]*Record, 0, numRecs)
	for in.remaining() > 0 {
		rec := new(Record)
		if err := rec.decode(in); err != nil {
			if err == ErrInsufficientData {
				b.PartialTrailingRecord = true
				break
			}
			return err
		}
		b.Records = append(b.Records, rec)
	}
	return nil
}

func putTimestamp(pe packetEncoder, t time.Time) {
	timestamp := int64(-1)
	if !t.Before(time.Unix(0, 0)) {
		timestamp = t.UnixNano() / int64(time.Millisecond)
	}
	pe.putInt64(timestamp)
}

func getTimestamp(pd packetDecoder) (time.Time, error) {
	millis, err := pd.getInt64()
	if err != nil {
		return time.Time{}, err
	}
	if millis < 0 {
		return time.Time{}, nil
	}
	return time.Unix(millis/1000, (millis%1000)*int64(time.Millisecond)), nil
}

// addRecord appends a record and keeps LastOffsetDelta in sync, mirroring
// MessageSet.addMessage for the v2 format.
func (b *RecordBatch) addRecord(r *Record) {
	r.OffsetDelta = int64(len(b.Records))
	b.LastOffsetDelta = int32(len(b.Records))
	b.Records = append(b.Records, r)
}
