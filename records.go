package sarama

import "fmt"

const (
	unknownRecords = iota
	legacyRecords
	defaultRecords
)

// Records implements a dual encode/decode that picks the legacy MessageSet
// form (magic 0/1) or the v2 RecordBatch form based on a peek at the magic
// byte, so the fetch path can transparently flatten whichever format a
// given leader returns per spec.md §4.7.
type Records struct {
	recordsType int
	MsgSet      *MessageSet
	RecordBatch *RecordBatch
}

func newLegacyRecords(msgSet *MessageSet) Records {
	return Records{recordsType: legacyRecords, MsgSet: msgSet}
}

func newDefaultRecords(batch *RecordBatch) Records {
	return Records{recordsType: defaultRecords, RecordBatch: batch}
}

func (r *Records) setTypeFromFields() error {
	if r.MsgSet != nil {
		r.recordsType = legacyRecords
		return nil
	}
	if r.RecordBatch != nil {
		r.recordsType = defaultRecords
		return nil
	}
	return fmt.Errorf("kafka: cannot determine records type: no fields set")
}

func (r *Records) encode(pe packetEncoder) error {
	if r.recordsType == unknownRecords {
		if err := r.setTypeFromFields(); err != nil {
			return err
		}
	}
	switch r.recordsType {
	case legacyRecords:
		if r.MsgSet == nil {
			return nil
		}
		return r.MsgSet.encode(pe)
	case defaultRecords:
		if r.RecordBatch == nil {
			return nil
		}
		return r.RecordBatch.encode(pe)
	}
	return PacketEncodingError{fmt.Sprintf("unknown records type: %v", r.recordsType)}
}

func (r *Records) decode(pd packetDecoder) error {
	if r.recordsType == unknownRecords {
		magic, err := magicValue(pd)
		if err != nil {
			return err
		}
		if magic < 2 {
			r.recordsType = legacyRecords
		} else {
			r.recordsType = defaultRecords
		}
	}

	switch r.recordsType {
	case legacyRecords:
		r.MsgSet = &MessageSet{}
		return r.MsgSet.decode(pd)
	case defaultRecords:
		r.RecordBatch = &RecordBatch{}
		return r.RecordBatch.decode(pd)
	}
	return PacketDecodingError{fmt.Sprintf("unknown records type: %v", r.recordsType)}
}

// numRecords reports how many individual records are present, after
// flattening any nested/compressed legacy blocks.
func (r *Records) numRecords() (int, error) {
	switch r.recordsType {
	case legacyRecords:
		if r.MsgSet == nil {
			return 0, nil
		}
		total := 0
		for _, msb := range r.MsgSet.Messages {
			total += len(msb.Messages())
		}
		return total, nil
	case defaultRecords:
		if r.RecordBatch == nil {
			return 0, nil
		}
		return len(r.RecordBatch.Records), nil
	}
	return 0, PacketDecodingError{fmt.Sprintf("unknown records type: %v", r.recordsType)}
}

// isPartial reports whether the wire representation was truncated
// mid-record, the signal the fetch engine uses to stop growing
// fetch.max.bytes and accept a smaller batch per spec.md §4.7.
func (r *Records) isPartial() (bool, error) {
	switch r.recordsType {
	case legacyRecords:
		if r.MsgSet == nil {
			return false, nil
		}
		return r.MsgSet.PartialTrailingMessage, nil
	case defaultRecords:
		if r.RecordBatch == nil {
			return false, nil
		}
		return r.RecordBatch.PartialTrailingRecord, nil
	}
	return false, PacketDecodingError{fmt.Sprintf("unknown records type: %v", r.recordsType)}
}

// isControl reports whether this batch is a Kafka transaction control
// batch (commit/abort marker). Legacy message sets never carry one.
func (r *Records) isControl() (bool, error) {
	switch r.recordsType {
	case legacyRecords:
		return false, nil
	case defaultRecords:
		if r.RecordBatch == nil {
			return false, nil
		}
		return r.RecordBatch.Control, nil
	}
	return false, PacketDecodingError{fmt.Sprintf("unknown records type: %v", r.recordsType)}
}

// nextOffset reports the offset one past the last record this batch
// carries, even when every record in it was filtered out (e.g. a
// control-only batch), so the fetch loop can advance past it instead of
// retrying at the same offset forever.
func (r *Records) nextOffset() *int64 {
	if r.recordsType != defaultRecords || r.RecordBatch == nil {
		return nil
	}
	next := r.RecordBatch.FirstOffset + int64(r.RecordBatch.LastOffsetDelta) + 1
	return &next
}
