package sarama

import "time"

// AbortedTransaction identifies a producer transaction the broker reports
// as aborted within the fetched range; carried for completeness but this
// client does not brokerage transactional reads (see Non-goals).
type AbortedTransaction struct {
	ProducerID  int64
	FirstOffset int64
}

func (t *AbortedTransaction) decode(pd packetDecoder) (err error) {
	if t.ProducerID, err = pd.getInt64(); err != nil {
		return err
	}
	t.FirstOffset, err = pd.getInt64()
	return err
}

func (t *AbortedTransaction) encode(pe packetEncoder) error {
	pe.putInt64(t.ProducerID)
	pe.putInt64(t.FirstOffset)
	return nil
}

// FetchResponseBlock is one partition's worth of fetched records: the
// partition-level error, the leader's high watermark (the offset of the
// next message to be written), and the flattened record set itself.
type FetchResponseBlock struct {
	Err                 KError
	HighWaterMarkOffset int64
	LastStableOffset    int64
	LogStartOffset      int64
	AbortedTransactions []*AbortedTransaction
	Records             *Records
	RecordsSet          []*Records
	Partial             bool
}

func (b *FetchResponseBlock) decode(pd packetDecoder, version int16) (err error) {
	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	b.Err = KError(tmp)

	if b.HighWaterMarkOffset, err = pd.getInt64(); err != nil {
		return err
	}

	if version >= 4 {
		if b.LastStableOffset, err = pd.getInt64(); err != nil {
			return err
		}
		if version >= 5 {
			if b.LogStartOffset, err = pd.getInt64(); err != nil {
				return err
			}
		}

		numAborted, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		if numAborted > 0 {
			b.AbortedTransactions = make([]*AbortedTransaction, numAborted)
			for i := 0; i < numAborted; i++ {
				t := new(AbortedTransaction)
				if err := t.decode(pd); err != nil {
					return err
				}
				b.AbortedTransactions[i] = t
			}
		}
	}

	recordsSize, err := pd.getInt32()
	if err != nil {
		return err
	}

	recordsDecoder, err := pd.getSubset(int(recordsSize))
	if err != nil {
		return err
	}

	records := &Records{}
	if err := records.decode(recordsDecoder); err != nil {
		if err == ErrInsufficientData {
			b.Partial = true
			return nil
		}
		return err
	}
	b.Records = records
	b.RecordsSet = []*Records{records}

	if partial, err := records.isPartial(); err == nil {
		b.Partial = partial
	}

	return nil
}

// numRecords reports how many individual records this block carries.
func (b *FetchResponseBlock) numRecords() (int, error) {
	if b.Records == nil {
		return 0, nil
	}
	return b.Records.numRecords()
}

// isPartial reports whether the block's wire representation was
// truncated mid-record.
func (b *FetchResponseBlock) isPartial() (bool, error) {
	if b.Records == nil {
		return false, nil
	}
	return b.Records.isPartial()
}

// recordsNextOffset reports the offset one past this block's last
// record, or nil if that can't be determined (legacy format, or no
// records at all).
func (b *FetchResponseBlock) recordsNextOffset() *int64 {
	if b.Records == nil {
		return nil
	}
	return b.Records.nextOffset()
}

func (b *FetchResponseBlock) encode(pe packetEncoder, version int16) (err error) {
	pe.putInt16(int16(b.Err))
	pe.putInt64(b.HighWaterMarkOffset)

	if version >= 4 {
		pe.putInt64(b.LastStableOffset)
		if version >= 5 {
			pe.putInt64(b.LogStartOffset)
		}
		if err = pe.putArrayLength(len(b.AbortedTransactions)); err != nil {
			return err
		}
		for _, t := range b.AbortedTransactions {
			if err := t.encode(pe); err != nil {
				return err
			}
		}
	}

	if b.Records == nil {
		pe.putInt32(0)
		return nil
	}

	body, err := encode(b.Records, pe.metricRegistry())
	if err != nil {
		return err
	}
	return pe.putBytes(body)
}

// FetchResponse is the broker's reply to a FetchRequest, one block per
// requested topic/partition.
type FetchResponse struct {
	Version        int16
	ThrottleTimeMs int32
	Blocks         map[string]map[int32]*FetchResponseBlock
	LastStableTime time.Time
}

func (r *FetchResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if version >= 1 {
		if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
			return err
		}
	}

	numTopics, err := pd.getArrayLength()
	if err != nil {
		return err
	}

	r.Blocks = make(map[string]map[int32]*FetchResponseBlock, numTopics)
	for i := 0; i < numTopics; i++ {
		name, err := pd.getString()
		if err != nil {
			return err
		}

		numBlocks, err := pd.getArrayLength()
		if err != nil {
			return err
		}

		r.Blocks[name] = make(map[int32]*FetchResponseBlock, numBlocks)

		for j := 0; j < numBlocks; j++ {
			id, err := pd.getInt32()
			if err != nil {
				return err
			}
			block := new(FetchResponseBlock)
			if err := block.decode(pd, version); err != nil {
				return err
			}
			r.Blocks[name][id] = block
		}
	}

	return nil
}

func (r *FetchResponse) encode(pe packetEncoder) (err error) {
	if r.Version >= 1 {
		pe.putInt32(r.ThrottleTimeMs)
	}

	if err = pe.putArrayLength(len(r.Blocks)); err != nil {
		return err
	}
	for topic, partitions := range r.Blocks {
		if err = pe.putString(topic); err != nil {
			return err
		}
		if err = pe.putArrayLength(len(partitions)); err != nil {
			return err
		}
		for id, block := range partitions {
			pe.putInt32(id)
			if err := block.encode(pe, r.Version); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *FetchResponse) key() int16 {
	return apiKeyFetch
}

func (r *FetchResponse) version() int16 {
	return r.Version
}

func (r *FetchResponse) setVersion(v int16) {
	r.Version = v
}

func (r *FetchResponse) headerVersion() int16 {
	return 0
}

func (r *FetchResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 11
}

func (r *FetchResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 4:
		return V0_11_0_0
	case r.Version == 3:
		return V0_10_1_0
	case r.Version == 2:
		return V0_10_0_0
	case r.Version == 1:
		return V0_9_0_0
	default:
		return V0_8_2_0
	}
}

// GetBlock returns the FetchResponseBlock for the given topic/partition, or
// nil if the broker didn't include one.
func (r *FetchResponse) GetBlock(topic string, partition int32) *FetchResponseBlock {
	if r.Blocks == nil {
		return nil
	}
	if r.Blocks[topic] == nil {
		return nil
	}
	return r.Blocks[topic][partition]
}
