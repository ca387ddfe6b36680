package sarama

type offsetCommitRequestBlock struct {
	offset      int64
	timestamp   int64 // only version 1
	metadata    string
}

func (b *offsetCommitRequestBlock) encode(pe packetEncoder, version int16) error {
	pe.putInt64(b.offset)
	if version == 1 {
		pe.putInt64(b.timestamp)
	}
	return pe.putString(b.metadata)
}

func (b *offsetCommitRequestBlock) decode(pd packetDecoder, version int16) (err error) {
	if b.offset, err = pd.getInt64(); err != nil {
		return err
	}
	if version == 1 {
		if b.timestamp, err = pd.getInt64(); err != nil {
			return err
		}
	}
	b.metadata, err = pd.getString()
	return err
}

// OffsetCommitRequest persists a consumer group's per-partition progress
// on the broker, per spec.md §4.4's OffsetManager design (threshold- and
// interval-driven autocommit feeds this request).
type OffsetCommitRequest struct {
	Version                  int16
	ConsumerGroup             string
	ConsumerGroupGeneration  int32
	ConsumerID               string
	RetentionTime            int64
	blocks                   map[string]map[int32]*offsetCommitRequestBlock
}

func (r *OffsetCommitRequest) encode(pe packetEncoder) (err error) {
	if err = pe.putString(r.ConsumerGroup); err != nil {
		return err
	}

	if r.Version >= 1 {
		pe.putInt32(r.ConsumerGroupGeneration)
		if err = pe.putString(r.ConsumerID); err != nil {
			return err
		}
	}

	if r.Version >= 2 {
		pe.putInt64(r.RetentionTime)
	}

	if err = pe.putArrayLength(len(r.blocks)); err != nil {
		return err
	}
	for topic, partitions := range r.blocks {
		if err = pe.putString(topic); err != nil {
			return err
		}
		if err = pe.putArrayLength(len(partitions)); err != nil {
			return err
		}
		for id, block := range partitions {
			pe.putInt32(id)
			if err = block.encode(pe, r.Version); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *OffsetCommitRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.ConsumerGroup, err = pd.getString(); err != nil {
		return err
	}

	if r.Version >= 1 {
		if r.ConsumerGroupGeneration, err = pd.getInt32(); err != nil {
			return err
		}
		if r.ConsumerID, err = pd.getString(); err != nil {
			return err
		}
	}

	if r.Version >= 2 {
		if r.RetentionTime, err = pd.getInt64(); err != nil {
			return err
		}
	}

	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	if topicCount == 0 {
		return nil
	}
	r.blocks = make(map[string]map[int32]*offsetCommitRequestBlock)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		r.blocks[topic] = make(map[int32]*offsetCommitRequestBlock)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			block := new(offsetCommitRequestBlock)
			if err := block.decode(pd, version); err != nil {
				return err
			}
			r.blocks[topic][partition] = block
		}
	}

	return nil
}

func (r *OffsetCommitRequest) key() int16 {
	return apiKeyOffsetCommit
}

func (r *OffsetCommitRequest) version() int16 {
	return r.Version
}

func (r *OffsetCommitRequest) setVersion(v int16) {
	r.Version = v
}

func (r *OffsetCommitRequest) headerVersion() int16 {
	return 1
}

func (r *OffsetCommitRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 8
}

func (r *OffsetCommitRequest) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 2:
		return V0_9_0_0
	case r.Version == 1:
		return V0_8_2_0
	default:
		return V0_8_2_0
	}
}

// AddBlock registers a (offset, metadata) commit for the given
// topic/partition.
func (r *OffsetCommitRequest) AddBlock(topic string, partitionID int32, offset int64, timestamp int64, metadata string) {
	if r.blocks == nil {
		r.blocks = make(map[string]map[int32]*offsetCommitRequestBlock)
	}
	if r.blocks[topic] == nil {
		r.blocks[topic] = make(map[int32]*offsetCommitRequestBlock)
	}
	r.blocks[topic][partitionID] = &offsetCommitRequestBlock{offset: offset, timestamp: timestamp, metadata: metadata}
}
