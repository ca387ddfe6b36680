package sarama

// Special timestamp values accepted by OffsetRequest in place of a wall-clock
// time, per spec.md §4.4's offset-resolution semantics.
const (
	OffsetNewest int64 = -1
	OffsetOldest int64 = -2
)

type offsetRequestBlock struct {
	Version            int16
	currentLeaderEpoch int32
	time               int64
	maxOffsets         int32 // only used in version 0
}

func (b *offsetRequestBlock) encode(pe packetEncoder, version int16) error {
	if version >= 4 {
		pe.putInt32(b.currentLeaderEpoch)
	}
	pe.putInt64(b.time)
	if version == 0 {
		pe.putInt32(b.maxOffsets)
	}
	return nil
}

func (b *offsetRequestBlock) decode(pd packetDecoder, version int16) (err error) {
	if version >= 4 {
		if b.currentLeaderEpoch, err = pd.getInt32(); err != nil {
			return err
		}
	}
	if b.time, err = pd.getInt64(); err != nil {
		return err
	}
	if version == 0 {
		if b.maxOffsets, err = pd.getInt32(); err != nil {
			return err
		}
	}
	return nil
}

// OffsetRequest resolves a timestamp (or OffsetNewest/OffsetOldest) to a
// concrete log offset per partition — Kafka's ListOffsets RPC, used by
// spec.md §4.4 when a consumer needs a starting point with no committed
// offset on file.
type OffsetRequest struct {
	Version        int16
	replicaID      int32
	isReplicaIDSet bool
	blocks         map[string]map[int32]*offsetRequestBlock
}

func (r *OffsetRequest) encode(pe packetEncoder) (err error) {
	if r.isReplicaIDSet {
		pe.putInt32(r.replicaID)
	} else {
		pe.putInt32(-1)
	}

	if r.Version >= 2 {
		pe.putInt8(0) // isolation level: always read_uncommitted for this client
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

func (r *OffsetRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	replicaID, err := pd.getInt32()
	if err != nil {
		return err
	}
	if replicaID >= 0 {
		r.SetReplicaID(replicaID)
	}

	if r.Version >= 2 {
		if _, err = pd.getInt8(); err != nil {
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
	r.blocks = make(map[string]map[int32]*offsetRequestBlock)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}
		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		r.blocks[topic] = make(map[int32]*offsetRequestBlock)
		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			block := new(offsetRequestBlock)
			if err := block.decode(pd, version); err != nil {
				return err
			}
			r.blocks[topic][partition] = block
		}
	}

	return nil
}

func (r *OffsetRequest) key() int16 {
	return apiKeyListOffsets
}

func (r *OffsetRequest) version() int16 {
	return r.Version
}

func (r *OffsetRequest) setVersion(v int16) {
	r.Version = v
}

func (r *OffsetRequest) headerVersion() int16 {
	return 1
}

func (r *OffsetRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 5
}

func (r *OffsetRequest) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_10_1_0
	default:
		return V0_8_2_0
	}
}

// SetReplicaID pins this request to a non-consumer replica id; unused by
// ordinary client callers, who always fetch with replicaID == -1.
func (r *OffsetRequest) SetReplicaID(id int32) {
	r.replicaID = id
	r.isReplicaIDSet = true
}

// AddBlock registers an offset-resolution query for the given
// topic/partition at the given timestamp (or OffsetNewest/OffsetOldest).
func (r *OffsetRequest) AddBlock(topic string, partitionID int32, time int64, maxOffsets int32) {
	if r.blocks == nil {
		r.blocks = make(map[string]map[int32]*offsetRequestBlock)
	}
	if r.blocks[topic] == nil {
		r.blocks[topic] = make(map[int32]*offsetRequestBlock)
	}
	r.blocks[topic][partitionID] = &offsetRequestBlock{time: time, maxOffsets: maxOffsets}
}
