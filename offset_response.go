package sarama

// OffsetResponseBlock carries the resolved offset(s) for one
// topic/partition. Version 0 can return multiple offsets (a list, newest
// first); version 1+ always returns exactly one, alongside its timestamp.
type OffsetResponseBlock struct {
	Err       KError
	Timestamp int64
	Offset    int64 // used in version 1 and newer
	Offsets   []int64
}

func (b *OffsetResponseBlock) decode(pd packetDecoder, version int16) (err error) {
	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	b.Err = KError(tmp)

	if version == 0 {
		b.Offsets, err = pd.getInt64Array()
		return err
	}

	if b.Timestamp, err = pd.getInt64(); err != nil {
		return err
	}
	if b.Offset, err = pd.getInt64(); err != nil {
		return err
	}
	return nil
}

func (b *OffsetResponseBlock) encode(pe packetEncoder, version int16) (err error) {
	pe.putInt16(int16(b.Err))

	if version == 0 {
		return pe.putInt64Array(b.Offsets)
	}

	pe.putInt64(b.Timestamp)
	pe.putInt64(b.Offset)
	return nil
}

// OffsetResponse is the broker's reply to an OffsetRequest.
type OffsetResponse struct {
	Version        int16
	ThrottleTimeMs int32
	Blocks         map[string]map[int32]*OffsetResponseBlock
}

func (r *OffsetResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if version >= 2 {
		if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
			return err
		}
	}

	numTopics, err := pd.getArrayLength()
	if err != nil {
		return err
	}

	r.Blocks = make(map[string]map[int32]*OffsetResponseBlock, numTopics)
	for i := 0; i < numTopics; i++ {
		name, err := pd.getString()
		if err != nil {
			return err
		}

		numBlocks, err := pd.getArrayLength()
		if err != nil {
			return err
		}

		r.Blocks[name] = make(map[int32]*OffsetResponseBlock, numBlocks)

		for j := 0; j < numBlocks; j++ {
			id, err := pd.getInt32()
			if err != nil {
				return err
			}
			block := new(OffsetResponseBlock)
			if err := block.decode(pd, version); err != nil {
				return err
			}
			r.Blocks[name][id] = block
		}
	}

	return nil
}

func (r *OffsetResponse) encode(pe packetEncoder) (err error) {
	if r.Version >= 2 {
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

func (r *OffsetResponse) key() int16 {
	return apiKeyListOffsets
}

func (r *OffsetResponse) version() int16 {
	return r.Version
}

func (r *OffsetResponse) setVersion(v int16) {
	r.Version = v
}

func (r *OffsetResponse) headerVersion() int16 {
	return 0
}

func (r *OffsetResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 5
}

func (r *OffsetResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_10_1_0
	default:
		return V0_8_2_0
	}
}

// GetBlock returns the OffsetResponseBlock for the given topic/partition,
// or nil if the broker didn't include one.
func (r *OffsetResponse) GetBlock(topic string, partition int32) *OffsetResponseBlock {
	if r.Blocks == nil {
		return nil
	}
	if r.Blocks[topic] == nil {
		return nil
	}
	return r.Blocks[topic][partition]
}
