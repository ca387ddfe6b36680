package sarama

// OffsetFetchResponseBlock is one partition's last committed offset, its
// commit metadata, and any per-partition error.
type OffsetFetchResponseBlock struct {
	Offset   int64
	Metadata string
	Err      KError
}

func (b *OffsetFetchResponseBlock) decode(pd packetDecoder, version int16) (err error) {
	if b.Offset, err = pd.getInt64(); err != nil {
		return err
	}
	if b.Metadata, err = pd.getString(); err != nil {
		return err
	}
	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	b.Err = KError(tmp)
	return nil
}

func (b *OffsetFetchResponseBlock) encode(pe packetEncoder, version int16) (err error) {
	pe.putInt64(b.Offset)
	if err = pe.putString(b.Metadata); err != nil {
		return err
	}
	pe.putInt16(int16(b.Err))
	return nil
}

// OffsetFetchResponse is the broker's reply to an OffsetFetchRequest. A
// block with Offset == -1 means the group has no committed offset on
// file for that partition, per spec.md §4.4's "-1 sentinel" convention.
type OffsetFetchResponse struct {
	Version        int16
	ThrottleTimeMs int32
	Blocks         map[string]map[int32]*OffsetFetchResponseBlock
	Err            KError
}

func (r *OffsetFetchResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	numTopics, err := pd.getArrayLength()
	if err != nil {
		return err
	}

	r.Blocks = make(map[string]map[int32]*OffsetFetchResponseBlock, numTopics)
	for i := 0; i < numTopics; i++ {
		name, err := pd.getString()
		if err != nil {
			return err
		}

		numBlocks, err := pd.getArrayLength()
		if err != nil {
			return err
		}

		r.Blocks[name] = make(map[int32]*OffsetFetchResponseBlock, numBlocks)

		for j := 0; j < numBlocks; j++ {
			id, err := pd.getInt32()
			if err != nil {
				return err
			}
			block := new(OffsetFetchResponseBlock)
			if err := block.decode(pd, version); err != nil {
				return err
			}
			r.Blocks[name][id] = block
		}
	}

	if r.Version >= 2 {
		tmp, err := pd.getInt16()
		if err != nil {
			return err
		}
		r.Err = KError(tmp)
	}

	if r.Version >= 3 {
		if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
			return err
		}
	}

	return nil
}

func (r *OffsetFetchResponse) encode(pe packetEncoder) (err error) {
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

	if r.Version >= 2 {
		pe.putInt16(int16(r.Err))
	}

	if r.Version >= 3 {
		pe.putInt32(r.ThrottleTimeMs)
	}

	return nil
}

func (r *OffsetFetchResponse) key() int16 {
	return apiKeyOffsetFetch
}

func (r *OffsetFetchResponse) version() int16 {
	return r.Version
}

func (r *OffsetFetchResponse) setVersion(v int16) {
	r.Version = v
}

func (r *OffsetFetchResponse) headerVersion() int16 {
	return 0
}

func (r *OffsetFetchResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 7
}

func (r *OffsetFetchResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 2:
		return V0_10_2_0
	default:
		return V0_8_2_0
	}
}

// GetBlock returns the OffsetFetchResponseBlock for the given
// topic/partition, or nil if the broker didn't include one.
func (r *OffsetFetchResponse) GetBlock(topic string, partition int32) *OffsetFetchResponseBlock {
	if r.Blocks == nil {
		return nil
	}
	if r.Blocks[topic] == nil {
		return nil
	}
	return r.Blocks[topic][partition]
}

// AddBlock records a committed-offset block, for use building fake
// responses in tests.
func (r *OffsetFetchResponse) AddBlock(topic string, partition int32, block *OffsetFetchResponseBlock) {
	if r.Blocks == nil {
		r.Blocks = make(map[string]map[int32]*OffsetFetchResponseBlock)
	}
	partitions := r.Blocks[topic]
	if partitions == nil {
		partitions = make(map[int32]*OffsetFetchResponseBlock)
		r.Blocks[topic] = partitions
	}
	partitions[partition] = block
}
