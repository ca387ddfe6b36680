package sarama

import "time"

// ProduceResponseBlock carries the per-partition outcome of a produce call:
// the error code (if any), the assigned base offset, and (version >= 2) the
// log-append timestamp — exactly what DeliveryResult in spec.md §3 needs.
type ProduceResponseBlock struct {
	Err    KError
	Offset int64

	// Timestamp is only returned on version >= 2, when LogAppendTime is
	// in effect on the broker.
	Timestamp time.Time
}

func (b *ProduceResponseBlock) decode(pd packetDecoder, version int16) (err error) {
	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	b.Err = KError(tmp)

	if b.Offset, err = pd.getInt64(); err != nil {
		return err
	}

	if version >= 2 {
		if b.Timestamp, err = getTimestamp(pd); err != nil {
			return err
		}
	}

	return nil
}

func (b *ProduceResponseBlock) encode(pe packetEncoder, version int16) (err error) {
	pe.putInt16(int16(b.Err))
	pe.putInt64(b.Offset)

	if version >= 2 {
		putTimestamp(pe, b.Timestamp)
	}

	return nil
}

// ProduceResponse is the broker's reply to a ProduceRequest.
type ProduceResponse struct {
	Version        int16
	Blocks         map[string]map[int32]*ProduceResponseBlock
	ThrottleTimeMs int32
}

func (r *ProduceResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	numTopics, err := pd.getArrayLength()
	if err != nil {
		return err
	}

	r.Blocks = make(map[string]map[int32]*ProduceResponseBlock, numTopics)
	for i := 0; i < numTopics; i++ {
		name, err := pd.getString()
		if err != nil {
			return err
		}

		numBlocks, err := pd.getArrayLength()
		if err != nil {
			return err
		}

		r.Blocks[name] = make(map[int32]*ProduceResponseBlock, numBlocks)

		for j := 0; j < numBlocks; j++ {
			id, err := pd.getInt32()
			if err != nil {
				return err
			}

			block := new(ProduceResponseBlock)
			if err := block.decode(pd, version); err != nil {
				return err
			}
			r.Blocks[name][id] = block
		}
	}

	if r.Version >= 1 {
		if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
			return err
		}
	}

	return nil
}

func (r *ProduceResponse) encode(pe packetEncoder) error {
	if err := pe.putArrayLength(len(r.Blocks)); err != nil {
		return err
	}
	for topic, partitions := range r.Blocks {
		if err := pe.putString(topic); err != nil {
			return err
		}
		if err := pe.putArrayLength(len(partitions)); err != nil {
			return err
		}
		for id, block := range partitions {
			pe.putInt32(id)
			if err := block.encode(pe, r.Version); err != nil {
				return err
			}
		}
	}

	if r.Version >= 1 {
		pe.putInt32(r.ThrottleTimeMs)
	}

	return nil
}

func (r *ProduceResponse) key() int16 {
	return apiKeyProduce
}

func (r *ProduceResponse) version() int16 {
	return r.Version
}

func (r *ProduceResponse) setVersion(v int16) {
	r.Version = v
}

func (r *ProduceResponse) headerVersion() int16 {
	return 0
}

func (r *ProduceResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 7
}

func (r *ProduceResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 3:
		return V0_11_0_0
	case r.Version == 2:
		return V0_10_0_0
	case r.Version == 1:
		return V0_9_0_0
	default:
		return V0_8_2_0
	}
}

// GetBlock returns the ProduceResponseBlock for the given topic/partition,
// or nil if the broker didn't report one (e.g. RequiredAcks == NoResponse).
func (r *ProduceResponse) GetBlock(topic string, partition int32) *ProduceResponseBlock {
	if r.Blocks == nil {
		return nil
	}
	if r.Blocks[topic] == nil {
		return nil
	}
	return r.Blocks[topic][partition]
}
