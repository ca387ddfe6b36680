package sarama

// MetadataRequest asks a broker for cluster topology: broker addresses,
// controller id, and per-partition leader/replica/ISR assignments, per
// spec.md §4.3's "whole-snapshot" metadata model.
type MetadataRequest struct {
	Version                int16
	Topics                 []string
	AllowAutoTopicCreation bool
}

func (r *MetadataRequest) encode(pe packetEncoder) error {
	if r.Version < 0 {
		return pe.putArrayLength(-1)
	}

	if r.Topics == nil && r.Version >= 1 {
		if err := pe.putArrayLength(-1); err != nil {
			return err
		}
	} else {
		if err := pe.putStringArray(r.Topics); err != nil {
			return err
		}
	}

	if r.Version >= 4 {
		pe.putBool(r.AllowAutoTopicCreation)
	}

	return nil
}

func (r *MetadataRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	size, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	if size < 0 {
		r.Topics = nil
	} else {
		r.Topics = make([]string, size)
		for i := 0; i < size; i++ {
			if r.Topics[i], err = pd.getString(); err != nil {
				return err
			}
		}
	}

	if r.Version >= 4 {
		if r.AllowAutoTopicCreation, err = pd.getBool(); err != nil {
			return err
		}
	}

	return nil
}

func (r *MetadataRequest) key() int16 {
	return apiKeyMetadata
}

func (r *MetadataRequest) version() int16 {
	return r.Version
}

func (r *MetadataRequest) setVersion(v int16) {
	r.Version = v
}

func (r *MetadataRequest) headerVersion() int16 {
	return 1
}

func (r *MetadataRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 5
}

func (r *MetadataRequest) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 4:
		return V2_0_0_0
	case r.Version == 1:
		return V0_10_0_0
	default:
		return V0_8_2_0
	}
}
