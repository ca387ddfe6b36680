package sarama

// PartitionMetadata mirrors spec.md §3's PartitionInfo: which broker leads
// the partition, which brokers replicate it, which replicas are in-sync,
// and any per-partition error (e.g. ErrLeaderNotAvailable mid-election).
type PartitionMetadata struct {
	Err             KError
	ID              int32
	Leader          int32
	Replicas        []int32
	Isr             []int32
	OfflineReplicas []int32
}

func (pm *PartitionMetadata) decode(pd packetDecoder, version int16) (err error) {
	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	pm.Err = KError(tmp)

	if pm.ID, err = pd.getInt32(); err != nil {
		return err
	}
	if pm.Leader, err = pd.getInt32(); err != nil {
		return err
	}
	if pm.Replicas, err = pd.getInt32Array(); err != nil {
		return err
	}
	if pm.Isr, err = pd.getInt32Array(); err != nil {
		return err
	}
	if version >= 5 {
		if pm.OfflineReplicas, err = pd.getInt32Array(); err != nil {
			return err
		}
	}
	return nil
}

func (pm *PartitionMetadata) encode(pe packetEncoder, version int16) (err error) {
	pe.putInt16(int16(pm.Err))
	pe.putInt32(pm.ID)
	pe.putInt32(pm.Leader)

	if err = pe.putInt32Array(pm.Replicas); err != nil {
		return err
	}
	if err = pe.putInt32Array(pm.Isr); err != nil {
		return err
	}
	if version >= 5 {
		if err = pe.putInt32Array(pm.OfflineReplicas); err != nil {
			return err
		}
	}
	return nil
}

// TopicMetadata mirrors spec.md §3's per-topic partition list, plus any
// topic-level error (ErrUnknownTopicOrPartition, ErrTopicAuthorizationFailed).
type TopicMetadata struct {
	Err        KError
	Name       string
	IsInternal bool
	Partitions []*PartitionMetadata
}

func (tm *TopicMetadata) decode(pd packetDecoder, version int16) (err error) {
	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	tm.Err = KError(tmp)

	if tm.Name, err = pd.getString(); err != nil {
		return err
	}

	if version >= 1 {
		if tm.IsInternal, err = pd.getBool(); err != nil {
			return err
		}
	}

	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	tm.Partitions = make([]*PartitionMetadata, n)
	for i := 0; i < n; i++ {
		tm.Partitions[i] = new(PartitionMetadata)
		if err := tm.Partitions[i].decode(pd, version); err != nil {
			return err
		}
	}

	return nil
}

func (tm *TopicMetadata) encode(pe packetEncoder, version int16) (err error) {
	pe.putInt16(int16(tm.Err))
	if err = pe.putString(tm.Name); err != nil {
		return err
	}

	if version >= 1 {
		pe.putBool(tm.IsInternal)
	}

	if err = pe.putArrayLength(len(tm.Partitions)); err != nil {
		return err
	}
	for _, pm := range tm.Partitions {
		if err := pm.encode(pe, version); err != nil {
			return err
		}
	}

	return nil
}

// MetadataResponse is the broker's reply to a MetadataRequest: the set of
// live brokers, the controller id, and per-topic partition metadata — the
// entire payload BrokerPool/Cluster swaps in wholesale per spec.md §9's
// aliasing guidance.
type MetadataResponse struct {
	Version        int16
	ThrottleTimeMs int32
	Brokers        []*Broker
	ClusterID      *string
	ControllerID   int32
	Topics         []*TopicMetadata
}

func (r *MetadataResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if version >= 3 {
		if r.ThrottleTimeMs, err = pd.getInt32(); err != nil {
			return err
		}
	}

	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Brokers = make([]*Broker, n)
	for i := 0; i < n; i++ {
		broker := NewBroker("")
		if err := broker.decode(pd, version); err != nil {
			return err
		}
		r.Brokers[i] = broker
	}

	if version >= 2 {
		if r.ClusterID, err = pd.getNullableString(); err != nil {
			return err
		}
	}

	if version >= 1 {
		if r.ControllerID, err = pd.getInt32(); err != nil {
			return err
		}
	} else {
		r.ControllerID = -1
	}

	n, err = pd.getArrayLength()
	if err != nil {
		return err
	}
	r.Topics = make([]*TopicMetadata, n)
	for i := 0; i < n; i++ {
		r.Topics[i] = new(TopicMetadata)
		if err := r.Topics[i].decode(pd, version); err != nil {
			return err
		}
	}

	return nil
}

func (r *MetadataResponse) encode(pe packetEncoder) error {
	if r.Version >= 3 {
		pe.putInt32(r.ThrottleTimeMs)
	}

	if err := pe.putArrayLength(len(r.Brokers)); err != nil {
		return err
	}
	for _, b := range r.Brokers {
		if err := b.encode(pe, r.Version); err != nil {
			return err
		}
	}

	if r.Version >= 2 {
		if err := pe.putNullableString(r.ClusterID); err != nil {
			return err
		}
	}

	if r.Version >= 1 {
		pe.putInt32(r.ControllerID)
	}

	if err := pe.putArrayLength(len(r.Topics)); err != nil {
		return err
	}
	for _, tm := range r.Topics {
		if err := tm.encode(pe, r.Version); err != nil {
			return err
		}
	}

	return nil
}

func (r *MetadataResponse) key() int16 {
	return apiKeyMetadata
}

func (r *MetadataResponse) version() int16 {
	return r.Version
}

func (r *MetadataResponse) setVersion(v int16) {
	r.Version = v
}

func (r *MetadataResponse) headerVersion() int16 {
	return 0
}

func (r *MetadataResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 5
}

func (r *MetadataResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 4:
		return V2_0_0_0
	case r.Version == 1:
		return V0_10_0_0
	default:
		return V0_8_2_0
	}
}

// topicMetadata returns the TopicMetadata for the given topic, if present.
func (r *MetadataResponse) topicMetadata(topic string) *TopicMetadata {
	for _, tm := range r.Topics {
		if tm.Name == topic {
			return tm
		}
	}
	return nil
}
