package sarama

// RequiredAcks describes how many broker acknowledgements the producer
// requires before considering a produce call successful, per spec.md §4.5's
// ack-handling matrix.
type RequiredAcks int16

const (
	// NoResponse doesn't send any response, the TCP ACK is all you get.
	NoResponse RequiredAcks = 0
	// WaitForLocal waits for only the local commit to succeed before
	// responding.
	WaitForLocal RequiredAcks = 1
	// WaitForAll waits for all in-sync replicas to commit before
	// responding. The minimum number of in-sync replicas is configured on
	// the broker via the min.insync.replicas configuration key.
	WaitForAll RequiredAcks = -1
)

// ProduceRequest carries one or more topic/partition RecordBatches to a
// partition's leader, per spec.md §4.5's ProduceOperation.
type ProduceRequest struct {
	Version         int16
	TransactionalID *string
	RequiredAcks    RequiredAcks
	Timeout         int32
	records         map[string]map[int32]Records
}

func (r *ProduceRequest) encode(pe packetEncoder) error {
	if r.Version >= 3 {
		if err := pe.putNullableString(r.TransactionalID); err != nil {
			return err
		}
	}

	pe.putInt16(int16(r.RequiredAcks))
	pe.putInt32(r.Timeout)

	if err := pe.putArrayLength(len(r.records)); err != nil {
		return err
	}

	for topic, partitions := range r.records {
		if err := pe.putString(topic); err != nil {
			return err
		}
		if err := pe.putArrayLength(len(partitions)); err != nil {
			return err
		}
		for id, recs := range partitions {
			pe.putInt32(id)

			body, err := encode(recs, pe.metricRegistry())
			if err != nil {
				return err
			}
			if err := pe.putBytes(body); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *ProduceRequest) decode(pd packetDecoder, version int16) error {
	r.Version = version

	if version >= 3 {
		id, err := pd.getNullableString()
		if err != nil {
			return err
		}
		r.TransactionalID = id
	}

	requiredAcks, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.RequiredAcks = RequiredAcks(requiredAcks)

	if r.Timeout, err = pd.getInt32(); err != nil {
		return err
	}

	topicCount, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	if topicCount == 0 {
		return nil
	}

	r.records = make(map[string]map[int32]Records)
	for i := 0; i < topicCount; i++ {
		topic, err := pd.getString()
		if err != nil {
			return err
		}

		partitionCount, err := pd.getArrayLength()
		if err != nil {
			return err
		}
		r.records[topic] = make(map[int32]Records)

		for j := 0; j < partitionCount; j++ {
			partition, err := pd.getInt32()
			if err != nil {
				return err
			}
			blob, err := pd.getBytes()
			if err != nil {
				return err
			}

			var recs Records
			if err := decode(blob, &recs, pd.metricRegistry()); err != nil {
				return err
			}
			r.records[topic][partition] = recs
		}
	}

	return nil
}

func (r *ProduceRequest) key() int16 {
	return apiKeyProduce
}

func (r *ProduceRequest) version() int16 {
	return r.Version
}

func (r *ProduceRequest) setVersion(v int16) {
	r.Version = v
}

func (r *ProduceRequest) headerVersion() int16 {
	return 1
}

func (r *ProduceRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 7
}

func (r *ProduceRequest) requiredVersion() KafkaVersion {
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

// AddMessage adds a legacy Message to the set of records that will be
// produced to the given topic/partition.
func (r *ProduceRequest) AddMessage(topic string, partition int32, msg *Message) {
	r.ensureRecords(topic, partition, legacyRecords)
	set := r.records[topic][partition].MsgSet
	if set == nil {
		set = new(MessageSet)
		r.records[topic][partition] = newLegacyRecords(set)
	}
	set.addMessage(msg)
}

// AddBatch adds a v2 RecordBatch that will be produced to the given
// topic/partition.
func (r *ProduceRequest) AddBatch(topic string, partition int32, batch *RecordBatch) {
	if r.records == nil {
		r.records = make(map[string]map[int32]Records)
	}
	if r.records[topic] == nil {
		r.records[topic] = make(map[int32]Records)
	}
	r.records[topic][partition] = newDefaultRecords(batch)
}

func (r *ProduceRequest) ensureRecords(topic string, partition int32, kind int) {
	if r.records == nil {
		r.records = make(map[string]map[int32]Records)
	}
	if r.records[topic] == nil {
		r.records[topic] = make(map[int32]Records)
	}
	if _, ok := r.records[topic][partition]; !ok {
		r.records[topic][partition] = Records{recordsType: kind}
	}
}
