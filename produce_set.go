package sarama

import "time"

// partitionSet accumulates the ProducerMessages buffered for one
// topic/partition until the brokerProducer flushes them into a single
// v2 RecordBatch (no legacy MessageSet is built here), per spec.md §4.5's
// "buffer, then batch" design.
type partitionSet struct {
	msgs          []*ProducerMessage
	recordsToSend Records
	bufferBytes   int
}

// produceSet groups partitionSets by topic/partition for every partition a
// single brokerProducer currently owns pending data for — the unit the
// brokerProducer flushes with one ProduceRequest per leader.
type produceSet struct {
	parent *asyncProducer
	msgs   map[string]map[int32]*partitionSet

	bufferBytes int
	bufferCount int
}

func newProduceSet(parent *asyncProducer) *produceSet {
	return &produceSet{
		parent: parent,
		msgs:   make(map[string]map[int32]*partitionSet),
	}
}

func (ps *produceSet) add(msg *ProducerMessage) error {
	var keyBytes, valBytes []byte
	var err error

	if msg.Key != nil {
		if keyBytes, err = msg.Key.Encode(); err != nil {
			return err
		}
	}
	if msg.Value != nil {
		if valBytes, err = msg.Value.Encode(); err != nil {
			return err
		}
	}

	partitions := ps.msgs[msg.Topic]
	if partitions == nil {
		partitions = make(map[int32]*partitionSet)
		ps.msgs[msg.Topic] = partitions
	}

	set := partitions[msg.Partition]
	if set == nil {
		batch := &RecordBatch{
			FirstOffset:      0,
			Version:          2,
			Codec:            ps.parent.conf.Producer.Compression,
			CompressionLevel: ps.parent.conf.Producer.CompressionLevel,
			FirstTimestamp:   time.Now(),
			MaxTimestamp:     time.Now(),
			ProducerID:       -1,
			ProducerEpoch:    -1,
			FirstSequence:    -1,
		}
		set = &partitionSet{recordsToSend: newDefaultRecords(batch)}
		partitions[msg.Partition] = set
	}

	size := producerMessageOverhead + len(keyBytes) + len(valBytes)
	for _, h := range msg.Headers {
		size += len(h.Key) + len(h.Value) + 2*binaryHeaderLenSize
	}

	set.msgs = append(set.msgs, msg)
	rec := &Record{Key: keyBytes, Value: valBytes}
	for i := range msg.Headers {
		rec.Headers = append(rec.Headers, &RecordHeader{Key: msg.Headers[i].Key, Value: msg.Headers[i].Value})
	}
	set.recordsToSend.RecordBatch.addRecord(rec)
	set.bufferBytes += size

	ps.bufferBytes += size
	ps.bufferCount++

	return nil
}

func (ps *produceSet) buildRequest() *ProduceRequest {
	req := &ProduceRequest{
		Version:      2,
		RequiredAcks: ps.parent.conf.Producer.RequiredAcks,
		Timeout:      int32(ps.parent.conf.Producer.Timeout / time.Millisecond),
	}

	for topic, partitions := range ps.msgs {
		for partition, set := range partitions {
			batch := set.recordsToSend.RecordBatch
			batch.LastOffsetDelta = int32(len(batch.Records) - 1)
			req.AddBatch(topic, partition, batch)
		}
	}

	return req
}

// eachPartition calls fn once per topic/partition with the buffered
// messages, used to fan out the broker's response (or a synthesized
// error/retry) to every message that was part of the flushed batch.
func (ps *produceSet) eachPartition(fn func(topic string, partition int32, msgs []*ProducerMessage)) {
	for topic, partitions := range ps.msgs {
		for partition, set := range partitions {
			fn(topic, partition, set.msgs)
		}
	}
}

func (ps *produceSet) wouldOverflow(msg *ProducerMessage) bool {
	switch {
	case ps.bufferBytes+msg.byteSize(2) > int(MaxRequestSize-(10*1024)):
		return true
	case ps.parent.conf.Producer.Flush.MaxMessages > 0 && ps.bufferCount >= ps.parent.conf.Producer.Flush.MaxMessages:
		return true
	default:
		return false
	}
}

func (ps *produceSet) readyToFlush() bool {
	switch {
	case ps.empty():
		return false
	case ps.parent.conf.Producer.Flush.Frequency == 0 && ps.parent.conf.Producer.Flush.Bytes == 0 && ps.parent.conf.Producer.Flush.Messages == 0:
		return true
	case ps.parent.conf.Producer.Flush.Messages > 0 && ps.bufferCount >= ps.parent.conf.Producer.Flush.Messages:
		return true
	case ps.parent.conf.Producer.Flush.Bytes > 0 && ps.bufferBytes >= ps.parent.conf.Producer.Flush.Bytes:
		return true
	default:
		return false
	}
}

func (ps *produceSet) empty() bool {
	return ps.bufferCount == 0
}
