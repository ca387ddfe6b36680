package sarama

import "testing"

func newTestProduceSet() *produceSet {
	conf := NewConfig()
	return newProduceSet(&asyncProducer{conf: conf})
}

func TestProduceSetAddAndBuildRequest(t *testing.T) {
	ps := newTestProduceSet()

	if !ps.empty() {
		t.Fatal("expected a freshly-created produce set to be empty")
	}

	msg := &ProducerMessage{Topic: "topic", Partition: 0, Key: StringEncoder("k"), Value: StringEncoder("v")}
	if err := ps.add(msg); err != nil {
		t.Fatal(err)
	}

	if ps.empty() {
		t.Error("expected the produce set to no longer be empty after adding a message")
	}
	if ps.bufferCount != 1 {
		t.Errorf("expected bufferCount 1, got %d", ps.bufferCount)
	}

	req := ps.buildRequest()
	if req.RequiredAcks != ps.parent.conf.Producer.RequiredAcks {
		t.Errorf("expected the request to carry the producer's configured RequiredAcks")
	}
}

func TestProduceSetEachPartitionFansOutAllMessages(t *testing.T) {
	ps := newTestProduceSet()

	msg1 := &ProducerMessage{Topic: "topic", Partition: 0, Value: StringEncoder("v1")}
	msg2 := &ProducerMessage{Topic: "topic", Partition: 0, Value: StringEncoder("v2")}
	msg3 := &ProducerMessage{Topic: "topic", Partition: 1, Value: StringEncoder("v3")}

	for _, msg := range []*ProducerMessage{msg1, msg2, msg3} {
		if err := ps.add(msg); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[int32]int)
	ps.eachPartition(func(topic string, partition int32, msgs []*ProducerMessage) {
		if topic != "topic" {
			t.Errorf("unexpected topic %s", topic)
		}
		seen[partition] = len(msgs)
	})

	if seen[0] != 2 {
		t.Errorf("expected partition 0 to carry 2 messages, got %d", seen[0])
	}
	if seen[1] != 1 {
		t.Errorf("expected partition 1 to carry 1 message, got %d", seen[1])
	}
}

func TestProduceSetReadyToFlushOnMessageCount(t *testing.T) {
	ps := newTestProduceSet()
	ps.parent.conf.Producer.Flush.Messages = 2

	msg := &ProducerMessage{Topic: "topic", Partition: 0, Value: StringEncoder("v")}
	if err := ps.add(msg); err != nil {
		t.Fatal(err)
	}
	if ps.readyToFlush() {
		t.Error("expected not ready to flush with only 1 of 2 required messages buffered")
	}

	if err := ps.add(msg); err != nil {
		t.Fatal(err)
	}
	if !ps.readyToFlush() {
		t.Error("expected ready to flush once the message count threshold is reached")
	}
}

func TestProduceSetReadyToFlushNoThresholdsSet(t *testing.T) {
	ps := newTestProduceSet()
	msg := &ProducerMessage{Topic: "topic", Partition: 0, Value: StringEncoder("v")}
	if err := ps.add(msg); err != nil {
		t.Fatal(err)
	}
	if !ps.readyToFlush() {
		t.Error("expected ready to flush immediately when no flush thresholds are configured")
	}
}

func TestProduceSetWouldOverflowOnMessageCount(t *testing.T) {
	ps := newTestProduceSet()
	ps.parent.conf.Producer.Flush.MaxMessages = 1

	msg := &ProducerMessage{Topic: "topic", Partition: 0, Value: StringEncoder("v")}
	if err := ps.add(msg); err != nil {
		t.Fatal(err)
	}
	if !ps.wouldOverflow(msg) {
		t.Error("expected wouldOverflow to report true once Flush.MaxMessages is reached")
	}
}
