package sarama

import "testing"

func newTestAsyncProducer(conf *Config) *asyncProducer {
	if conf == nil {
		conf = NewConfig()
	}
	return &asyncProducer{conf: conf}
}

func TestAsyncProducerAdmitToBufferMessageCount(t *testing.T) {
	conf := NewConfig()
	conf.Producer.MaxBufferSize = 2
	p := newTestAsyncProducer(conf)

	msg1 := &ProducerMessage{Topic: "t", Value: StringEncoder("v1")}
	msg2 := &ProducerMessage{Topic: "t", Value: StringEncoder("v2")}
	msg3 := &ProducerMessage{Topic: "t", Value: StringEncoder("v3")}

	if !p.admitToBuffer(msg1) {
		t.Fatal("expected first message to be admitted")
	}
	if !p.admitToBuffer(msg2) {
		t.Fatal("expected second message to be admitted")
	}
	if p.admitToBuffer(msg3) {
		t.Fatal("expected third message to be rejected once MaxBufferSize is reached")
	}
	if p.bufferedMessages != 2 {
		t.Errorf("expected bufferedMessages to stay at 2 after a rejection, got %d", p.bufferedMessages)
	}
}

func TestAsyncProducerAdmitToBufferBytesize(t *testing.T) {
	conf := NewConfig()
	msg := &ProducerMessage{Topic: "t", Value: StringEncoder("hello")}
	conf.Producer.MaxBufferBytesize = msg.byteSize(2)
	p := newTestAsyncProducer(conf)

	if !p.admitToBuffer(msg) {
		t.Fatal("expected a message exactly at MaxBufferBytesize to be accepted")
	}

	overflow := &ProducerMessage{Topic: "t", Value: StringEncoder("x")}
	if p.admitToBuffer(overflow) {
		t.Fatal("expected a message pushing bufferedBytes past MaxBufferBytesize to be rejected")
	}
}

func TestAsyncProducerReleaseFromBufferIsIdempotent(t *testing.T) {
	conf := NewConfig()
	conf.Producer.MaxBufferSize = 1
	p := newTestAsyncProducer(conf)

	msg := &ProducerMessage{Topic: "t", Value: StringEncoder("v")}
	if !p.admitToBuffer(msg) {
		t.Fatal("expected message to be admitted")
	}

	p.releaseFromBuffer(msg)
	if p.bufferedMessages != 0 {
		t.Errorf("expected bufferedMessages 0 after release, got %d", p.bufferedMessages)
	}

	// A second release (e.g. from a retry path that never re-admitted)
	// must be a no-op, not drive the counters negative.
	p.releaseFromBuffer(msg)
	if p.bufferedMessages != 0 || p.bufferedBytes != 0 {
		t.Errorf("expected a second release to be a no-op, got messages=%d bytes=%d", p.bufferedMessages, p.bufferedBytes)
	}

	other := &ProducerMessage{Topic: "t", Value: StringEncoder("v2")}
	if !p.admitToBuffer(other) {
		t.Fatal("expected buffer slot freed by release to admit a new message")
	}
}

func TestAsyncProducerAdmitToBufferUnlimitedByDefault(t *testing.T) {
	p := newTestAsyncProducer(nil)
	for i := 0; i < 100; i++ {
		msg := &ProducerMessage{Topic: "t", Value: StringEncoder("v")}
		if !p.admitToBuffer(msg) {
			t.Fatalf("expected unlimited buffer (MaxBufferSize/MaxBufferBytesize unset) to admit message %d", i)
		}
	}
}
