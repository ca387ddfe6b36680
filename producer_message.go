package sarama

import "time"

// ProducerMessage is one record a caller asks the producer to send, per
// spec.md §3's PendingMessage. Metadata is never touched by this client;
// it comes back unchanged on the Successes/Errors channels so the caller
// can correlate the result with whatever placed the message on the queue.
type ProducerMessage struct {
	Topic     string
	Key       Encoder
	Value     Encoder
	Headers   []RecordHeader
	Metadata  interface{}

	Offset    int64
	Partition int32
	Timestamp time.Time

	retries    int
	flags      flagSet
	expectation chan *ProducerError
	sequenceNumber int32
	producerEpoch  int16
	hasSequence    bool

	// bufferedSize records the byte size this message reserved against
	// the producer's buffer limits at admission time, or 0 if it was
	// never admitted (rejected, or a retry re-entry). Cleared back to 0
	// the moment that reservation is released, so release logic runs
	// exactly once per message regardless of how many retries it takes.
	bufferedSize int
}

type flagSet int8

const (
	syn flagSet = 1 << iota
	fin
	shutdown
)

func (m *ProducerMessage) byteSize(version int) int {
	var size int
	if version >= 2 {
		size = recordBatchOverhead
	} else {
		size = producerMessageOverhead
	}
	if m.Key != nil {
		size += m.Key.Length()
	}
	if m.Value != nil {
		size += m.Value.Length()
	}
	for _, h := range m.Headers {
		size += len(h.Key) + len(h.Value) + 2*binaryHeaderLenSize
	}
	return size
}

const (
	producerMessageOverhead = 26
	binaryHeaderLenSize     = 5
)

// ProducerError wraps the ProducerMessage that failed and the error that
// caused the failure, delivered on AsyncProducer.Errors().
type ProducerError struct {
	Msg *ProducerMessage
	Err error
}

func (pe ProducerError) Error() string {
	return "kafka: Failed to produce message to topic " + pe.Msg.Topic + ": " + pe.Err.Error()
}

func (pe ProducerError) Unwrap() error {
	return pe.Err
}

// ProducerErrors is a collection of ProducerError returned by
// SyncProducer.SendMessages when sending a batch of messages fails.
type ProducerErrors []*ProducerError

func (pe ProducerErrors) Error() string {
	return "kafka: Failed to deliver messages."
}
