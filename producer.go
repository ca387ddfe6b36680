package sarama

import "time"

// SyncProducer publishes a message and waits for the broker's
// acknowledgement before returning, built on top of AsyncProducer per
// spec.md §4.5's synchronous wrapper requirement. It is safe to call from
// multiple goroutines at once.
type SyncProducer interface {
	// SendMessage produces msg and returns the partition and offset it was
	// written to (or an error).
	SendMessage(msg *ProducerMessage) (partition int32, offset int64, err error)
	// SendMessages produces a batch atomically from the caller's point of
	// view: either every message is enqueued, or a ProducerErrors is
	// returned describing exactly which ones failed.
	SendMessages(msgs []*ProducerMessage) error
	// Close shuts down the producer, flushing any buffered messages.
	Close() error
}

type syncProducer struct {
	producer *asyncProducer
}

// NewSyncProducer creates a new SyncProducer using the given broker
// addresses and configuration. Producer.Return.Successes and
// Producer.Return.Errors are forced on: SyncProducer needs both channels
// to report back to the caller. RequiredAcks and Timeout are forced to 1
// and 10s respectively, unconditionally overriding whatever the caller
// configured: spec.md §9 flags this as the source's own behavior on the
// one-shot send path, applied regardless of any global default.
func NewSyncProducer(addrs []string, conf *Config) (SyncProducer, error) {
	if conf == nil {
		conf = NewConfig()
	}
	conf.Producer.Return.Successes = true
	conf.Producer.Return.Errors = true
	conf.Producer.RequiredAcks = WaitForLocal
	conf.Producer.Timeout = 10 * time.Second

	p, err := NewAsyncProducer(addrs, conf)
	if err != nil {
		return nil, err
	}
	return newSyncProducerFromAsyncProducer(p.(*asyncProducer)), nil
}

// NewSyncProducerFromClient creates a new SyncProducer using an existing
// Client; closing the producer does not close the underlying Client. See
// NewSyncProducer for the unconditional RequiredAcks/Timeout override.
func NewSyncProducerFromClient(client Client) (SyncProducer, error) {
	client.Config().Producer.Return.Successes = true
	client.Config().Producer.Return.Errors = true
	client.Config().Producer.RequiredAcks = WaitForLocal
	client.Config().Producer.Timeout = 10 * time.Second

	p, err := NewAsyncProducerFromClient(client)
	if err != nil {
		return nil, err
	}
	return newSyncProducerFromAsyncProducer(p.(*asyncProducer)), nil
}

// newSyncProducerFromAsyncProducer starts two forwarding goroutines that
// translate the AsyncProducer's Successes()/Errors() channels into a
// per-message expectation channel SendMessage/SendMessages can block on.
// They run for the lifetime of the process rather than being explicitly
// joined on Close: Close instead waits on the producer's own inFlight
// count, which only reaches zero once every expectation has already been
// signaled.
func newSyncProducerFromAsyncProducer(p *asyncProducer) *syncProducer {
	sp := &syncProducer{producer: p}

	go withRecover(func() {
		for msg := range p.Successes() {
			msg.expectation <- nil
		}
	})
	go withRecover(func() {
		for err := range p.Errors() {
			err.Msg.expectation <- err
		}
	})

	return sp
}

func (sp *syncProducer) SendMessage(msg *ProducerMessage) (int32, int64, error) {
	expectation := make(chan *ProducerError, 1)
	msg.expectation = expectation
	sp.producer.Input() <- msg

	if err := <-expectation; err != nil {
		return -1, -1, err.Err
	}
	return msg.Partition, msg.Offset, nil
}

func (sp *syncProducer) SendMessages(msgs []*ProducerMessage) error {
	expectations := make(chan chan *ProducerError, len(msgs))

	go func() {
		for _, msg := range msgs {
			expectation := make(chan *ProducerError, 1)
			msg.expectation = expectation
			sp.producer.Input() <- msg
			expectations <- expectation
		}
		close(expectations)
	}()

	var errs ProducerErrors
	for expectation := range expectations {
		if err := <-expectation; err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (sp *syncProducer) Close() error {
	sp.producer.AsyncClose()
	sp.producer.inFlight.Wait()
	return nil
}
