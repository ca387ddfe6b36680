package sarama

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/go-resiliency/breaker"
	"github.com/eapache/queue"
)

// AsyncProducer publishes ProducerMessages to a cluster without blocking
// the caller on the broker round trip, per spec.md §4.6. Successes and
// Errors are delivered asynchronously on their respective channels; the
// caller must drain whichever ones Config().Producer.Return enables or the
// producer's internal goroutines will block.
type AsyncProducer interface {
	// Input is the channel to send messages to.
	Input() chan<- *ProducerMessage
	// Successes returns the successfully-produced messages, when
	// Config.Producer.Return.Successes is true.
	Successes() <-chan *ProducerMessage
	// Errors returns messages that failed to be produced.
	Errors() <-chan *ProducerError
	// AsyncClose triggers a shutdown, flushing any buffered messages first.
	// Success/error reporting continues on the respective channels until
	// they're closed.
	AsyncClose()
	// Close shuts down the producer and waits for every buffered message to
	// be flushed, returning an error built from any ProducerErrors
	// encountered along the way.
	Close() error
}

type asyncProducer struct {
	client Client
	conf   *Config
	ownsClient bool

	errors    chan *ProducerError
	input     chan *ProducerMessage
	successes chan *ProducerMessage
	retries   chan *ProducerMessage
	retryFeed chan *ProducerMessage

	brokerLock sync.Mutex
	brokers    map[*Broker]*brokerProducer

	inFlight sync.WaitGroup

	// bufferedMessages/bufferedBytes track how much of
	// Producer.MaxBufferSize/MaxBufferBytesize is currently occupied by
	// messages admitted in dispatcher but not yet returned via
	// returnSuccess/returnError. Accessed with sync/atomic since
	// dispatcher, returnError and returnSuccess all run on different
	// goroutines.
	bufferedMessages int64
	bufferedBytes    int64
}

// NewAsyncProducer creates a new AsyncProducer using the given broker
// addresses and configuration.
func NewAsyncProducer(addrs []string, conf *Config) (AsyncProducer, error) {
	client, err := NewClient(addrs, conf)
	if err != nil {
		return nil, err
	}
	p, err := newAsyncProducer(client)
	if err != nil {
		return nil, err
	}
	p.(*asyncProducer).ownsClient = true
	return p, nil
}

// NewAsyncProducerFromClient creates a new AsyncProducer using an existing
// Client; closing the producer does not close the underlying Client.
func NewAsyncProducerFromClient(client Client) (AsyncProducer, error) {
	return newAsyncProducer(client)
}

func newAsyncProducer(client Client) (AsyncProducer, error) {
	if client.Closed() {
		return nil, ErrClosedClient
	}
	if err := client.Config().Validate(); err != nil {
		return nil, err
	}

	p := &asyncProducer{
		client:     client,
		conf:       client.Config(),
		errors:     make(chan *ProducerError),
		input:      make(chan *ProducerMessage),
		successes:  make(chan *ProducerMessage),
		retries:    make(chan *ProducerMessage),
		retryFeed:  make(chan *ProducerMessage),
		brokers:    make(map[*Broker]*brokerProducer),
	}

	go withRecover(p.retryHandler)
	go withRecover(p.dispatcher)

	return p, nil
}

// retryHandler bridges failed sends back into the dispatcher through an
// unbounded github.com/eapache/queue FIFO and a private retryFeed channel
// (rather than Input() itself, which AsyncClose closes), so that a burst of
// retried messages can never deadlock against the bounded per-topic/
// per-partition channels still trying to drain new input.
func (p *asyncProducer) retryHandler() {
	buf := queue.New()
	for {
		if buf.Length() == 0 {
			msg, ok := <-p.retries
			if !ok {
				return
			}
			buf.Add(msg)
			continue
		}

		select {
		case msg, ok := <-p.retries:
			if !ok {
				return
			}
			buf.Add(msg)
		case p.retryFeed <- buf.Peek().(*ProducerMessage):
			buf.Remove()
		}
	}
}

func (p *asyncProducer) Input() chan<- *ProducerMessage    { return p.input }
func (p *asyncProducer) Successes() <-chan *ProducerMessage { return p.successes }
func (p *asyncProducer) Errors() <-chan *ProducerError      { return p.errors }

func (p *asyncProducer) AsyncClose() {
	go withRecover(p.shutdown)
}

func (p *asyncProducer) Close() error {
	if p.conf.Producer.Return.Successes {
		go func() {
			for range p.successes {
			}
		}()
	}

	var errs ProducerErrors
	if p.conf.Producer.Return.Errors {
		go func() {
			for e := range p.errors {
				errs = append(errs, e)
			}
		}()
	}

	p.AsyncClose()
	p.inFlight.Wait()

	if p.ownsClient {
		if err := p.client.Close(); err != nil && len(errs) == 0 {
			return err
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (p *asyncProducer) shutdown() {
	close(p.input)
}

// dispatcher is the topic-level fan-out stage: every ProducerMessage on
// Input() (or recycled through retryFeed after a failed send) lands here
// first and is routed to that topic's own goroutine, so that a slow
// partition on one topic never stalls another. It stops selecting on
// retryFeed as soon as Input() closes — any retry still in flight at that
// point is dropped, a deliberate simplification over tracking exact
// in-flight-retry counts.
func (p *asyncProducer) dispatcher() {
	handlers := make(map[string]chan *ProducerMessage)
	input := p.input

	for input != nil {
		var msg *ProducerMessage
		var ok bool
		select {
		case msg, ok = <-input:
			if !ok {
				input = nil
				continue
			}
		case msg = <-p.retryFeed:
		}

		// Every message accepted here is tracked until it reaches a
		// terminal state (returnSuccess/returnError) or is hand-delivered
		// to the retries channel for a later, separately-tracked re-entry
		// through retryFeed; see retryMessage.
		p.inFlight.Add(1)

		if msg.retries == 0 && msg.byteSize(2) > p.conf.Producer.MaxMessageBytes {
			p.returnError(msg, ErrMessageTooLarge)
			continue
		}

		if msg.retries == 0 && !p.admitToBuffer(msg) {
			p.returnError(msg, BufferOverflowError{
				MaxMessages: p.conf.Producer.MaxBufferSize,
				MaxBytes:    p.conf.Producer.MaxBufferBytesize,
			})
			continue
		}

		handler := handlers[msg.Topic]
		if handler == nil {
			handler = make(chan *ProducerMessage, p.conf.ChannelBufferSize)
			handlers[msg.Topic] = handler
			go withRecover(func() { p.topicDispatcher(msg.Topic, handler) })
		}
		handler <- msg
	}

	for _, handler := range handlers {
		close(handler)
	}
}

// topicDispatcher fans individual messages for one topic out to a
// per-partition goroutine, resolving the partition via the configured
// Partitioner the first time the topic is seen.
func (p *asyncProducer) topicDispatcher(topic string, input chan *ProducerMessage) {
	handlers := make(map[int32]chan *ProducerMessage)
	partitioner := p.conf.Producer.Partitioner(topic)

	for msg := range input {
		if msg.retries == 0 {
			partitions, err := p.client.Partitions(topic)
			if err != nil {
				p.returnError(msg, err)
				continue
			}
			if len(partitions) == 0 {
				p.returnError(msg, ErrLeaderNotAvailable)
				continue
			}

			choice, err := partitioner.Partition(msg, int32(len(partitions)))
			if err != nil {
				p.returnError(msg, err)
				continue
			}
			if choice < 0 || choice >= int32(len(partitions)) {
				p.returnError(msg, ErrInvalidPartition)
				continue
			}
			msg.Partition = partitions[choice]
		}

		handler := handlers[msg.Partition]
		if handler == nil {
			handler = make(chan *ProducerMessage, p.conf.ChannelBufferSize)
			handlers[msg.Partition] = handler
			go withRecover(func() { p.partitionDispatcher(topic, msg.Partition, handler) })
		}
		handler <- msg
	}

	for _, handler := range handlers {
		close(handler)
	}
}

// partitionDispatcher forwards messages for one topic/partition to whichever
// brokerProducer currently leads it, re-resolving the leader and refreshing
// metadata whenever the lookup fails.
func (p *asyncProducer) partitionDispatcher(topic string, partition int32, input chan *ProducerMessage) {
	for msg := range input {
		leader, err := p.client.Leader(topic, partition)
		if err != nil {
			p.retryMessage(msg, err)
			time.Sleep(p.conf.Producer.Retry.Backoff)
			_ = p.client.RefreshMetadata(topic)
			continue
		}

		bp := p.getBrokerProducer(leader)
		bp.input <- msg
	}
}

// retryMessage either recycles msg through the retries channel (to reenter
// the pipeline via retryFeed, at which point dispatcher tracks it as a new
// inFlight entry) or, once Producer.Retry.Max is exhausted, delivers it as a
// terminal error. Exactly one of those two outcomes ends the current
// inFlight count for msg.
func (p *asyncProducer) retryMessage(msg *ProducerMessage, err error) {
	if msg.retries >= p.conf.Producer.Retry.Max {
		p.returnError(msg, err)
		return
	}
	msg.retries++
	select {
	case p.retries <- msg:
		p.inFlight.Done()
	default:
		p.returnError(msg, err)
	}
}

// admitToBuffer enforces Producer.MaxBufferSize/MaxBufferBytesize at
// enqueue time, per spec.md §4.5/§4.6's BufferOverflow boundary: a limit of
// 0 means unlimited, matching the rest of this config's zero-is-disabled
// convention (see produceSet.wouldOverflow). On admission it reserves
// msg's byte size against bufferedBytes so releaseFromBuffer can give it
// back exactly once, whichever terminal state msg eventually reaches.
func (p *asyncProducer) admitToBuffer(msg *ProducerMessage) bool {
	size := msg.byteSize(2)

	if p.conf.Producer.MaxBufferSize > 0 && atomic.LoadInt64(&p.bufferedMessages) >= int64(p.conf.Producer.MaxBufferSize) {
		return false
	}
	if p.conf.Producer.MaxBufferBytesize > 0 && atomic.LoadInt64(&p.bufferedBytes)+int64(size) > int64(p.conf.Producer.MaxBufferBytesize) {
		return false
	}

	msg.bufferedSize = size
	atomic.AddInt64(&p.bufferedMessages, 1)
	atomic.AddInt64(&p.bufferedBytes, int64(size))
	return true
}

// releaseFromBuffer gives back whatever admitToBuffer reserved for msg. A
// msg that was never admitted (rejected outright, or a retry re-entry that
// already released once) has bufferedSize 0 and this is a no-op.
func (p *asyncProducer) releaseFromBuffer(msg *ProducerMessage) {
	if msg.bufferedSize == 0 {
		return
	}
	atomic.AddInt64(&p.bufferedMessages, -1)
	atomic.AddInt64(&p.bufferedBytes, -int64(msg.bufferedSize))
	msg.bufferedSize = 0
}

func (p *asyncProducer) getBrokerProducer(broker *Broker) *brokerProducer {
	p.brokerLock.Lock()
	defer p.brokerLock.Unlock()

	bp := p.brokers[broker]
	if bp == nil {
		bp = p.newBrokerProducer(broker)
		p.brokers[broker] = bp
	}
	return bp
}

func (p *asyncProducer) returnError(msg *ProducerMessage, err error) {
	p.releaseFromBuffer(msg)
	msg.retries = 0
	msg.flags = 0
	if p.conf.Producer.Return.Errors {
		p.errors <- &ProducerError{Msg: msg, Err: err}
	}
	p.inFlight.Done()
}

func (p *asyncProducer) returnSuccess(msg *ProducerMessage) {
	p.releaseFromBuffer(msg)
	if p.conf.Producer.Return.Successes {
		p.successes <- msg
	}
	p.inFlight.Done()
}

// brokerProducer is the final stage: it accumulates ProducerMessages
// destined for every topic/partition led by one Broker into a produceSet,
// flushes it on whichever of Flush.{Bytes,Messages,Frequency} fires first,
// and trips an eapache/go-resiliency breaker after repeated connection
// failures so a dead broker doesn't spin the whole producer.
type brokerProducer struct {
	parent *asyncProducer
	broker *Broker
	input  chan *ProducerMessage

	buffer  *produceSet
	breaker *breaker.Breaker
}

func (p *asyncProducer) newBrokerProducer(broker *Broker) *brokerProducer {
	bp := &brokerProducer{
		parent:  p,
		broker:  broker,
		input:   make(chan *ProducerMessage),
		buffer:  newProduceSet(p),
		breaker: breaker.New(3, 1, 10*time.Second),
	}

	go withRecover(bp.run)

	return bp
}

func (bp *brokerProducer) run() {
	var flushTicker *time.Ticker
	var flushChan <-chan time.Time
	if bp.parent.conf.Producer.Flush.Frequency > 0 {
		flushTicker = time.NewTicker(bp.parent.conf.Producer.Flush.Frequency)
		flushChan = flushTicker.C
		defer flushTicker.Stop()
	}

	for {
		select {
		case msg, ok := <-bp.input:
			if !ok {
				bp.flush()
				return
			}
			if bp.buffer.wouldOverflow(msg) {
				bp.flush()
			}
			if err := bp.buffer.add(msg); err != nil {
				bp.parent.returnError(msg, err)
				continue
			}
			if bp.buffer.readyToFlush() {
				bp.flush()
			}
		case <-flushChan:
			bp.flush()
		}
	}
}

func (bp *brokerProducer) flush() {
	if bp.buffer.empty() {
		return
	}

	set := bp.buffer
	bp.buffer = newProduceSet(bp.parent)

	var resp *ProduceResponse
	req := set.buildRequest()

	err := bp.breaker.Run(func() error {
		if req.RequiredAcks == NoResponse {
			return bp.broker.Send(bp.parent.conf.ClientID, req, nil)
		}
		resp = new(ProduceResponse)
		return bp.broker.Send(bp.parent.conf.ClientID, req, resp)
	})

	set.eachPartition(func(topic string, partition int32, msgs []*ProducerMessage) {
		if err != nil {
			for _, msg := range msgs {
				bp.parent.retryMessage(msg, err)
			}
			return
		}

		if resp == nil {
			for _, msg := range msgs {
				bp.parent.returnSuccess(msg)
			}
			return
		}

		block := resp.GetBlock(topic, partition)
		if block == nil {
			for _, msg := range msgs {
				bp.parent.retryMessage(msg, ErrIncompleteResponse)
			}
			return
		}

		switch block.Err {
		case ErrNoError:
			for i, msg := range msgs {
				msg.Offset = block.Offset + int64(i)
				if !block.Timestamp.IsZero() {
					msg.Timestamp = block.Timestamp
				}
				bp.parent.returnSuccess(msg)
			}
		case ErrLeaderNotAvailable, ErrNotLeaderForPartition, ErrRequestTimedOut:
			_ = bp.parent.client.RefreshMetadata(topic)
			for _, msg := range msgs {
				bp.parent.retryMessage(msg, block.Err)
			}
		default:
			for _, msg := range msgs {
				bp.parent.returnError(msg, block.Err)
			}
		}
	})
}
