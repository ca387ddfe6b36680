package sarama

import (
	"sync"
	"time"
)

// OffsetManager tracks committed offsets for a consumer group across
// many topic/partitions, batching commits per coordinator broker rather
// than one request per partition, per spec.md §4.4.
type OffsetManager interface {
	ManagePartition(topic string, partition int32) (PartitionOffsetManager, error)
	Close() error
}

type offsetManager struct {
	client Client
	conf   *Config
	group  string

	lock sync.Mutex
	poms map[string]map[int32]*partitionOffsetManager

	boLock  sync.Mutex
	brokers map[*Broker]*brokerOffsetManager

	closeOnce sync.Once
}

// NewOffsetManagerFromClient builds an OffsetManager for group that
// shares client's broker pool and metadata cache rather than opening its
// own connections.
func NewOffsetManagerFromClient(group string, client Client) (OffsetManager, error) {
	if client.Closed() {
		return nil, ErrClosedClient
	}

	return &offsetManager{
		client:  client,
		conf:    client.Config(),
		group:   group,
		poms:    make(map[string]map[int32]*partitionOffsetManager),
		brokers: make(map[*Broker]*brokerOffsetManager),
	}, nil
}

func (om *offsetManager) ManagePartition(topic string, partition int32) (PartitionOffsetManager, error) {
	pom, err := om.newPartitionOffsetManager(topic, partition)
	if err != nil {
		return nil, err
	}

	om.lock.Lock()
	defer om.lock.Unlock()

	topicManagers := om.poms[topic]
	if topicManagers == nil {
		topicManagers = make(map[int32]*partitionOffsetManager)
		om.poms[topic] = topicManagers
	}
	if topicManagers[partition] != nil {
		return nil, ConfigurationError("that topic/partition is already being managed")
	}
	topicManagers[partition] = pom
	return pom, nil
}

func (om *offsetManager) newPartitionOffsetManager(topic string, partition int32) (*partitionOffsetManager, error) {
	pom := &partitionOffsetManager{
		parent:    om,
		topic:     topic,
		partition: partition,
		errors:    make(chan *ConsumerError, om.conf.ChannelBufferSize),
		done:      make(chan struct{}),
	}

	if err := pom.fetchInitialOffset(om.conf.Metadata.Retry.Max); err != nil {
		return nil, err
	}

	if err := om.refBrokerOffsetManager(pom); err != nil {
		return nil, err
	}

	return pom, nil
}

func (om *offsetManager) refBrokerOffsetManager(pom *partitionOffsetManager) error {
	broker, err := om.client.Coordinator(om.group)
	if err != nil {
		return err
	}

	om.boLock.Lock()
	defer om.boLock.Unlock()

	bom := om.brokers[broker]
	if bom == nil {
		bom = om.newBrokerOffsetManager(broker)
		om.brokers[broker] = bom
	}
	bom.addPOM(pom)
	pom.broker = bom
	return nil
}

func (om *offsetManager) removePartitionOffsetManager(pom *partitionOffsetManager) {
	om.lock.Lock()
	defer om.lock.Unlock()
	delete(om.poms[pom.topic], pom.partition)
}

func (om *offsetManager) Close() error {
	om.closeOnce.Do(func() {
		om.lock.Lock()
		for _, topicManagers := range om.poms {
			for _, pom := range topicManagers {
				_ = pom.Close()
			}
		}
		om.lock.Unlock()

		om.boLock.Lock()
		for broker, bom := range om.brokers {
			bom.Close()
			delete(om.brokers, broker)
		}
		om.boLock.Unlock()
	})
	return nil
}

// PartitionOffsetManager tracks and periodically commits one
// topic/partition's consumption progress for the group.
type PartitionOffsetManager interface {
	NextOffset() (int64, string)
	MarkOffset(offset int64, metadata string)
	ResetOffset(offset int64, metadata string)
	Errors() <-chan *ConsumerError
	AsyncClose()
	Close() error
}

type partitionOffsetManager struct {
	parent    *offsetManager
	topic     string
	partition int32

	lock     sync.Mutex
	offset   int64
	metadata string
	dirty    bool

	broker *brokerOffsetManager

	errors    chan *ConsumerError
	done      chan struct{}
	closeOnce sync.Once
}

func (pom *partitionOffsetManager) fetchInitialOffset(retries int) error {
	broker, err := pom.parent.client.Coordinator(pom.parent.group)
	if err != nil {
		if retries <= 0 {
			return err
		}
		return pom.fetchInitialOffset(retries - 1)
	}

	req := &OffsetFetchRequest{Version: 1, ConsumerGroup: pom.parent.group}
	req.AddPartition(pom.topic, pom.partition)

	resp := new(OffsetFetchResponse)
	if err := broker.Send(pom.parent.conf.ClientID, req, resp); err != nil {
		if retries <= 0 {
			return err
		}
		_ = pom.parent.client.RefreshCoordinator(pom.parent.group)
		return pom.fetchInitialOffset(retries - 1)
	}

	block := resp.GetBlock(pom.topic, pom.partition)
	if block == nil {
		return ErrIncompleteResponse
	}
	if block.Err != ErrNoError {
		return block.Err
	}

	pom.offset = block.Offset
	pom.metadata = block.Metadata
	return nil
}

func (pom *partitionOffsetManager) NextOffset() (int64, string) {
	pom.lock.Lock()
	defer pom.lock.Unlock()

	if pom.offset >= 0 {
		return pom.offset, pom.metadata
	}
	return pom.parent.conf.Consumer.Offsets.Initial, ""
}

func (pom *partitionOffsetManager) MarkOffset(offset int64, metadata string) {
	pom.lock.Lock()
	defer pom.lock.Unlock()

	if offset > pom.offset {
		pom.offset = offset
		pom.metadata = metadata
		pom.dirty = true
	}
}

func (pom *partitionOffsetManager) ResetOffset(offset int64, metadata string) {
	pom.lock.Lock()
	defer pom.lock.Unlock()

	if offset <= pom.offset {
		pom.offset = offset
		pom.metadata = metadata
		pom.dirty = true
	}
}

func (pom *partitionOffsetManager) updateCommitted(offset int64, err KError) {
	pom.lock.Lock()
	defer pom.lock.Unlock()

	if err == ErrNoError {
		if offset == pom.offset {
			pom.dirty = false
		}
		return
	}

	select {
	case pom.errors <- &ConsumerError{Topic: pom.topic, Partition: pom.partition, Err: err}:
	default:
	}
}

func (pom *partitionOffsetManager) Errors() <-chan *ConsumerError {
	return pom.errors
}

func (pom *partitionOffsetManager) AsyncClose() {
	pom.closeOnce.Do(func() {
		if pom.broker != nil {
			pom.broker.removePOM(pom)
		}
		pom.parent.removePartitionOffsetManager(pom)
		close(pom.done)
	})
}

func (pom *partitionOffsetManager) Close() error {
	pom.AsyncClose()
	return nil
}

// brokerOffsetManager batches the OffsetCommitRequests of every
// partitionOffsetManager whose group coordinator is this broker, firing
// one combined commit per Consumer.Offsets.AutoCommit.Interval tick.
type brokerOffsetManager struct {
	parent       *offsetManager
	broker       *Broker
	timer        *time.Ticker
	updateSubscriptions chan func(map[*partitionOffsetManager]none)
	closing      chan struct{}
	done         chan struct{}
}

func (om *offsetManager) newBrokerOffsetManager(broker *Broker) *brokerOffsetManager {
	bom := &brokerOffsetManager{
		parent:              om,
		broker:              broker,
		timer:               time.NewTicker(om.conf.Consumer.Offsets.AutoCommit.Interval),
		updateSubscriptions: make(chan func(map[*partitionOffsetManager]none)),
		closing:             make(chan struct{}),
		done:                make(chan struct{}),
	}
	go withRecover(bom.run)
	return bom
}

func (bom *brokerOffsetManager) run() {
	defer close(bom.done)
	defer bom.timer.Stop()

	poms := make(map[*partitionOffsetManager]none)

	for {
		select {
		case <-bom.closing:
			return
		case update := <-bom.updateSubscriptions:
			update(poms)
		case <-bom.timer.C:
			if bom.parent.conf.Consumer.Offsets.AutoCommit.Enable {
				bom.flushToBroker(poms)
			}
		}
	}
}

func (bom *brokerOffsetManager) addPOM(pom *partitionOffsetManager) {
	bom.updateSubscriptions <- func(poms map[*partitionOffsetManager]none) {
		poms[pom] = none{}
	}
}

func (bom *brokerOffsetManager) removePOM(pom *partitionOffsetManager) {
	done := make(chan struct{})
	select {
	case bom.updateSubscriptions <- func(poms map[*partitionOffsetManager]none) {
		delete(poms, pom)
		close(done)
	}:
		<-done
	case <-bom.closing:
	}
}

func (bom *brokerOffsetManager) flushToBroker(poms map[*partitionOffsetManager]none) {
	req := bom.constructRequest(poms)
	if req == nil {
		return
	}

	resp := new(OffsetCommitResponse)
	err := bom.broker.Send(bom.parent.conf.ClientID, req, resp)
	if err != nil {
		bom.handleError(poms, err)
		return
	}

	for pom := range poms {
		if topicErrs, ok := resp.Errors[pom.topic]; ok {
			if kerr, ok := topicErrs[pom.partition]; ok {
				pom.updateCommitted(pom.offset, kerr)
			}
		}
	}
}

func (bom *brokerOffsetManager) constructRequest(poms map[*partitionOffsetManager]none) *OffsetCommitRequest {
	req := &OffsetCommitRequest{
		Version:       1,
		ConsumerGroup: bom.parent.group,
	}

	any := false
	for pom := range poms {
		pom.lock.Lock()
		if pom.dirty {
			req.AddBlock(pom.topic, pom.partition, pom.offset, 0, pom.metadata)
			any = true
		}
		pom.lock.Unlock()
	}

	if !any {
		return nil
	}
	return req
}

func (bom *brokerOffsetManager) handleError(poms map[*partitionOffsetManager]none, err error) {
	_ = bom.parent.client.RefreshCoordinator(bom.parent.group)
	for pom := range poms {
		select {
		case pom.errors <- &ConsumerError{Topic: pom.topic, Partition: pom.partition, Err: err}:
		default:
		}
	}
}

func (bom *brokerOffsetManager) Close() {
	close(bom.closing)
	<-bom.done
}
