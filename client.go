package sarama

import (
	"sort"
	"sync"
	"time"
)

// Client is the broker pool and cluster metadata cache spec.md §4.3
// describes: it owns every open Broker connection, holds the latest
// metadata snapshot, and hands out leaders/coordinators to the producer,
// consumer, and offset-manager layers above it.
type Client interface {
	Config() *Config
	Controller() (*Broker, error)
	Brokers() []*Broker
	Broker(brokerID int32) (*Broker, error)
	Topics() ([]string, error)
	Partitions(topic string) ([]int32, error)
	WritablePartitions(topic string) ([]int32, error)
	Leader(topic string, partitionID int32) (*Broker, error)
	Replicas(topic string, partitionID int32) ([]int32, error)
	InSyncReplicas(topic string, partitionID int32) ([]int32, error)
	RefreshMetadata(topics ...string) error
	GetOffset(topic string, partitionID int32, time int64) (int64, error)
	Coordinator(consumerGroup string) (*Broker, error)
	RefreshCoordinator(consumerGroup string) error
	Closed() bool
	Close() error
}

// clusterSnapshot is the whole-snapshot metadata cache per DESIGN.md's
// aliasing guidance: RefreshMetadata builds a brand new one and swaps the
// pointer under lock, so readers never observe a metadata update applied
// partway through.
type clusterSnapshot struct {
	brokers       map[int32]*Broker
	controllerID  int32
	topics        map[string]*TopicMetadata
}

func newClusterSnapshot() *clusterSnapshot {
	return &clusterSnapshot{
		brokers:      make(map[int32]*Broker),
		controllerID: -1,
		topics:       make(map[string]*TopicMetadata),
	}
}

type client struct {
	conf *Config

	lock      sync.RWMutex
	snapshot  *clusterSnapshot
	seedBrokers []*Broker

	coordLock    sync.RWMutex
	coordinators map[string]int32

	closed bool
}

// NewClient connects to one of the given seed addresses, fetches initial
// cluster metadata, and returns a ready-to-use Client.
func NewClient(addrs []string, conf *Config) (Client, error) {
	if conf == nil {
		conf = NewConfig()
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, ErrOutOfBrokers
	}

	c := &client{
		conf:         conf,
		snapshot:     newClusterSnapshot(),
		coordinators: make(map[string]int32),
	}

	for _, addr := range addrs {
		broker := NewBroker(addr)
		_ = broker.Open(conf)
		c.seedBrokers = append(c.seedBrokers, broker)
	}

	if err := c.RefreshMetadata(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *client) Config() *Config {
	return c.conf
}

func (c *client) Closed() bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.closed
}

func (c *client) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return ErrClosedClient
	}
	c.closed = true

	for _, b := range c.snapshot.brokers {
		_ = b.Close()
	}
	for _, b := range c.seedBrokers {
		_ = b.Close()
	}
	return nil
}

func (c *client) Brokers() []*Broker {
	c.lock.RLock()
	defer c.lock.RUnlock()

	out := make([]*Broker, 0, len(c.snapshot.brokers))
	for _, b := range c.snapshot.brokers {
		out = append(out, b)
	}
	return out
}

func (c *client) Broker(brokerID int32) (*Broker, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	b, ok := c.snapshot.brokers[brokerID]
	if !ok {
		return nil, ErrBrokerNotFound
	}
	if ok, _ := b.Connected(); !ok {
		if err := b.Open(c.conf); err != nil && err != ErrAlreadyConnected {
			return nil, err
		}
	}
	return b, nil
}

func (c *client) Controller() (*Broker, error) {
	c.lock.RLock()
	id := c.snapshot.controllerID
	c.lock.RUnlock()

	if id < 0 {
		return nil, ErrControllerNotAvailable
	}
	return c.Broker(id)
}

func (c *client) Topics() ([]string, error) {
	if c.Closed() {
		return nil, ErrClosedClient
	}
	c.lock.RLock()
	defer c.lock.RUnlock()

	out := make([]string, 0, len(c.snapshot.topics))
	for name := range c.snapshot.topics {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (c *client) Partitions(topic string) ([]int32, error) {
	tm, err := c.topicMetadata(topic)
	if err != nil {
		return nil, err
	}
	ids := make([]int32, len(tm.Partitions))
	for i, pm := range tm.Partitions {
		ids[i] = pm.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (c *client) WritablePartitions(topic string) ([]int32, error) {
	tm, err := c.topicMetadata(topic)
	if err != nil {
		return nil, err
	}
	var ids []int32
	for _, pm := range tm.Partitions {
		if pm.Err != ErrLeaderNotAvailable {
			ids = append(ids, pm.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (c *client) partitionMetadata(topic string, partitionID int32) (*PartitionMetadata, error) {
	tm, err := c.topicMetadata(topic)
	if err != nil {
		return nil, err
	}
	for _, pm := range tm.Partitions {
		if pm.ID == partitionID {
			return pm, nil
		}
	}
	return nil, ErrUnknownTopicOrPartition
}

func (c *client) Leader(topic string, partitionID int32) (*Broker, error) {
	pm, err := c.partitionMetadata(topic, partitionID)
	if err != nil {
		return nil, err
	}
	if pm.Leader < 0 {
		return nil, ErrLeaderNotAvailable
	}
	return c.Broker(pm.Leader)
}

func (c *client) Replicas(topic string, partitionID int32) ([]int32, error) {
	pm, err := c.partitionMetadata(topic, partitionID)
	if err != nil {
		return nil, err
	}
	return pm.Replicas, nil
}

func (c *client) InSyncReplicas(topic string, partitionID int32) ([]int32, error) {
	pm, err := c.partitionMetadata(topic, partitionID)
	if err != nil {
		return nil, err
	}
	return pm.Isr, nil
}

func (c *client) topicMetadata(topic string) (*TopicMetadata, error) {
	c.lock.RLock()
	tm, ok := c.snapshot.topics[topic]
	c.lock.RUnlock()

	if ok {
		return tm, nil
	}

	if err := c.RefreshMetadata(topic); err != nil {
		return nil, err
	}

	c.lock.RLock()
	defer c.lock.RUnlock()
	tm, ok = c.snapshot.topics[topic]
	if !ok {
		return nil, ErrUnknownTopicOrPartition
	}
	return tm, nil
}

// RefreshMetadata fetches a fresh MetadataResponse and swaps in a whole new
// clusterSnapshot, retrying per conf.Metadata.Retry on failure.
func (c *client) RefreshMetadata(topics ...string) error {
	if c.Closed() {
		return ErrClosedClient
	}

	if len(topics) == 0 && !c.conf.Metadata.Full {
		return ErrNoTopicsToUpdateMetadata
	}

	var lastErr error
	for attempt := 0; attempt <= c.conf.Metadata.Retry.Max; attempt++ {
		if attempt > 0 {
			time.Sleep(c.conf.Metadata.Retry.Backoff)
		}
		if err := c.tryRefreshMetadata(topics); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

func (c *client) tryRefreshMetadata(topics []string) error {
	for _, b := range c.candidateBrokers() {
		req := &MetadataRequest{Version: 1, Topics: topics, AllowAutoTopicCreation: c.conf.Metadata.AllowAutoTopicCreation}
		resp := new(MetadataResponse)
		if err := b.Send(c.conf.ClientID, req, resp); err != nil {
			continue
		}

		next := newClusterSnapshot()
		for _, brokerMeta := range resp.Brokers {
			next.brokers[brokerMeta.ID()] = brokerMeta
		}
		next.controllerID = resp.ControllerID
		for _, tm := range resp.Topics {
			next.topics[tm.Name] = tm
		}

		c.lock.Lock()
		for id, old := range c.snapshot.brokers {
			if _, stillThere := next.brokers[id]; !stillThere {
				_ = old.Close()
			}
		}
		// keep live connections for brokers that are still present
		for id, nb := range next.brokers {
			if old, ok := c.snapshot.brokers[id]; ok {
				if connected, _ := old.Connected(); connected {
					nb.conn = old.conn
					nb.correlationID = old.correlationID
					nb.conf = old.conf
					nb.registry = old.registry
					nb.opened = old.opened
				}
			}
		}
		c.snapshot = next
		c.lock.Unlock()

		return nil
	}
	return ErrOutOfBrokers
}

func (c *client) candidateBrokers() []*Broker {
	c.lock.RLock()
	out := make([]*Broker, 0, len(c.snapshot.brokers)+len(c.seedBrokers))
	for _, b := range c.snapshot.brokers {
		out = append(out, b)
	}
	out = append(out, c.seedBrokers...)
	c.lock.RUnlock()

	for _, b := range out {
		if ok, _ := b.Connected(); !ok {
			_ = b.Open(c.conf)
		}
	}
	return out
}

func (c *client) GetOffset(topic string, partitionID int32, timestamp int64) (int64, error) {
	leader, err := c.Leader(topic, partitionID)
	if err != nil {
		return -1, err
	}

	req := &OffsetRequest{Version: 1}
	req.AddBlock(topic, partitionID, timestamp, 1)

	resp := new(OffsetResponse)
	if err := leader.Send(c.conf.ClientID, req, resp); err != nil {
		return -1, err
	}

	block := resp.GetBlock(topic, partitionID)
	if block == nil {
		return -1, ErrIncompleteResponse
	}
	if block.Err != ErrNoError {
		return -1, block.Err
	}
	return block.Offset, nil
}

func (c *client) Coordinator(consumerGroup string) (*Broker, error) {
	c.coordLock.RLock()
	id, ok := c.coordinators[consumerGroup]
	c.coordLock.RUnlock()

	if ok {
		if b, err := c.Broker(id); err == nil {
			return b, nil
		}
	}

	if err := c.RefreshCoordinator(consumerGroup); err != nil {
		return nil, err
	}

	c.coordLock.RLock()
	id = c.coordinators[consumerGroup]
	c.coordLock.RUnlock()
	return c.Broker(id)
}

func (c *client) RefreshCoordinator(consumerGroup string) error {
	for _, b := range c.candidateBrokers() {
		req := &FindCoordinatorRequest{Version: 1, CoordinatorKey: consumerGroup, CoordinatorType: CoordinatorGroup}
		resp := new(FindCoordinatorResponse)
		if err := b.Send(c.conf.ClientID, req, resp); err != nil {
			continue
		}
		if resp.Err != ErrNoError {
			continue
		}

		c.lock.Lock()
		if _, known := c.snapshot.brokers[resp.Coordinator.ID()]; !known {
			c.snapshot.brokers[resp.Coordinator.ID()] = resp.Coordinator
		}
		c.lock.Unlock()

		c.coordLock.Lock()
		c.coordinators[consumerGroup] = resp.Coordinator.ID()
		c.coordLock.Unlock()
		return nil
	}
	return ErrOutOfBrokers
}
