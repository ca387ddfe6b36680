package sarama

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClosedConsumerGroup is returned when a method is called on a
// ConsumerGroup that has already been closed.
var ErrClosedConsumerGroup = errors.New("kafka: tried to use a consumer group that was closed")

// ConsumerGroupSession represents one generation of group membership: the
// partitions currently assigned, and the means to mark progress and
// trigger a clean rebalance.
type ConsumerGroupSession interface {
	Claims() map[string][]int32
	MemberID() string
	GenerationID() int32
	MarkMessage(msg *ConsumerMessage, metadata string)
	MarkOffset(topic string, partition int32, offset int64, metadata string)
	ResetOffset(topic string, partition int32, offset int64, metadata string)
	Commit()
	Context() context.Context
}

// ConsumerGroupClaim is the stream of messages for one partition this
// member was assigned in the current generation.
type ConsumerGroupClaim interface {
	Topic() string
	Partition() int32
	InitialOffset() int64
	HighWaterMarkOffset() int64
	Messages() <-chan *ConsumerMessage
}

// ConsumerGroupHandler is implemented by the caller to process messages
// from a ConsumerGroupClaim and to hook the Setup/Cleanup boundary of
// each generation, per spec.md §4.9's JOINING/SYNCING/STABLE cycle.
type ConsumerGroupHandler interface {
	Setup(ConsumerGroupSession) error
	Cleanup(ConsumerGroupSession) error
	ConsumeClaim(ConsumerGroupSession, ConsumerGroupClaim) error
}

// ConsumerGroup drives one member of a Kafka consumer group through
// repeated generations, handing claimed partitions to a
// ConsumerGroupHandler each time.
type ConsumerGroup interface {
	Consume(ctx context.Context, topics []string, handler ConsumerGroupHandler) error
	Errors() <-chan error
	Close() error
}

type consumerGroup struct {
	client Client
	conf   *Config
	consumer Consumer

	groupID  string
	memberID string

	lock   sync.Mutex
	closed bool
	errors chan error
}

// NewConsumerGroup creates a ConsumerGroup targeting groupID using fresh
// broker connections to the given addresses.
func NewConsumerGroup(addrs []string, groupID string, conf *Config) (ConsumerGroup, error) {
	client, err := NewClient(addrs, conf)
	if err != nil {
		return nil, err
	}
	cg, err := NewConsumerGroupFromClient(groupID, client)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return cg, nil
}

// NewConsumerGroupFromClient creates a ConsumerGroup for groupID that
// shares client's broker pool. The caller remains responsible for
// closing client.
func NewConsumerGroupFromClient(groupID string, client Client) (ConsumerGroup, error) {
	if client.Closed() {
		return nil, ErrClosedClient
	}

	consumer, err := NewConsumerFromClient(client)
	if err != nil {
		return nil, err
	}

	return &consumerGroup{
		client:   client,
		conf:     client.Config(),
		consumer: consumer,
		groupID:  groupID,
		errors:   make(chan error, client.Config().ChannelBufferSize),
	}, nil
}

func (c *consumerGroup) Errors() <-chan error {
	return c.errors
}

func (c *consumerGroup) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.errors)
	return c.consumer.Close()
}

func (c *consumerGroup) handleError(err error) {
	if err == nil {
		return
	}
	select {
	case c.errors <- err:
	default:
		Logger.Printf("consumergroup/%s: error channel full, discarding: %v", c.groupID, err)
	}
}

// Consume joins the group, waits for a partition assignment and runs
// handler against it for one generation. It returns once every
// ConsumeClaim call has returned, which happens when ctx is cancelled or a
// heartbeat reports a group membership change: either one closes the
// generation's partition consumers. A group membership error ends the
// generation with a nil return rather than an error; callers loop calling
// Consume to rejoin after each rebalance.
func (c *consumerGroup) Consume(ctx context.Context, topics []string, handler ConsumerGroupHandler) error {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return ErrClosedConsumerGroup
	}
	c.lock.Unlock()

	sess, err := c.newSession(ctx, topics)
	if err != nil {
		if errors.Is(err, ErrClosedClient) {
			return ErrClosedConsumerGroup
		}
		if kerr, ok := err.(KError); ok && isGroupMembershipError(kerr) {
			return nil
		}
		return err
	}
	defer sess.release()

	if err := handler.Setup(sess); err != nil {
		return err
	}
	defer func() {
		_ = handler.Cleanup(sess)
	}()

	var wg sync.WaitGroup
	for topic, partitions := range sess.claims {
		for _, partition := range partitions {
			claim, err := sess.newClaim(topic, partition)
			if err != nil {
				c.handleError(err)
				continue
			}

			wg.Add(1)
			go func(claim *consumerGroupClaim) {
				defer wg.Done()
				if err := handler.ConsumeClaim(sess, claim); err != nil {
					c.handleError(err)
				}
			}(claim)
		}
	}

	go sess.heartbeatLoop()
	go func() {
		<-sess.ctx.Done()
		sess.lock.Lock()
		pcs := sess.pconsumers
		sess.lock.Unlock()
		for _, pc := range pcs {
			pc.AsyncClose()
		}
	}()

	wg.Wait()
	if kerr, ok := sess.err().(KError); ok && isGroupMembershipError(kerr) {
		return nil
	}
	return sess.err()
}

type consumerGroupSession struct {
	parent       *consumerGroup
	ctx          context.Context
	cancel       context.CancelFunc
	memberID     string
	generationID int32
	coordinator  *Broker
	claims       map[string][]int32

	offsets *offsetManager

	lock      sync.Mutex
	fatalErr  error
	pconsumers []PartitionConsumer
}

func (c *consumerGroup) newSession(ctx context.Context, topics []string) (*consumerGroupSession, error) {
	coordinator, err := c.client.Coordinator(c.groupID)
	if err != nil {
		return nil, err
	}

	memberID := c.memberID
	joinResp, err := c.joinGroup(coordinator, memberID, topics)
	if err != nil {
		return nil, err
	}

	var claims map[string][]int32
	if joinResp.LeaderID == joinResp.MemberID {
		claims, err = c.balance(joinResp, topics)
		if err != nil {
			return nil, err
		}
	}

	syncResp, err := c.syncGroup(coordinator, joinResp, claims)
	if err != nil {
		return nil, err
	}

	c.memberID = joinResp.MemberID

	assignment, err := syncResp.GetMemberAssignment()
	if err != nil {
		return nil, err
	}

	offsets, err := NewOffsetManagerFromClient(c.groupID, c.client)
	if err != nil {
		return nil, err
	}

	sessCtx, cancel := context.WithCancel(ctx)
	return &consumerGroupSession{
		parent:       c,
		ctx:          sessCtx,
		cancel:       cancel,
		memberID:     joinResp.MemberID,
		generationID: joinResp.GenerationID,
		coordinator:  coordinator,
		claims:       assignment.Topics,
		offsets:      offsets.(*offsetManager),
	}, nil
}

func (c *consumerGroup) joinGroup(coordinator *Broker, memberID string, topics []string) (*JoinGroupResponse, error) {
	req := &JoinGroupRequest{
		Version:          1,
		GroupID:          c.groupID,
		MemberID:         memberID,
		SessionTimeout:   int32(c.conf.Consumer.Group.Session.Timeout / time.Millisecond),
		RebalanceTimeout: int32(c.conf.Consumer.Group.Rebalance.Timeout / time.Millisecond),
		ProtocolType:     "consumer",
	}
	meta := &ConsumerGroupMemberMetadata{Version: 1, Topics: topics}
	if err := req.AddGroupProtocolMetadata(c.conf.Consumer.Group.Rebalance.Strategy.Name(), meta); err != nil {
		return nil, err
	}

	resp := new(JoinGroupResponse)
	if err := coordinator.Send(c.conf.ClientID, req, resp); err != nil {
		return nil, err
	}

	switch resp.Err {
	case ErrNoError:
		return resp, nil
	case ErrUnknownMemberId:
		// the coordinator forgot us (first join, or we were kicked);
		// retry once with a blank member id so it assigns us a fresh one.
		if memberID == "" {
			return nil, resp.Err
		}
		return c.joinGroup(coordinator, "", topics)
	case ErrNotCoordinatorForGroup, ErrGroupCoordinatorNotAvailable:
		if err := c.client.RefreshCoordinator(c.groupID); err != nil {
			return nil, err
		}
		return nil, resp.Err
	default:
		return nil, resp.Err
	}
}

func (c *consumerGroup) balance(joinResp *JoinGroupResponse, topics []string) (BalanceStrategyPlan, error) {
	members, err := joinResp.GetMembers()
	if err != nil {
		return nil, err
	}

	topicPartitions := make(map[string][]int32, len(topics))
	for _, topic := range topics {
		partitions, err := c.client.Partitions(topic)
		if err != nil {
			return nil, err
		}
		topicPartitions[topic] = partitions
	}

	return c.conf.Consumer.Group.Rebalance.Strategy.Plan(members, topicPartitions)
}

func (c *consumerGroup) syncGroup(coordinator *Broker, joinResp *JoinGroupResponse, plan BalanceStrategyPlan) (*SyncGroupResponse, error) {
	req := &SyncGroupRequest{
		Version:      1,
		GroupID:      c.groupID,
		GenerationID: joinResp.GenerationID,
		MemberID:     joinResp.MemberID,
	}

	if plan != nil {
		for memberID, topics := range plan {
			if err := req.AddGroupAssignmentMember(memberID, &ConsumerGroupMemberAssignment{Version: 1, Topics: topics}); err != nil {
				return nil, err
			}
		}
		// ensure every joined member gets an (possibly empty) assignment entry
		members, err := joinResp.GetMembers()
		if err != nil {
			return nil, err
		}
		for memberID := range members {
			if _, ok := plan[memberID]; !ok {
				if err := req.AddGroupAssignmentMember(memberID, &ConsumerGroupMemberAssignment{Version: 1}); err != nil {
					return nil, err
				}
			}
		}
	}

	resp := new(SyncGroupResponse)
	if err := coordinator.Send(c.conf.ClientID, req, resp); err != nil {
		return nil, err
	}
	if resp.Err != ErrNoError {
		return nil, resp.Err
	}
	return resp, nil
}

func (s *consumerGroupSession) heartbeatLoop() {
	ticker := time.NewTicker(s.parent.conf.Consumer.Group.Heartbeat.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			req := &HeartbeatRequest{
				Version:      1,
				GroupID:      s.parent.groupID,
				GenerationID: s.generationID,
				MemberID:     s.memberID,
			}
			resp := new(HeartbeatResponse)
			if err := s.coordinator.Send(s.parent.conf.ClientID, req, resp); err != nil {
				s.parent.handleError(err)
				continue
			}
			if resp.Err != ErrNoError && isGroupMembershipError(resp.Err) {
				// the next Consume() call will rejoin; tear this
				// generation down now so claims stop delivering.
				s.fail(resp.Err)
				return
			}
		}
	}
}

func (s *consumerGroupSession) fail(err error) {
	s.lock.Lock()
	if s.fatalErr == nil {
		s.fatalErr = err
	}
	s.lock.Unlock()
	s.cancel()
}

func (s *consumerGroupSession) err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.fatalErr
}

func (s *consumerGroupSession) release() {
	s.cancel()
	s.lock.Lock()
	pcs := s.pconsumers
	s.lock.Unlock()
	for _, pc := range pcs {
		pc.AsyncClose()
	}
	if s.offsets != nil {
		_ = s.offsets.Close()
	}

	req := &LeaveGroupRequest{Version: 1, GroupID: s.parent.groupID, MemberID: s.memberID}
	_ = s.coordinator.Send(s.parent.conf.ClientID, req, new(LeaveGroupResponse))
}

func (s *consumerGroupSession) Claims() map[string][]int32 {
	return s.claims
}

func (s *consumerGroupSession) MemberID() string {
	return s.memberID
}

func (s *consumerGroupSession) GenerationID() int32 {
	return s.generationID
}

func (s *consumerGroupSession) Context() context.Context {
	return s.ctx
}

func (s *consumerGroupSession) MarkMessage(msg *ConsumerMessage, metadata string) {
	s.MarkOffset(msg.Topic, msg.Partition, msg.Offset+1, metadata)
}

func (s *consumerGroupSession) MarkOffset(topic string, partition int32, offset int64, metadata string) {
	if pom, err := s.offsets.ManagePartition(topic, partition); err == nil {
		pom.MarkOffset(offset, metadata)
	}
}

func (s *consumerGroupSession) ResetOffset(topic string, partition int32, offset int64, metadata string) {
	if pom, err := s.offsets.ManagePartition(topic, partition); err == nil {
		pom.ResetOffset(offset, metadata)
	}
}

// Commit nudges every broker-offset-manager loop to flush dirty offsets
// immediately instead of waiting for the next autocommit tick.
func (s *consumerGroupSession) Commit() {
	s.offsets.boLock.Lock()
	defer s.offsets.boLock.Unlock()

	for _, bom := range s.offsets.brokers {
		bom.timer.Reset(time.Nanosecond)
	}
}

type consumerGroupClaim struct {
	topic         string
	partition     int32
	initialOffset int64
	pc            PartitionConsumer
}

func (s *consumerGroupSession) newClaim(topic string, partition int32) (*consumerGroupClaim, error) {
	pom, err := s.offsets.ManagePartition(topic, partition)
	if err != nil {
		return nil, err
	}
	offset, _ := pom.NextOffset()

	pc, err := s.parent.consumer.ConsumePartition(topic, partition, offset)
	if err != nil {
		if errors.Is(err, ErrOffsetOutOfRange) {
			pc, err = s.parent.consumer.ConsumePartition(topic, partition, s.parent.conf.Consumer.Offsets.Initial)
		}
		if err != nil {
			return nil, fmt.Errorf("consumergroup: failed to claim %s/%d: %w", topic, partition, err)
		}
	}

	s.lock.Lock()
	s.pconsumers = append(s.pconsumers, pc)
	s.lock.Unlock()

	go func() {
		for err := range pc.Errors() {
			s.parent.handleError(err)
		}
	}()

	return &consumerGroupClaim{topic: topic, partition: partition, initialOffset: offset, pc: pc}, nil
}

func (c *consumerGroupClaim) Topic() string        { return c.topic }
func (c *consumerGroupClaim) Partition() int32      { return c.partition }
func (c *consumerGroupClaim) InitialOffset() int64  { return c.initialOffset }
func (c *consumerGroupClaim) HighWaterMarkOffset() int64        { return c.pc.HighWaterMarkOffset() }
func (c *consumerGroupClaim) Messages() <-chan *ConsumerMessage { return c.pc.Messages() }
