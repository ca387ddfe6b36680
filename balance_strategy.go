package sarama

// BalanceStrategyPlan maps each member id to the topic/partitions assigned
// to it; the group leader computes one of these once per generation and
// distributes it via SyncGroup.
type BalanceStrategyPlan map[string]map[string][]int32

// Add records that memberID owns the given partitions of topic.
func (p BalanceStrategyPlan) Add(memberID, topic string, partitions ...int32) {
	if p[memberID] == nil {
		p[memberID] = make(map[string][]int32)
	}
	p[memberID][topic] = append(p[memberID][topic], partitions...)
}

// BalanceStrategy computes a BalanceStrategyPlan from each member's
// subscribed topics and the partitions each topic has, per spec.md §4.8's
// "leader computes assignment" design.
type BalanceStrategy interface {
	Name() string
	Plan(members map[string]ConsumerGroupMemberMetadata, topics map[string][]int32) (BalanceStrategyPlan, error)
}

type balanceStrategyRoundRobin struct{}

func (s *balanceStrategyRoundRobin) Name() string {
	return "roundrobin"
}

// Plan assigns partitions round-robin across members subscribed to each
// topic, iterating members in a deterministic (sorted) order so that every
// member in the group independently derives the same plan the leader
// computed, without needing to trust the wire order JoinGroup happened to
// deliver members in.
func (s *balanceStrategyRoundRobin) Plan(members map[string]ConsumerGroupMemberMetadata, topics map[string][]int32) (BalanceStrategyPlan, error) {
	plan := make(BalanceStrategyPlan, len(members))

	topicToMembers := make(map[string][]string)
	for memberID, meta := range members {
		for _, topic := range meta.Topics {
			topicToMembers[topic] = append(topicToMembers[topic], memberID)
		}
	}

	for topic, partitions := range topics {
		memberIDs := dupeStringsAndSort(topicToMembers[topic])
		if len(memberIDs) == 0 {
			continue
		}
		sortedPartitions := dupeAndSort(partitions)
		for i, partition := range sortedPartitions {
			memberID := memberIDs[i%len(memberIDs)]
			plan.Add(memberID, topic, partition)
		}
	}

	return plan, nil
}

// NewBalanceStrategyRoundRobin returns a BalanceStrategy that distributes
// each topic's partitions evenly and deterministically across its
// subscribed members.
func NewBalanceStrategyRoundRobin() BalanceStrategy {
	return &balanceStrategyRoundRobin{}
}
