package sarama

import "testing"

func TestBalanceStrategyPlanAdd(t *testing.T) {
	plan := make(BalanceStrategyPlan)
	plan.Add("member-1", "topic-a", 0, 1)
	plan.Add("member-1", "topic-a", 2)
	plan.Add("member-1", "topic-b", 0)

	if got := plan["member-1"]["topic-a"]; len(got) != 3 {
		t.Fatalf("expected 3 partitions accumulated for topic-a, got %v", got)
	}
	if got := plan["member-1"]["topic-b"]; len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected topic-b to own partition 0, got %v", got)
	}
}

func TestBalanceStrategyRoundRobinEvenSplit(t *testing.T) {
	strategy := NewBalanceStrategyRoundRobin()
	if strategy.Name() != "roundrobin" {
		t.Errorf("expected strategy name roundrobin, got %s", strategy.Name())
	}

	members := map[string]ConsumerGroupMemberMetadata{
		"member-1": {Topics: []string{"topic-a"}},
		"member-2": {Topics: []string{"topic-a"}},
	}
	topics := map[string][]int32{"topic-a": {0, 1, 2, 3}}

	plan, err := strategy.Plan(members, topics)
	if err != nil {
		t.Fatal(err)
	}

	if len(plan["member-1"]["topic-a"]) != 2 || len(plan["member-2"]["topic-a"]) != 2 {
		t.Fatalf("expected an even 2/2 split across members, got %v", plan)
	}
}

func TestBalanceStrategyRoundRobinIgnoresUnsubscribedMembers(t *testing.T) {
	strategy := NewBalanceStrategyRoundRobin()
	members := map[string]ConsumerGroupMemberMetadata{
		"member-1": {Topics: []string{"topic-a"}},
		"member-2": {Topics: []string{"topic-b"}},
	}
	topics := map[string][]int32{"topic-a": {0, 1}}

	plan, err := strategy.Plan(members, topics)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := plan["member-2"]; ok {
		t.Error("expected member-2, which never subscribed to topic-a, to get no assignment")
	}
	if len(plan["member-1"]["topic-a"]) != 2 {
		t.Errorf("expected member-1 to receive both partitions of topic-a, got %v", plan["member-1"]["topic-a"])
	}
}

func TestBalanceStrategyRoundRobinDeterministic(t *testing.T) {
	strategy := NewBalanceStrategyRoundRobin()
	members := map[string]ConsumerGroupMemberMetadata{
		"member-a": {Topics: []string{"topic-a"}},
		"member-b": {Topics: []string{"topic-a"}},
		"member-c": {Topics: []string{"topic-a"}},
	}
	topics := map[string][]int32{"topic-a": {0, 1, 2, 3, 4}}

	plan1, err := strategy.Plan(members, topics)
	if err != nil {
		t.Fatal(err)
	}
	plan2, err := strategy.Plan(members, topics)
	if err != nil {
		t.Fatal(err)
	}

	for member := range members {
		a := plan1[member]["topic-a"]
		b := plan2[member]["topic-a"]
		if len(a) != len(b) {
			t.Fatalf("expected repeated planning to be deterministic for %s, got %v and %v", member, a, b)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("expected repeated planning to be deterministic for %s at index %d, got %d and %d", member, i, a[i], b[i])
			}
		}
	}
}
