package sarama

import "testing"

func TestManualPartitioner(t *testing.T) {
	p := NewManualPartitioner("topic")
	msg := &ProducerMessage{Partition: 4}
	part, err := p.Partition(msg, 8)
	if err != nil {
		t.Fatal(err)
	}
	if part != 4 {
		t.Errorf("expected manual partitioner to return the message's own partition 4, got %d", part)
	}
	if !p.RequiresConsistency() {
		t.Error("expected manual partitioner to require consistency")
	}
}

func TestRoundRobinPartitioner(t *testing.T) {
	p := NewRoundRobinPartitioner("topic")
	msg := &ProducerMessage{}

	seen := make([]int32, 6)
	for i := range seen {
		part, err := p.Partition(msg, 3)
		if err != nil {
			t.Fatal(err)
		}
		seen[i] = part
	}

	expected := []int32{0, 1, 2, 0, 1, 2}
	for i, part := range seen {
		if part != expected[i] {
			t.Errorf("round %d: expected partition %d, got %d", i, expected[i], part)
		}
	}
	if p.RequiresConsistency() {
		t.Error("expected round-robin partitioner to not require consistency")
	}
}

func TestRoundRobinPartitionerZeroPartitions(t *testing.T) {
	p := NewRoundRobinPartitioner("topic")
	if _, err := p.Partition(&ProducerMessage{}, 0); err != ErrInvalidPartition {
		t.Errorf("expected ErrInvalidPartition for zero partitions, got %v", err)
	}
}

func TestHashPartitionerConsistentForSameKey(t *testing.T) {
	p := NewHashPartitioner("topic")
	msg := &ProducerMessage{Key: StringEncoder("consistent-key")}

	first, err := p.Partition(msg, 16)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		part, err := p.Partition(msg, 16)
		if err != nil {
			t.Fatal(err)
		}
		if part != first {
			t.Errorf("expected hash partitioner to be deterministic for the same key, got %d then %d", first, part)
		}
	}
	if !p.RequiresConsistency() {
		t.Error("expected hash partitioner to require consistency")
	}
}

func TestHashPartitionerNoKeyFallsBackToRandom(t *testing.T) {
	p := NewHashPartitioner("topic")
	msg := &ProducerMessage{}
	part, err := p.Partition(msg, 4)
	if err != nil {
		t.Fatal(err)
	}
	if part < 0 || part >= 4 {
		t.Errorf("expected a partition in [0,4), got %d", part)
	}
}

func TestHashPartitionerWithinRange(t *testing.T) {
	p := NewHashPartitioner("topic")
	for i := 0; i < 50; i++ {
		msg := &ProducerMessage{Key: ByteEncoder([]byte{byte(i), byte(i * 7)})}
		part, err := p.Partition(msg, 5)
		if err != nil {
			t.Fatal(err)
		}
		if part < 0 || part >= 5 {
			t.Errorf("partition %d out of range [0,5) for key %d", part, i)
		}
	}
}

func TestRandomPartitionerWithinRange(t *testing.T) {
	p := NewRandomPartitioner("topic")
	for i := 0; i < 50; i++ {
		part, err := p.Partition(&ProducerMessage{}, 7)
		if err != nil {
			t.Fatal(err)
		}
		if part < 0 || part >= 7 {
			t.Errorf("partition %d out of range [0,7)", part)
		}
	}
}

func TestRandomPartitionerZeroPartitions(t *testing.T) {
	p := NewRandomPartitioner("topic")
	if _, err := p.Partition(&ProducerMessage{}, 0); err != ErrInvalidPartition {
		t.Errorf("expected ErrInvalidPartition for zero partitions, got %v", err)
	}
}

func TestMurmur2DeterministicAndVariesByInput(t *testing.T) {
	a := murmur2([]byte("user-42"))
	b := murmur2([]byte("user-42"))
	if a != b {
		t.Errorf("expected murmur2 to be deterministic for the same input, got %d then %d", a, b)
	}
	if murmur2([]byte("user-42")) == murmur2([]byte("user-43")) {
		t.Error("expected murmur2 to vary across different inputs (collision is possible but vanishingly unlikely here)")
	}
	// Exercise every tail-length branch (0, 1, 2, 3 leftover bytes).
	for _, key := range []string{"", "a", "ab", "abc", "abcd", "abcde"} {
		_ = murmur2([]byte(key))
	}
}

func TestHashPartitionerMatchesMurmur2ModuloPartitionCount(t *testing.T) {
	p := NewHashPartitioner("t")
	msg := &ProducerMessage{Key: StringEncoder("user-42")}

	part, err := p.Partition(msg, 4)
	if err != nil {
		t.Fatal(err)
	}

	want := int32((murmur2([]byte("user-42")) & 0x7fffffff) % 4)
	if part != want {
		t.Errorf("expected partition %d (murmur2(\"user-42\") mod 4), got %d", want, part)
	}

	for i := 0; i < 5; i++ {
		again, err := p.Partition(msg, 4)
		if err != nil {
			t.Fatal(err)
		}
		if again != part {
			t.Errorf("expected murmur2 partitioning to be deterministic across calls, got %d then %d", part, again)
		}
	}
}
