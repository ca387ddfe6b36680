package sarama

import (
	"hash"
	"math/rand"
)

// Partitioner decides which partition a ProducerMessage with no explicit
// Partition set lands on, per spec.md §4.5's manual/hash/round-robin
// partitioning modes.
type Partitioner interface {
	// Partition returns the partition to produce message to, given the
	// partition count n of the message's topic.
	Partition(message *ProducerMessage, numPartitions int32) (int32, error)

	// RequiresConsistency indicates whether messages with the same key
	// always land on the same partition (true for hash partitioners,
	// false for round-robin).
	RequiresConsistency() bool
}

// PartitionerConstructor builds a Partitioner for a given topic; called
// once per topic the first time the producer sees it.
type PartitionerConstructor func(topic string) Partitioner

type manualPartitioner struct{}

// NewManualPartitioner returns a Partitioner that trusts
// ProducerMessage.Partition, set explicitly by the caller.
func NewManualPartitioner(topic string) Partitioner {
	return new(manualPartitioner)
}

func (p *manualPartitioner) Partition(message *ProducerMessage, numPartitions int32) (int32, error) {
	return message.Partition, nil
}

func (p *manualPartitioner) RequiresConsistency() bool {
	return true
}

type roundRobinPartitioner struct {
	partition int32
}

// NewRoundRobinPartitioner returns a Partitioner that cycles evenly across
// every partition, regardless of key.
func NewRoundRobinPartitioner(topic string) Partitioner {
	return &roundRobinPartitioner{}
}

func (p *roundRobinPartitioner) Partition(message *ProducerMessage, numPartitions int32) (int32, error) {
	if numPartitions <= 0 {
		return 0, ErrInvalidPartition
	}
	part := p.partition % numPartitions
	p.partition++
	return part, nil
}

func (p *roundRobinPartitioner) RequiresConsistency() bool {
	return false
}

type hashPartitioner struct {
	random Partitioner
	hasher hash.Hash32

	// javaCompat selects the Java client's bucketing: mask the hash to
	// non-negative with &0x7fffffff before the modulo, rather than this
	// package's older sign-flip negation. Only set for the murmur2
	// default so existing FNV-1a/custom-hasher callers keep their
	// current bucketing exactly.
	javaCompat bool
}

// NewHashPartitioner returns a Partitioner that hashes ProducerMessage.Key
// with Kafka's default murmur2 variant and buckets it into a partition the
// same way the Java client does: messages with no key fall back to random
// selection. Key is the only hash input; ProducerMessage has no separate
// partition key.
func NewHashPartitioner(topic string) Partitioner {
	p := new(hashPartitioner)
	p.random = NewRandomPartitioner(topic)
	p.hasher = newMurmur2Hash32()
	p.javaCompat = true
	return p
}

// NewCustomHashPartitioner returns a PartitionerConstructor using the given
// hash.Hash32 constructor instead of murmur2 — the hook through which a
// caller can plug in FNV-1a or any other hash.Hash32 implementation.
// Bucketing uses this package's sign-flip negation, not the Java-client
// masking NewHashPartitioner applies for its murmur2 default.
func NewCustomHashPartitioner(hasher func() hash.Hash32) PartitionerConstructor {
	return func(topic string) Partitioner {
		p := new(hashPartitioner)
		p.random = NewRandomPartitioner(topic)
		p.hasher = hasher()
		return p
	}
}

func (p *hashPartitioner) Partition(message *ProducerMessage, numPartitions int32) (int32, error) {
	if message.Key == nil {
		return p.random.Partition(message, numPartitions)
	}
	bytes, err := message.Key.Encode()
	if err != nil {
		return -1, err
	}

	p.hasher.Reset()
	if _, err := p.hasher.Write(bytes); err != nil {
		return -1, err
	}

	if p.javaCompat {
		hash := int32(p.hasher.Sum32() & 0x7fffffff)
		return hash % numPartitions, nil
	}

	hash := int32(p.hasher.Sum32())
	if hash < 0 {
		hash = -hash
	}
	return hash % numPartitions, nil
}

func (p *hashPartitioner) RequiresConsistency() bool {
	return true
}

type randomPartitioner struct{}

// NewRandomPartitioner returns a Partitioner that picks a uniformly random
// partition for every message.
func NewRandomPartitioner(topic string) Partitioner {
	return new(randomPartitioner)
}

func (p *randomPartitioner) Partition(message *ProducerMessage, numPartitions int32) (int32, error) {
	if numPartitions <= 0 {
		return 0, ErrInvalidPartition
	}
	return int32(rand.Intn(int(numPartitions))), nil
}

func (p *randomPartitioner) RequiresConsistency() bool {
	return false
}
