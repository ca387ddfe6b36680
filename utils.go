package sarama

import (
	"fmt"
	"sort"
)

// KafkaVersion instances represent versions of the upstream Kafka broker
// protocol, used to gate which request/response versions this client is
// allowed to negotiate. Protocol version negotiation itself (ApiVersions)
// is out of spec.md's scope; KafkaVersion exists so request encoders can
// still express "this field requires at least 0.11" the way the teacher's
// protocol types do.
type KafkaVersion struct {
	version [4]uint
}

func newKafkaVersion(major, minor, veryMinor, patch uint) KafkaVersion {
	return KafkaVersion{[4]uint{major, minor, veryMinor, patch}}
}

// IsAtLeast returns true if this version is equal to or later than the
// given version.
func (v KafkaVersion) IsAtLeast(other KafkaVersion) bool {
	for i := range v.version {
		if v.version[i] > other.version[i] {
			return true
		} else if v.version[i] < other.version[i] {
			return false
		}
	}
	return true
}

func (v KafkaVersion) String() string {
	if v.version[0] == 0 {
		return fmt.Sprintf("0.%d.%d.%d", v.version[1], v.version[2], v.version[3])
	}
	return fmt.Sprintf("%d.%d.%d", v.version[0], v.version[1], v.version[2])
}

var (
	V0_8_2_0  = newKafkaVersion(0, 8, 2, 0)
	V0_9_0_0  = newKafkaVersion(0, 9, 0, 0)
	V0_10_0_0 = newKafkaVersion(0, 10, 0, 0)
	V0_10_1_0 = newKafkaVersion(0, 10, 1, 0)
	V0_10_2_0 = newKafkaVersion(0, 10, 2, 0)
	V0_11_0_0 = newKafkaVersion(0, 11, 0, 0)
	V1_0_0_0  = newKafkaVersion(1, 0, 0, 0)
	V2_0_0_0  = newKafkaVersion(2, 0, 0, 0)
	V2_1_0_0  = newKafkaVersion(2, 1, 0, 0)
	V2_2_0_0  = newKafkaVersion(2, 2, 0, 0)
	V2_3_0_0  = newKafkaVersion(2, 3, 0, 0)
	V2_4_0_0  = newKafkaVersion(2, 4, 0, 0)
	V2_5_0_0  = newKafkaVersion(2, 5, 0, 0)

	minVersion      = V0_8_2_0
	maxVersion      = V2_5_0_0
	defaultVersion  = V2_1_0_0
)

// none is the zero-size type used for set-like maps throughout the client
// (subscription sets, pending-ack tracking), exactly as the teacher does.
type none struct{}

// dupeAndSort returns a sorted copy of the given int32 slice without
// mutating the input, used by the consumer-group leader when computing a
// deterministic round-robin assignment (spec.md §4.8).
func dupeAndSort(in []int32) []int32 {
	out := make([]int32, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func dupeStringsAndSort(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}

// withRecover runs fn and, should it panic while PanicHandler is set,
// recovers and passes the panic value to PanicHandler; with no handler set
// the panic propagates as usual. The async producer, the consumer, the
// offset manager, Broker.Open's dial goroutine and the sync producer's
// forwarders launch their goroutines through withRecover; the
// consumer-group heartbeat loop is started without it.
func withRecover(fn func()) {
	defer func() {
		handler := PanicHandler
		if handler != nil {
			if err := recover(); err != nil {
				handler(err)
			}
		}
	}()
	fn()
}
