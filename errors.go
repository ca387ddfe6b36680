package sarama

import (
	"errors"
	"fmt"
)

// ErrOutOfBrokers is the error returned when the client has run out of
// brokers to talk to because all of them errored or otherwise failed to
// respond.
var ErrOutOfBrokers = errors.New("kafka: client has run out of available brokers to talk to")

// ErrBrokerNotFound is the error returned when there's no broker found for
// the requested ID.
var ErrBrokerNotFound = errors.New("kafka: broker for id is not found")

// ErrClosedClient is the error returned when a method is called on a client
// that has already been closed.
var ErrClosedClient = errors.New("kafka: tried to use a client that was closed")

// ErrIncompleteResponse is the error returned when the server returns a
// syntactically valid response, but it does not contain the expected
// information.
var ErrIncompleteResponse = errors.New("kafka: response did not contain all the expected topic/partition blocks")

// ErrInvalidPartition is the error returned when a partitioner returns an
// invalid partition index (meaning one outside of the range [0...numPartitions-1]).
var ErrInvalidPartition = errors.New("kafka: partitioner returned an invalid partition index")

// ErrAlreadyConnected is the error returned when calling Open() on a Broker
// that is already connected or connecting.
var ErrAlreadyConnected = errors.New("kafka: broker connection already initiated")

// ErrNotConnected is the error returned when trying to send or call Close()
// on a Broker that is not connected.
var ErrNotConnected = errors.New("kafka: broker not connected")

// ErrInsufficientData is returned when decoding and the packet is truncated.
// This can be expected when requesting messages, since as an optimization
// the server is allowed to return a partial message at the end of the
// message set.
var ErrInsufficientData = errors.New("kafka: insufficient data to decode packet, more bytes expected")

// ErrShuttingDown reports a message received by a producer that is
// shutting down. No code path in this package returns it.
var ErrShuttingDown = errors.New("kafka: message received by producer in process of shutting down")

// ErrMessageTooLarge is returned when the next message to consume is larger
// than the configured Consumer.Fetch.Max.
var ErrMessageTooLarge = errors.New("kafka: message is larger than Consumer.Fetch.Max")

// ErrConsumerOffsetNotAdvanced reports a partition consumer that didn't
// advance its offset after parsing a RecordBatch. No code path in this
// package returns it.
var ErrConsumerOffsetNotAdvanced = errors.New("kafka: consumer offset was not advanced after a RecordBatch")

// ErrControllerNotAvailable is returned when the cluster does not currently
// have a controller broker available.
var ErrControllerNotAvailable = errors.New("kafka: controller is not available")

// ErrNoTopicsToUpdateMetadata is returned when calling RefreshMetadata with
// no topic and the client was configured to not refresh metadata for all
// topics.
var ErrNoTopicsToUpdateMetadata = errors.New("kafka: no specific topics to update metadata")

// ErrUnknownScramMechanism is returned when a SCRAM client is initialized
// with an unknown mechanism.
var ErrUnknownScramMechanism = errors.New("kafka: unknown SCRAM mechanism provided")

// BufferOverflowError is returned by the producer's internal buffer when
// either the configured message count or byte-size ceiling is reached and
// a new message cannot be buffered. It is user-visible and is never
// retried internally.
type BufferOverflowError struct {
	MaxMessages int
	MaxBytes    int
}

func (e BufferOverflowError) Error() string {
	return fmt.Sprintf("kafka: producer buffer overflow (max messages %d, max bytes %d)", e.MaxMessages, e.MaxBytes)
}

// Is reports any BufferOverflowError as matching ErrBufferOverflow via
// errors.Is, regardless of the MaxMessages/MaxBytes values each instance
// carries.
func (e BufferOverflowError) Is(target error) bool {
	_, ok := target.(BufferOverflowError)
	return ok
}

// ErrBufferOverflow is a convenience sentinel wrapping BufferOverflowError
// for use with errors.Is.
var ErrBufferOverflow = BufferOverflowError{}

// DeliveryFailedError describes a delivery that failed with the retry
// envelope exhausted and messages still buffered. Nothing in this package
// returns it: when a message runs out of retries, the async producer
// reports that message's last error instead.
type DeliveryFailedError struct {
	Remaining int
	LastErr   error
}

func (e DeliveryFailedError) Error() string {
	return fmt.Sprintf("kafka: delivery failed for %d buffered message(s), last error: %v", e.Remaining, e.LastErr)
}

func (e DeliveryFailedError) Unwrap() error { return e.LastErr }

// ConfigurationError is the type of error returned from a constructor
// (e.g. NewClient, or NewConsumer) when the specified configuration is
// invalid.
type ConfigurationError string

func (err ConfigurationError) Error() string {
	return "kafka: invalid configuration (" + string(err) + ")"
}

// PacketEncodingError is returned from a failure while encoding a Kafka
// packet. This can happen, for example, if you try to encode a string over
// 2^15 characters in length, since its length cannot be represented with a
// 16-bit signed integer. Thrown for integer overflows or bad conversions as
// well.
type PacketEncodingError struct {
	Info string
}

func (err PacketEncodingError) Error() string {
	return "kafka: error encoding packet: " + err.Info
}

// PacketDecodingError is returned from a failure while decoding a Kafka
// packet. This can happen, for example, if you try to decode a packet
// into a message whose wire format version differs from what was expected
// or the packet is corrupt.
type PacketDecodingError struct {
	Info string
}

func (err PacketDecodingError) Error() string {
	return "kafka: error decoding packet: " + err.Info
}

// ErrDeliveryFailed is a sentinel for a delivery that failed with the retry
// envelope exhausted. Nothing in this package returns it: when a message
// runs out of retries, the async producer reports that message's last
// error instead.
var ErrDeliveryFailed = errors.New("kafka: failed to deliver messages after retry envelope was exhausted")

// KError is the type of error that can be returned directly by the Kafka
// broker. See https://kafka.apache.org/protocol#protocol_error_codes for a
// more complete list with documentation.
type KError int16

// Numeric error codes returned by the Kafka protocol, see spec.md §7 and
// §4.4 for the subset this client acts on directly.
const (
	ErrUnknown                     KError = -1
	ErrNoError                     KError = 0
	ErrOffsetOutOfRange            KError = 1
	ErrInvalidMessage               KError = 2
	ErrUnknownTopicOrPartition     KError = 3
	ErrInvalidMessageSize          KError = 4
	ErrLeaderNotAvailable          KError = 5
	ErrNotLeaderForPartition       KError = 6
	ErrRequestTimedOut             KError = 7
	ErrBrokerNotAvailable          KError = 8
	ErrReplicaNotAvailable         KError = 9
	ErrMessageSizeTooLarge         KError = 10
	ErrStaleControllerEpochCode    KError = 11
	ErrOffsetMetadataTooLarge      KError = 12
	ErrNetworkException            KError = 13
	ErrGroupLoadInProgress         KError = 14
	ErrGroupCoordinatorNotAvailable KError = 15
	ErrNotCoordinatorForGroup      KError = 16
	ErrInvalidTopic                KError = 17
	ErrRecordListTooLarge          KError = 18
	ErrNotEnoughReplicas           KError = 19
	ErrNotEnoughReplicasAfterAppend KError = 20
	ErrInvalidRequiredAcks         KError = 21
	ErrIllegalGeneration           KError = 22
	ErrInconsistentGroupProtocol   KError = 23
	ErrInvalidGroupId              KError = 24
	ErrUnknownMemberId             KError = 25
	ErrInvalidSessionTimeout       KError = 26
	ErrRebalanceInProgress         KError = 27
	ErrInvalidCommitOffsetSize     KError = 28
	ErrTopicAuthorizationFailed    KError = 29
	ErrGroupAuthorizationFailed    KError = 30
	ErrClusterAuthorizationFailed  KError = 31
	ErrInvalidTimestamp            KError = 32
	ErrUnsupportedSASLMechanism    KError = 33
	ErrIllegalSASLState            KError = 34
	ErrUnsupportedVersion          KError = 35
	ErrTopicAlreadyExists          KError = 36
	ErrInvalidPartitions           KError = 37
	ErrInvalidReplicationFactor    KError = 38
	ErrNotController               KError = 41
	ErrInvalidRequest              KError = 42
	ErrCorruptMessage              KError = 43
)

func (err KError) Error() string {
	if msg, ok := kerrorNames[err]; ok {
		return msg
	}
	return fmt.Sprintf("kafka server: error code %d", int16(err))
}

var kerrorNames = map[KError]string{
	ErrUnknown:                      "kafka server: unexpected error",
	ErrNoError:                      "kafka server: no error",
	ErrOffsetOutOfRange:             "kafka server: requested offset is outside the range of offsets maintained on the server",
	ErrInvalidMessage:               "kafka server: message contents do not match its CRC",
	ErrUnknownTopicOrPartition:      "kafka server: request was for a topic or partition that does not exist",
	ErrInvalidMessageSize:           "kafka server: message has a negative size",
	ErrLeaderNotAvailable:           "kafka server: in the middle of a leadership election, there is no leader for this partition",
	ErrNotLeaderForPartition:        "kafka server: broker is not the leader for this partition",
	ErrRequestTimedOut:              "kafka server: request exceeded the user-specified time limit",
	ErrBrokerNotAvailable:           "kafka server: broker not available",
	ErrReplicaNotAvailable:          "kafka server: replica not available",
	ErrMessageSizeTooLarge:          "kafka server: message is larger than the maximum configured segment size",
	ErrStaleControllerEpochCode:     "kafka server: stale controller epoch",
	ErrOffsetMetadataTooLarge:       "kafka server: commit offset's metadata is too large",
	ErrNetworkException:             "kafka server: network error",
	ErrGroupLoadInProgress:          "kafka server: coordinator is loading and hence cannot process requests for this group",
	ErrGroupCoordinatorNotAvailable: "kafka server: coordinator is not available",
	ErrNotCoordinatorForGroup:       "kafka server: broker is not the coordinator for this group",
	ErrInvalidTopic:                 "kafka server: topic is invalid",
	ErrRecordListTooLarge:           "kafka server: message batch larger than configured segment size",
	ErrNotEnoughReplicas:            "kafka server: not enough in-sync replicas",
	ErrNotEnoughReplicasAfterAppend: "kafka server: not enough in-sync replicas after append",
	ErrInvalidRequiredAcks:          "kafka server: invalid value for required acks",
	ErrIllegalGeneration:            "kafka server: consumer generation id is not current generation",
	ErrInconsistentGroupProtocol:    "kafka server: member's protocol is incompatible with the rest of the group",
	ErrInvalidGroupId:               "kafka server: groupId is invalid",
	ErrUnknownMemberId:              "kafka server: member id is unknown",
	ErrInvalidSessionTimeout:        "kafka server: session timeout is outside allowed range",
	ErrRebalanceInProgress:          "kafka server: group is rebalancing, re-join required",
	ErrInvalidCommitOffsetSize:      "kafka server: offset commit was rejected because of oversize metadata",
	ErrTopicAuthorizationFailed:     "kafka server: not authorized for this topic",
	ErrGroupAuthorizationFailed:     "kafka server: not authorized for this group",
	ErrClusterAuthorizationFailed:   "kafka server: not authorized to perform this cluster action",
	ErrInvalidTimestamp:             "kafka server: timestamp is not valid",
	ErrUnsupportedSASLMechanism:     "kafka server: SASL mechanism requested is not supported",
	ErrIllegalSASLState:             "kafka server: request during invalid SASL state",
	ErrUnsupportedVersion:           "kafka server: version not supported by broker",
	ErrTopicAlreadyExists:           "kafka server: topic already exists",
	ErrInvalidPartitions:            "kafka server: invalid number of partitions",
	ErrInvalidReplicationFactor:     "kafka server: invalid replication factor",
	ErrNotController:                "kafka server: this broker is not the controller",
	ErrInvalidRequest:               "kafka server: malformed request",
	ErrCorruptMessage:               "kafka server: message failed its CRC check",
}

// isRetriableError buckets a broker error code into spec.md §7's
// "Protocol retriable" set: the caller should mark the relevant cache
// stale, sleep the configured backoff, and retry within the envelope
// rather than surface the error immediately.
func isRetriableError(err KError) bool {
	switch err {
	case ErrLeaderNotAvailable,
		ErrNotLeaderForPartition,
		ErrRequestTimedOut,
		ErrNotCoordinatorForGroup,
		ErrGroupCoordinatorNotAvailable,
		ErrGroupLoadInProgress,
		ErrUnknownTopicOrPartition:
		return true
	default:
		return false
	}
}

// isGroupMembershipError buckets a broker error code into spec.md §7's
// "Group membership" set: these never surface to the caller directly, they
// trigger a rejoin.
func isGroupMembershipError(err KError) bool {
	switch err {
	case ErrUnknownMemberId, ErrIllegalGeneration, ErrRebalanceInProgress:
		return true
	default:
		return false
	}
}
