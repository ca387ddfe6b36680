package sarama

import (
	"fmt"
)

// Request API keys, per spec.md §6. Only the subset this client's engine
// actually issues is implemented; admin/transaction-coordinator keys are
// explicitly out of scope (see DESIGN.md).
const (
	apiKeyProduce           = 0
	apiKeyFetch             = 1
	apiKeyListOffsets       = 2
	apiKeyMetadata          = 3
	apiKeyOffsetCommit      = 8
	apiKeyOffsetFetch       = 9
	apiKeyFindCoordinator   = 10
	apiKeyJoinGroup         = 11
	apiKeyHeartbeat         = 12
	apiKeyLeaveGroup        = 13
	apiKeySyncGroup         = 14
	apiKeySaslHandshake     = 17
	apiKeySaslAuthenticate  = 36
)

// protocolBody is the interface every concrete request/response pair
// implements: a tagged variant carrying its own api_key, encoder, and
// decoder. A table from api_key to an empty protocolBody (see
// allocateBody below) avoids per-type dispatch classes.
type protocolBody interface {
	encoder
	versionedDecoder
	key() int16
	version() int16
	setVersion(v int16)
	headerVersion() int16
	isValidVersion() bool
	requiredVersion() KafkaVersion
}

// request is the framed envelope wrapping a protocolBody: int32 size +
// int16 api_key + int16 api_version + int32 correlation_id + string
// client_id + body, exactly as spec.md §4.1 describes.
type request struct {
	correlationID int32
	clientID      string
	body          protocolBody
}

func (r *request) encode(pe packetEncoder) (err error) {
	pe.push(&lengthField{})
	pe.putInt16(r.body.key())
	pe.putInt16(r.body.version())
	pe.putInt32(r.correlationID)

	err = pe.putString(r.clientID)
	if err != nil {
		return err
	}

	err = r.body.encode(pe)
	if err != nil {
		return err
	}

	return pe.pop()
}

func (r *request) decode(pd packetDecoder) (err error) {
	var key int16
	if key, err = pd.getInt16(); err != nil {
		return err
	}
	var version int16
	if version, err = pd.getInt16(); err != nil {
		return err
	}
	if r.correlationID, err = pd.getInt32(); err != nil {
		return err
	}
	r.clientID, err = pd.getString()
	if err != nil {
		return err
	}

	r.body = allocateBody(key, version)
	if r.body == nil {
		return PacketDecodingError{fmt.Sprintf("unknown request key (%d)", key)}
	}
	return r.body.decode(pd, version)
}

func decodeRequest(pd packetDecoder) (req *request, bytesRead int, err error) {
	req = &request{}

	if err = req.decode(pd); err != nil {
		return nil, bytesRead, err
	}

	return req, bytesRead, nil
}

func allocateBody(key, version int16) protocolBody {
	switch key {
	case apiKeyProduce:
		return &ProduceRequest{Version: version}
	case apiKeyFetch:
		return &FetchRequest{Version: version}
	case apiKeyListOffsets:
		return &OffsetRequest{Version: version}
	case apiKeyMetadata:
		return &MetadataRequest{Version: version}
	case apiKeyOffsetCommit:
		return &OffsetCommitRequest{Version: version}
	case apiKeyOffsetFetch:
		return &OffsetFetchRequest{Version: version}
	case apiKeyFindCoordinator:
		return &FindCoordinatorRequest{Version: version}
	case apiKeyJoinGroup:
		return &JoinGroupRequest{Version: version}
	case apiKeyHeartbeat:
		return &HeartbeatRequest{Version: version}
	case apiKeyLeaveGroup:
		return &LeaveGroupRequest{Version: version}
	case apiKeySyncGroup:
		return &SyncGroupRequest{Version: version}
	case apiKeySaslHandshake:
		return &SaslHandshakeRequest{Version: version}
	case apiKeySaslAuthenticate:
		return &SaslAuthenticateRequest{Version: version}
	}
	return nil
}

// responseHeader is the framing in front of every response body:
// int32 size + int32 correlation_id.
type responseHeader struct {
	length        int32
	correlationID int32
}

func (r *responseHeader) decode(pd packetDecoder, version int16) (err error) {
	r.length, err = pd.getInt32()
	if err != nil {
		return err
	}
	if r.length <= 4 || r.length > MaxResponseSize {
		return PacketDecodingError{fmt.Sprintf("message of length %d too large or too small", r.length)}
	}

	r.correlationID, err = pd.getInt32()
	return err
}

// MaxRequestSize is the maximum size (in bytes) of any request that Sarama
// will attempt to send. Trying to send a request larger than this will
// result in an PacketEncodingError. The default of 100 MiB is the same
// default as upstream Kafka and covers the vast majority of configurable
// message sizes.
var MaxRequestSize int32 = 100 * 1024 * 1024

// MaxResponseSize is the maximum size (in bytes) of any response that
// Sarama will attempt to parse. If a broker returns a response message
// larger than this value, Sarama will return a PacketDecodingError.
var MaxResponseSize int32 = 100 * 1024 * 1024
