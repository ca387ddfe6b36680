package sarama

import "testing"

func TestBrokerAccessors(t *testing.T) {
	b := NewBroker("127.0.0.1:9092")
	if b.ID() != -1 {
		t.Errorf("expected a freshly-created broker to have id -1, got %d", b.ID())
	}
	if b.Addr() != "127.0.0.1:9092" {
		t.Errorf("expected addr 127.0.0.1:9092, got %s", b.Addr())
	}
	if b.Rack() != "" {
		t.Errorf("expected no rack on a freshly-created broker, got %q", b.Rack())
	}
}

func TestBrokerConnectedBeforeOpen(t *testing.T) {
	b := NewBroker("127.0.0.1:9092")
	connected, err := b.Connected()
	if err != nil {
		t.Fatal(err)
	}
	if connected {
		t.Error("expected a broker that was never opened to report not connected")
	}
}

func TestBrokerSendBeforeOpen(t *testing.T) {
	b := NewBroker("127.0.0.1:9092")
	req := &MetadataRequest{Version: 1}
	resp := new(MetadataResponse)
	if err := b.Send("sarama", req, resp); err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected sending on an unopened broker, got %v", err)
	}
}

func TestBrokerFetchBeforeOpen(t *testing.T) {
	b := NewBroker("127.0.0.1:9092")
	_, err := b.Fetch(&FetchRequest{Version: 1})
	if err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected fetching on an unopened broker, got %v", err)
	}
}

func TestBrokerEncodeDecode(t *testing.T) {
	rack := "rack1"
	b := &Broker{id: 7, addr: "broker1.example.com:9092", rack: &rack}

	encoded, err := withVersion(b, 1)
	if err != nil {
		t.Fatal(err)
	}

	out := new(Broker)
	if err := versionedDecode(encoded, out, 1, nil); err != nil {
		t.Fatal(err)
	}

	if out.id != 7 {
		t.Errorf("expected decoded id 7, got %d", out.id)
	}
	if out.addr != "broker1.example.com:9092" {
		t.Errorf("expected decoded addr broker1.example.com:9092, got %s", out.addr)
	}
	if out.Rack() != "rack1" {
		t.Errorf("expected decoded rack rack1, got %s", out.Rack())
	}
}

// withVersion encodes a versioned type that, unlike protocolBody, takes its
// version as an explicit encode(pe, version) parameter rather than carrying
// it as a field, mirroring the two-pass prepEncoder/realEncoder strategy
// the package's own encode() helper uses.
func withVersion(b *Broker, version int16) ([]byte, error) {
	var prepEnc prepEncoder
	if err := b.encode(&prepEnc, version); err != nil {
		return nil, err
	}

	realEnc := realEncoder{raw: make([]byte, prepEnc.length)}
	if err := b.encode(&realEnc, version); err != nil {
		return nil, err
	}
	return realEnc.raw, nil
}
