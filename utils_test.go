package sarama

import (
	"bytes"
	"testing"
)

func testEncodable(t *testing.T, name string, in encoder, expected []byte) {
	packet, err := encode(in, nil)
	if err != nil {
		t.Errorf("Failed to encode %s: %s", name, err)
	} else if !bytes.Equal(packet, expected) {
		t.Errorf("Encoding %s failed\ngot  %#v\nwant %#v", name, packet, expected)
	}
}

func testDecodable(t *testing.T, name string, out decoder, in []byte) {
	err := decode(in, out, nil)
	if err != nil {
		t.Errorf("Failed to decode %s: %s", name, err)
	}
}

func testVersionDecodable(t *testing.T, name string, out versionedDecoder, in []byte, version int16) {
	err := versionedDecode(in, out, version, nil)
	if err != nil {
		t.Errorf("Failed to decode %s: %s", name, err)
	}
}
