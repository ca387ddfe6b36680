package sarama

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

// fakeSCRAMServer computes the server side of RFC 5802's SCRAM-SHA-256
// exchange against a fixed password, just enough to drive xdgSCRAMClient
// through a full Begin/Step/Step round trip without a real broker.
type fakeSCRAMServer struct {
	iterations int
	salt       []byte
	password   []byte

	serverNonce    string
	clientFirstMsg string
	serverFirstMsg string
	saltedPassword []byte
}

func (s *fakeSCRAMServer) firstMessage(clientFirstMsgBare, clientNonce string) string {
	s.clientFirstMsg = clientFirstMsgBare
	s.serverNonce = clientNonce + "serversuffix"
	s.saltedPassword = pbkdf2.Key(s.password, s.salt, s.iterations, sha256.Size, sha256.New)
	s.serverFirstMsg = fmt.Sprintf("r=%s,s=%s,i=%d", s.serverNonce, base64.StdEncoding.EncodeToString(s.salt), s.iterations)
	return s.serverFirstMsg
}

func (s *fakeSCRAMServer) finalMessage(clientFinalMsgNoProof string) string {
	authMessage := s.clientFirstMsg + "," + s.serverFirstMsg + "," + clientFinalMsgNoProof

	serverKey := hmacSHA256(s.saltedPassword, []byte("Server Key"))
	serverSignature := hmacSHA256(serverKey, []byte(authMessage))

	return "v=" + base64.StdEncoding.EncodeToString(serverSignature)
}

func hmacSHA256(key, msg []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func TestXDGSCRAMClientFullExchange(t *testing.T) {
	client := newSCRAMClientSHA256()
	if err := client.Begin("user", "pencil", ""); err != nil {
		t.Fatal(err)
	}

	clientFirst := client.ClientFirstMessage()
	if clientFirst[:3] != "n,," {
		t.Fatalf("expected ClientFirstMessage to start with the gs2 header n,,, got %q", clientFirst)
	}
	clientFirstBare := clientFirst[3:]

	server := &fakeSCRAMServer{iterations: 4096, salt: []byte("fixedsalt"), password: []byte("pencil")}
	serverFirst := server.firstMessage(clientFirstBare, client.clientNonce)

	clientFinal, err := client.Step(serverFirst)
	if err != nil {
		t.Fatal(err)
	}
	if client.Done() {
		t.Error("expected the client to not be done after only the first step")
	}

	// Everything up to ",p=" is the no-proof portion the server recomputes
	// against to derive its own signature.
	noProofEnd := len(clientFinal)
	for i := 0; i < len(clientFinal)-2; i++ {
		if clientFinal[i] == ',' && clientFinal[i+1] == 'p' && clientFinal[i+2] == '=' {
			noProofEnd = i
			break
		}
	}
	serverFinal := server.finalMessage(clientFinal[:noProofEnd])

	if _, err := client.Step(serverFinal); err != nil {
		t.Fatalf("expected the server-final message to validate, got %v", err)
	}
	if !client.Done() {
		t.Error("expected the client to report done after a valid server-final message")
	}
}

func TestXDGSCRAMClientRejectsBadServerSignature(t *testing.T) {
	client := newSCRAMClientSHA256()
	if err := client.Begin("user", "pencil", ""); err != nil {
		t.Fatal(err)
	}

	clientFirstBare := client.ClientFirstMessage()[3:]
	server := &fakeSCRAMServer{iterations: 4096, salt: []byte("fixedsalt"), password: []byte("pencil")}
	serverFirst := server.firstMessage(clientFirstBare, client.clientNonce)

	if _, err := client.Step(serverFirst); err != nil {
		t.Fatal(err)
	}

	if _, err := client.Step("v=" + base64.StdEncoding.EncodeToString([]byte("not-the-right-signature!"))); err == nil {
		t.Error("expected an error when the server-final signature does not match")
	}
}

func TestXDGSCRAMClientRejectsServerError(t *testing.T) {
	client := newSCRAMClientSHA256()
	if err := client.Begin("user", "pencil", ""); err != nil {
		t.Fatal(err)
	}

	clientFirstBare := client.ClientFirstMessage()[3:]
	server := &fakeSCRAMServer{iterations: 4096, salt: []byte("fixedsalt"), password: []byte("pencil")}
	serverFirst := server.firstMessage(clientFirstBare, client.clientNonce)
	if _, err := client.Step(serverFirst); err != nil {
		t.Fatal(err)
	}

	if _, err := client.Step("e=invalid-username"); err == nil {
		t.Error("expected an error when the server reports a SCRAM failure")
	}
}
