package sarama

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// xdgSCRAMClient implements SCRAMClient for SCRAM-SHA-256 and
// SCRAM-SHA-512 against the three-message exchange RFC 5802 defines,
// carried one message per SaslAuthenticateRequest round trip.
type xdgSCRAMClient struct {
	HashGeneratorFcn func() hash.Hash

	clientNonce    string
	clientFirstMsg string
	serverFirstMsg string
	clientFinalMsg string
	password       []byte
	saltedPassword []byte
	authMessage    string
	isDone         bool
}

func newSCRAMClientSHA256() *xdgSCRAMClient {
	return &xdgSCRAMClient{HashGeneratorFcn: sha256.New}
}

func newSCRAMClientSHA512() *xdgSCRAMClient {
	return &xdgSCRAMClient{HashGeneratorFcn: sha512.New}
}

func (x *xdgSCRAMClient) Begin(userName, password, authzID string) error {
	nonceBytes := make([]byte, 24)
	if _, err := rand.Read(nonceBytes); err != nil {
		return err
	}
	x.clientNonce = base64.RawStdEncoding.EncodeToString(nonceBytes)

	x.clientFirstMsg = fmt.Sprintf("n=%s,r=%s", scramEscape(userName), x.clientNonce)
	x.password = []byte(password)
	x.saltedPassword = nil
	x.authMessage = ""
	x.isDone = false
	return nil
}

// ClientFirstMessage is the "gs2-header,client-first-bare" the caller
// sends as the initial SaslAuthenticateRequest payload.
func (x *xdgSCRAMClient) ClientFirstMessage() string {
	return "n,," + x.clientFirstMsg
}

// Step consumes the broker's reply to the previous message and returns
// the client's next message, or an empty string once the exchange is
// complete (a bare server-final message needs no reply).
func (x *xdgSCRAMClient) Step(challenge string) (string, error) {
	if x.authMessage == "" {
		return x.step1(challenge)
	}
	return x.step2(challenge)
}

func (x *xdgSCRAMClient) step1(challenge string) (string, error) {
	x.serverFirstMsg = challenge
	fields := strings.Split(challenge, ",")
	if len(fields) < 3 {
		return "", fmt.Errorf("sasl: invalid SCRAM server-first-message %q", challenge)
	}

	var serverNonce, salt string
	var iterations int
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "r="):
			serverNonce = f[2:]
		case strings.HasPrefix(f, "s="):
			salt = f[2:]
		case strings.HasPrefix(f, "i="):
			n, err := strconv.Atoi(f[2:])
			if err != nil {
				return "", fmt.Errorf("sasl: invalid SCRAM iteration count: %w", err)
			}
			iterations = n
		}
	}
	if !strings.HasPrefix(serverNonce, x.clientNonce) {
		return "", fmt.Errorf("sasl: server nonce does not extend client nonce")
	}

	saltRaw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return "", err
	}

	x.saltedPassword = pbkdf2.Key(x.password, saltRaw, iterations, x.HashGeneratorFcn().Size(), x.HashGeneratorFcn)

	clientFinalNoProof := "c=biws,r=" + serverNonce
	x.authMessage = x.clientFirstMsg + "," + x.serverFirstMsg + "," + clientFinalNoProof

	clientKey := x.hmac(x.saltedPassword, []byte("Client Key"))
	storedKey := x.hash(clientKey)
	clientSignature := x.hmac(storedKey, []byte(x.authMessage))
	clientProof := xorBytes(clientKey, clientSignature)

	x.clientFinalMsg = clientFinalNoProof + ",p=" + base64.StdEncoding.EncodeToString(clientProof)
	return x.clientFinalMsg, nil
}

func (x *xdgSCRAMClient) step2(challenge string) (string, error) {
	if strings.HasPrefix(challenge, "e=") {
		return "", fmt.Errorf("sasl: SCRAM server rejected authentication: %s", challenge[2:])
	}

	serverKey := x.hmac(x.saltedPassword, []byte("Server Key"))
	serverSignature := x.hmac(serverKey, []byte(x.authMessage))

	var v string
	for _, f := range strings.Split(challenge, ",") {
		if strings.HasPrefix(f, "v=") {
			v = f[2:]
		}
	}
	decoded, err := base64.StdEncoding.DecodeString(v)
	if err != nil || !hmac.Equal(decoded, serverSignature) {
		return "", fmt.Errorf("sasl: SCRAM server signature mismatch")
	}

	x.isDone = true
	return "", nil
}

func (x *xdgSCRAMClient) Done() bool {
	return x.isDone
}

func (x *xdgSCRAMClient) hmac(key, msg []byte) []byte {
	mac := hmac.New(x.HashGeneratorFcn, key)
	mac.Write(msg)
	return mac.Sum(nil)
}

func (x *xdgSCRAMClient) hash(b []byte) []byte {
	h := x.HashGeneratorFcn()
	h.Write(b)
	return h.Sum(nil)
}

func scramEscape(s string) string {
	s = strings.ReplaceAll(s, "=", "=3D")
	s = strings.ReplaceAll(s, ",", "=2C")
	return s
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}
