package sarama

// SASLMechanism names one of the mechanisms negotiable via
// SaslHandshakeRequest, per spec.md §9.
type SASLMechanism string

const (
	SASLTypePlaintext   SASLMechanism = "PLAIN"
	SASLTypeGSSAPI      SASLMechanism = "GSSAPI"
	SASLTypeOAuth       SASLMechanism = "OAUTHBEARER"
	SASLTypeSCRAMSHA256 SASLMechanism = "SCRAM-SHA-256"
	SASLTypeSCRAMSHA512 SASLMechanism = "SCRAM-SHA-512"
)

// SASLExtensions carries the optional key=value extensions an
// AccessTokenProvider may attach to an OAUTHBEARER initial response
// (e.g. "auth" proxy hints).
type SASLExtensions map[string]string

// AccessToken is the result of a successful AccessTokenProvider.Token
// call: an opaque bearer token plus whatever extensions the provider
// wants echoed into the OAUTHBEARER client response.
type AccessToken struct {
	Token      string
	Extensions SASLExtensions
}

// AccessTokenProvider is implemented by callers who want to supply
// their own OAUTHBEARER tokens (e.g. fetched from an identity
// provider) rather than have this client negotiate credentials itself.
type AccessTokenProvider interface {
	Token() (*AccessToken, error)
}

// GSSAPIConfig collects the Kerberos settings needed to drive a gokrb5
// client through a GSSAPI SASL exchange: either a keytab or a password,
// never both.
type GSSAPIConfig struct {
	AuthType           int
	KeyTabPath         string
	KerberosConfigPath string
	ServiceName        string
	Username           string
	Password           string
	Realm              string
	DisablePAFXFAST    bool
}

// GSSAPI auth types, mirroring the two credential shapes gokrb5 accepts.
const (
	KRB5_USER_AUTH = iota
	KRB5_KEYTAB_AUTH
)

// SCRAMClient is implemented by the hash-specific SCRAM state machines
// (SHA-256 / SHA-512) that drive the client-first / client-final
// messages of RFC 5802 over SaslAuthenticateRequest round trips.
type SCRAMClient interface {
	Begin(userName, password, authzID string) error
	ClientFirstMessage() string
	Step(challenge string) (response string, err error)
	Done() bool
}
