package sarama

import (
	"net"
	"testing"
)

func TestNewConfigIsValid(t *testing.T) {
	if err := NewConfig().Validate(); err != nil {
		t.Errorf("expected NewConfig's defaults to validate cleanly, got %v", err)
	}
}

func TestConfigValidateNet(t *testing.T) {
	c := NewConfig()
	c.Net.MaxOpenRequests = 0
	if err := c.Validate(); err == nil {
		t.Error("expected an error for Net.MaxOpenRequests <= 0")
	}
}

func TestConfigValidateProxyRequiresDialer(t *testing.T) {
	c := NewConfig()
	c.Net.Proxy.Enable = true
	c.Net.Proxy.Dialer = nil
	if err := c.Validate(); err == nil {
		t.Error("expected an error when Net.Proxy.Enable is true but no Dialer is set")
	}
}

func TestConfigValidateProxyWithDialer(t *testing.T) {
	c := NewConfig()
	c.Net.Proxy.Enable = true
	c.Net.Proxy.Dialer = &net.Dialer{}
	if err := c.Validate(); err != nil {
		t.Errorf("expected no error when a Dialer is supplied, got %v", err)
	}
}

func TestConfigValidateSASLDefaultsToPlaintext(t *testing.T) {
	c := NewConfig()
	c.Net.SASL.Enable = true
	if err := c.Validate(); err != nil {
		t.Errorf("expected SASL with no mechanism set to default to plaintext and validate, got %v", err)
	}
	if c.Net.SASL.Mechanism != SASLTypePlaintext {
		t.Errorf("expected Mechanism to default to %s, got %s", SASLTypePlaintext, c.Net.SASL.Mechanism)
	}
}

func TestConfigValidateSASLUnknownMechanism(t *testing.T) {
	c := NewConfig()
	c.Net.SASL.Enable = true
	c.Net.SASL.Mechanism = "bogus"
	if err := c.Validate(); err == nil {
		t.Error("expected an error for an unsupported SASL mechanism")
	}
}

func TestConfigValidateGSSAPIRequiresServiceName(t *testing.T) {
	c := NewConfig()
	c.Net.SASL.Enable = true
	c.Net.SASL.Mechanism = SASLTypeGSSAPI
	if err := c.Validate(); err == nil {
		t.Error("expected an error when GSSAPI is selected with no ServiceName")
	}

	c.Net.SASL.GSSAPI.ServiceName = "kafka"
	if err := c.Validate(); err != nil {
		t.Errorf("expected no error once ServiceName is set, got %v", err)
	}
}

func TestConfigValidateIdempotentRequiresRetries(t *testing.T) {
	c := NewConfig()
	c.Producer.Idempotent = true
	c.Producer.RequiredAcks = WaitForAll
	c.Producer.Retry.Max = 0
	if err := c.Validate(); err == nil {
		t.Error("expected an error when Idempotent is set with Retry.Max == 0")
	}
}

func TestConfigValidateIdempotentRequiresWaitForAll(t *testing.T) {
	c := NewConfig()
	c.Producer.Idempotent = true
	c.Producer.Retry.Max = 3
	c.Producer.RequiredAcks = WaitForLocal
	if err := c.Validate(); err == nil {
		t.Error("expected an error when Idempotent is set without RequiredAcks == WaitForAll")
	}
}
