package sarama

import (
	"crypto/tls"
	"time"

	"github.com/rcrowley/go-metrics"
	"golang.org/x/net/proxy"
)

// Config carries every tunable this client exposes: transport (Net),
// cluster metadata refresh (Metadata), producing (Producer), consuming and
// consumer groups (Consumer), plus process-wide knobs (ClientID,
// ChannelBufferSize, Version). It mirrors the teacher's single
// all-in-one Config struct rather than splitting configuration across the
// component types themselves.
type Config struct {
	Net struct {
		MaxOpenRequests int
		DialTimeout     time.Duration
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		KeepAlive       time.Duration

		TLS struct {
			Enable bool
			Config *tls.Config
		}

		Proxy struct {
			Enable bool
			Dialer proxy.Dialer
		}

		SASL struct {
			Enable        bool
			Mechanism     SASLMechanism
			Handshake     bool
			User          string
			Password      string
			GSSAPI        GSSAPIConfig
			TokenProvider AccessTokenProvider
		}
	}

	Metadata struct {
		Retry struct {
			Max     int
			Backoff time.Duration
		}
		RefreshFrequency time.Duration
		Full             bool
		Timeout          time.Duration
		AllowAutoTopicCreation bool
	}

	Producer struct {
		MaxMessageBytes     int
		MaxBufferSize       int
		MaxBufferBytesize   int
		RequiredAcks        RequiredAcks
		Timeout             time.Duration
		Compression         CompressionCodec
		CompressionLevel    int
		Partitioner         PartitionerConstructor
		Idempotent          bool

		Return struct {
			Successes bool
			Errors    bool
		}

		Flush struct {
			Bytes       int
			Messages    int
			Frequency   time.Duration
			MaxMessages int
		}

		Retry struct {
			Max     int
			Backoff time.Duration
		}
	}

	Consumer struct {
		Retry struct {
			Backoff     time.Duration
			BackoffFunc func(retries int) time.Duration
		}

		Fetch struct {
			Min     int32
			Default int32
			Max     int32
		}

		MaxWaitTime       time.Duration
		MaxProcessingTime time.Duration

		Return struct {
			Errors bool
		}

		Offsets struct {
			AutoCommit struct {
				Enable   bool
				Interval time.Duration
			}
			Initial   int64
			Retention time.Duration
		}

		Group struct {
			Session struct {
				Timeout time.Duration
			}
			Heartbeat struct {
				Interval time.Duration
			}
			Rebalance struct {
				Strategy BalanceStrategy
				Timeout  time.Duration
				Retry    struct {
					Max     int
					Backoff time.Duration
				}
			}
		}
	}

	ClientID          string
	ChannelBufferSize int
	Version           KafkaVersion
	MetricRegistry    metrics.Registry
}

// NewConfig returns a Config with every field set to the same defaults the
// teacher ships: acks=1, no compression, round-robin rebalance strategy,
// and a metadata/consumer-group cadence tuned for a moderately sized
// cluster.
func NewConfig() *Config {
	c := &Config{}

	c.Net.MaxOpenRequests = 5
	c.Net.DialTimeout = 30 * time.Second
	c.Net.ReadTimeout = 30 * time.Second
	c.Net.WriteTimeout = 30 * time.Second
	c.Net.KeepAlive = 0
	c.Net.SASL.Handshake = true
	c.Net.SASL.Mechanism = SASLTypePlaintext

	c.Metadata.Retry.Max = 3
	c.Metadata.Retry.Backoff = 250 * time.Millisecond
	c.Metadata.RefreshFrequency = 10 * time.Minute
	c.Metadata.Full = true
	c.Metadata.Timeout = 10 * time.Second

	c.Producer.MaxMessageBytes = 1000000
	c.Producer.RequiredAcks = WaitForLocal
	c.Producer.Timeout = 10 * time.Second
	c.Producer.Partitioner = NewHashPartitioner
	c.Producer.CompressionLevel = CompressionLevelDefault
	c.Producer.Retry.Max = 3
	c.Producer.Retry.Backoff = 100 * time.Millisecond

	c.Consumer.Fetch.Min = 1
	c.Consumer.Fetch.Default = 1024 * 1024
	c.Consumer.Retry.Backoff = 2 * time.Second
	c.Consumer.MaxWaitTime = 250 * time.Millisecond
	c.Consumer.MaxProcessingTime = 100 * time.Millisecond
	c.Consumer.Offsets.AutoCommit.Enable = true
	c.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second
	c.Consumer.Offsets.Initial = OffsetNewest
	c.Consumer.Offsets.Retention = 0
	c.Consumer.Group.Session.Timeout = 10 * time.Second
	c.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	c.Consumer.Group.Rebalance.Strategy = NewBalanceStrategyRoundRobin()
	c.Consumer.Group.Rebalance.Timeout = 60 * time.Second
	c.Consumer.Group.Rebalance.Retry.Max = 4
	c.Consumer.Group.Rebalance.Retry.Backoff = 2 * time.Second

	c.ClientID = "sarama"
	c.ChannelBufferSize = 256
	c.Version = defaultVersion
	c.MetricRegistry = metrics.NewRegistry()

	return c
}

// Validate checks the Config for self-consistency, returning a
// ConfigurationError describing the first problem found.
func (c *Config) Validate() error {
	if c.Net.MaxOpenRequests <= 0 {
		return ConfigurationError("Net.MaxOpenRequests must be > 0")
	}
	if c.ChannelBufferSize < 0 {
		return ConfigurationError("ChannelBufferSize must be >= 0")
	}
	if c.Producer.MaxMessageBytes <= 0 {
		return ConfigurationError("Producer.MaxMessageBytes must be > 0")
	}
	if c.Producer.MaxBufferSize < 0 {
		return ConfigurationError("Producer.MaxBufferSize must be >= 0")
	}
	if c.Producer.MaxBufferBytesize < 0 {
		return ConfigurationError("Producer.MaxBufferBytesize must be >= 0")
	}
	switch c.Producer.RequiredAcks {
	case NoResponse, WaitForLocal, WaitForAll:
	default:
		if c.Producer.RequiredAcks < -1 {
			return ConfigurationError("Producer.RequiredAcks must be >= -1")
		}
	}
	if c.Producer.Timeout <= 0 {
		return ConfigurationError("Producer.Timeout must be > 0")
	}
	if c.Producer.Partitioner == nil {
		return ConfigurationError("Producer.Partitioner must not be nil")
	}
	if c.Producer.Idempotent && c.Producer.Retry.Max == 0 {
		return ConfigurationError("Producer.Idempotent requires Producer.Retry.Max > 0")
	}
	if c.Producer.Idempotent && c.Producer.RequiredAcks != WaitForAll {
		return ConfigurationError("Producer.Idempotent requires Producer.RequiredAcks to be WaitForAll")
	}
	if c.Consumer.Fetch.Min <= 0 {
		return ConfigurationError("Consumer.Fetch.Min must be > 0")
	}
	if c.Consumer.Fetch.Default <= 0 {
		return ConfigurationError("Consumer.Fetch.Default must be > 0")
	}
	if c.Consumer.MaxWaitTime < 1*time.Millisecond {
		return ConfigurationError("Consumer.MaxWaitTime must be >= 1ms")
	}
	if c.Consumer.Group.Session.Timeout < 2*c.Consumer.Group.Heartbeat.Interval {
		return ConfigurationError("Consumer.Group.Session.Timeout must be >= 2x Consumer.Group.Heartbeat.Interval")
	}
	if c.Consumer.Group.Rebalance.Strategy == nil {
		return ConfigurationError("Consumer.Group.Rebalance.Strategy must not be nil")
	}
	if c.Net.SASL.Enable {
		if c.Net.SASL.Mechanism == "" {
			c.Net.SASL.Mechanism = SASLTypePlaintext
		}
		switch c.Net.SASL.Mechanism {
		case SASLTypePlaintext, SASLTypeSCRAMSHA256, SASLTypeSCRAMSHA512, SASLTypeGSSAPI, SASLTypeOAuth:
		default:
			return ConfigurationError("Net.SASL.Mechanism is not a supported SASL mechanism")
		}
		if c.Net.SASL.Mechanism == SASLTypeGSSAPI {
			if c.Net.SASL.GSSAPI.ServiceName == "" {
				return ConfigurationError("Net.SASL.GSSAPI.ServiceName must not be empty")
			}
		}
	}
	if c.Net.Proxy.Enable && c.Net.Proxy.Dialer == nil {
		return ConfigurationError("Net.Proxy.Dialer must not be nil when Net.Proxy.Enable is true")
	}
	if !c.Version.IsAtLeast(minVersion) || c.Version.IsAtLeast(newKafkaVersion(maxVersion.version[0]+1, 0, 0, 0)) {
		return ConfigurationError("Version is out of the supported range")
	}
	return nil
}
