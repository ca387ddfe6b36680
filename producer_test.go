package sarama

import (
	"testing"
	"time"
)

// fakeProducerClient is a minimal Client stub sufficient to construct an
// AsyncProducer without any real network I/O, for exercising config-level
// behavior like NewSyncProducer's forced overrides.
type fakeProducerClient struct {
	conf *Config
}

func (c *fakeProducerClient) Config() *Config                               { return c.conf }
func (c *fakeProducerClient) Controller() (*Broker, error)                  { return nil, ErrControllerNotAvailable }
func (c *fakeProducerClient) Brokers() []*Broker                            { return nil }
func (c *fakeProducerClient) Broker(int32) (*Broker, error)                 { return nil, ErrBrokerNotFound }
func (c *fakeProducerClient) Topics() ([]string, error)                     { return nil, nil }
func (c *fakeProducerClient) Partitions(string) ([]int32, error)            { return nil, nil }
func (c *fakeProducerClient) WritablePartitions(string) ([]int32, error)    { return nil, nil }
func (c *fakeProducerClient) Leader(string, int32) (*Broker, error)         { return nil, ErrLeaderNotAvailable }
func (c *fakeProducerClient) Replicas(string, int32) ([]int32, error)       { return nil, nil }
func (c *fakeProducerClient) InSyncReplicas(string, int32) ([]int32, error) { return nil, nil }
func (c *fakeProducerClient) RefreshMetadata(...string) error               { return nil }
func (c *fakeProducerClient) GetOffset(string, int32, int64) (int64, error) { return 0, nil }
func (c *fakeProducerClient) Coordinator(string) (*Broker, error)           { return nil, ErrGroupCoordinatorNotAvailable }
func (c *fakeProducerClient) RefreshCoordinator(string) error               { return nil }
func (c *fakeProducerClient) Closed() bool                                  { return false }
func (c *fakeProducerClient) Close() error                                  { return nil }

func TestNewSyncProducerFromClientForcesAckTimeoutOverride(t *testing.T) {
	conf := NewConfig()
	conf.Producer.RequiredAcks = WaitForAll
	conf.Producer.Timeout = 30 * time.Second

	client := &fakeProducerClient{conf: conf}

	sp, err := NewSyncProducerFromClient(client)
	if err != nil {
		t.Fatal(err)
	}
	defer sp.(*syncProducer).producer.AsyncClose()

	if conf.Producer.RequiredAcks != WaitForLocal {
		t.Errorf("expected RequiredAcks forced to WaitForLocal, got %v", conf.Producer.RequiredAcks)
	}
	if conf.Producer.Timeout != 10*time.Second {
		t.Errorf("expected Timeout forced to 10s, got %v", conf.Producer.Timeout)
	}
	if !conf.Producer.Return.Successes || !conf.Producer.Return.Errors {
		t.Error("expected Return.Successes and Return.Errors to be forced on")
	}
}
