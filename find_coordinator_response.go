package sarama

import (
	"fmt"
	"net"
	"time"
)

// FindCoordinatorResponse identifies the broker acting as group coordinator
// for the requested group.
type FindCoordinatorResponse struct {
	Version      int16
	ThrottleTime time.Duration
	Err          KError
	ErrMsg       *string
	Coordinator  *Broker
}

func (r *FindCoordinatorResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.Version >= 1 {
		throttleTime, err := pd.getInt32()
		if err != nil {
			return err
		}
		r.ThrottleTime = time.Duration(throttleTime) * time.Millisecond
	}

	tmp, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.Err = KError(tmp)

	if r.Version >= 1 {
		if r.ErrMsg, err = pd.getNullableString(); err != nil {
			return err
		}
	}

	coordinator := new(Broker)
	// coordinator is returned as (node_id, host, port), not the full
	// broker encoding used in MetadataResponse, so decode its fields
	// directly rather than reusing Broker.decode (which expects a
	// version-gated rack field too).
	if coordinator.id, err = pd.getInt32(); err != nil {
		return err
	}
	host, err := pd.getString()
	if err != nil {
		return err
	}
	port, err := pd.getInt32()
	if err != nil {
		return err
	}
	coordinator.addr = net.JoinHostPort(host, fmt.Sprint(port))
	r.Coordinator = coordinator

	return nil
}

func (r *FindCoordinatorResponse) encode(pe packetEncoder) error {
	if r.Version >= 1 {
		pe.putInt32(int32(r.ThrottleTime / time.Millisecond))
	}

	pe.putInt16(int16(r.Err))

	if r.Version >= 1 {
		if err := pe.putNullableString(r.ErrMsg); err != nil {
			return err
		}
	}

	coordinator := r.Coordinator
	if coordinator == nil {
		coordinator = NewBroker("")
		coordinator.id = -1
	}
	pe.putInt32(coordinator.id)
	host, portstr, err := net.SplitHostPort(coordinator.addr)
	if err != nil {
		return err
	}
	port, err := parsePort(portstr)
	if err != nil {
		return err
	}
	if err := pe.putString(host); err != nil {
		return err
	}
	pe.putInt32(port)

	return nil
}

func (r *FindCoordinatorResponse) key() int16 {
	return apiKeyFindCoordinator
}

func (r *FindCoordinatorResponse) version() int16 {
	return r.Version
}

func (r *FindCoordinatorResponse) setVersion(v int16) {
	r.Version = v
}

func (r *FindCoordinatorResponse) headerVersion() int16 {
	return 0
}

func (r *FindCoordinatorResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 2
}

func (r *FindCoordinatorResponse) requiredVersion() KafkaVersion {
	if r.Version >= 1 {
		return V0_11_0_0
	}
	return V0_8_2_0
}
