package sarama

import "time"

// HeartbeatResponse reports whether the coordinator still considers this
// member part of the group; ErrRebalanceInProgress or
// ErrIllegalGeneration here is what drives the group state machine back
// from STABLE into REBALANCING (spec.md §4.9).
type HeartbeatResponse struct {
	Version      int16
	ThrottleTime time.Duration
	Err          KError
}

func (r *HeartbeatResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.Version >= 1 {
		throttleTime, err := pd.getInt32()
		if err != nil {
			return err
		}
		r.ThrottleTime = time.Duration(throttleTime) * time.Millisecond
	}

	kerr, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.Err = KError(kerr)
	return nil
}

func (r *HeartbeatResponse) encode(pe packetEncoder) error {
	if r.Version >= 1 {
		pe.putInt32(int32(r.ThrottleTime / time.Millisecond))
	}
	pe.putInt16(int16(r.Err))
	return nil
}

func (r *HeartbeatResponse) key() int16 {
	return apiKeyHeartbeat
}

func (r *HeartbeatResponse) version() int16 {
	return r.Version
}

func (r *HeartbeatResponse) setVersion(v int16) {
	r.Version = v
}

func (r *HeartbeatResponse) headerVersion() int16 {
	return 0
}

func (r *HeartbeatResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 4
}

func (r *HeartbeatResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_11_0_0
	default:
		return V0_9_0_0
	}
}
