package sarama

import "time"

type LeaveGroupResponse struct {
	Version      int16
	ThrottleTime time.Duration
	Err          KError
}

func (r *LeaveGroupResponse) decode(pd packetDecoder, version int16) (err error) {
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

func (r *LeaveGroupResponse) encode(pe packetEncoder) error {
	if r.Version >= 1 {
		pe.putInt32(int32(r.ThrottleTime / time.Millisecond))
	}
	pe.putInt16(int16(r.Err))
	return nil
}

func (r *LeaveGroupResponse) key() int16 {
	return apiKeyLeaveGroup
}

func (r *LeaveGroupResponse) version() int16 {
	return r.Version
}

func (r *LeaveGroupResponse) setVersion(v int16) {
	r.Version = v
}

func (r *LeaveGroupResponse) headerVersion() int16 {
	return 0
}

func (r *LeaveGroupResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 4
}

func (r *LeaveGroupResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_11_0_0
	default:
		return V0_9_0_0
	}
}
