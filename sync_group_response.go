package sarama

import "time"

// SyncGroupResponse carries the member's own partition assignment, decided
// by the group leader and redistributed by the coordinator.
type SyncGroupResponse struct {
	Version      int16
	ThrottleTime time.Duration
	Err          KError
	MemberAssignment []byte
}

func (r *SyncGroupResponse) GetMemberAssignment() (*ConsumerGroupMemberAssignment, error) {
	assignment := new(ConsumerGroupMemberAssignment)
	if err := decode(r.MemberAssignment, assignment, nil); err != nil {
		return nil, err
	}
	return assignment, nil
}

func (r *SyncGroupResponse) decode(pd packetDecoder, version int16) (err error) {
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

	r.MemberAssignment, err = pd.getBytes()
	return err
}

func (r *SyncGroupResponse) encode(pe packetEncoder) error {
	if r.Version >= 1 {
		pe.putInt32(int32(r.ThrottleTime / time.Millisecond))
	}
	pe.putInt16(int16(r.Err))
	return pe.putBytes(r.MemberAssignment)
}

func (r *SyncGroupResponse) key() int16 {
	return apiKeySyncGroup
}

func (r *SyncGroupResponse) version() int16 {
	return r.Version
}

func (r *SyncGroupResponse) setVersion(v int16) {
	r.Version = v
}

func (r *SyncGroupResponse) headerVersion() int16 {
	return 0
}

func (r *SyncGroupResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 3
}

func (r *SyncGroupResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_11_0_0
	default:
		return V0_9_0_0
	}
}
