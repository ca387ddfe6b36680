package sarama

import "time"

// JoinGroupResponse tells a member its assigned member id, the group's
// generation, and — if this member was chosen as group leader — every
// member's metadata so the leader can compute and SyncGroup the
// partition assignment (spec.md §4.8's "leader computes assignment" step).
type JoinGroupResponse struct {
	Version       int16
	ThrottleTime  time.Duration
	Err           KError
	GenerationID  int32
	GroupProtocol string
	LeaderID      string
	MemberID      string
	Members       map[string][]byte
}

func (r *JoinGroupResponse) GetMembers() (map[string]ConsumerGroupMemberMetadata, error) {
	members := make(map[string]ConsumerGroupMemberMetadata, len(r.Members))
	for id, bin := range r.Members {
		var meta ConsumerGroupMemberMetadata
		if err := decode(bin, &meta, nil); err != nil {
			return nil, err
		}
		members[id] = meta
	}
	return members, nil
}

func (r *JoinGroupResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.Version >= 2 {
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

	if r.GenerationID, err = pd.getInt32(); err != nil {
		return err
	}
	if r.GroupProtocol, err = pd.getString(); err != nil {
		return err
	}
	if r.LeaderID, err = pd.getString(); err != nil {
		return err
	}
	if r.MemberID, err = pd.getString(); err != nil {
		return err
	}

	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	r.Members = make(map[string][]byte, n)
	for i := 0; i < n; i++ {
		memberID, err := pd.getString()
		if err != nil {
			return err
		}
		memberMetadata, err := pd.getBytes()
		if err != nil {
			return err
		}
		r.Members[memberID] = memberMetadata
	}

	return nil
}

func (r *JoinGroupResponse) encode(pe packetEncoder) error {
	if r.Version >= 2 {
		pe.putInt32(int32(r.ThrottleTime / time.Millisecond))
	}

	pe.putInt16(int16(r.Err))
	pe.putInt32(r.GenerationID)

	if err := pe.putString(r.GroupProtocol); err != nil {
		return err
	}
	if err := pe.putString(r.LeaderID); err != nil {
		return err
	}
	if err := pe.putString(r.MemberID); err != nil {
		return err
	}

	if err := pe.putArrayLength(len(r.Members)); err != nil {
		return err
	}
	for id, meta := range r.Members {
		if err := pe.putString(id); err != nil {
			return err
		}
		if err := pe.putBytes(meta); err != nil {
			return err
		}
	}

	return nil
}

func (r *JoinGroupResponse) key() int16 {
	return apiKeyJoinGroup
}

func (r *JoinGroupResponse) version() int16 {
	return r.Version
}

func (r *JoinGroupResponse) setVersion(v int16) {
	r.Version = v
}

func (r *JoinGroupResponse) headerVersion() int16 {
	return 0
}

func (r *JoinGroupResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 5
}

func (r *JoinGroupResponse) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_11_0_0
	default:
		return V0_9_0_0
	}
}
