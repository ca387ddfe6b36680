package sarama

// GroupAssignment is one (member id, serialized assignment) pair the
// group leader hands back in a SyncGroupRequest.
type GroupAssignment struct {
	MemberID   string
	Assignment []byte
}

// SyncGroupRequest is how a member learns its own partition assignment
// after JoinGroup: the leader fills GroupAssignments with every member's
// assignment, followers send none, per spec.md §4.8/§4.9's SYNCING state.
type SyncGroupRequest struct {
	Version          int16
	GroupID          string
	GenerationID     int32
	MemberID         string
	GroupInstanceID  *string
	GroupAssignments []GroupAssignment
}

func (r *SyncGroupRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.GroupID); err != nil {
		return err
	}
	pe.putInt32(r.GenerationID)
	if err := pe.putString(r.MemberID); err != nil {
		return err
	}
	if r.Version >= 3 {
		if err := pe.putNullableString(r.GroupInstanceID); err != nil {
			return err
		}
	}

	if err := pe.putArrayLength(len(r.GroupAssignments)); err != nil {
		return err
	}
	for _, a := range r.GroupAssignments {
		if err := pe.putString(a.MemberID); err != nil {
			return err
		}
		if err := pe.putBytes(a.Assignment); err != nil {
			return err
		}
	}

	return nil
}

func (r *SyncGroupRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.GroupID, err = pd.getString(); err != nil {
		return err
	}
	if r.GenerationID, err = pd.getInt32(); err != nil {
		return err
	}
	if r.MemberID, err = pd.getString(); err != nil {
		return err
	}
	if r.Version >= 3 {
		if r.GroupInstanceID, err = pd.getNullableString(); err != nil {
			return err
		}
	}

	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.GroupAssignments = make([]GroupAssignment, n)
	for i := 0; i < n; i++ {
		if r.GroupAssignments[i].MemberID, err = pd.getString(); err != nil {
			return err
		}
		if r.GroupAssignments[i].Assignment, err = pd.getBytes(); err != nil {
			return err
		}
	}

	return nil
}

func (r *SyncGroupRequest) key() int16 {
	return apiKeySyncGroup
}

func (r *SyncGroupRequest) version() int16 {
	return r.Version
}

func (r *SyncGroupRequest) setVersion(v int16) {
	r.Version = v
}

func (r *SyncGroupRequest) headerVersion() int16 {
	return 1
}

func (r *SyncGroupRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 3
}

func (r *SyncGroupRequest) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_11_0_0
	default:
		return V0_9_0_0
	}
}

// AddGroupAssignment appends the (memberID, assignment) the leader computed
// for one member.
func (r *SyncGroupRequest) AddGroupAssignment(memberID string, assignment []byte) {
	r.GroupAssignments = append(r.GroupAssignments, GroupAssignment{MemberID: memberID, Assignment: assignment})
}

// AddGroupAssignmentMember encodes assignment and appends it for memberID.
func (r *SyncGroupRequest) AddGroupAssignmentMember(memberID string, assignment *ConsumerGroupMemberAssignment) error {
	bin, err := encode(assignment, nil)
	if err != nil {
		return err
	}
	r.AddGroupAssignment(memberID, bin)
	return nil
}
