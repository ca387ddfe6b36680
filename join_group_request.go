package sarama

// GroupProtocol is one (protocol name, metadata bytes) entry a member
// offers the coordinator — this client offers exactly one, "range"-free
// round-robin metadata, per spec.md §4.8.
type GroupProtocol struct {
	Name     string
	Metadata []byte
}

func (p *GroupProtocol) encode(pe packetEncoder) error {
	if err := pe.putString(p.Name); err != nil {
		return err
	}
	return pe.putBytes(p.Metadata)
}

func (p *GroupProtocol) decode(pd packetDecoder) (err error) {
	if p.Name, err = pd.getString(); err != nil {
		return err
	}
	p.Metadata, err = pd.getBytes()
	return err
}

// JoinGroupRequest is a consumer group member's request to join (or
// rejoin) a group, per spec.md §4.8/§4.9's DISCOVERING_COORDINATOR →
// JOINING transition.
type JoinGroupRequest struct {
	Version                    int16
	GroupID                    string
	SessionTimeout             int32
	RebalanceTimeout           int32
	MemberID                   string
	GroupInstanceID            *string
	ProtocolType          string
	OrderedGroupProtocols []*GroupProtocol
}

func (r *JoinGroupRequest) encode(pe packetEncoder) error {
	if err := pe.putString(r.GroupID); err != nil {
		return err
	}
	pe.putInt32(r.SessionTimeout)
	if r.Version >= 1 {
		pe.putInt32(r.RebalanceTimeout)
	}
	if err := pe.putString(r.MemberID); err != nil {
		return err
	}
	if r.Version >= 5 {
		if err := pe.putNullableString(r.GroupInstanceID); err != nil {
			return err
		}
	}
	if err := pe.putString(r.ProtocolType); err != nil {
		return err
	}

	if err := pe.putArrayLength(len(r.OrderedGroupProtocols)); err != nil {
		return err
	}
	for _, p := range r.OrderedGroupProtocols {
		if err := p.encode(pe); err != nil {
			return err
		}
	}

	return nil
}

func (r *JoinGroupRequest) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	if r.GroupID, err = pd.getString(); err != nil {
		return err
	}
	if r.SessionTimeout, err = pd.getInt32(); err != nil {
		return err
	}
	if r.Version >= 1 {
		if r.RebalanceTimeout, err = pd.getInt32(); err != nil {
			return err
		}
	}
	if r.MemberID, err = pd.getString(); err != nil {
		return err
	}
	if r.Version >= 5 {
		if r.GroupInstanceID, err = pd.getNullableString(); err != nil {
			return err
		}
	}
	if r.ProtocolType, err = pd.getString(); err != nil {
		return err
	}

	n, err := pd.getArrayLength()
	if err != nil {
		return err
	}
	r.OrderedGroupProtocols = make([]*GroupProtocol, n)
	for i := 0; i < n; i++ {
		p := new(GroupProtocol)
		if err := p.decode(pd); err != nil {
			return err
		}
		r.OrderedGroupProtocols[i] = p
	}

	return nil
}

func (r *JoinGroupRequest) key() int16 {
	return apiKeyJoinGroup
}

func (r *JoinGroupRequest) version() int16 {
	return r.Version
}

func (r *JoinGroupRequest) setVersion(v int16) {
	r.Version = v
}

func (r *JoinGroupRequest) headerVersion() int16 {
	return 1
}

func (r *JoinGroupRequest) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 5
}

func (r *JoinGroupRequest) requiredVersion() KafkaVersion {
	switch {
	case r.Version >= 1:
		return V0_11_0_0
	default:
		return V0_9_0_0
	}
}

// AddGroupProtocol offers one named protocol (with its pre-encoded
// ConsumerGroupMemberMetadata) to the coordinator.
func (r *JoinGroupRequest) AddGroupProtocol(name string, metadata []byte) {
	r.OrderedGroupProtocols = append(r.OrderedGroupProtocols, &GroupProtocol{Name: name, Metadata: metadata})
}

// AddGroupProtocolMetadata encodes md and offers it under name.
func (r *JoinGroupRequest) AddGroupProtocolMetadata(name string, md *ConsumerGroupMemberMetadata) error {
	bin, err := encode(md, nil)
	if err != nil {
		return err
	}
	r.AddGroupProtocol(name, bin)
	return nil
}
