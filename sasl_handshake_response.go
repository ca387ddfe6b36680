package sarama

// SaslHandshakeResponse reports whether the requested mechanism is
// supported and, if not, which ones are.
type SaslHandshakeResponse struct {
	Version           int16
	Err               KError
	EnabledMechanisms []string
}

func (r *SaslHandshakeResponse) encode(pe packetEncoder) error {
	pe.putInt16(int16(r.Err))
	return pe.putStringArray(r.EnabledMechanisms)
}

func (r *SaslHandshakeResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	kerr, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.Err = KError(kerr)

	r.EnabledMechanisms, err = pd.getStringArray()
	return err
}

func (r *SaslHandshakeResponse) key() int16 {
	return apiKeySaslHandshake
}

func (r *SaslHandshakeResponse) version() int16 {
	return r.Version
}

func (r *SaslHandshakeResponse) setVersion(v int16) {
	r.Version = v
}

func (r *SaslHandshakeResponse) headerVersion() int16 {
	return 0
}

func (r *SaslHandshakeResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 1
}

func (r *SaslHandshakeResponse) requiredVersion() KafkaVersion {
	return V0_10_0_0
}
