package sarama

// SaslAuthenticateResponse carries the broker's half of a SASL exchange
// round, or a terminal error if the mechanism rejected the client.
type SaslAuthenticateResponse struct {
	Version         int16
	Err             KError
	ErrMsg          *string
	SaslAuthBytes   []byte
	SessionLifetime int64
}

func (r *SaslAuthenticateResponse) encode(pe packetEncoder) error {
	pe.putInt16(int16(r.Err))
	if err := pe.putNullableString(r.ErrMsg); err != nil {
		return err
	}
	if err := pe.putBytes(r.SaslAuthBytes); err != nil {
		return err
	}
	if r.Version >= 1 {
		pe.putInt64(r.SessionLifetime)
	}
	return nil
}

func (r *SaslAuthenticateResponse) decode(pd packetDecoder, version int16) (err error) {
	r.Version = version

	kerr, err := pd.getInt16()
	if err != nil {
		return err
	}
	r.Err = KError(kerr)

	if r.ErrMsg, err = pd.getNullableString(); err != nil {
		return err
	}
	if r.SaslAuthBytes, err = pd.getBytes(); err != nil {
		return err
	}
	if r.Version >= 1 {
		if r.SessionLifetime, err = pd.getInt64(); err != nil {
			return err
		}
	}
	return nil
}

func (r *SaslAuthenticateResponse) key() int16 {
	return apiKeySaslAuthenticate
}

func (r *SaslAuthenticateResponse) version() int16 {
	return r.Version
}

func (r *SaslAuthenticateResponse) setVersion(v int16) {
	r.Version = v
}

func (r *SaslAuthenticateResponse) headerVersion() int16 {
	return 0
}

func (r *SaslAuthenticateResponse) isValidVersion() bool {
	return r.Version >= 0 && r.Version <= 1
}

func (r *SaslAuthenticateResponse) requiredVersion() KafkaVersion {
	return V1_0_0_0
}
