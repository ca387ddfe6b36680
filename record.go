package sarama

// RecordHeader stores key-value pairs attached to a v2 record (KIP-82),
// carried alongside Key/Value but outside the compressed/encrypted payload
// envelope.
type RecordHeader struct {
	Key   []byte
	Value []byte
}

func (h *RecordHeader) encode(pe packetEncoder) error {
	if err := pe.putVarintBytes(h.Key); err != nil {
		return err
	}
	return pe.putVarintBytes(h.Value)
}

func (h *RecordHeader) decode(pd packetDecoder) (err error) {
	if h.Key, err = pd.getVarintBytes(); err != nil {
		return err
	}
	h.Value, err = pd.getVarintBytes()
	return err
}

// Record is a single entry of a v2 RecordBatch ("ProducedRecord" in spec.md
// §3, wire form used by Kafka 0.11+). OffsetDelta and TimestampDelta are
// relative to the enclosing RecordBatch's base offset/timestamp; they are
// resolved into absolute values by the fetch/produce paths so callers never
// see deltas. The record body is itself varint-length-prefixed, so encoding
// and decoding go through an inner buffer rather than the crc32Field-style
// push/pop stack used elsewhere.
type Record struct {
	Headers []*RecordHeader

	Attributes     int8
	TimestampDelta int64
	OffsetDelta    int64
	Key            []byte
	Value          []byte
}

func (r *Record) encode(pe packetEncoder) error {
	body, err := encode(recordBody{r}, pe.metricRegistry())
	if err != nil {
		return err
	}
	return pe.putVarintBytes(body)
}

func (r *Record) decode(pd packetDecoder) (err error) {
	body, err := pd.getVarintBytes()
	if err != nil {
		return err
	}
	return decode(body, recordBody{r}, pd.metricRegistry())
}

// recordBody encodes/decodes everything inside a Record's varint-length
// envelope; split out so Record.encode/decode can run it through a nested
// two-pass encode()/decode() to compute the envelope length up front.
type recordBody struct {
	r *Record
}

func (rb recordBody) encode(pe packetEncoder) error {
	r := rb.r
	pe.putInt8(r.Attributes)
	pe.putVarint(r.TimestampDelta)
	pe.putVarint(r.OffsetDelta)

	if err := pe.putVarintBytes(r.Key); err != nil {
		return err
	}
	if err := pe.putVarintBytes(r.Value); err != nil {
		return err
	}

	pe.putVarint(int64(len(r.Headers)))
	for _, h := range r.Headers {
		if err := h.encode(pe); err != nil {
			return err
		}
	}

	return nil
}

func (rb recordBody) decode(pd packetDecoder) (err error) {
	r := rb.r

	if r.Attributes, err = pd.getInt8(); err != nil {
		return err
	}
	if r.TimestampDelta, err = pd.getVarint(); err != nil {
		return err
	}
	if r.OffsetDelta, err = pd.getVarint(); err != nil {
		return err
	}
	if r.Key, err = pd.getVarintBytes(); err != nil {
		return err
	}
	if r.Value, err = pd.getVarintBytes(); err != nil {
		return err
	}

	numHeaders, err := pd.getVarint()
	if err != nil {
		return err
	}
	if numHeaders <= 0 {
		return nil
	}

	r.Headers = make([]*RecordHeader, numHeaders)
	for i := int64(0); i < numHeaders; i++ {
		hdr := new(RecordHeader)
		if err := hdr.decode(pd); err != nil {
			return err
		}
		r.Headers[i] = hdr
	}

	return nil
}
