package sarama

// MessageBlock is one (offset, message) pair inside a MessageSet.
type MessageBlock struct {
	Offset int64
	Msg    *Message
}

// Messages flattens a possibly-wrapped/compressed MessageBlock into the
// list of inner (offset, message) pairs it actually carries, per spec.md
// §4.7's "flatten nested sets" requirement. Uncompressed blocks are a
// single-element list.
func (msb *MessageBlock) Messages() []*MessageBlock {
	if msb.Msg.Set == nil {
		return []*MessageBlock{msb}
	}
	return msb.Msg.Set.Messages
}

func (msb *MessageBlock) encode(pe packetEncoder) error {
	pe.putInt64(msb.Offset)
	pe.push(&lengthField{})
	err := msb.Msg.encode(pe)
	if err != nil {
		return err
	}
	return pe.pop()
}

func (msb *MessageBlock) decode(pd packetDecoder) (err error) {
	if msb.Offset, err = pd.getInt64(); err != nil {
		return err
	}

	if err = pd.push(&lengthField{}); err != nil {
		return err
	}

	msb.Msg = new(Message)
	if err = msb.Msg.decode(pd); err != nil {
		return err
	}

	return pd.pop()
}

// MessageSet ("message set" / "record batch" container, spec.md §3 and
// §4.1) is a length-prefixed, CRC-protected sequence of MessageBlocks
// using the legacy (magic 0/1) message format.
type MessageSet struct {
	PartialTrailingMessage bool // whether the set on the wire contained an incomplete trailing MessageBlock
	OverflowMessage        bool // whether the set on the wire contained an overflow message
	Messages               []*MessageBlock
}

func (ms *MessageSet) encode(pe packetEncoder) error {
	for i := range ms.Messages {
		err := ms.Messages[i].encode(pe)
		if err != nil {
			return err
		}
	}
	return nil
}

func (ms *MessageSet) decode(pd packetDecoder) (err error) {
	ms.Messages = nil

	for pd.remaining() > 0 {
		magic, err := magicValue(pd)
		if err != nil {
			if err == ErrInsufficientData {
				ms.PartialTrailingMessage = true
				return nil
			}
			return err
		}
		_ = magic

		msb := new(MessageBlock)
		err = msb.decode(pd)
		switch err {
		case nil:
			ms.Messages = append(ms.Messages, msb)
		case ErrInsufficientData:
			// As an optimization the server is allowed to return a partial
			// message at the end of the message set, instead of a more
			// complete message set if it could be accommodated in
			// fetch.max.bytes. See the spec for more details.
			ms.PartialTrailingMessage = true
			return nil
		default:
			return err
		}
	}

	return nil
}

// magicValue peeks the magic byte (16 bytes in, after the 8-byte offset,
// the 4-byte length and the 4-byte CRC of a legacy message or partition
// leader epoch of a v2 batch) without advancing the decoder, so
// Records.decode can pick the format and MessageSet.decode can tell
// whether there is enough data left for a full block before committing to
// decoding it.
func magicValue(pd packetDecoder) (int8, error) {
	return pd.peekInt8(8 + 4 + 4)
}

func (ms *MessageSet) addMessage(msg *Message) {
	offset := int64(0)
	if len(ms.Messages) > 0 {
		offset = ms.Messages[len(ms.Messages)-1].Offset + 1
	}
	block := &MessageBlock{Msg: msg, Offset: offset}
	ms.Messages = append(ms.Messages, block)
}
