package sarama

import (
	"encoding/binary"
	"hash/crc32"
)

// crcPolynomial selects which CRC-32 table a crc32Field checksums with.
// Legacy (magic 0/1) message sets use IEEE; the v2 RecordBatch format uses
// Castagnoli, matching the broker's own framing per spec.md §4.1.
type crcPolynomial int8

const (
	crcIEEE crcPolynomial = iota
	crcCastagnoli
)

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// crc32Field implements pushEncoder and pushDecoder; it reserves four
// bytes for a CRC32 checksum and, on pop/check, computes the checksum over
// everything written or read since, failing the enclosing message (or
// RecordBatch) with a checksum error per spec.md §4.1 and §7.
type crc32Field struct {
	startOffset int
	polynomial  crcPolynomial
}

func (c *crc32Field) saveOffset(in int) {
	c.startOffset = in
}

func (c *crc32Field) reserveLength() int {
	return 4
}

func (c *crc32Field) run(curOffset int, buf []byte) error {
	crc, err := c.crc(curOffset, buf)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[c.startOffset:], crc)
	return nil
}

func (c *crc32Field) check(curOffset int, buf []byte) error {
	crc, err := c.crc(curOffset, buf)
	if err != nil {
		return err
	}

	expected := binary.BigEndian.Uint32(buf[c.startOffset:])
	if crc != expected {
		return PacketDecodingError{"CRC didn't match"}
	}
	return nil
}

func (c *crc32Field) crc(curOffset int, buf []byte) (uint32, error) {
	var tab *crc32.Table
	switch c.polynomial {
	case crcIEEE:
		tab = crc32.IEEETable
	case crcCastagnoli:
		tab = castagnoliTable
	default:
		return 0, PacketDecodingError{"unknown CRC type"}
	}
	return crc32.Checksum(buf[c.startOffset+4:curOffset], tab), nil
}

func newCRC32Field(polynomial crcPolynomial) *crc32Field {
	return &crc32Field{polynomial: polynomial}
}
