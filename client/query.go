package client

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// DNS wire constants. This client only ever speaks A/IN.
const (
	TypeA   uint16 = 1
	ClassIN uint16 = 1

	// FlagRecursionDesired is the complete flags word for an outbound
	// query: standard query with only the RD bit set.
	FlagRecursionDesired uint16 = 0x0100

	headerLen   = 12
	maxUDPSize  = 512
	maxLabelLen = 63
	maxNameLen  = 255
)

// Query is a single-question DNS query for an A/IN record.
type Query struct {
	ID    uint16
	Flags uint16
	Name  string
}

// Encode serializes the query into wire format: a 12-byte header with
// QDCOUNT=1, the length-prefixed label sequence for Name, a zero
// terminator, and the fixed QTYPE/QCLASS pair.
func (q *Query) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.BigEndian, q.ID)
	binary.Write(buf, binary.BigEndian, q.Flags)
	binary.Write(buf, binary.BigEndian, uint16(1)) // QDCOUNT
	binary.Write(buf, binary.BigEndian, uint16(0)) // ANCOUNT
	binary.Write(buf, binary.BigEndian, uint16(0)) // NSCOUNT
	binary.Write(buf, binary.BigEndian, uint16(0)) // ARCOUNT

	if err := encodeName(buf, q.Name); err != nil {
		return nil, err
	}

	binary.Write(buf, binary.BigEndian, TypeA)
	binary.Write(buf, binary.BigEndian, ClassIN)

	return buf.Bytes(), nil
}

// encodeName writes a domain name as length-prefixed labels followed by the
// zero terminator. Empty segments are skipped, so "example.com." encodes
// the same as "example.com" and the terminator is never dropped.
func encodeName(buf *bytes.Buffer, name string) error {
	labels := make([]string, 0, strings.Count(name, ".")+1)
	encodedLen := 1 // zero terminator
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			continue
		}
		if len(label) > maxLabelLen {
			return fmt.Errorf("label %q exceeds %d bytes", label, maxLabelLen)
		}
		labels = append(labels, label)
		encodedLen += 1 + len(label)
	}

	if len(labels) == 0 {
		return errors.New("empty domain name")
	}
	if encodedLen > maxNameLen {
		return fmt.Errorf("encoded name is %d bytes, limit is %d", encodedLen, maxNameLen)
	}

	for _, label := range labels {
		buf.WriteByte(byte(len(label)))
		buf.WriteString(label)
	}
	buf.WriteByte(0)

	return nil
}
