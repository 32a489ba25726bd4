package client

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrMalformedResponse means the response buffer is too short or
	// structurally inconsistent for the fields being parsed.
	ErrMalformedResponse = errors.New("malformed DNS response")

	// ErrNoAnswer means the response is well-formed but carries no usable
	// A record answer.
	ErrNoAnswer = errors.New("no answer in DNS response")
)

// compressionMask matches the top two bits that mark a name pointer.
const compressionMask = 0xC0

// DecodeResponse extracts the IPv4 address carried by the first answer
// record of a raw DNS response and returns it in dotted-decimal form.
//
// Only the first resource record is inspected; if it is not an A/IN record
// with a 4-byte address, the result is [ErrNoAnswer] even when a valid A
// record follows later in the message. Every read is bounds-checked and a
// truncated buffer yields [ErrMalformedResponse].
func DecodeResponse(data []byte) (string, error) {
	if len(data) < headerLen {
		return "", fmt.Errorf("%w: %d bytes is shorter than the 12-byte header", ErrMalformedResponse, len(data))
	}

	qdcount := binary.BigEndian.Uint16(data[4:6])
	ancount := binary.BigEndian.Uint16(data[6:8])
	if ancount == 0 {
		return "", ErrNoAnswer
	}

	// Skip the echoed question section.
	offset := headerLen
	for i := uint16(0); i < qdcount; i++ {
		var err error
		offset, err = skipName(data, offset)
		if err != nil {
			return "", err
		}
		if offset+4 > len(data) {
			return "", fmt.Errorf("%w: question fixed fields truncated at offset %d", ErrMalformedResponse, offset)
		}
		offset += 4 // QTYPE + QCLASS
	}

	// The answer name is either a 2-byte compression pointer or a literal
	// label sequence. The decoded value is never needed, only its width.
	if offset >= len(data) {
		return "", fmt.Errorf("%w: missing answer section", ErrMalformedResponse)
	}
	if data[offset]&compressionMask == compressionMask {
		if offset+2 > len(data) {
			return "", fmt.Errorf("%w: name pointer truncated at offset %d", ErrMalformedResponse, offset)
		}
		offset += 2
	} else {
		var err error
		offset, err = skipName(data, offset)
		if err != nil {
			return "", err
		}
	}

	if offset+10 > len(data) {
		return "", fmt.Errorf("%w: resource record header truncated at offset %d", ErrMalformedResponse, offset)
	}
	rtype := binary.BigEndian.Uint16(data[offset:])
	rdlength := binary.BigEndian.Uint16(data[offset+8:])
	offset += 10 // type, class, TTL, RDLENGTH

	if rtype != TypeA || rdlength != net.IPv4len {
		return "", fmt.Errorf("%w: first record has type %d with %d data bytes", ErrNoAnswer, rtype, rdlength)
	}
	if offset+net.IPv4len > len(data) {
		return "", fmt.Errorf("%w: address data truncated at offset %d", ErrMalformedResponse, offset)
	}

	return net.IP(data[offset : offset+net.IPv4len]).String(), nil
}

// skipName advances past an uncompressed label sequence, returning the
// offset of the first byte after the zero terminator.
func skipName(data []byte, offset int) (int, error) {
	for {
		if offset >= len(data) {
			return 0, fmt.Errorf("%w: name runs past end of message at offset %d", ErrMalformedResponse, offset)
		}
		length := int(data[offset])
		offset++
		if length == 0 {
			return offset, nil
		}
		if length > maxLabelLen {
			return 0, fmt.Errorf("%w: label length %d at offset %d", ErrMalformedResponse, length, offset-1)
		}
		offset += length
	}
}
