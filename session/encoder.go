package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const recordFormatVersion = 1

// MaxFieldLength bounds each string field of an encoded record; the
// length prefix is a single byte.
const MaxFieldLength = 255

// Encode serializes a record into the compact binary layout stored in
// Redis: a version byte, four length-prefixed strings, and a big-endian
// creation timestamp.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersion)

	for _, field := range []string{r.SessionID, r.IdentityID, r.IP, r.UserAgent} {
		if len(field) > MaxFieldLength {
			return nil, errors.New("session field too long")
		}
		buf.WriteByte(byte(len(field)))
		buf.WriteString(field)
	}

	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses a stored record blob. It fails on unknown versions and
// truncated input.
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersion {
		return nil, errors.New("unsupported session record version")
	}

	fields := make([]string, 4)
	for i := range fields {
		n, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		fields[i] = string(raw)
	}

	r := &Record{
		SessionID:  fields[0],
		IdentityID: fields[1],
		IP:         fields[2],
		UserAgent:  fields[3],
	}

	if err := binary.Read(reader, binary.BigEndian, &r.CreatedAt); err != nil {
		return nil, err
	}

	return r, nil
}
