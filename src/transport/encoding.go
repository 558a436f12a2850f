package transport

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"strings"

	"github.com/danmuck/guestbook/src/guestbook"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ContentTypeJSON     = "application/json"
	ContentTypeProtobuf = "application/x-protobuf"
)

// Coder writes and reads an entry listing in one wire format.
type Coder interface {
	ContentType() string
	Encode(w io.Writer, entries []guestbook.Entry) error
	Decode(r io.Reader) ([]guestbook.Entry, error)
}

// Negotiate picks a Coder for an Accept header. JSON is the default.
func Negotiate(accept string) Coder {
	for _, part := range strings.Split(accept, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case ContentTypeProtobuf:
			return ProtoCoder{}
		case ContentTypeJSON:
			return JSONCoder{}
		}
	}
	return JSONCoder{}
}

type JSONCoder struct{}

func (JSONCoder) ContentType() string { return ContentTypeJSON }

func (JSONCoder) Encode(w io.Writer, entries []guestbook.Entry) error {
	if entries == nil {
		entries = []guestbook.Entry{}
	}
	return json.NewEncoder(w).Encode(entries)
}

func (JSONCoder) Decode(r io.Reader) ([]guestbook.Entry, error) {
	var entries []guestbook.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ProtoCoder frames each entry as a protobuf Struct preceded by a
// 2-byte big-endian length header.
type ProtoCoder struct{}

func (ProtoCoder) ContentType() string { return ContentTypeProtobuf }

func (ProtoCoder) Encode(w io.Writer, entries []guestbook.Entry) error {
	for i, e := range entries {
		out, err := proto.Marshal(entryToStruct(e))
		if err != nil {
			return fmt.Errorf("failed to marshal entry %d: %w", i, err)
		}
		if len(out) > math.MaxUint16 {
			return fmt.Errorf("entry %d exceeds frame size: %d bytes", i, len(out))
		}
		hdr := make([]byte, 2)
		binary.BigEndian.PutUint16(hdr, uint16(len(out)))
		if _, err := w.Write(append(hdr, out...)); err != nil {
			return err
		}
	}
	return nil
}

func (ProtoCoder) Decode(r io.Reader) ([]guestbook.Entry, error) {
	entries := []guestbook.Entry{}
	headerBuf := make([]byte, 2)
	for {
		if _, err := io.ReadFull(r, headerBuf); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return nil, fmt.Errorf("failed to read frame header: %w", err)
		}

		msgBuf := make([]byte, int(binary.BigEndian.Uint16(headerBuf)))
		if _, err := io.ReadFull(r, msgBuf); err != nil {
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}

		st := &structpb.Struct{}
		if err := proto.Unmarshal(msgBuf, st); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
		}
		entries = append(entries, structToEntry(st))
	}
}

func entryToStruct(e guestbook.Entry) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"user":      structpb.NewStringValue(e.User),
		"message":   structpb.NewStringValue(e.Message),
		"timestamp": structpb.NewStringValue(e.Timestamp),
	}}
}

func structToEntry(st *structpb.Struct) guestbook.Entry {
	fields := st.GetFields()
	return guestbook.Entry{
		User:      fields["user"].GetStringValue(),
		Message:   fields["message"].GetStringValue(),
		Timestamp: fields["timestamp"].GetStringValue(),
	}
}
