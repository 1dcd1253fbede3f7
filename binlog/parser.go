package binlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
)

// SessionReader replays a session log written by SessionWriter,
// replacing the teacher's pcap frame parser (global header, per-record
// length-prefixed frames, embedded UNIB sub-frame recursion) with a
// line-oriented JSON decoder: one Record in, one Record out, no
// nested framing to walk.
type SessionReader struct {
	f   *os.File
	dec *json.Decoder
}

// OpenSessionReader opens path for sequential replay.
func OpenSessionReader(path string) (*SessionReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &SessionReader{f: f, dec: json.NewDecoder(bufio.NewReader(f))}, nil
}

// Next decodes the following Record, returning io.EOF once the log is
// exhausted.
func (sr *SessionReader) Next() (Record, error) {
	var rec Record
	if err := sr.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, err
	}
	return rec, nil
}

// All reads every remaining record into memory, for tooling that
// needs random access rather than a forward-only pass.
func (sr *SessionReader) All() ([]Record, error) {
	var out []Record
	for {
		rec, err := sr.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func (sr *SessionReader) Close() error {
	return sr.f.Close()
}
