package binlog

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"ltest-go/orchestrator"
)

// SessionWriter appends one JSON object per tick to an append-only
// session log, replacing the teacher's PcapWriter (global header +
// framed binary records) since the estimator has no analogous
// packet-radio wire format to preserve.
type SessionWriter struct {
	mu  sync.Mutex
	f   *os.File
	w   *bufio.Writer
	enc *json.Encoder
}

// NewSessionWriter creates (or truncates) the session log at path.
func NewSessionWriter(path string) (*SessionWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	return &SessionWriter{f: f, w: w, enc: json.NewEncoder(w)}, nil
}

// WriteTick appends one Record as a single JSON line.
func (sw *SessionWriter) WriteTick(veh orchestrator.VehicleSnapshot, sensors orchestrator.SensorSnapshot, res orchestrator.Result) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.enc.Encode(Record{Vehicle: veh, Sensors: toWire(sensors), Result: res})
}

// Flush pushes buffered writes to the underlying file without closing
// it, so a running daemon can be tailed while still logging.
func (sw *SessionWriter) Flush() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Flush()
}

func (sw *SessionWriter) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if err := sw.w.Flush(); err != nil {
		return err
	}
	return sw.f.Close()
}
