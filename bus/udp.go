package bus

import (
	"bytes"
	"encoding/json"
	"log"
	"net"
	"sync"

	"ltest-go/binlog"
	"ltest-go/orchestrator"
)

const (
	// DefaultPort follows the teacher's DefaultPort constant in
	// server/udp.go, moved to an unregistered port with no existing
	// convention behind it.
	DefaultPort   = 45400
	maxPacketSize = 65535
)

// Frame is one UDP datagram's worth of input: the vehicle snapshot and
// whichever sensor reports are fresh this period, JSON-encoded by
// whatever bridges the flight stack's telemetry onto this bus.
type Frame struct {
	Vehicle orchestrator.VehicleSnapshot `json:"vehicle"`
	Sensors binlog.SensorSnapshotWire    `json:"sensors"`
}

// Server listens for Frame datagrams and republishes them on Frames,
// grounded on the teacher's UdpServer (bounded read buffer, a
// running flag guarding the receive loop, Start/Stop symmetry).
type Server struct {
	conn    *net.UDPConn
	Frames  chan Frame
	running bool
	mu      sync.Mutex
}

// NewServer binds a UDP listener on port (DefaultPort if zero) and
// returns a Server whose Frames channel is ready to read from once
// Start runs.
func NewServer(port int) (*Server, error) {
	if port == 0 {
		port = DefaultPort
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port, IP: net.IPv4zero})
	if err != nil {
		return nil, err
	}
	_ = conn.SetReadBuffer(256 * 1024)
	return &Server{conn: conn, Frames: make(chan Frame, 64)}, nil
}

// Start blocks, decoding datagrams and pushing them onto Frames, until
// Stop is called. Malformed datagrams are logged and skipped.
func (s *Server) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	buf := make([]byte, maxPacketSize)
	log.Printf("bus: udp listening on %s", s.conn.LocalAddr())

	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			return
		}

		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if running {
				log.Printf("bus: udp read error: %v", err)
			}
			continue
		}

		var frame Frame
		dec := json.NewDecoder(bytes.NewReader(buf[:n]))
		if err := dec.Decode(&frame); err != nil {
			log.Printf("bus: dropping malformed frame: %v", err)
			continue
		}

		select {
		case s.Frames <- frame:
		default:
			log.Printf("bus: frame channel full, dropping frame")
		}
	}
}

// Stop closes the listening socket, unblocking Start.
func (s *Server) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.conn.Close()
}
