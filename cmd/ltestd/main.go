// Command ltestd runs the landing-target estimator as a daemon: it
// listens for sensor frames over UDP, drives the fusion orchestrator
// on a fixed schedule, and republishes the fused pose over websocket.
// Grounded on the teacher's cmd/udp_server/main.go for its
// flag/signal/defer wiring shape.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ltest-go/binlog"
	"ltest-go/bus"
	"ltest-go/config"
	"ltest-go/orchestrator"
	"ltest-go/telemetry"
)

func main() {
	udpPort := flag.Int("port", bus.DefaultPort, "UDP port to listen for sensor frames on")
	httpPort := flag.Int("http", 8080, "HTTP/WebSocket port for the fused pose feed")
	configPath := flag.String("config", "", "Path to a JSON parameter file (optional, defaults applied otherwise)")
	sessionLog := flag.String("session-log", "", "Path to record a JSON-lines session log (optional)")
	rate := flag.Duration("rate", 50*time.Millisecond, "Tick period")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	logger := telemetry.New("ltestd")
	orch := orchestrator.New(cfg, logger)

	udpSrv, err := bus.NewServer(*udpPort)
	if err != nil {
		log.Fatalf("bus: %v", err)
	}
	go udpSrv.Start()
	defer udpSrv.Stop()

	hub := bus.NewHub()
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	go func() {
		addr := fmt.Sprintf(":%d", *httpPort)
		log.Printf("ltestd: http listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	var sessionWriter *binlog.SessionWriter
	if *sessionLog != "" {
		sessionWriter, err = binlog.NewSessionWriter(*sessionLog)
		if err != nil {
			log.Fatalf("binlog: %v", err)
		}
		defer sessionWriter.Close()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	var latest bus.Frame
	haveFrame := false

	for {
		select {
		case f := <-udpSrv.Frames:
			latest = f
			haveFrame = true
		case now := <-ticker.C:
			if !haveFrame {
				continue
			}
			res := orch.Tick(now, latest.Vehicle, latest.Sensors.ToSnapshot())
			bus.PublishResult(hub, res)
			if sessionWriter != nil {
				if err := sessionWriter.WriteTick(latest.Vehicle, latest.Sensors.ToSnapshot(), res); err != nil {
					logger.Warn("session log write failed: %v", err)
				}
			}
		case <-sigChan:
			logger.Info("shutting down")
			return
		}
	}
}
