// Command ltestsim replays a recorded session log through the fusion
// orchestrator offline, for regression comparison against the poses
// recorded live. Grounded on the teacher's cmd/replay/main.go pacing
// loop (first-timestamp anchor, speed multiplier, sleep-to-catch-up),
// adapted from raw UDP byte replay to structured Record replay.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"ltest-go/binlog"
	"ltest-go/config"
	"ltest-go/orchestrator"
	"ltest-go/telemetry"
)

func main() {
	logPath := flag.String("log", "", "Path to a session log written by ltestd -session-log")
	speed := flag.Float64("speed", 0, "Replay speed multiplier (0 = as fast as possible)")
	configPath := flag.String("config", "", "Path to a JSON parameter file (optional)")
	flag.Parse()

	if *logPath == "" {
		log.Fatal("-log is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	reader, err := binlog.OpenSessionReader(*logPath)
	if err != nil {
		log.Fatalf("open %s: %v", *logPath, err)
	}
	defer reader.Close()

	orch := orchestrator.New(cfg, telemetry.New("ltestsim"))

	var firstTS time.Time
	var startReal time.Time
	count := 0
	mismatches := 0

	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatalf("read record: %v", err)
		}

		ts := rec.Timestamp()
		if firstTS.IsZero() {
			firstTS = ts
			startReal = time.Now()
		} else if *speed > 0 {
			targetDelay := time.Duration(float64(ts.Sub(firstTS)) / *speed)
			elapsed := time.Since(startReal)
			if targetDelay > elapsed {
				time.Sleep(targetDelay - elapsed)
			}
		}

		res := orch.Tick(ts, rec.Vehicle, rec.Sensors.ToSnapshot())
		if res.Status != rec.Result.Status {
			mismatches++
		}
		count++
		if count%100 == 0 {
			fmt.Printf("\rreplayed %d ticks...", count)
		}
	}

	fmt.Printf("\ndone: %d ticks replayed, %d status mismatches against the recorded run\n", count, mismatches)
}
