// Command genfix generates a deterministic simulated device track as
// source-topic fixtures, plus the filtered output a controller would
// emit for it. It runs the actual selection code so the expected file
// always matches real behavior.
//
// Usage:
//
//	go run ./cmd/genfix \
//	  -events-out data/mock/device_track_events.json \
//	  -expected-out data/mock/device_track_filtered.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/location-provider-service/internal/domain"
)

var baseTime = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

const (
	deviceID   = "sim-device-1"
	batchCount = 40
	seed       = 240314
)

// sourceEvent mirrors the source-topic envelope for fix batches.
type sourceEvent struct {
	DeviceID string       `json:"device_id"`
	Type     string       `json:"type"`
	Fixes    []domain.Fix `json:"fixes"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	eventsOut := flag.String("events-out", "", "output path for source-topic event fixtures")
	expectedOut := flag.String("expected-out", "", "output path for expected filtered fixes")
	flag.Parse()

	if *eventsOut == "" || *expectedOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -events-out, -expected-out")
	}

	rng := rand.New(rand.NewSource(seed))
	clock := clockwork.NewFakeClockAt(baseTime)
	domain.SetClock(clock)
	defer domain.SetClock(nil)

	var events []sourceEvent
	var expected []domain.Fix

	// Walk north through Stockholm at ~1.4 m/s, one batch per 30s tick.
	lat, lon := 59.3293, 18.0686
	for i := 0; i < batchCount; i++ {
		clock.Advance(30 * time.Second)
		lat += 0.0004 + rng.Float64()*0.0001
		lon += rng.Float64()*0.0002 - 0.0001

		batch := makeBatch(rng, clock.Now(), lat, lon)
		events = append(events, sourceEvent{DeviceID: deviceID, Type: "fix_batch", Fixes: batch})

		if best, ok := domain.SelectBest(batch); ok {
			expected = append(expected, best)
		}
	}

	log.Printf("generated %d batches, %d expected emissions", len(events), len(expected))

	if err := writeJSON(*eventsOut, events); err != nil {
		return fmt.Errorf("writing event fixtures: %w", err)
	}
	log.Printf("wrote event fixtures: %s", *eventsOut)

	if err := writeJSON(*expectedOut, expected); err != nil {
		return fmt.Errorf("writing expected output: %w", err)
	}
	log.Printf("wrote expected output: %s", *expectedOut)

	printStats(events, expected)
	return nil
}

// makeBatch produces 1-4 fixes around the given position: a good fix
// plus degraded variants a real receiver would deliver alongside it.
// Some are made stale or accuracy-free to exercise the filters.
func makeBatch(rng *rand.Rand, now time.Time, lat, lon float64) []domain.Fix {
	n := 1 + rng.Intn(4)
	fixes := make([]domain.Fix, 0, n)
	for j := 0; j < n; j++ {
		fix := domain.Fix{
			Latitude:  lat + rng.Float64()*0.0002 - 0.0001,
			Longitude: lon + rng.Float64()*0.0002 - 0.0001,
			Accuracy:  5 + rng.Float64()*45,
			Speed:     1.2 + rng.Float64()*0.5,
			Bearing:   math.Mod(rng.Float64()*30+350, 360),
			Time:      now.Add(-time.Duration(rng.Intn(10)) * time.Second),
		}
		switch rng.Intn(10) {
		case 0:
			// Stale leftover from a previous acquisition.
			fix.Time = now.Add(-time.Duration(45+rng.Intn(60)) * time.Second)
		case 1:
			fix.Accuracy = domain.UnknownAccuracy
		}
		fixes = append(fixes, fix)
	}
	return fixes
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(events []sourceEvent, expected []domain.Fix) {
	var totalFixes, stale, unknownAccuracy int
	for _, e := range events {
		totalFixes += len(e.Fixes)
		for _, f := range e.Fixes {
			if !f.HasAccuracy() {
				unknownAccuracy++
			}
		}
	}
	lastTick := baseTime.Add(batchCount * 30 * time.Second)
	for _, e := range events {
		for _, f := range e.Fixes {
			if f.HasTime() && lastTick.Sub(f.Time) > domain.MaxFixAge {
				stale++
			}
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Batches: %d\n", len(events))
	fmt.Printf("Raw fixes: %d (unknown accuracy: %d, stale at final tick: %d)\n",
		totalFixes, unknownAccuracy, stale)
	fmt.Printf("Expected emissions: %d\n", len(expected))
	if len(expected) > 0 {
		first := expected[0]
		fmt.Printf("First emission: lat=%.6f lon=%.6f accuracy=%.1f time=%s\n",
			first.Latitude, first.Longitude, first.Accuracy, first.Time.Format(time.RFC3339))
		last := expected[len(expected)-1]
		fmt.Printf("Last emission:  lat=%.6f lon=%.6f accuracy=%.1f time=%s\n",
			last.Latitude, last.Longitude, last.Accuracy, last.Time.Format(time.RFC3339))
	}
}
