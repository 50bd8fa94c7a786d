// Soak test runner for the lower-bits codec and clock arithmetic.
//
// This tool drives a simulated sender clock across many 16-bit wrap
// boundaries, continuously verifying that extract/reconstruct round
// trips are exact inside the wrap window and that timestamp arithmetic
// never wraps or panics, while watching for memory growth over
// extended runs.
//
// Usage:
//
//	go run ./cmd/soak -duration 24h
//	go run ./cmd/soak -duration 1h  # shorter test
//
// Exposes pprof endpoint at :6060 for live profiling:
//
//	curl http://localhost:6060/debug/pprof/heap > heap.pprof
//	go tool pprof heap.pprof
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"net/http"
	_ "net/http/pprof" // Enable pprof endpoints
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/thesyncim/monotime/pkg/monotime"
)

const (
	codecWidth            = 16
	maxStepMs             = 50   // simulated sender clock step upper bound
	maxNetworkDelayMs     = 2000 // simulated encode-to-decode delay, well inside the ±32768 ms window
	stepsPerTick          = 10_000
	tickInterval          = 10 * time.Millisecond
	statusIntervalMinutes = 5
)

// SoakResult contains the results of a soak test run.
type SoakResult struct {
	Duration        time.Duration
	TotalChecks     int
	WraparoundCount int
	Mismatches      int
	PeakHeapMB      float64
	TotalGCCycles   uint32
	Status          string
}

func main() {
	duration := flag.Duration("duration", 24*time.Hour, "Test duration (e.g., 1h, 24h)")
	pprofPort := flag.Int("pprof-port", 6060, "Port for pprof HTTP server")
	flag.Parse()

	fmt.Printf("monotime Soak Test Runner\n")
	fmt.Printf("=========================\n")
	fmt.Printf("Duration: %v\n", *duration)
	fmt.Printf("Pprof:    http://localhost:%d/debug/pprof/\n", *pprofPort)
	fmt.Printf("\n")

	// Start pprof server in background
	go func() {
		addr := fmt.Sprintf(":%d", *pprofPort)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Printf("Warning: pprof server failed: %v\n", err)
		}
	}()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived %v, shutting down gracefully...\n", sig)
		cancel()
	}()

	result := runSoakTest(ctx, *duration)
	printSummary(result)

	if result.Status == "PASS" {
		os.Exit(0)
	}
	os.Exit(1)
}

func runSoakTest(ctx context.Context, duration time.Duration) SoakResult {
	// A simulated sender clock stepping in random increments, plus a
	// real system clock checked for monotonicity alongside it.
	sender := monotime.NewFixedClock(monotime.NewMillis(0))
	system := monotime.NewSystemClock()
	lastSystem := system.Now()

	result := SoakResult{Status: "PASS"}

	var memStats runtime.MemStats
	var lastLower uint16

	startTime := time.Now()
	lastStatusTime := startTime
	statusInterval := time.Duration(statusIntervalMinutes) * time.Minute

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	fmt.Printf("[%s] Starting soak test...\n", formatDuration(time.Duration(0)))

	for {
		select {
		case <-ctx.Done():
			result.Duration = time.Since(startTime)
			return result

		case now := <-ticker.C:
			elapsed := now.Sub(startTime)
			if elapsed >= duration {
				result.Duration = elapsed
				return result
			}

			for range stepsPerTick {
				sender.Advance(monotime.DurationFromMillis(1 + rand.Uint64N(maxStepMs)))
				sent := sender.Now()

				// Detect 16-bit wraparound
				lower := sent.Lower16()
				if lower < lastLower {
					result.WraparoundCount++
				}
				lastLower = lower

				// The receiver's reference lags behind the decode
				// instant by a random in-window network delay.
				delayMs := rand.Uint64N(maxNetworkDelayMs)
				reference := sent.Add(monotime.DurationFromMillis(delayMs))

				low, err := monotime.ExtractLowBits(sent, codecWidth)
				if err != nil {
					fmt.Printf("[%s] ERROR: extract failed: %v\n", formatDuration(elapsed), err)
					result.Mismatches++
					result.Status = "FAIL"
					continue
				}
				got, err := monotime.ReconstructLowBits(low, codecWidth, reference)
				if err != nil {
					fmt.Printf("[%s] ERROR: reconstruct failed: %v\n", formatDuration(elapsed), err)
					result.Mismatches++
					result.Status = "FAIL"
					continue
				}
				if got != sent {
					fmt.Printf("[%s] ERROR: round trip mismatch: sent=%v got=%v ref=%v\n",
						formatDuration(elapsed), sent, got, reference)
					result.Mismatches++
					result.Status = "FAIL"
				}

				// Saturation identities must hold everywhere.
				if sent.DurationSince(reference) != 0 {
					fmt.Printf("[%s] ERROR: out-of-order subtraction did not saturate\n", formatDuration(elapsed))
					result.Mismatches++
					result.Status = "FAIL"
				}
				if reference.DurationSince(sent).Milliseconds() != delayMs {
					fmt.Printf("[%s] ERROR: elapsed mismatch: want %d ms\n", formatDuration(elapsed), delayMs)
					result.Mismatches++
					result.Status = "FAIL"
				}

				result.TotalChecks++
			}

			// The real clock must never run backward.
			sys := system.Now()
			if sys.Milliseconds() < lastSystem.Milliseconds() {
				fmt.Printf("[%s] ERROR: system clock regressed\n", formatDuration(elapsed))
				result.Mismatches++
				result.Status = "FAIL"
			}
			lastSystem = sys

			// Periodic status output
			if now.Sub(lastStatusTime) >= statusInterval {
				lastStatusTime = now
				runtime.ReadMemStats(&memStats)

				heapMB := float64(memStats.HeapAlloc) / (1024 * 1024)
				if heapMB > result.PeakHeapMB {
					result.PeakHeapMB = heapMB
				}
				result.TotalGCCycles = memStats.NumGC

				fmt.Printf("[%s] Checks: %d, Wraparounds: %d, HeapAlloc: %.2f MB, NumGC: %d\n",
					formatDuration(elapsed),
					result.TotalChecks,
					result.WraparoundCount,
					heapMB,
					memStats.NumGC)

				// Memory limit check (100 MB)
				if heapMB > 100 {
					fmt.Printf("[%s] ERROR: Memory limit exceeded: %.2f MB\n", formatDuration(elapsed), heapMB)
					result.Status = "FAIL"
				}
			}
		}
	}
}

func printSummary(result SoakResult) {
	fmt.Printf("\n")
	fmt.Printf("Soak Test Complete\n")
	fmt.Printf("==================\n")
	fmt.Printf("Duration:        %v\n", result.Duration.Round(time.Second))
	fmt.Printf("Total checks:    %d\n", result.TotalChecks)
	fmt.Printf("Wraparounds:     %d\n", result.WraparoundCount)
	fmt.Printf("Mismatches:      %d\n", result.Mismatches)
	fmt.Printf("Peak HeapAlloc:  %.2f MB\n", result.PeakHeapMB)
	fmt.Printf("Total GC cycles: %d\n", result.TotalGCCycles)
	fmt.Printf("Status:          %s\n", result.Status)
	fmt.Printf("\n")

	fmt.Printf("Pass Criteria:\n")
	fmt.Printf("  - No panics:            %s\n", checkMark(true))
	fmt.Printf("  - No round trip errors: %s\n", checkMark(result.Mismatches == 0))
	fmt.Printf("  - Peak memory < 100 MB: %s\n", checkMark(result.PeakHeapMB < 100))
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
