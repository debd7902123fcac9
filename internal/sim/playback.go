package sim

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"robofleet-sim/internal/logging"
	"robofleet-sim/internal/telemetry"
)

// ReplayLog replays updates from a JSONL log in r to writer. A speed >0
// accelerates playback. If speed <= 0, no artificial delay is inserted.
func ReplayLog(ctx context.Context, r io.Reader, writer TelemetryWriter, speed float64) (int, error) {
	log := logging.FromContext(ctx)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var prev time.Time
	n, line := 0, 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		u, err := telemetry.DecodeUpdate(b)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := u.Time().Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-ctx.Done():
					return n, ctx.Err()
				case <-time.After(diff):
				}
			}
		}
		if err := writer.Write(u); err != nil {
			return n, err
		}
		log.Debug("replayed update", "line", line, "kind", u.Kind(), "robot_id", u.Robot())
		n++
		prev = u.Time()
	}
	return n, sc.Err()
}

// ReplayLogFile opens a file and replays its updates.
func ReplayLogFile(ctx context.Context, path string, writer TelemetryWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
