package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"terrascape.dev/internal/sim/world"
)

// Reads the compressed tick journal back and prints per-tick rows plus an
// aggregate summary, for spot-checking a world's streaming behavior.
func main() {
	var (
		ticksDir = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst")
		fromTick = flag.Uint64("from_tick", 0, "start at tick (inclusive, optional)")
		toTick   = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
		quiet    = flag.Bool("quiet", false, "suppress per-tick rows, print summary only")
	)
	flag.Parse()

	if *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "missing -ticks")
		os.Exit(2)
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	var (
		count            uint64
		totalSpawned     int
		totalDespawned   int
		maxLoaded        int
		maxStepMs        int64
		firstTick        uint64
		lastTick         uint64
		haveFirst        bool
		budgetViolations int
		prevLoaded       = -1
	)

	for _, path := range files {
		err := scanFile(path, func(e world.TickLogEntry) {
			if *fromTick != 0 && e.Tick < *fromTick {
				return
			}
			if *toTick != 0 && e.Tick > *toTick {
				return
			}
			if !haveFirst {
				firstTick = e.Tick
				haveFirst = true
			}
			lastTick = e.Tick
			count++
			totalSpawned += e.Spawned
			totalDespawned += e.Despawned
			if e.LoadedChunks > maxLoaded {
				maxLoaded = e.LoadedChunks
			}
			if e.StepMs > maxStepMs {
				maxStepMs = e.StepMs
			}
			if prevLoaded >= 0 && e.LoadedChunks != prevLoaded+e.Spawned-e.Despawned {
				budgetViolations++
			}
			prevLoaded = e.LoadedChunks

			if !*quiet {
				fmt.Printf("tick=%d spawned=%d despawned=%d loaded=%d objects=%d step_ms=%d\n",
					e.Tick, e.Spawned, e.Despawned, e.LoadedChunks, e.Objects, e.StepMs)
			}
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "scan:", err)
			os.Exit(1)
		}
	}

	fmt.Printf("summary: ticks=%d range=[%d,%d] spawned=%d despawned=%d max_loaded=%d max_step_ms=%d inconsistent_rows=%d\n",
		count, firstTick, lastTick, totalSpawned, totalDespawned, maxLoaded, maxStepMs, budgetViolations)
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func scanFile(path string, fn func(world.TickLogEntry)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e world.TickLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		fn(e)
	}
	return sc.Err()
}
