package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"terrascape.dev/internal/sim/world"
)

// journal appends JSON lines to zstd-compressed files under one directory,
// starting a new file at each UTC hour boundary. Every append is flushed
// through to the encoder so a crash loses at most the encoder's last block.
type journal struct {
	dir  string
	name string

	mu       sync.Mutex
	f        *os.File
	zw       *zstd.Encoder
	bw       *bufio.Writer
	nextRoll time.Time
}

func newJournal(dir, name string) *journal {
	return &journal{dir: dir, name: name}
}

func (j *journal) append(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now().UTC()
	if j.bw == nil || !now.Before(j.nextRoll) {
		if err := j.rollLocked(now); err != nil {
			return err
		}
	}
	if _, err := j.bw.Write(line); err != nil {
		return err
	}
	return j.bw.Flush()
}

// rollLocked finishes the current file, if any, and opens the one covering
// now's hour.
func (j *journal) rollLocked(now time.Time) error {
	if err := j.finishLocked(); err != nil {
		return err
	}

	hour := now.Truncate(time.Hour)
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(j.dir, fmt.Sprintf("%s-%s.jsonl.zst", j.name, hour.Format("2006-01-02-15")))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}

	j.f = f
	j.zw = zw
	j.bw = bufio.NewWriterSize(zw, 128*1024)
	j.nextRoll = hour.Add(time.Hour)
	return nil
}

func (j *journal) finishLocked() error {
	if j.bw == nil {
		return nil
	}
	_ = j.bw.Flush()
	err := j.zw.Close()
	if cerr := j.f.Close(); err == nil {
		err = cerr
	}
	j.f, j.zw, j.bw = nil, nil, nil
	return err
}

func (j *journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finishLocked()
}

// TickLogger journals one entry per world tick under <worldDir>/ticks.
type TickLogger struct{ j *journal }

func NewTickLogger(worldDir string) *TickLogger {
	return &TickLogger{j: newJournal(filepath.Join(worldDir, "ticks"), "ticks")}
}

func (l *TickLogger) WriteTick(e world.TickLogEntry) error { return l.j.append(e) }
func (l *TickLogger) Close() error                         { return l.j.Close() }

// AuditLogger journals accepted and refused mutations under <worldDir>/audit.
type AuditLogger struct{ j *journal }

func NewAuditLogger(worldDir string) *AuditLogger {
	return &AuditLogger{j: newJournal(filepath.Join(worldDir, "audit"), "audit")}
}

func (l *AuditLogger) WriteAudit(e world.AuditEntry) error { return l.j.append(e) }
func (l *AuditLogger) Close() error                        { return l.j.Close() }
