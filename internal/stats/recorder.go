// Package stats records per-bot run telemetry in a single JSON document and
// renders the consolidated heartbeat built from it.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// historyMax bounds the per-bot run history kept in the document.
	historyMax = 100
	// errorsMax bounds the rolling error list.
	errorsMax = 50
)

// Record is one completed bot run.
type Record struct {
	Bot        string    `json:"bot_name"`
	Scanned    int       `json:"scanned"`
	Matched    int       `json:"matched"`
	Alerts     int       `json:"alerts"`
	Runtime    float64   `json:"runtime_seconds"`
	FinishedAt time.Time `json:"finished_at"`
}

// BotStats is one bot's entry in the persisted document.
type BotStats struct {
	Latest  *Record  `json:"latest"`
	History []Record `json:"history,omitempty"`
}

// ErrorEntry is one recorded bot failure.
type ErrorEntry struct {
	Bot    string    `json:"bot"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// Document is the on-disk layout of the stats file.
type Document struct {
	Bots          map[string]*BotStats `json:"bots"`
	Errors        []ErrorEntry         `json:"errors,omitempty"`
	LastHeartbeat time.Time            `json:"last_heartbeat,omitempty"`
}

func emptyDocument() *Document {
	return &Document{Bots: make(map[string]*BotStats)}
}

// Recorder is the sole writer of the stats document. Every write goes
// through load-modify-save under the mutex, with an atomic replace on disk so
// a crash mid-write never leaves a torn file behind.
type Recorder struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
	log  zerolog.Logger
}

// NewRecorder creates a recorder persisting to path.
func NewRecorder(path string, log zerolog.Logger) *Recorder {
	return &Recorder{
		path: path,
		now:  time.Now,
		log:  log.With().Str("component", "stats").Logger(),
	}
}

// RecordRun appends a run record for bot, trims its history, updates latest,
// and persists.
func (r *Recorder) RecordRun(bot string, scanned, matched, alerts int, runtime time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.loadLocked()

	rec := Record{
		Bot:        bot,
		Scanned:    scanned,
		Matched:    matched,
		Alerts:     alerts,
		Runtime:    runtime.Seconds(),
		FinishedAt: r.now().UTC(),
	}

	bs := doc.Bots[bot]
	if bs == nil {
		bs = &BotStats{}
		doc.Bots[bot] = bs
	}
	bs.History = append(bs.History, rec)
	if len(bs.History) > historyMax {
		bs.History = bs.History[len(bs.History)-historyMax:]
	}
	bs.Latest = &rec

	return r.saveLocked(doc)
}

// RecordError appends a failure entry for bot, trimming the rolling list.
func (r *Recorder) RecordError(bot, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.loadLocked()

	doc.Errors = append(doc.Errors, ErrorEntry{
		Bot:    bot,
		Reason: reason,
		At:     r.now().UTC(),
	})
	if len(doc.Errors) > errorsMax {
		doc.Errors = doc.Errors[len(doc.Errors)-errorsMax:]
	}

	return r.saveLocked(doc)
}

// Latest returns the most recent record for bot, if any.
func (r *Recorder) Latest(bot string) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bs := r.loadLocked().Bots[bot]
	if bs == nil || bs.Latest == nil {
		return Record{}, false
	}
	return *bs.Latest, true
}

// Snapshot returns the full document for read-side consumers.
func (r *Recorder) Snapshot() *Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadLocked()
}

// MarkHeartbeat persists the time the last heartbeat was sent.
func (r *Recorder) MarkHeartbeat(t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := r.loadLocked()
	doc.LastHeartbeat = t.UTC()
	return r.saveLocked(doc)
}

// Path returns the location of the persisted document.
func (r *Recorder) Path() string {
	return r.path
}

// loadLocked reads the document from disk, returning an empty one when the
// file is missing or unreadable. A corrupt stats file must never stop the
// scheduler, so parse failures are logged and discarded.
func (r *Recorder) loadLocked() *Document {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", r.path).Msg("Failed to read stats document")
		}
		return emptyDocument()
	}

	doc := emptyDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("Stats document corrupt, starting fresh")
		return emptyDocument()
	}
	if doc.Bots == nil {
		doc.Bots = make(map[string]*BotStats)
	}
	return doc
}

// saveLocked writes the document to a temp file in the target directory and
// renames it over the destination.
func (r *Recorder) saveLocked(doc *Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal stats document: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create stats directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return fmt.Errorf("create temp stats file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp stats file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp stats file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace stats file: %w", err)
	}
	return nil
}

// SetClock replaces the recorder's clock. Test use only.
func (r *Recorder) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.now = now
}
