package atcf

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// ErrNoSnaps is returned when an input holds no valid best-track records.
var ErrNoSnaps = errors.New("atcf input has no valid snaps")

// Track is a storm track ordered by date.
type Track struct {
	snaps []Snap
}

// NewTrack builds a track from snaps, merging any that share a date.
func NewTrack(snaps ...Snap) *Track {
	t := &Track{}
	for i := range snaps {
		t.Add(snaps[i])
	}
	return t
}

// Read parses ATCF best-track records from r. Lines that fail to parse or
// describe an unusable snap are skipped with a warning.
func Read(r io.Reader, logger *slog.Logger) (*Track, error) {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Track{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		snap, err := ParseSnap(line)
		if err != nil {
			logger.Warn("skipping unparsable atcf line", "line", lineNo, "error", err)
			continue
		}
		if !snap.Valid() {
			logger.Warn("skipping invalid atcf snap", "line", lineNo, "date", snap.Date)
			continue
		}
		t.Add(snap)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read atcf: %w", err)
	}
	if len(t.snaps) == 0 {
		return nil, ErrNoSnaps
	}
	return t, nil
}

// ReadFile opens and parses an ATCF file.
func ReadFile(path string, logger *slog.Logger) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open atcf file: %w", err)
	}
	defer f.Close()

	t, err := Read(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Add inserts a snap in date order. If a snap with the same date exists the
// new isotachs are merged into it.
func (t *Track) Add(snap Snap) {
	i := sort.Search(len(t.snaps), func(i int) bool {
		return !t.snaps[i].Date.Before(snap.Date)
	})
	if i < len(t.snaps) && t.snaps[i].Date.Equal(snap.Date) {
		for _, iso := range snap.Isotachs {
			t.snaps[i].AddIsotach(iso)
		}
		return
	}
	t.snaps = append(t.snaps, Snap{})
	copy(t.snaps[i+1:], t.snaps[i:])
	t.snaps[i] = snap
}

// Len returns the number of snaps.
func (t *Track) Len() int { return len(t.snaps) }

// Snaps exposes the snaps for in-place preprocessing.
func (t *Track) Snaps() []Snap { return t.snaps }

// Snap returns a pointer to the i-th snap.
func (t *Track) Snap(i int) *Snap { return &t.snaps[i] }

// Start and End return the first and last snap dates.
func (t *Track) Start() time.Time { return t.snaps[0].Date }
func (t *Track) End() time.Time   { return t.snaps[len(t.snaps)-1].Date }

// StormID returns the conventional storm identifier, e.g. "AL122005".
func (t *Track) StormID() string {
	if len(t.snaps) == 0 {
		return ""
	}
	s := t.snaps[0]
	return fmt.Sprintf("%s%02d%04d", s.Basin, s.StormID, s.Date.Year())
}

// StormName returns the last non-empty storm name on the track.
func (t *Track) StormName() string {
	name := ""
	for _, s := range t.snaps {
		if s.StormName != "" {
			name = s.StormName
		}
	}
	return name
}

// Clone returns a deep copy of the track.
func (t *Track) Clone() *Track {
	c := &Track{snaps: make([]Snap, len(t.snaps))}
	for i := range t.snaps {
		c.snaps[i] = t.snaps[i].Clone()
	}
	return c
}

// Write emits the track in the GAHM-extended layout, one line per isotach.
func (t *Track) Write(w io.Writer) error {
	if len(t.snaps) == 0 {
		return ErrNoSnaps
	}
	bw := bufio.NewWriter(w)
	start := t.snaps[0].Date
	for i := range t.snaps {
		s := &t.snaps[i]
		for j := range s.Isotachs {
			if _, err := fmt.Fprintln(bw, s.Format(i+1, start, j)); err != nil {
				return fmt.Errorf("write atcf: %w", err)
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes the track to path.
func (t *Track) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create atcf file: %w", err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Hash returns a stable SHA-256 digest of raw track bytes, used to key
// caches of solved tracks.
func Hash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
