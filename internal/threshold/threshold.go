// Package threshold holds the per-label confidence cutoffs used to decide
// which detections are worth persisting.
package threshold

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// DefaultLabel is the mandatory fallback entry.
const DefaultLabel = "Default"

// DefaultCutoff is used when no table is configured at all.
const DefaultCutoff = 0.60

var (
	// ErrMissingDefault is returned when a table has no "Default" entry.
	ErrMissingDefault = errors.New("threshold table has no \"Default\" entry")
	// ErrOutOfRange is returned for cutoffs outside [0,1].
	ErrOutOfRange = errors.New("threshold out of range [0,1]")
)

// Table maps labels to minimum confidences. It is immutable after construction
// and safe for concurrent reads.
type Table struct {
	cutoffs map[string]float64
}

// New validates m and returns a Table holding a private copy of it.
func New(m map[string]float64) (*Table, error) {
	if _, ok := m[DefaultLabel]; !ok {
		return nil, ErrMissingDefault
	}

	cutoffs := make(map[string]float64, len(m))
	for label, v := range m {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("%w: %s=%v", ErrOutOfRange, label, v)
		}
		cutoffs[label] = v
	}
	return &Table{cutoffs: cutoffs}, nil
}

// Fallback returns the table used when nothing is configured.
func Fallback() *Table {
	return &Table{cutoffs: map[string]float64{DefaultLabel: DefaultCutoff}}
}

// Load builds a table from an optional JSON file and an optional inline override.
// Inline entries override file entries. With neither source the Fallback
// table is returned.
func Load(path, inline string) (*Table, error) {
	if path == "" && strings.TrimSpace(inline) == "" {
		return Fallback(), nil
	}

	m := make(map[string]float64)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read thresholds file: %w", err)
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse thresholds file %s: %w", path, err)
		}
	}

	overrides, err := ParseInline(inline)
	if err != nil {
		return nil, err
	}
	for label, v := range overrides {
		m[label] = v
	}

	// An inline-only override may omit Default; fall back to DefaultCutoff.
	if _, ok := m[DefaultLabel]; !ok && path == "" {
		m[DefaultLabel] = DefaultCutoff
	}
	return New(m)
}

// ParseInline parses "Keys=0.55,Wallet=0.01,Default=0.60".
func ParseInline(s string) (map[string]float64, error) {
	m := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		label, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid threshold entry %q: expected Label=value", part)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold value for %q: %w", label, err)
		}
		m[strings.TrimSpace(label)] = v
	}
	return m, nil
}

// Cutoff returns the threshold for label, falling back to Default.
func (t *Table) Cutoff(label string) float64 {
	if v, ok := t.cutoffs[label]; ok {
		return v
	}
	return t.cutoffs[DefaultLabel]
}

// Accepts reports whether a detection of label at confidence passes.
func (t *Table) Accepts(label string, confidence float64) bool {
	return confidence >= t.Cutoff(label)
}

// Labels lists the explicitly configured labels, Default included, sorted.
func (t *Table) Labels() []string {
	labels := make([]string, 0, len(t.cutoffs))
	for label := range t.cutoffs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Min returns the lowest configured cutoff.
func (t *Table) Min() float64 {
	lowest := t.cutoffs[DefaultLabel]
	for _, v := range t.cutoffs {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}
