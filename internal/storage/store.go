// Package storage persists solved runs as a metadata document plus the
// tabulated integrals, one directory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/facette/natsort"
	"github.com/google/uuid"

	"github.com/san-kum/expcgm/internal/profile"
	"github.com/san-kum/expcgm/internal/solver"
)

const (
	metadataFile = "metadata.json"
	profileFile  = "profile.csv"
)

var ErrRunNotFound = errors.New("run not found")

var profileHeader = []string{"x", "F", "I", "J_phi", "J_th", "J_nt", "norm"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Failure records a target with no equilibrium.
type Failure struct {
	Target float64 `json:"target"`
	Error  string  `json:"error"`
}

type RunMetadata struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Timestamp   time.Time             `json:"timestamp"`
	Shape       string                `json:"shape"`
	Potential   string                `json:"potential"`
	Integrator  string                `json:"integrator"`
	Params      map[string]float64    `json:"params"`
	Equilibria  []profile.Equilibrium `json:"equilibria"`
	Failures    []Failure             `json:"failures,omitempty"`
	Diagnostics solver.Diagnostics    `json:"diagnostics"`
}

// Save writes meta and the rows of tab under a fresh run ID, which is
// returned. ID and Timestamp of meta are overwritten.
func (s *Store) Save(meta RunMetadata, tab *solver.Table) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("%s_%d_%s", meta.Name, now.Unix(), uuid.NewString()[:8])
	meta.Timestamp = now
	if tab != nil {
		meta.Diagnostics = tab.Diagnostics()
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, meta, tab); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return meta.ID, nil
}

// writeRun writes the profile before the metadata, so a directory that
// List can read always holds a complete run.
func writeRun(runDir string, meta RunMetadata, tab *solver.Table) error {
	if tab != nil {
		f, err := os.Create(filepath.Join(runDir, profileFile))
		if err != nil {
			return err
		}
		defer f.Close()

		rows := make([]profile.Integrals, tab.Len())
		for i := range rows {
			rows[i] = tab.At(i)
		}
		if err := WriteProfile(f, rows); err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return writeJSON(filepath.Join(runDir, metadataFile), meta)
}

// List returns stored runs in natural ID order. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return natsort.Compare(runs[i].ID, runs[j].ID) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadProfile reads back the tabulated integrals of a run.
func (s *Store) LoadProfile(runID string) ([]profile.Integrals, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, profileFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s has no profile", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()
	return ReadProfile(f)
}

// WriteProfile writes rows as CSV with full float precision.
func WriteProfile(w io.Writer, rows []profile.Integrals) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(profileHeader); err != nil {
		return err
	}
	for _, r := range rows {
		row := []float64{r.X, r.F(), r.I, r.JPhi, r.JTh, r.JNt, r.Norm()}
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadProfile parses the output of WriteProfile. F and norm are derived
// columns and are not read back.
func ReadProfile(r io.Reader) ([]profile.Integrals, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(profileHeader)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("profile: missing header")
	}

	rows := make([]profile.Integrals, 0, len(records)-1)
	for n, record := range records[1:] {
		var v [7]float64
		for j, field := range record {
			v[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("profile line %d: %w", n+2, err)
			}
		}
		rows = append(rows, profile.Integrals{X: v[0], I: v[2], JPhi: v[3], JTh: v[4], JNt: v[5]})
	}
	return rows, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}
