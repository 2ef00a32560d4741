package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/flicker/internal/export"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes one headless render.
type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	FPS       int                `json:"fps"`
	Frames    int                `json:"frames"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Format    string             `json:"format"`
	Artefact  string             `json:"artefact"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Save allocates a run directory, lets write produce the artefact inside
// it and records the metadata. meta.ID, Timestamp and Artefact are filled
// in.
func (s *Store) Save(meta RunMetadata, write func(path string) error) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	meta.Timestamp = s.now()
	runID, runDir, err := s.allocate(meta.Preset, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID
	meta.Artefact = "render." + meta.Format

	if write != nil {
		if err := write(filepath.Join(runDir, meta.Artefact)); err != nil {
			return "", fmt.Errorf("run %s: %w", runID, err)
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return runID, metaFile.Close()
}

// allocate creates a fresh directory named after the preset and time,
// adding a counter when that name is taken.
func (s *Store) allocate(preset string, ts time.Time) (string, string, error) {
	if preset == "" {
		preset = "run"
	}
	base := fmt.Sprintf("%s_%d", preset, ts.Unix())
	for i := 0; ; i++ {
		id := base
		if i > 0 {
			id = fmt.Sprintf("%s_%d", base, i)
		}
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", "", err
		}
	}
}

// ArtefactPath is where the run's rendered output lives.
func (s *Store) ArtefactPath(meta *RunMetadata) string {
	return filepath.Join(s.baseDir, meta.ID, meta.Artefact)
}

// List returns every readable run, oldest first.
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
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveSeries stores per-frame metric samples next to a run.
func (s *Store) SaveSeries(runID string, series []export.Series) error {
	file, err := os.Create(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"frame"}
	rows := 0
	for _, ser := range series {
		header = append(header, ser.Name)
		rows = max(rows, len(ser.Values))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		row := []string{strconv.Itoa(i)}
		for _, ser := range series {
			val := "0"
			if i < len(ser.Values) {
				val = strconv.FormatFloat(ser.Values[i], 'f', 6, 64)
			}
			row = append(row, val)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return file.Close()
}

func (s *Store) LoadSeries(runID string) ([]export.Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []export.Series{}, nil
	}

	series := make([]export.Series, len(records[0])-1)
	for i, name := range records[0][1:] {
		series[i] = export.Series{Name: name, Values: make([]float64, 0, len(records)-1)}
	}
	for _, record := range records[1:] {
		for i := range series {
			val, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", series[i].Name, err)
			}
			series[i].Values = append(series[i].Values, val)
		}
	}
	return series, nil
}
