package file

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
	"github.com/clubgpt/clubsync/internal/platform/logging"
)

func sampleDataset(lastSync string) *matchdata.Dataset {
	return &matchdata.Dataset{
		Team:                   "Brisbane Roar",
		TeamID:                 6375,
		Season:                 "2025-26",
		Competition:            "A-League Men",
		CompetitionIterationID: 1608,
		DataSource:             "Impect Analysis API",
		LastSync:               lastSync,
		Matches: []matchdata.Match{
			{
				MatchID:         249714,
				Matchday:        1,
				Date:            "2025-10-26",
				Venue:           matchdata.VenueAway,
				Result:          "L 1-2",
				GoalsFor:        1,
				GoalsAgainst:    2,
				Opponent:        "Melbourne Victory",
				OpponentSquadID: 6380,
				RawKPIs:         map[string]float64{"zebra": 1, "alpha": 2},
			},
		},
		Players: []matchdata.Player{
			{ID: 101, Name: "Jay O'Shea", ShortName: "J. O'Shea"},
		},
		Summary: matchdata.Summary{
			TotalMatches: 1,
			Record:       matchdata.Record{Losses: 1},
			GoalsFor:     1,
			GoalsAgainst: 2,
		},
	}
}

func TestDatasetRepositorySaveAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matches.json")
	repo := NewDatasetRepository(path, logging.NewNop())

	want := sampleDataset("2026-08-25T10:00:00Z")
	if err := repo.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("roundtrip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestDatasetRepositorySave_FormatsDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matches.json")
	repo := NewDatasetRepository(path, logging.NewNop())

	if err := repo.Save(context.Background(), sampleDataset("2026-08-25T10:00:00Z")); err != nil {
		t.Fatalf("save: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	text := string(raw)

	if !strings.HasPrefix(text, "{\n  \"team\":") {
		t.Fatalf("expected two-space indented document, got prefix %q", text[:40])
	}
	if !strings.HasSuffix(text, "}\n") {
		t.Fatalf("expected trailing newline, got suffix %q", text[len(text)-4:])
	}

	// Map keys must serialize sorted so reruns diff cleanly.
	alphaAt := strings.Index(text, `"alpha"`)
	zebraAt := strings.Index(text, `"zebra"`)
	if alphaAt < 0 || zebraAt < 0 || alphaAt > zebraAt {
		t.Fatalf("expected sorted raw_kpis keys, alpha=%d zebra=%d", alphaAt, zebraAt)
	}
}

func TestDatasetRepositorySave_ReplacesAtomically(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "matches.json")
	repo := NewDatasetRepository(path, logging.NewNop())

	if err := repo.Save(context.Background(), sampleDataset("2026-08-24T10:00:00Z")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	second := sampleDataset("2026-08-25T10:00:00Z")
	if err := repo.Save(context.Background(), second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LastSync != second.LastSync {
		t.Fatalf("expected replaced document, got last_sync %s", got.LastSync)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp.") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestDatasetRepositorySave_EncodeFailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "matches.json")
	repo := NewDatasetRepository(path, logging.NewNop())

	if err := repo.Save(context.Background(), sampleDataset("2026-08-24T10:00:00Z")); err != nil {
		t.Fatalf("first save: %v", err)
	}

	broken := sampleDataset("2026-08-25T10:00:00Z")
	broken.Matches[0].RawKPIs["bad"] = math.NaN()
	if err := repo.Save(context.Background(), broken); err == nil {
		t.Fatalf("expected encode failure for NaN value")
	}

	got, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load after failed save: %v", err)
	}
	if got.LastSync != "2026-08-24T10:00:00Z" {
		t.Fatalf("previous document not preserved, got last_sync %s", got.LastSync)
	}
}

func TestDatasetRepositorySave_CreatesParentDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "nested", "matches.json")
	repo := NewDatasetRepository(path, logging.NewNop())

	if err := repo.Save(context.Background(), sampleDataset("2026-08-25T10:00:00Z")); err != nil {
		t.Fatalf("save into nested path: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat saved file: %v", err)
	}
}

func TestDatasetRepositoryLoad_MissingFile(t *testing.T) {
	t.Parallel()

	repo := NewDatasetRepository(filepath.Join(t.TempDir(), "missing.json"), logging.NewNop())

	_, err := repo.Load(context.Background())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}
