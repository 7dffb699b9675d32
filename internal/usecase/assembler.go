package usecase

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
)

// datasetSource names the upstream in the persisted document.
const datasetSource = "Impect Analysis API"

var datasetValidator = validator.New()

// BuildDataset assembles the whole persisted document from one sync run.
// Matches are re-ordered by ascending matchday regardless of completion
// order; the summary is folded from the final list only, so it cannot
// drift from the matches it describes. A run without a single match is a
// consistency failure: the caller must keep the previous document.
func BuildDataset(
	identity matchdata.TeamIdentity,
	matches []matchdata.Match,
	players []matchdata.Player,
	seasonAverages map[string]float64,
	now time.Time,
) (*matchdata.Dataset, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: refusing to replace the previous dataset", ErrEmptyDataset)
	}

	ordered := append([]matchdata.Match(nil), matches...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Matchday < ordered[j].Matchday
	})

	roster := append([]matchdata.Player(nil), players...)
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].ID < roster[j].ID
	})
	if roster == nil {
		roster = []matchdata.Player{}
	}

	ds := &matchdata.Dataset{
		Team:                   identity.Team,
		TeamID:                 identity.SquadID,
		Season:                 identity.Season,
		Competition:            identity.Competition,
		CompetitionIterationID: identity.CompetitionIterationID,
		DataSource:             datasetSource,
		LastSync:               now.UTC().Format(time.RFC3339),
		Matches:                ordered,
		Players:                roster,
		SeasonAverages:         seasonAverages,
		Summary:                foldSummary(ordered),
	}

	if err := datasetValidator.Struct(ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	return ds, nil
}

// VerifyDataset re-checks an already persisted document: structural
// validation plus the summary invariants the fold guarantees at build time.
func VerifyDataset(ds *matchdata.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: document is empty", ErrInvalidDataset)
	}
	if err := datasetValidator.Struct(ds); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	want := foldSummary(ds.Matches)
	got := ds.Summary
	if got.TotalMatches != len(ds.Matches) {
		return fmt.Errorf("%w: total_matches=%d but %d matches present", ErrInvalidDataset, got.TotalMatches, len(ds.Matches))
	}
	if got.Record != want.Record {
		return fmt.Errorf("%w: record %+v does not fold from matches (want %+v)", ErrInvalidDataset, got.Record, want.Record)
	}
	if got.GoalsFor != want.GoalsFor || got.GoalsAgainst != want.GoalsAgainst {
		return fmt.Errorf("%w: goal totals %d-%d do not fold from matches (want %d-%d)",
			ErrInvalidDataset, got.GoalsFor, got.GoalsAgainst, want.GoalsFor, want.GoalsAgainst)
	}
	return nil
}

func foldSummary(matches []matchdata.Match) matchdata.Summary {
	summary := matchdata.Summary{TotalMatches: len(matches)}

	var sumXG, sumPossession, sumPassAccuracy float64
	for _, m := range matches {
		switch {
		case m.GoalsFor > m.GoalsAgainst:
			summary.Record.Wins++
		case m.GoalsFor < m.GoalsAgainst:
			summary.Record.Losses++
		default:
			summary.Record.Draws++
		}
		summary.GoalsFor += m.GoalsFor
		summary.GoalsAgainst += m.GoalsAgainst

		sumXG += m.Metrics.ExpectedGoals.PackingXG
		sumPossession += m.Metrics.Possession.BallPossessionRate
		sumPassAccuracy += m.Metrics.Possession.PassingAccuracy
	}

	if n := float64(len(matches)); n > 0 {
		summary.AvgXG = roundTo(sumXG/n, 2)
		summary.AvgPossession = roundTo(sumPossession/n, 3)
		summary.AvgPassAccuracy = roundTo(sumPassAccuracy/n, 3)
	}
	return summary
}
