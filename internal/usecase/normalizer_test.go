package usecase

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
)

func testFixture() matchdata.Fixture {
	return matchdata.Fixture{
		MatchID:      234102,
		Matchday:     5,
		Date:         "2025-10-26",
		Venue:        matchdata.VenueAway,
		GoalsFor:     2,
		GoalsAgainst: 1,
	}
}

func testSubjectKPIs() map[string]float64 {
	return map[string]float64{
		"PACKING_XG":                       1.2345,
		"PACKING_NSXG":                     0.91,
		"POSTSHOT_XG":                      1.406,
		"pxtPosSum":                        2.718,
		"OFFENSIVE_PLAY":                   145.67,
		"OFFENSIVE_PLAY_DZ":                38.24,
		"REMOVE_TEAMMATES":                 201.18,
		"CRITICAL_BALL_LOSS_NUMBER":        7.6,
		"REMOVE_OPPONENTS":                 96.42,
		"OFFENSIVE_PLAY:opponent":          111.11,
		"OFFENSIVE_PLAY_DZ:opponent":       22.22,
		"ballPossessionRatio":              0.5432,
		"passRatio":                        0.8671,
		"successfulPassesClean":            412.3,
		"unsuccessfulPassesClean":          63.8,
		"duelsRatio":                       0.5128,
		"groundDuelsRatio":                 0.5511,
		"aerialDuelsRatio":                 0.4362,
		"SHOT_AT_GOAL_NUMBER":              13.2,
		"SHOT_AT_GOAL_NUMBER_ON_TARGET":    5.9,
		"oppGkUnderPressurePercent":        0.3141,
		"meanPressureHeight":               42.36,
		"meanPressureOppDef":               18.273,
		"forcedHighPassesPercent":          0.2222,
		"meanPressureBtl":                  33.333,
		"reversePlayRatio":                 0.1234,
		"addOpponentsRatio":                0.4567,
		"removeOpponentsRatio":             0.7891,
		"offensivePlayPerRemovedTeammates": 1.2346,
	}
}

func TestNormalizeMatchSchema(t *testing.T) {
	t.Parallel()

	fx := testFixture()
	subject := testSubjectKPIs()
	opponent := map[string]float64{
		"OFFENSIVE_PLAY":    123.45,
		"OFFENSIVE_PLAY_DZ": 45.67,
	}

	match := NormalizeMatch(fx, subject, opponent, "Sydney FC", 6380)

	require.Equal(t, int64(234102), match.MatchID)
	require.Equal(t, 5, match.Matchday)
	require.Equal(t, "2025-10-26", match.Date)
	require.Equal(t, matchdata.VenueAway, match.Venue)
	require.Equal(t, "W 2-1", match.Result)
	require.Equal(t, "Sydney FC", match.Opponent)
	require.Equal(t, int64(6380), match.OpponentSquadID)

	m := match.Metrics
	require.Equal(t, 1.23, m.ExpectedGoals.PackingXG)
	require.Equal(t, 0.91, m.ExpectedGoals.ShotBasedXG)
	require.Equal(t, 1.41, m.ExpectedGoals.PostShotXG)
	require.Equal(t, 2.72, m.ExpectedGoals.DevelopedGoalThreat)

	require.Equal(t, 145.7, m.Buildup.BallProgression)
	require.Equal(t, 38.2, m.Buildup.BreakingOpponentDefence)
	require.Equal(t, 201.2, m.Buildup.DefensiveBallControl)
	require.Equal(t, 8, m.Buildup.CriticalBallLoss)
	require.Equal(t, 96.4, m.Buildup.OffensiveInterventions)

	// opponent entry present, so its own codes win over the mirrors
	require.Equal(t, 123.5, m.Opponent.BallProgression)
	require.Equal(t, 45.7, m.Opponent.BreakingDefence)

	require.Equal(t, 0.543, m.Possession.BallPossessionRate)
	require.Equal(t, 0.867, m.Possession.PassingAccuracy)
	require.Equal(t, 412, m.Possession.SuccessfulPasses)
	require.Equal(t, 64, m.Possession.UnsuccessfulPasses)

	require.Equal(t, 0.513, m.Duels.DuelRate)
	require.Equal(t, 0.551, m.Duels.GroundDuelSuccess)
	require.Equal(t, 0.436, m.Duels.AerialDuelSuccess)

	require.Equal(t, 13, m.Shots.TotalShots)
	require.Equal(t, 6, m.Shots.ShotsOnTarget)

	require.Equal(t, 0.31, m.Pressing.PressuringGKPct)
	require.Equal(t, 42.4, m.Pressing.AvgPressureHeightM)
	require.Equal(t, 18.27, m.Pressing.AvgPressureBuildup)
	require.Equal(t, 0.22, m.Pressing.ForcedHighPassesPct)
	require.Equal(t, 33.33, m.Pressing.AvgPressureCounterPress)

	require.Equal(t, 0.123, m.Ratios.ReversePlay)
	require.Equal(t, 0.457, m.Ratios.AddOpponents)
	require.Equal(t, 0.789, m.Ratios.RemoveOpponents)
	require.Equal(t, 1.235, m.Ratios.OffensivePerRemovedTeammates)

	require.Equal(t, subject, match.RawKPIs)
}

func TestNormalizeMatchOpponentMirrorFallback(t *testing.T) {
	t.Parallel()

	match := NormalizeMatch(testFixture(), testSubjectKPIs(), nil, "Sydney FC", 6380)

	// no opponent payload: the ":opponent" mirrors in the subject payload apply
	if got := match.Metrics.Opponent.BallProgression; got != 111.1 {
		t.Fatalf("opponent ball progression = %v, want 111.1", got)
	}
	if got := match.Metrics.Opponent.BreakingDefence; got != 22.2 {
		t.Fatalf("opponent breaking defence = %v, want 22.2", got)
	}
}

func TestNormalizeMatchAliasFallback(t *testing.T) {
	t.Parallel()

	fx := testFixture()

	legacyOnly := map[string]float64{
		"MEAN_PRESSURE_BTL": 28.456,
		"PXT_POS_SUM":       1.987,
	}
	match := NormalizeMatch(fx, legacyOnly, nil, "", 0)
	if got := match.Metrics.Pressing.AvgPressureCounterPress; got != 28.46 {
		t.Fatalf("legacy counter-press code not picked up: got %v, want 28.46", got)
	}
	if got := match.Metrics.ExpectedGoals.DevelopedGoalThreat; got != 1.99 {
		t.Fatalf("legacy goal threat code not picked up: got %v, want 1.99", got)
	}

	bothForms := map[string]float64{
		"meanPressureBtl":   30,
		"MEAN_PRESSURE_BTL": 99,
	}
	match = NormalizeMatch(fx, bothForms, nil, "", 0)
	if got := match.Metrics.Pressing.AvgPressureCounterPress; got != 30 {
		t.Fatalf("current code must win over legacy: got %v, want 30", got)
	}

	match = NormalizeMatch(fx, map[string]float64{}, nil, "", 0)
	if got := match.Metrics.Pressing.AvgPressureCounterPress; got != 0 {
		t.Fatalf("absent codes must default to zero: got %v", got)
	}
}

func TestNormalizeMatchIsPure(t *testing.T) {
	t.Parallel()

	fx := testFixture()
	subject := testSubjectKPIs()
	opponent := map[string]float64{"OFFENSIVE_PLAY": 100}

	subjectBefore := make(map[string]float64, len(subject))
	for k, v := range subject {
		subjectBefore[k] = v
	}

	first := NormalizeMatch(fx, subject, opponent, "Sydney FC", 6380)
	second := NormalizeMatch(fx, subject, opponent, "Sydney FC", 6380)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("normalizing the same inputs twice must produce identical matches")
	}
	if !reflect.DeepEqual(subject, subjectBefore) {
		t.Fatal("subject payload was mutated")
	}

	// the retained raw payload is a copy, not an alias
	first.RawKPIs["PACKING_XG"] = -1
	if subject["PACKING_XG"] == -1 {
		t.Fatal("raw_kpis aliases the input payload")
	}
}

func TestDefaultMatchKPIs(t *testing.T) {
	t.Parallel()

	kpis := DefaultMatchKPIs()
	if len(kpis) != len(defaultMatchKPIs) {
		t.Fatalf("expected %d codes, got=%d", len(defaultMatchKPIs), len(kpis))
	}

	kpis[0] = "tampered"
	if DefaultMatchKPIs()[0] == "tampered" {
		t.Fatal("DefaultMatchKPIs must return a copy")
	}
}

func TestRoundingHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v        float64
		decimals int
		want     float64
	}{
		{1.2345, 2, 1.23},
		{45.67, 1, 45.7},
		{0.5555, 3, 0.556},
		{-1.25, 1, -1.3},
		{0, 3, 0},
	}
	for _, tc := range tests {
		if got := roundTo(tc.v, tc.decimals); got != tc.want {
			t.Fatalf("roundTo(%v, %d) = %v, want %v", tc.v, tc.decimals, got, tc.want)
		}
	}

	if got := roundToInt(7.5); got != 8 {
		t.Fatalf("roundToInt(7.5) = %d, want 8", got)
	}
	if got := roundToInt(-1.5); got != -2 {
		t.Fatalf("roundToInt(-1.5) = %d, want -2", got)
	}
}
