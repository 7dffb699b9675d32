package usecase

import (
	"math"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
)

// defaultMatchKPIs is the full KPI request set, covering every portal tab so
// raw_kpis stays complete even where the normalized schema picks a subset.
// Codes suffixed ":opponent" are the opposition mirrors embedded in the
// tracked squad's own payload.
var defaultMatchKPIs = []string{
	// xG / threat
	"pxtPosSum", "PACKING_NSXG", "PACKING_XG", "POSTSHOT_XG",
	// ball progression (packing)
	"OFFENSIVE_PLAY_DZ", "OFFENSIVE_PLAY", "REMOVE_OPPONENTS_DZ", "REMOVE_OPPONENTS",
	"CRITICAL_BALL_LOSS_NUMBER", "REMOVE_TEAMMATES",
	// ratios
	"reversePlayRatio", "addOpponentsRatio", "offensivePlayPerRemovedTeammates",
	"addTeammatesRatio", "addTeammatesDefendersRatio", "removeOpponentsRatio",
	// opposition mirrors
	"OFFENSIVE_PLAY_DZ:opponent", "OFFENSIVE_PLAY:opponent",
	// possession and passing
	"ballPossessionRatio", "passRatio", "successfulPassesClean", "unsuccessfulPassesClean",
	"duelsRatio", "groundDuelsRatio", "WON_GROUND_DUELS",
	"aerialDuelsRatio", "WON_AERIAL_DUELS",
	"SHOT_AT_GOAL_NUMBER", "SHOT_AT_GOAL_NUMBER_ON_TARGET",
	"SECOND_BALL_WIN", "SECOND_BALL_WIN:opponent", "secondBallWinsPercent",
	// pressing
	"oppGkUnderPressurePercent", "meanPressureHeight", "meanPressureOppDef",
	"forcedHighPassesPercent", "meanPressureBtl",
}

// Codes whose spelling drifted between provider export generations. The
// current camelCase code is tried first, the legacy variant second.
var (
	goalThreatKeys   = []string{"pxtPosSum", "PXT_POS_SUM"}
	counterPressKeys = []string{"meanPressureBtl", "MEAN_PRESSURE_BTL"}
)

// DefaultMatchKPIs returns a copy of the standard KPI request set.
func DefaultMatchKPIs() []string {
	return append([]string(nil), defaultMatchKPIs...)
}

// NormalizeMatch maps the raw KPI payloads of one fixture onto the reporting
// schema. Pure: no I/O, no clock, inputs are never mutated. Absent codes
// resolve to zero; opposition metrics prefer the opponent's own payload and
// fall back to the ":opponent" mirrors in the subject payload.
func NormalizeMatch(fx matchdata.Fixture, subject, opponent map[string]float64, opponentName string, opponentSquadID int64) matchdata.Match {
	return matchdata.Match{
		MatchID:         fx.MatchID,
		Matchday:        fx.Matchday,
		Date:            fx.Date,
		Venue:           fx.Venue,
		Result:          fx.Result(),
		GoalsFor:        fx.GoalsFor,
		GoalsAgainst:    fx.GoalsAgainst,
		Opponent:        opponentName,
		OpponentSquadID: opponentSquadID,
		Metrics: matchdata.Metrics{
			ExpectedGoals: matchdata.ExpectedGoals{
				PackingXG:           roundTo(kpiAny(subject, "PACKING_XG"), 2),
				ShotBasedXG:         roundTo(kpiAny(subject, "PACKING_NSXG"), 2),
				PostShotXG:          roundTo(kpiAny(subject, "POSTSHOT_XG"), 2),
				DevelopedGoalThreat: roundTo(kpiAny(subject, goalThreatKeys...), 2),
			},
			Buildup: matchdata.Buildup{
				BallProgression:         roundTo(kpiAny(subject, "OFFENSIVE_PLAY"), 1),
				BreakingOpponentDefence: roundTo(kpiAny(subject, "OFFENSIVE_PLAY_DZ"), 1),
				DefensiveBallControl:    roundTo(kpiAny(subject, "REMOVE_TEAMMATES"), 1),
				CriticalBallLoss:        roundToInt(kpiAny(subject, "CRITICAL_BALL_LOSS_NUMBER")),
				OffensiveInterventions:  roundTo(kpiAny(subject, "REMOVE_OPPONENTS"), 1),
			},
			Opponent: matchdata.OpponentPlay{
				BallProgression: roundTo(kpiCross(opponent, "OFFENSIVE_PLAY", subject, "OFFENSIVE_PLAY:opponent"), 1),
				BreakingDefence: roundTo(kpiCross(opponent, "OFFENSIVE_PLAY_DZ", subject, "OFFENSIVE_PLAY_DZ:opponent"), 1),
			},
			Possession: matchdata.Possession{
				BallPossessionRate: roundTo(kpiAny(subject, "ballPossessionRatio"), 3),
				PassingAccuracy:    roundTo(kpiAny(subject, "passRatio"), 3),
				SuccessfulPasses:   roundToInt(kpiAny(subject, "successfulPassesClean")),
				UnsuccessfulPasses: roundToInt(kpiAny(subject, "unsuccessfulPassesClean")),
			},
			Duels: matchdata.Duels{
				DuelRate:          roundTo(kpiAny(subject, "duelsRatio"), 3),
				GroundDuelSuccess: roundTo(kpiAny(subject, "groundDuelsRatio"), 3),
				AerialDuelSuccess: roundTo(kpiAny(subject, "aerialDuelsRatio"), 3),
			},
			Shots: matchdata.Shots{
				TotalShots:    roundToInt(kpiAny(subject, "SHOT_AT_GOAL_NUMBER")),
				ShotsOnTarget: roundToInt(kpiAny(subject, "SHOT_AT_GOAL_NUMBER_ON_TARGET")),
			},
			Pressing: matchdata.Pressing{
				PressuringGKPct:         roundTo(kpiAny(subject, "oppGkUnderPressurePercent"), 2),
				AvgPressureHeightM:      roundTo(kpiAny(subject, "meanPressureHeight"), 1),
				AvgPressureBuildup:      roundTo(kpiAny(subject, "meanPressureOppDef"), 2),
				ForcedHighPassesPct:     roundTo(kpiAny(subject, "forcedHighPassesPercent"), 2),
				AvgPressureCounterPress: roundTo(kpiAny(subject, counterPressKeys...), 2),
			},
			Ratios: matchdata.Ratios{
				ReversePlay:                  roundTo(kpiAny(subject, "reversePlayRatio"), 3),
				AddOpponents:                 roundTo(kpiAny(subject, "addOpponentsRatio"), 3),
				RemoveOpponents:              roundTo(kpiAny(subject, "removeOpponentsRatio"), 3),
				OffensivePerRemovedTeammates: roundTo(kpiAny(subject, "offensivePlayPerRemovedTeammates"), 3),
			},
		},
		RawKPIs: cloneKPIs(subject),
	}
}

// kpiAny returns the first candidate code present in the payload, zero when
// none is.
func kpiAny(kpis map[string]float64, keys ...string) float64 {
	for _, key := range keys {
		if v, ok := kpis[key]; ok {
			return v
		}
	}
	return 0
}

// kpiCross prefers the counterpart payload's own code and falls back to the
// mirror code embedded in the subject payload.
func kpiCross(primary map[string]float64, primaryKey string, fallback map[string]float64, fallbackKey string) float64 {
	if v, ok := primary[primaryKey]; ok {
		return v
	}
	if v, ok := fallback[fallbackKey]; ok {
		return v
	}
	return 0
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

func roundToInt(v float64) int {
	return int(math.Round(v))
}

func cloneKPIs(src map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
