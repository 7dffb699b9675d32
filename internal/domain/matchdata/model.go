// Package matchdata holds the team performance dataset model: the
// hand-maintained fixture table, the normalized per-match metrics, and the
// assembled document written for the downstream report layer.
package matchdata

import "fmt"

const (
	VenueHome = "home"
	VenueAway = "away"
)

// Fixture is one entry of the hand-maintained schedule for the tracked
// squad: portal-scraped identity plus the final score.
type Fixture struct {
	MatchID      int64
	Matchday     int
	Date         string // YYYY-MM-DD
	Venue        string
	GoalsFor     int
	GoalsAgainst int
}

// Result renders the final score from the tracked squad's point of view,
// e.g. "W 2-1", "D 0-0", "L 0-3". The letter is always computed from the
// goals, never taken from upstream.
func (f Fixture) Result() string {
	letter := "D"
	switch {
	case f.GoalsFor > f.GoalsAgainst:
		letter = "W"
	case f.GoalsFor < f.GoalsAgainst:
		letter = "L"
	}
	return fmt.Sprintf("%s %d-%d", letter, f.GoalsFor, f.GoalsAgainst)
}

// TeamIdentity pins a dataset to one squad and competition iteration.
type TeamIdentity struct {
	Team                   string
	SquadID                int64
	Season                 string
	Competition            string
	CompetitionIterationID int64
}

// Match is one synced match inside the dataset document. Field names are the
// on-disk contract read by the report layer.
type Match struct {
	MatchID         int64              `json:"match_id" validate:"required"`
	Matchday        int                `json:"matchday" validate:"min=1"`
	Date            string             `json:"date"`
	Venue           string             `json:"venue"`
	Result          string             `json:"result" validate:"required"`
	GoalsFor        int                `json:"goals_for" validate:"min=0"`
	GoalsAgainst    int                `json:"goals_against" validate:"min=0"`
	Opponent        string             `json:"opponent"`
	OpponentSquadID int64              `json:"opponent_squad_id"`
	Metrics         Metrics            `json:"metrics"`
	RawKPIs         map[string]float64 `json:"raw_kpis"`
}

// Metrics groups the normalized KPI schema by reporting category.
type Metrics struct {
	ExpectedGoals ExpectedGoals `json:"expected_goals"`
	Buildup       Buildup       `json:"buildup"`
	Opponent      OpponentPlay  `json:"opponent"`
	Possession    Possession    `json:"possession"`
	Duels         Duels         `json:"duels"`
	Shots         Shots         `json:"shots"`
	Pressing      Pressing      `json:"pressing"`
	Ratios        Ratios        `json:"ratios"`
}

type ExpectedGoals struct {
	PackingXG           float64 `json:"packing_xg"`
	ShotBasedXG         float64 `json:"shot_based_xg"`
	PostShotXG          float64 `json:"post_shot_xg"`
	DevelopedGoalThreat float64 `json:"developed_goal_threat"`
}

type Buildup struct {
	BallProgression         float64 `json:"ball_progression"`
	BreakingOpponentDefence float64 `json:"breaking_opponent_defence"`
	DefensiveBallControl    float64 `json:"defensive_ball_control"`
	CriticalBallLoss        int     `json:"critical_ball_loss"`
	OffensiveInterventions  float64 `json:"offensive_interventions"`
}

// OpponentPlay carries the opposition's progression numbers for the same
// match, sourced from their performance entry when present.
type OpponentPlay struct {
	BallProgression float64 `json:"opponent_ball_progression"`
	BreakingDefence float64 `json:"opponent_breaking_defence"`
}

type Possession struct {
	BallPossessionRate float64 `json:"ball_possession_rate"`
	PassingAccuracy    float64 `json:"passing_accuracy"`
	SuccessfulPasses   int     `json:"successful_passes"`
	UnsuccessfulPasses int     `json:"unsuccessful_passes"`
}

type Duels struct {
	DuelRate          float64 `json:"duel_rate"`
	GroundDuelSuccess float64 `json:"ground_duel_success"`
	AerialDuelSuccess float64 `json:"aerial_duel_success"`
}

type Shots struct {
	TotalShots    int `json:"total_shots"`
	ShotsOnTarget int `json:"shots_on_target"`
}

type Pressing struct {
	PressuringGKPct         float64 `json:"pressuring_gk_pct"`
	AvgPressureHeightM      float64 `json:"avg_pressure_height_m"`
	AvgPressureBuildup      float64 `json:"avg_pressure_buildup"`
	ForcedHighPassesPct     float64 `json:"forced_high_passes_pct"`
	AvgPressureCounterPress float64 `json:"avg_pressure_counter_press"`
}

type Ratios struct {
	ReversePlay                  float64 `json:"reverse_play"`
	AddOpponents                 float64 `json:"add_opponents"`
	RemoveOpponents              float64 `json:"remove_opponents"`
	OffensivePerRemovedTeammates float64 `json:"offensive_per_removed_teammates"`
}

// Player is one roster entry. Height is a pointer because the provider omits
// it for some players and the document keeps the null.
type Player struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ShortName     string `json:"short_name"`
	BirthDate     string `json:"birth_date"`
	Height        *int   `json:"height"`
	PreferredFoot string `json:"preferred_foot"`
}

// Summary is derived by folding the final match list, never fetched, so it
// cannot drift from the matches it describes.
type Summary struct {
	TotalMatches    int     `json:"total_matches"`
	Record          Record  `json:"record"`
	GoalsFor        int     `json:"goals_for"`
	GoalsAgainst    int     `json:"goals_against"`
	AvgXG           float64 `json:"avg_xg"`
	AvgPossession   float64 `json:"avg_possession"`
	AvgPassAccuracy float64 `json:"avg_pass_accuracy"`
}

type Record struct {
	Wins   int `json:"wins"`
	Draws  int `json:"draws"`
	Losses int `json:"losses"`
}

// Dataset is the whole persisted document. It is always replaced as a unit.
type Dataset struct {
	Team                   string             `json:"team" validate:"required"`
	TeamID                 int64              `json:"team_id" validate:"required"`
	Season                 string             `json:"season" validate:"required"`
	Competition            string             `json:"competition" validate:"required"`
	CompetitionIterationID int64              `json:"competition_iteration_id" validate:"required"`
	DataSource             string             `json:"data_source" validate:"required"`
	LastSync               string             `json:"last_sync" validate:"required"`
	Matches                []Match            `json:"matches" validate:"required,min=1,dive"`
	Players                []Player           `json:"players"`
	SeasonAverages         map[string]float64 `json:"season_averages,omitempty"`
	Summary                Summary            `json:"summary"`
}
