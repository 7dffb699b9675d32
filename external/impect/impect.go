package impect

// Wire shapes for the Impect Analysis Portal. Every response wraps its
// payload in a {"data": ...} envelope.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type squadsEnvelope struct {
	Data []squadEntry `json:"data"`
}

type squadEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type playersEnvelope struct {
	Data []playerEntry `json:"data"`
}

type playerEntry struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	BirthDate string `json:"birthDate"`
	Height    *int   `json:"height"`
	Leg       string `json:"leg"`
}

// matchPerformanceRequest asks for one squad's KPI line in a single
// match, with the opponent's line included via compareWithMode.
type matchPerformanceRequest struct {
	KPIsAndScores          []string `json:"kpisAndScores"`
	MatchID                int64    `json:"matchId"`
	SquadID                int64    `json:"squadId"`
	CompetitionIterationID int64    `json:"competitionIterationId"`
	CompareWithMode        string   `json:"compareWithMode"`
}

// iterationPerformanceRequest asks for a squad's per-match averages
// across a whole competition iteration.
type iterationPerformanceRequest struct {
	KPIsAndScores          []string `json:"kpisAndScores"`
	SquadID                int64    `json:"squadId"`
	CompareSetSquadID      int64    `json:"compareSetSquadId"`
	CompetitionIterationID int64    `json:"competitionIterationId"`
	HomeAndAway            string   `json:"homeAndAway"`
	CompareSet             string   `json:"compareSet"`
}

type performancesEnvelope struct {
	Data performancesData `json:"data"`
}

type performancesData struct {
	Performances []performanceEntry `json:"performances"`
}

type performanceEntry struct {
	SquadID         int64              `json:"squadId"`
	OpponentSquadID int64              `json:"opponentSquadId"`
	MatchID         int64              `json:"matchId"`
	KPIs            map[string]kpiCell `json:"kpisAndScores"`
}

// kpiCell holds one KPI; the portal sends null for values it did not
// compute, which callers read as zero.
type kpiCell struct {
	Value *float64 `json:"value"`
}

func flattenKPIs(raw map[string]kpiCell) map[string]float64 {
	out := make(map[string]float64, len(raw))
	for code, cell := range raw {
		if cell.Value != nil {
			out[code] = *cell.Value
			continue
		}
		out[code] = 0
	}
	return out
}
