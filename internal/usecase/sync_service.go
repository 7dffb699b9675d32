package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
	"github.com/clubgpt/clubsync/internal/platform/logging"
)

// PerformanceProvider is the upstream analysis API surface the sync needs.
type PerformanceProvider interface {
	Authenticate(ctx context.Context, username, password string) error
	SquadNames(ctx context.Context) (map[int64]string, error)
	SquadPlayers(ctx context.Context, squadID int64) ([]ExternalPlayer, error)
	MatchPerformance(ctx context.Context, matchID int64, kpis []string) (ExternalMatchPerformance, error)
	SeasonAverages(ctx context.Context, kpis []string) (map[string]float64, error)
}

// ExternalPlayer is one roster entry as the provider reports it.
type ExternalPlayer struct {
	ID        int64
	Name      string
	ShortName string
	BirthDate string
	Height    *int
	Leg       string
}

// ExternalSquadPerformance is one squad's KPI payload for one match.
type ExternalSquadPerformance struct {
	SquadID         int64
	OpponentSquadID int64
	MatchID         int64
	KPIs            map[string]float64
}

// ExternalMatchPerformance pairs the tracked squad's entry with the
// opposition's. Either side may be absent in the provider response.
type ExternalMatchPerformance struct {
	Subject  *ExternalSquadPerformance
	Opponent *ExternalSquadPerformance
}

// SyncStage is the phase a run last reached.
type SyncStage string

const (
	StageIdle           SyncStage = "idle"
	StageAuthenticating SyncStage = "authenticating"
	StageFetching       SyncStage = "fetching"
	StageAssembling     SyncStage = "assembling"
	StagePersisted      SyncStage = "persisted"
	StageFailed         SyncStage = "failed"
)

type SyncConfig struct {
	Username string
	Password string
	Identity matchdata.TeamIdentity
	// Fixtures defaults to the hand-maintained table when empty.
	Fixtures []matchdata.Fixture
	// KPIs defaults to DefaultMatchKPIs when empty.
	KPIs []string
	// Workers beyond 1 fetches matches on a bounded pool; the provider's
	// shared throttle still spaces the actual requests.
	Workers int
}

type SyncReport struct {
	Stage            SyncStage  `json:"stage"`
	MatchesRequested int        `json:"matches_requested"`
	MatchesSynced    int        `json:"matches_synced"`
	MatchesSkipped   int        `json:"matches_skipped"`
	Players          int        `json:"players"`
	WorkerCount      int        `json:"worker_count"`
	Skips            []SyncSkip `json:"skips,omitempty"`
	DurationMs       int64      `json:"duration_ms"`
}

type SyncSkip struct {
	MatchID int64  `json:"match_id"`
	Reason  string `json:"reason"`
}

func (r SyncReport) Summary() string {
	return fmt.Sprintf("stage=%s matches=%d/%d skipped=%d players=%d duration=%dms",
		r.Stage, r.MatchesSynced, r.MatchesRequested, r.MatchesSkipped, r.Players, r.DurationMs)
}

var errNoSubjectEntry = errors.New("no performance entry for tracked squad")

// SyncService runs the whole pipeline: authenticate, fetch, normalize,
// assemble, persist. Per-match failures are skipped; the run only fails as a
// whole on configuration, authentication, assembly, or persistence errors.
type SyncService struct {
	provider PerformanceProvider
	repo     matchdata.Repository
	cfg      SyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewSyncService(provider PerformanceProvider, repo matchdata.Repository, cfg SyncConfig, logger *logging.Logger) *SyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Identity == (matchdata.TeamIdentity{}) {
		cfg.Identity = matchdata.DefaultIdentity()
	}
	if len(cfg.Fixtures) == 0 {
		cfg.Fixtures = matchdata.SeedFixtures()
	}
	if len(cfg.KPIs) == 0 {
		cfg.KPIs = DefaultMatchKPIs()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	return &SyncService{
		provider: provider,
		repo:     repo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *SyncService) Run(ctx context.Context) (SyncReport, error) {
	ctx, span := startSyncSpan(ctx, "usecase.SyncService.Run")
	defer span.End()

	start := s.now()
	report := SyncReport{
		Stage:            StageIdle,
		MatchesRequested: len(s.cfg.Fixtures),
		WorkerCount:      s.cfg.Workers,
	}
	finish := func(stage SyncStage, err error) (SyncReport, error) {
		report.Stage = stage
		report.DurationMs = s.now().Sub(start).Milliseconds()
		return report, err
	}

	if s.provider == nil || s.repo == nil {
		return finish(StageFailed, errors.New("sync service is not fully wired"))
	}
	if strings.TrimSpace(s.cfg.Username) == "" || strings.TrimSpace(s.cfg.Password) == "" {
		return finish(StageFailed, fmt.Errorf("%w: IMPECT_USERNAME and IMPECT_PASSWORD must be set", ErrMissingCredentials))
	}
	if len(s.cfg.Fixtures) == 0 {
		return finish(StageFailed, ErrNothingToSync)
	}

	report.Stage = StageAuthenticating
	s.logger.InfoContext(ctx, "authenticating",
		"squad_id", s.cfg.Identity.SquadID,
		"competition_iteration_id", s.cfg.Identity.CompetitionIterationID,
	)
	if err := s.provider.Authenticate(ctx, s.cfg.Username, s.cfg.Password); err != nil {
		return finish(StageFailed, fmt.Errorf("authenticate: %w", err))
	}

	report.Stage = StageFetching
	names, players := s.fetchReferenceData(ctx)

	matches := s.fetchMatches(ctx, names, &report)
	if err := ctx.Err(); err != nil {
		return finish(StageFailed, err)
	}

	averages, err := s.provider.SeasonAverages(ctx, s.cfg.KPIs)
	if err != nil {
		s.logger.WarnContext(ctx, "season averages unavailable", "error", err)
		averages = nil
	}

	report.Stage = StageAssembling
	dataset, err := BuildDataset(s.cfg.Identity, matches, mapPlayers(players), averages, s.now())
	if err != nil {
		return finish(StageFailed, err)
	}
	report.MatchesSynced = len(dataset.Matches)
	report.Players = len(dataset.Players)

	if err := s.repo.Save(ctx, dataset); err != nil {
		return finish(StageFailed, fmt.Errorf("persist dataset: %w", err))
	}

	s.logger.InfoContext(ctx, "dataset persisted",
		"matches", report.MatchesSynced,
		"skipped", report.MatchesSkipped,
		"players", report.Players,
	)
	return finish(StagePersisted, nil)
}

// fetchReferenceData pulls the squad directory and the roster. Both are
// enrichment: a failed directory falls back to "Squad <id>" naming and a
// failed roster leaves the player list empty, with a warning either way.
func (s *SyncService) fetchReferenceData(ctx context.Context) (map[int64]string, []ExternalPlayer) {
	var (
		names      map[int64]string
		namesErr   error
		players    []ExternalPlayer
		playersErr error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		names, namesErr = s.provider.SquadNames(ctx)
	})
	wg.Go(func() {
		players, playersErr = s.provider.SquadPlayers(ctx, s.cfg.Identity.SquadID)
	})
	wg.Wait()

	if namesErr != nil {
		s.logger.WarnContext(ctx, "squad directory unavailable, using squad ids", "error", namesErr)
		names = map[int64]string{}
	}
	if playersErr != nil {
		s.logger.WarnContext(ctx, "roster unavailable", "error", playersErr)
		players = nil
	}
	return names, players
}

type matchOutcome struct {
	attempted bool
	match     matchdata.Match
	err       error
}

func (s *SyncService) fetchMatches(ctx context.Context, names map[int64]string, report *SyncReport) []matchdata.Match {
	outcomes := make([]matchOutcome, len(s.cfg.Fixtures))

	if s.cfg.Workers <= 1 {
		for i, fx := range s.cfg.Fixtures {
			if ctx.Err() != nil {
				break
			}
			s.logger.InfoContext(ctx, "fetching match",
				"match_id", fx.MatchID, "seq", i+1, "total", len(s.cfg.Fixtures))
			match, err := s.fetchOne(ctx, fx, names)
			outcomes[i] = matchOutcome{attempted: true, match: match, err: err}
		}
	} else {
		s.fetchPooled(ctx, names, outcomes)
	}

	matches := make([]matchdata.Match, 0, len(outcomes))
	for i, oc := range outcomes {
		if !oc.attempted {
			continue
		}
		fx := s.cfg.Fixtures[i]
		if oc.err != nil {
			report.MatchesSkipped++
			report.Skips = append(report.Skips, SyncSkip{MatchID: fx.MatchID, Reason: oc.err.Error()})
			s.logger.WarnContext(ctx, "match skipped", "match_id", fx.MatchID, "error", oc.err)
			continue
		}
		matches = append(matches, oc.match)
	}
	return matches
}

// fetchPooled runs the per-match fetches on a bounded worker pool. The
// provider's single throttle still spaces the underlying requests; the pool
// only overlaps decode and normalization work.
func (s *SyncService) fetchPooled(ctx context.Context, names map[int64]string, outcomes []matchOutcome) {
	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		s.logger.WarnContext(ctx, "worker pool unavailable, fetching sequentially", "error", err)
		for i, fx := range s.cfg.Fixtures {
			if ctx.Err() != nil {
				return
			}
			match, ferr := s.fetchOne(ctx, fx, names)
			outcomes[i] = matchOutcome{attempted: true, match: match, err: ferr}
		}
		return
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for i, fx := range s.cfg.Fixtures {
		i, fx := i, fx
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			match, ferr := s.fetchOne(ctx, fx, names)
			outcomes[i] = matchOutcome{attempted: true, match: match, err: ferr}
		}); err != nil {
			workers.Done()
			outcomes[i] = matchOutcome{attempted: true, err: fmt.Errorf("submit to worker pool: %w", err)}
		}
	}
	workers.Wait()
}

func (s *SyncService) fetchOne(ctx context.Context, fx matchdata.Fixture, names map[int64]string) (matchdata.Match, error) {
	perf, err := s.provider.MatchPerformance(ctx, fx.MatchID, s.cfg.KPIs)
	if err != nil {
		return matchdata.Match{}, err
	}
	if perf.Subject == nil {
		return matchdata.Match{}, errNoSubjectEntry
	}

	opponentID := perf.Subject.OpponentSquadID
	opponentName, ok := names[opponentID]
	if !ok {
		opponentName = fmt.Sprintf("Squad %d", opponentID)
	}

	var opponentKPIs map[string]float64
	if perf.Opponent != nil {
		opponentKPIs = perf.Opponent.KPIs
	}
	return NormalizeMatch(fx, perf.Subject.KPIs, opponentKPIs, opponentName, opponentID), nil
}

func mapPlayers(in []ExternalPlayer) []matchdata.Player {
	out := make([]matchdata.Player, 0, len(in))
	for _, p := range in {
		out = append(out, matchdata.Player{
			ID:            p.ID,
			Name:          p.Name,
			ShortName:     p.ShortName,
			BirthDate:     p.BirthDate,
			Height:        cloneIntPtr(p.Height),
			PreferredFoot: p.Leg,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}
