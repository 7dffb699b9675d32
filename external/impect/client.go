package impect

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/clubgpt/clubsync/internal/domain/matchdata"
	"github.com/clubgpt/clubsync/internal/platform/logging"
	"github.com/clubgpt/clubsync/internal/platform/resilience"
	"github.com/clubgpt/clubsync/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.impect.com"
	defaultTokenURL = "https://login.impect.com/auth/realms/production/protocol/openid-connect/token"
	defaultClientID = "api"

	defaultTimeout            = 30 * time.Second
	defaultMinRequestInterval = 150 * time.Millisecond
	retryBackoff              = 500 * time.Millisecond

	// maxResponseBytes caps reads of portal responses; single-match
	// performance payloads stay well under 1 MiB.
	maxResponseBytes  = 4 << 20
	maxErrorBodyChars = 300

	squadsPath               = "/v1/analysis/squads"
	matchPerformancePath     = "/v1/analysis/performances/squads/single-match"
	iterationPerformancePath = "/v1/analysis/performances/squads/single-iteration"

	compareWithOpponent = "OPPONENT"
	compareSetAllSteps  = "ALL_STEPS"
	homeAndAwayBoth     = "HOME_AND_AWAY"
)

var passwordParamRegex = regexp.MustCompile(`password=[^&\s"']+`)
var accessTokenFieldRegex = regexp.MustCompile(`"access_token"\s*:\s*"[^"]*"`)

type ClientConfig struct {
	HTTPClient             *http.Client
	BaseURL                string
	TokenURL               string
	ClientID               string
	SquadID                int64
	CompetitionIterationID int64
	Timeout                time.Duration
	MaxRetries             int
	MinRequestInterval     time.Duration
	Logger                 *logging.Logger
	CircuitBreaker         resilience.CircuitBreakerConfig
}

// Client talks to the Impect Analysis Portal. All outbound requests,
// the token exchange included, share one rate limiter so the portal
// never sees bursts.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokenURL    string
	clientID    string
	squadID     int64
	iterationID int64
	maxRetries  int
	backoff     time.Duration
	limiter     *rate.Limiter
	logger      *logging.Logger
	breaker     *resilience.CircuitBreaker

	mu          sync.RWMutex
	accessToken string
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		clientID = defaultClientID
	}

	identity := matchdata.DefaultIdentity()
	squadID := cfg.SquadID
	if squadID <= 0 {
		squadID = identity.SquadID
	}
	iterationID := cfg.CompetitionIterationID
	if iterationID <= 0 {
		iterationID = identity.CompetitionIterationID
	}

	interval := cfg.MinRequestInterval
	if interval <= 0 {
		interval = defaultMinRequestInterval
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		tokenURL:    tokenURL,
		clientID:    clientID,
		squadID:     squadID,
		iterationID: iterationID,
		maxRetries:  maxRetries,
		backoff:     retryBackoff,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		logger:      logger,
		breaker:     resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

// Authenticate exchanges the credentials for a bearer token via the
// password grant. The password never reaches logs or error text.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return crerr.New("impect: username and password are required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token exchange: %s", sanitizeSensitiveText(err.Error(), password))
	}
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("read token response: %w", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &AuthenticationError{
			Status: resp.StatusCode,
			Body:   sanitizeSensitiveText(abbreviateBody(raw), password),
		}
	}

	var token tokenResponse
	if err := sonic.Unmarshal(raw, &token); err != nil {
		return &ProtocolError{Path: c.tokenURL, Err: err}
	}
	if strings.TrimSpace(token.AccessToken) == "" {
		return &ProtocolError{Path: c.tokenURL, Err: crerr.New("access_token missing from response")}
	}

	c.mu.Lock()
	c.accessToken = token.AccessToken
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "impect authentication succeeded")
	return nil
}

// SquadNames fetches every squad visible in the competition scope and
// returns an id-to-name index.
func (c *Client) SquadNames(ctx context.Context) (map[int64]string, error) {
	var envelope squadsEnvelope
	if err := c.doJSON(ctx, http.MethodGet, squadsPath, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch squads: %w", err)
	}

	names := make(map[int64]string, len(envelope.Data))
	for _, squad := range envelope.Data {
		if squad.ID <= 0 {
			continue
		}
		names[squad.ID] = strings.TrimSpace(squad.Name)
	}
	return names, nil
}

func (c *Client) SquadPlayers(ctx context.Context, squadID int64) ([]usecase.ExternalPlayer, error) {
	if squadID <= 0 {
		return nil, fmt.Errorf("squad id must be greater than zero")
	}

	path := fmt.Sprintf("%s/%d/players", squadsPath, squadID)
	var envelope playersEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch squad players squad_id=%d: %w", squadID, err)
	}

	out := make([]usecase.ExternalPlayer, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if item.ID <= 0 {
			continue
		}
		out = append(out, usecase.ExternalPlayer{
			ID:        item.ID,
			Name:      strings.TrimSpace(item.Name),
			ShortName: strings.TrimSpace(item.ShortName),
			BirthDate: strings.TrimSpace(item.BirthDate),
			Height:    item.Height,
			Leg:       strings.TrimSpace(item.Leg),
		})
	}
	return out, nil
}

// MatchPerformance fetches the tracked squad's KPI line for one match.
// compareWithMode=OPPONENT makes the portal include the opposition's
// line in the same response, which lands in the Opponent slot.
func (c *Client) MatchPerformance(ctx context.Context, matchID int64, kpis []string) (usecase.ExternalMatchPerformance, error) {
	if matchID <= 0 {
		return usecase.ExternalMatchPerformance{}, fmt.Errorf("match id must be greater than zero")
	}

	payload, err := sonic.Marshal(matchPerformanceRequest{
		KPIsAndScores:          kpis,
		MatchID:                matchID,
		SquadID:                c.squadID,
		CompetitionIterationID: c.iterationID,
		CompareWithMode:        compareWithOpponent,
	})
	if err != nil {
		return usecase.ExternalMatchPerformance{}, fmt.Errorf("encode match performance request: %w", err)
	}

	var envelope performancesEnvelope
	if err := c.doJSON(ctx, http.MethodPost, matchPerformancePath, payload, &envelope); err != nil {
		return usecase.ExternalMatchPerformance{}, fmt.Errorf("fetch match performance match_id=%d: %w", matchID, err)
	}

	var out usecase.ExternalMatchPerformance
	for _, item := range envelope.Data.Performances {
		entry := &usecase.ExternalSquadPerformance{
			SquadID:         item.SquadID,
			OpponentSquadID: item.OpponentSquadID,
			MatchID:         item.MatchID,
			KPIs:            flattenKPIs(item.KPIs),
		}
		if item.SquadID == c.squadID {
			out.Subject = entry
			continue
		}
		out.Opponent = entry
	}
	return out, nil
}

// SeasonAverages fetches the tracked squad's per-match averages across
// the whole competition iteration.
func (c *Client) SeasonAverages(ctx context.Context, kpis []string) (map[string]float64, error) {
	payload, err := sonic.Marshal(iterationPerformanceRequest{
		KPIsAndScores:          kpis,
		SquadID:                c.squadID,
		CompareSetSquadID:      c.squadID,
		CompetitionIterationID: c.iterationID,
		HomeAndAway:            homeAndAwayBoth,
		CompareSet:             compareSetAllSteps,
	})
	if err != nil {
		return nil, fmt.Errorf("encode season averages request: %w", err)
	}

	var envelope performancesEnvelope
	if err := c.doJSON(ctx, http.MethodPost, iterationPerformancePath, payload, &envelope); err != nil {
		return nil, fmt.Errorf("fetch season averages: %w", err)
	}

	for _, item := range envelope.Data.Performances {
		if item.SquadID == c.squadID {
			return flattenKPIs(item.KPIs), nil
		}
	}
	return map[string]float64{}, nil
}

func (c *Client) bearerToken() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.accessToken == "" {
		return "", ErrNotAuthenticated
	}
	return c.accessToken, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload []byte, target any) error {
	token, err := c.bearerToken()
	if err != nil {
		return err
	}

	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "impect circuit breaker rejected request", "path", path, "state", c.breaker.State())
		return fmt.Errorf("%w: analysis portal is temporarily unavailable", resilience.ErrCircuitOpen)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("impect.method", method),
			attribute.String("impect.path", path),
		)
	}

	raw, err := c.executeRequest(ctx, method, path, token, payload)
	if isTransientFailure(err) {
		c.breaker.RecordFailure()
	} else {
		c.breaker.RecordSuccess()
	}
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return &ProtocolError{Path: path, Err: err}
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, method, path, token string, payload []byte) ([]byte, error) {
	fullURL := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("authorization", "Bearer "+token)
		if payload != nil {
			req.Header.Set("content-type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errImpectTransient, sanitizeSensitiveText(err.Error(), token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errImpectTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else {
				lastErr = &UpstreamError{
					Status: resp.StatusCode,
					Body:   sanitizeSensitiveText(abbreviateBody(raw), token),
				}
				if !isRetryableStatus(resp.StatusCode) {
					return nil, lastErr
				}
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * c.backoff
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("analysis portal request failed")
	}
	c.logger.WarnContext(ctx, "impect request failed", "method", method, "path", path, "error", lastErr)
	return nil, lastErr
}

// isTransientFailure decides what counts against the breaker: transport
// errors and retryable upstream statuses. Terminal rejections and decode
// failures mean the portal answered, so they do not.
func isTransientFailure(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, errImpectTransient) {
		return true
	}
	var upstream *UpstreamError
	if stderrors.As(err, &upstream) {
		return isRetryableStatus(upstream.Status)
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, secret string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if secret != "" {
		value = strings.ReplaceAll(value, secret, "REDACTED")
	}
	value = passwordParamRegex.ReplaceAllString(value, "password=REDACTED")
	value = accessTokenFieldRegex.ReplaceAllString(value, `"access_token":"REDACTED"`)
	return value
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxErrorBodyChars {
		return text
	}
	return text[:maxErrorBodyChars] + "..."
}
