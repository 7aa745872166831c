package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/domain"
	"github.com/groupparlay/coordinator/internal/repository"
)

// ErrOddsDisabled is returned by Refresh when no provider API key is set.
var ErrOddsDisabled = errors.New("odds provider is not configured")

// ──────────────────────────────────────────────────────────────────────────────
// Provider payload
// ──────────────────────────────────────────────────────────────────────────────

// providerGame is one event from GET /v4/sports/{sport}/odds.
type providerGame struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	SportTitle   string              `json:"sport_title"`
	CommenceTime time.Time           `json:"commence_time"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Bookmakers   []providerBookmaker `json:"bookmakers"`
}

type providerBookmaker struct {
	Key     string           `json:"key"`
	Title   string           `json:"title"`
	Markets []providerMarket `json:"markets"`
}

type providerMarket struct {
	Key      string            `json:"key"`
	Outcomes []providerOutcome `json:"outcomes"`
}

type providerOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point"`
}

// ──────────────────────────────────────────────────────────────────────────────
// OddsService
// ──────────────────────────────────────────────────────────────────────────────

// OddsService ingests game odds from the provider into odds_cache and serves
// the upcoming board to members.
type OddsService struct {
	client   *http.Client
	cfg      *config.OddsConfig
	oddsRepo *repository.OddsRepository
	log      *slog.Logger
	now      func() time.Time
}

// NewOddsService constructs an OddsService from the given config.
func NewOddsService(cfg *config.Config, oddsRepo *repository.OddsRepository, log *slog.Logger) *OddsService {
	return &OddsService{
		client:   &http.Client{Timeout: cfg.Odds.FetchTimeout},
		cfg:      &cfg.Odds,
		oddsRepo: oddsRepo,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Public API
// ──────────────────────────────────────────────────────────────────────────────

// Refresh fetches every configured sport in parallel, upserts the games, and
// purges rows older than CacheMaxAge.
//
// A failed sport is logged and skipped. Refresh returns an error only when
// every sport failed or the cache could not be written.
func (s *OddsService) Refresh(ctx context.Context) (*domain.RefreshResult, error) {
	if !s.cfg.Enabled {
		return nil, ErrOddsDisabled
	}

	type result struct {
		sport string
		games []domain.GameOdds
		err   error
	}

	resultCh := make(chan result, len(s.cfg.Sports))
	for _, sport := range s.cfg.Sports {
		sport := sport // capture
		go func() {
			games, err := s.fetchSport(ctx, sport)
			resultCh <- result{sport: sport, games: games, err: err}
		}()
	}

	res := &domain.RefreshResult{SportsFailed: []string{}}
	var games []domain.GameOdds
	for range s.cfg.Sports {
		r := <-resultCh
		if r.err != nil {
			s.log.Warn("odds fetch failed", "sport", r.sport, "err", r.err)
			res.SportsFailed = append(res.SportsFailed, r.sport)
			continue
		}
		games = append(games, r.games...)
	}
	if len(s.cfg.Sports) > 0 && len(res.SportsFailed) == len(s.cfg.Sports) {
		return res, fmt.Errorf("odds_service: all %d sport fetches failed", len(s.cfg.Sports))
	}

	if err := s.oddsRepo.UpsertGames(ctx, games); err != nil {
		return res, err
	}
	res.GamesProcessed = len(games)

	purged, err := s.oddsRepo.DeleteOlderThan(ctx, s.now().Add(-s.cfg.CacheMaxAge))
	if err != nil {
		s.log.Warn("odds cache purge failed", "err", err)
	}
	res.Purged = purged

	s.log.Info("odds refreshed",
		"games", res.GamesProcessed,
		"sports_failed", len(res.SportsFailed),
		"purged", res.Purged,
	)
	return res, nil
}

// ListUpcoming returns cached games that have not started yet. league="" returns
// every league.
func (s *OddsService) ListUpcoming(ctx context.Context, league string, limit int) ([]domain.GameOdds, error) {
	return s.oddsRepo.ListUpcoming(ctx, s.now(), strings.ToUpper(league), limit)
}

// ──────────────────────────────────────────────────────────────────────────────
// Provider fetch
// ──────────────────────────────────────────────────────────────────────────────

// fetchSport fetches one sport's board.
//
//	GET /v4/sports/{sport}/odds?apiKey=…&regions=us&markets=h2h,spreads,totals&oddsFormat=american
func (s *OddsService) fetchSport(ctx context.Context, sport string) ([]domain.GameOdds, error) {
	q := url.Values{}
	q.Set("apiKey", s.cfg.APIKey)
	q.Set("regions", s.cfg.Regions)
	q.Set("markets", s.cfg.Markets)
	q.Set("oddsFormat", "american")
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/v4/sports/" + url.PathEscape(sport) + "/odds?" + q.Encode()

	body, err := s.doGet(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sport, err)
	}
	var events []providerGame
	if err = json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("%s parse: %w", sport, err)
	}

	now := s.now()
	league := LeagueName(sport)
	games := make([]domain.GameOdds, 0, len(events))
	for i := range events {
		ev := &events[i]
		if ev.ID == "" || ev.HomeTeam == "" || ev.AwayTeam == "" {
			continue
		}
		g := extractBestOdds(ev, s.cfg.PreferredBookmaker)
		g.ID = uuid.New()
		g.ExternalGameID = ev.ID
		g.Sport = ev.SportTitle
		g.League = league
		g.GameDate = ev.CommenceTime.UTC()
		g.TeamA = ev.HomeTeam
		g.TeamB = ev.AwayTeam
		g.UpdatedAt = now
		games = append(games, g)
	}
	return games, nil
}

// LeagueName turns a provider sport key into the stored league label, e.g.
// "americanfootball_nfl" → "AMERICANFOOTBALL NFL".
func LeagueName(sportKey string) string {
	return strings.ToUpper(strings.ReplaceAll(sportKey, "_", " "))
}

// extractBestOdds walks every bookmaker and keeps the first quote seen for
// each slot, letting the preferred bookmaker overwrite it. Prices failing
// IsValidOdds and points failing IsValidLine are dropped, never clamped.
func extractBestOdds(ev *providerGame, preferred string) domain.GameOdds {
	var g domain.GameOdds
	for _, bm := range ev.Bookmakers {
		isPreferred := bm.Key == preferred
		for _, m := range bm.Markets {
			for _, o := range m.Outcomes {
				price, ok := validPrice(o.Price)
				if !ok {
					continue
				}
				switch m.Key {
				case "h2h":
					switch o.Name {
					case ev.HomeTeam:
						if g.MoneylineHome == nil || isPreferred {
							g.MoneylineHome = price
						}
					case ev.AwayTeam:
						if g.MoneylineAway == nil || isPreferred {
							g.MoneylineAway = price
						}
					}
				case "spreads":
					point, ok := validPoint(o.Point)
					if !ok {
						continue
					}
					switch o.Name {
					case ev.HomeTeam:
						if g.SpreadHome == nil || isPreferred {
							g.SpreadHome, g.SpreadHomeOdds = point, price
						}
					case ev.AwayTeam:
						if g.SpreadAway == nil || isPreferred {
							g.SpreadAway, g.SpreadAwayOdds = point, price
						}
					}
				case "totals":
					point, ok := validPoint(o.Point)
					if !ok {
						continue
					}
					switch o.Name {
					case "Over":
						if g.TotalOver == nil || isPreferred {
							g.TotalOver, g.TotalOverOdds = point, price
						}
					case "Under":
						if g.TotalUnder == nil || isPreferred {
							g.TotalUnder, g.TotalUnderOdds = point, price
						}
					}
				}
			}
		}
	}
	return g
}

func validPrice(p float64) (*int, bool) {
	if !domain.IsValidOdds(p) {
		return nil, false
	}
	v := int(p)
	return &v, true
}

func validPoint(p *float64) (*float64, bool) {
	if p == nil || !domain.IsValidLine(*p) {
		return nil, false
	}
	v := *p
	return &v, true
}

// ──────────────────────────────────────────────────────────────────────────────
// HTTP helper
// ──────────────────────────────────────────────────────────────────────────────

// doGet performs an HTTP GET with the service's client and returns the body
// bytes, or an error for any non-200 status code.
func (s *OddsService) doGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "groupparlay-coordinator/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return nil, fmt.Errorf("http get: %w", uerr.Err)
		}
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
