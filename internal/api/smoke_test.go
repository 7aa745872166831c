// Package api_test runs HTTP-level smoke tests using net/http/httptest.
// These tests do NOT require a PostgreSQL database. They verify:
//   - Gin router routing and middleware wiring
//   - Request validation error responses (400)
//   - JWT auth middleware (401 without token, 401 with bad token)
//   - Response format consistency (success/error envelope)
//   - CORS preflight handling
//
// Routes that reach the repositories run against go-sqlmock.
package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/groupparlay/coordinator/internal/api"
	"github.com/groupparlay/coordinator/internal/config"
	"github.com/groupparlay/coordinator/internal/repository"
	"github.com/groupparlay/coordinator/internal/service"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

const testAccessSecret = "test-access-secret-abcdefghijklmnop"

var weekColumns = []string{"id", "week_number", "status", "opens_at", "locks_at", "stake_amount"}

func testCfg() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:  "development",
			Port: "8080",
		},
		JWT: config.JWTConfig{
			AccessSecret:  testAccessSecret,
			RefreshSecret: "test-refresh-secret-abcdefghijklmnop",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
		},
		League: config.LeagueConfig{
			DefaultStakeCents: 1000,
			Timezone:          "UTC",
			Location:          time.UTC,
			LockWeekday:       time.Sunday,
			LockHour:          12,
			Currency:          "USD",
		},
	}
}

// buildTestRouter wires the real services on top of a sqlmock database.
func buildTestRouter(t *testing.T, cfg *config.Config) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "postgres")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	weekRepo := repository.NewWeekRepository(db)
	legRepo := repository.NewLegRepository(db)

	parlaySvc := service.NewParlayService(repository.NewParlayRepository(db), weekRepo, legRepo)
	weekSvc := service.NewWeekService(weekRepo, repository.NewSeasonRepository(db), parlaySvc, cfg, log)

	r := api.SetupRouter(api.RouterDeps{
		AuthSvc:    service.NewAuthService(db, userRepo, profileRepo, cfg),
		ProfileSvc: service.NewProfileService(profileRepo),
		WeekSvc:    weekSvc,
		LegSvc:     service.NewLegService(legRepo, weekRepo, profileRepo, weekSvc, parlaySvc, log),
		ParlaySvc:  parlaySvc,
		OddsSvc:    service.NewOddsService(cfg, repository.NewOddsRepository(db), log),
		Hub:        nil,
		Cfg:        cfg,
	})
	return r, mock
}

// bearer mints an access token the way AuthService does.
func bearer(t *testing.T, userID uuid.UUID, role string) map[string]string {
	t.Helper()
	now := time.Now()
	claims := service.AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
		Role:      role,
		TokenType: "access",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testAccessSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + signed}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&m); err != nil {
		t.Fatalf("response is not valid JSON: %v, body: %s", err, rr.Body.String())
	}
	return m
}

func openWeekRows(weekID uuid.UUID) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(weekColumns).
		AddRow(weekID.String(), 3, "OPEN", now.Add(-time.Hour), now.Add(48*time.Hour), 1000)
}

// ── /health ───────────────────────────────────────────────────────────────────

func TestHealthEndpoint(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	rr := do(t, h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rr.Code)
	}
}

// ── Auth endpoints: validation layer ──────────────────────────────────────────

func TestRegister_MissingFields(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	rr := do(t, h, http.MethodPost, "/api/auth/register", `{}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /api/auth/register empty body = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["success"] != false {
		t.Errorf("response.success should be false on error, got %v", body["success"])
	}
	if body["code"] != "ERR_VALIDATION" {
		t.Errorf("code = %v, want ERR_VALIDATION", body["code"])
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	payload := `{"name":"Sam","email":"notanemail","password":"password123"}`
	rr := do(t, h, http.MethodPost, "/api/auth/register", payload, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("register with invalid email = %d, want 400", rr.Code)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	payload := `{"name":"Sam","email":"sam@example.com","password":"short"}`
	rr := do(t, h, http.MethodPost, "/api/auth/register", payload, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("register with short password = %d, want 400", rr.Code)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	rr := do(t, h, http.MethodPost, "/api/auth/login", `{}`, nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("POST /api/auth/login empty = %d, want 400", rr.Code)
	}
}

func TestRefresh_GarbageToken(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	rr := do(t, h, http.MethodPost, "/api/auth/refresh", `{"refresh_token":"nope"}`, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/auth/refresh garbage = %d, want 401", rr.Code)
	}
}

// ── JWT auth middleware (no token → 401) ──────────────────────────────────────

func TestProtectedRoutes_NoToken_Return401(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	cases := []struct{ method, path, body string }{
		{http.MethodGet, "/api/me", ""},
		{http.MethodGet, "/api/weeks/current", ""},
		{http.MethodGet, "/api/legs/mine", ""},
		{http.MethodPost, "/api/legs", `{"game_desc":"KC @ BUF","market_key":"h2h","selection":"KC","american_odds":-110}`},
		{http.MethodGet, "/api/odds/games", ""},
	}
	for _, tc := range cases {
		rr := do(t, h, tc.method, tc.path, tc.body, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", tc.method, tc.path, rr.Code)
		}
		if code := decodeBody(t, rr)["code"]; code != "ERR_UNAUTHORIZED" {
			t.Errorf("%s %s code = %v, want ERR_UNAUTHORIZED", tc.method, tc.path, code)
		}
	}
}

// ── JWT auth middleware (invalid token → 401) ─────────────────────────────────

func TestMe_InvalidToken_Returns401(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	rr := do(t, h, http.MethodGet, "/api/me", "", map[string]string{
		"Authorization": "Bearer not.a.valid.jwt",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/me with bad JWT = %d, want 401", rr.Code)
	}
	if code := decodeBody(t, rr)["code"]; code != "ERR_INVALID_TOKEN" {
		t.Errorf("code = %v, want ERR_INVALID_TOKEN", code)
	}
}

func TestSubmitLeg_WrongSecret_Returns401(t *testing.T) {
	cfg := testCfg()
	h, _ := buildTestRouter(t, cfg)

	// Signed with a different secret.
	other := testCfg()
	other.JWT.AccessSecret = "some-other-secret-entirely-0123456"
	tok := service.AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		Role:      "MEMBER",
		TokenType: "access",
	}
	signed, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, tok).SignedString([]byte(other.JWT.AccessSecret))

	rr := do(t, h, http.MethodPost, "/api/legs", `{}`, map[string]string{
		"Authorization": "Bearer " + signed,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("POST /api/legs with foreign JWT = %d, want 401", rr.Code)
	}
}

// ── Weeks ─────────────────────────────────────────────────────────────────────

func TestCurrentWeek_NoneOpen_Returns404(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	mock.ExpectQuery(`SELECT \* FROM weeks WHERE status = 'OPEN'`).
		WillReturnRows(sqlmock.NewRows(weekColumns))

	rr := do(t, h, http.MethodGet, "/api/weeks/current", "", bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("GET /api/weeks/current = %d, want 404", rr.Code)
	}
	if code := decodeBody(t, rr)["code"]; code != "ERR_NO_OPEN_WEEK" {
		t.Errorf("code = %v, want ERR_NO_OPEN_WEEK", code)
	}
}

func TestCurrentWeek_ReturnsCountdown(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	weekID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM weeks WHERE status = 'OPEN'`).WillReturnRows(openWeekRows(weekID))

	rr := do(t, h, http.MethodGet, "/api/weeks/current", "", bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/weeks/current = %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	data, _ := decodeBody(t, rr)["data"].(map[string]interface{})
	if data["id"] != weekID.String() {
		t.Errorf("data.id = %v, want %s", data["id"], weekID)
	}
	if data["accepting_legs"] != true {
		t.Errorf("accepting_legs = %v, want true", data["accepting_legs"])
	}
	if secs, _ := data["seconds_until_lock"].(float64); secs <= 0 {
		t.Errorf("seconds_until_lock = %v, want > 0", data["seconds_until_lock"])
	}
}

func TestCurrentWeek_BackendErrorIsHidden(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	mock.ExpectQuery(`SELECT \* FROM weeks`).WillReturnError(errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	rr := do(t, h, http.MethodGet, "/api/weeks/current", "", bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	body := decodeBody(t, rr)
	msg, _ := body["error"].(string)
	if strings.Contains(msg, "10.0.0.5") {
		t.Errorf("backend detail leaked to client: %q", msg)
	}
	if body["code"] != "ERR_INTERNAL" {
		t.Errorf("code = %v, want ERR_INTERNAL", body["code"])
	}
}

func TestWeekRoutes_InvalidIDs(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	auth := bearer(t, uuid.New(), "MEMBER")
	for _, path := range []string{
		"/api/weeks/not-a-uuid",
		"/api/weeks/not-a-uuid/parlay",
		"/api/weeks?season_id=bogus",
		"/api/legs/mine?week_id=bogus",
	} {
		rr := do(t, h, http.MethodGet, path, "", auth)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("GET %s = %d, want 400", path, rr.Code)
		}
		if code := decodeBody(t, rr)["code"]; code != "ERR_INVALID_ID" {
			t.Errorf("GET %s code = %v, want ERR_INVALID_ID", path, code)
		}
	}
}

func TestWeekLegs_UnknownStatusFilter(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	path := "/api/weeks/" + uuid.NewString() + "/legs?status=OK,WON"
	rr := do(t, h, http.MethodGet, path, "", bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("GET %s = %d, want 400", path, rr.Code)
	}
}

// ── Legs ──────────────────────────────────────────────────────────────────────

func TestSubmitLeg_InvalidOdds(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	payload := `{"game_desc":"KC @ BUF","market_key":"h2h","selection":"KC","american_odds":-50}`

	rr := do(t, h, http.MethodPost, "/api/legs", payload, bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("POST /api/legs with -50 = %d, want 400", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["code"] != "ERR_VALIDATION" {
		t.Errorf("code = %v, want ERR_VALIDATION", body["code"])
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "american_odds") {
		t.Errorf("error %q should name the field", msg)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("validation must not touch the database: %v", err)
	}
}

func TestSubmitLeg_Created(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	weekID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM weeks WHERE status = 'OPEN'`).WillReturnRows(openWeekRows(weekID))
	mock.ExpectExec(`INSERT INTO legs`).WillReturnResult(sqlmock.NewResult(0, 1))

	payload := `{"game_desc":"KC @ BUF","market_key":"h2h","selection":"KC","american_odds":150}`
	rr := do(t, h, http.MethodPost, "/api/legs", payload, bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST /api/legs = %d, want 201, body %s", rr.Code, rr.Body.String())
	}
	data, _ := decodeBody(t, rr)["data"].(map[string]interface{})
	if data["status"] != "PENDING" {
		t.Errorf("status = %v, want PENDING", data["status"])
	}
	if data["decimal_odds"] != 2.5 {
		t.Errorf("decimal_odds = %v, want 2.5", data["decimal_odds"])
	}
	if data["week_id"] != weekID.String() {
		t.Errorf("week_id = %v, want %s", data["week_id"], weekID)
	}
}

func TestSubmitLeg_Duplicate_Returns409(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	mock.ExpectQuery(`SELECT \* FROM weeks WHERE status = 'OPEN'`).WillReturnRows(openWeekRows(uuid.New()))
	mock.ExpectExec(`INSERT INTO legs`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "legs_user_week_key"})

	payload := `{"game_desc":"KC @ BUF","market_key":"h2h","selection":"KC","american_odds":-110}`
	rr := do(t, h, http.MethodPost, "/api/legs", payload, bearer(t, uuid.New(), "MEMBER"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate POST /api/legs = %d, want 409, body %s", rr.Code, rr.Body.String())
	}
	if code := decodeBody(t, rr)["code"]; code != "ERR_LEG_ALREADY_SUBMITTED" {
		t.Errorf("code = %v, want ERR_LEG_ALREADY_SUBMITTED", code)
	}
}

func TestLegHistory_ReportsTotalCount(t *testing.T) {
	h, mock := buildTestRouter(t, testCfg())
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM legs WHERE user_id`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT \* FROM legs WHERE user_id .* LIMIT`).
		WithArgs(userID, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "week_id", "status", "american_odds"}).
			AddRow(uuid.NewString(), userID.String(), uuid.NewString(), "OK", 150))
	mock.ExpectQuery(`SELECT \* FROM profiles WHERE user_id = ANY`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "role"}).
			AddRow(uuid.NewString(), userID.String(), "Sam", "MEMBER"))

	rr := do(t, h, http.MethodGet, "/api/legs/history?page=2&limit=1", "", bearer(t, userID, "MEMBER"))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/legs/history = %d, body %s", rr.Code, rr.Body.String())
	}
	meta, _ := decodeBody(t, rr)["meta"].(map[string]interface{})
	if meta["total"] != float64(3) {
		t.Errorf("meta.total = %v, want 3 (all of the member's legs, not the page size)", meta["total"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

// ── Error envelope format ─────────────────────────────────────────────────────

func TestErrorEnvelope_HasRequiredFields(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	rr := do(t, h, http.MethodPost, "/api/auth/register", `{}`, nil)
	body := decodeBody(t, rr)

	for _, field := range []string{"success", "error", "code"} {
		if _, ok := body[field]; !ok {
			t.Errorf("error envelope missing field %q, got: %v", field, body)
		}
	}
	if body["success"] != false {
		t.Errorf("error envelope.success = %v, want false", body["success"])
	}
}

// ── CORS headers ──────────────────────────────────────────────────────────────

func TestCORSOptionsRequest(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("OPTIONS /api/auth/login = %d, want 204", rr.Code)
	}
	allow := rr.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allow, "PATCH") {
		t.Errorf("Access-Control-Allow-Methods missing PATCH, got %q", allow)
	}
}

func TestCORSAllowOrigin_Dev(t *testing.T) {
	h, _ := buildTestRouter(t, testCfg())
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("Dev CORS origin = %q, want *", origin)
	}
}

func TestCORSAllowOrigin_ProdAllowList(t *testing.T) {
	cfg := testCfg()
	cfg.Server.Env = "production"
	cfg.Server.WSAllowedOrigins = []string{"https://parlay.example.com"}
	h, _ := buildTestRouter(t, cfg)

	for origin, want := range map[string]string{
		"https://parlay.example.com": "https://parlay.example.com",
		"https://evil.example.net":   "",
	} {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", origin)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", origin, got, want)
		}
	}
}
