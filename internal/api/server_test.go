package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"coach-selection-workers/internal/common/config"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/repository"
	calculateprojectscores "coach-selection-workers/internal/workers/scoring/calculate-project-scores"
	finalizeprojectscores "coach-selection-workers/internal/workers/scoring/finalize-project-scores"
	validatescoringconfig "coach-selection-workers/internal/workers/scoring/validate-scoring-config"
	validatesurveyscores "coach-selection-workers/internal/workers/scoring/validate-survey-scores"
	confirmbulkselection "coach-selection-workers/internal/workers/selection/confirm-bulk-selection"
	getselectionrecommendations "coach-selection-workers/internal/workers/selection/get-selection-recommendations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v4"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testSecret = "test-secret"

func testConfig() config.Config {
	return config.Config{
		App:  config.AppConfig{Name: "scoring-api-test"},
		Auth: config.AuthConfig{JWTSecret: testSecret, Issuer: "coach-selection", RoleClaim: "role"},
	}
}

func setupServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	return setupServerWithConfig(t, testConfig())
}

func setupServerWithConfig(t *testing.T, cfg config.Config) (*Server, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewNoOpLogger()
	repo := repository.New(db)
	const timeout = 5 * time.Second
	ops := Operations{
		Calculate:       calculateprojectscores.NewHandler(&calculateprojectscores.Config{Timeout: timeout}, repo, nil, nil, log),
		Finalize:        finalizeprojectscores.NewHandler(&finalizeprojectscores.Config{Timeout: timeout}, repo, nil, nil, log),
		Recommendations: getselectionrecommendations.NewHandler(&getselectionrecommendations.Config{Timeout: timeout}, repo, nil, log),
		Confirm:         confirmbulkselection.NewHandler(&confirmbulkselection.Config{Timeout: timeout}, repo, nil, nil, log),
		Survey:          validatesurveyscores.NewHandler(&validatesurveyscores.Config{Timeout: timeout}, repo, log),
		Criteria:        validatescoringconfig.NewHandler(&validatescoringconfig.Config{Timeout: timeout}, repo, nil, log),
	}
	return New(cfg, ops, repo, nil, log), mock
}

func signToken(t *testing.T, secret, role string) string {
	return signClaims(t, secret, jwt.MapClaims{
		"sub":  "pm-1",
		"role": role,
		"iss":  "coach-selection",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
}

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, s *Server, method, path, token string, body interface{}) (int, map[string]interface{}) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func errorCode(body map[string]interface{}) string {
	e, _ := body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

// ==========================
// Authentication Tests
// ==========================

func TestAuth_EmptySecretRejectsEveryToken(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	s, mock := setupServerWithConfig(t, cfg)

	token := signToken(t, "", RoleAdmin)
	status, body := doRequest(t, s, http.MethodPut, "/api/projects/p1/weights", token,
		map[string]int{"quantitativeWeight": 70, "qualitativeWeight": 30})

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuth_ExpiryRequired(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"no exp claim", jwt.MapClaims{"sub": "pm-1", "role": RoleAdmin, "iss": "coach-selection"}},
		{"expired", jwt.MapClaims{"sub": "pm-1", "role": RoleAdmin, "iss": "coach-selection", "exp": time.Now().Add(-time.Minute).Unix()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupServer(t)

			status, body := doRequest(t, s, http.MethodGet, "/api/projects/project-1/selection/recommendations",
				signClaims(t, testSecret, tt.claims), nil)

			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "UNAUTHORIZED", errorCode(body))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealth_NoAuth(t *testing.T) {
	s, _ := setupServer(t)

	status, body := doRequest(t, s, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing token",
			method:     http.MethodGet,
			path:       "/api/projects/project-1/selection/recommendations",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "wrong signature",
			token:      "wrong-secret",
			method:     http.MethodGet,
			path:       "/api/projects/project-1/selection/recommendations",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "reviewer confirming selection",
			token:      RoleReviewer,
			method:     http.MethodPost,
			path:       "/api/projects/project-1/selection/confirm",
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
		{
			name:       "reviewer finalizing scores",
			token:      RoleReviewer,
			method:     http.MethodPost,
			path:       "/api/projects/project-1/scores/finalize",
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupServer(t)
			token := ""
			switch tt.token {
			case "wrong-secret":
				token = signToken(t, "another-secret", RoleAdmin)
			case "":
			default:
				token = signToken(t, testSecret, tt.token)
			}

			status, body := doRequest(t, s, tt.method, tt.path, token, nil)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, errorCode(body))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Weights Tests
// ==========================

func TestUpdateWeights(t *testing.T) {
	s, mock := setupServer(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects")).
		WithArgs("project-1", 70, 30).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status, body := doRequest(t, s, http.MethodPut, "/api/projects/project-1/weights",
		signToken(t, testSecret, RoleProjectManager),
		map[string]int{"quantitativeWeight": 70, "qualitativeWeight": 30})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"quantitative": float64(70), "qualitative": float64(30)}, body["weights"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWeights_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		setup      func(mock sqlmock.Sqlmock)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "weights not summing to 100",
			body:       map[string]int{"quantitativeWeight": 60, "qualitativeWeight": 30},
			setup:      func(sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "WEIGHTS_INVALID",
		},
		{
			name:       "negative weight",
			body:       map[string]int{"quantitativeWeight": 110, "qualitativeWeight": -10},
			setup:      func(sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "WEIGHTS_INVALID",
		},
		{
			name:       "missing qualitative weight",
			body:       map[string]int{"quantitativeWeight": 100},
			setup:      func(sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INPUT_VALIDATION_FAILED",
		},
		{
			name: "unknown project",
			body: map[string]int{"quantitativeWeight": 50, "qualitativeWeight": 50},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("UPDATE projects")).
					WithArgs("project-1", 50, 50).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "PROJECT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupServer(t)
			tt.setup(mock)

			status, body := doRequest(t, s, http.MethodPut, "/api/projects/project-1/weights",
				signToken(t, testSecret, RoleAdmin), tt.body)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, errorCode(body))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Operation Route Tests
// ==========================

func TestConfirmSelection(t *testing.T) {
	s, mock := setupServer(t)
	ids := []string{"3b9a1c2d-4e5f-4a6b-8c7d-9e0f1a2b3c01", "3b9a1c2d-4e5f-4a6b-8c7d-9e0f1a2b3c02"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("project-1").
		WillReturnRows(sqlmock.NewRows([]string{"selection_confirmed_at"}).AddRow(nil))
	mock.ExpectExec(regexp.QuoteMeta("SET selection_result = 'selected'")).
		WithArgs("project-1", pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("SET selection_result = 'rejected'")).
		WithArgs("project-1", pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("SET selection_confirmed_at")).
		WithArgs("project-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, body := doRequest(t, s, http.MethodPost, "/api/projects/project-1/selection/confirm",
		signToken(t, testSecret, RoleProjectManager), map[string]interface{}{"applicationIds": ids})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["selectedCount"])
	assert.Equal(t, float64(5), body["rejectedCount"])
	assert.Equal(t, "pm-1", body["confirmedBy"])
	assert.NotEmpty(t, body["batchId"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmSelection_EmptyBody(t *testing.T) {
	s, mock := setupServer(t)

	status, body := doRequest(t, s, http.MethodPost, "/api/projects/project-1/selection/confirm",
		signToken(t, testSecret, RoleAdmin), map[string]interface{}{"applicationIds": []string{}})

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INPUT_VALIDATION_FAILED", errorCode(body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateSurvey_Draft(t *testing.T) {
	s, mock := setupServer(t)

	status, body := doRequest(t, s, http.MethodPost, "/api/projects/project-1/survey/validate",
		signToken(t, testSecret, RoleProjectManager), map[string]interface{}{
			"snapshot": map[string]interface{}{
				"items": []map[string]interface{}{
					{"competencyItemId": "comp-cert", "category": "CERTIFICATION", "included": true, "maxScore": 70},
				},
				"customQuestions": []map[string]interface{}{
					{"id": "q-1", "question": "Why coaching?", "maxScore": 30},
				},
			},
		})

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isValid"])
	assert.Equal(t, float64(100), body["total"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendations_UnknownProject(t *testing.T) {
	s, mock := setupServer(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM projects")).
		WithArgs("project-9").
		WillReturnError(sql.ErrNoRows)

	status, body := doRequest(t, s, http.MethodGet, "/api/projects/project-9/selection/recommendations",
		signToken(t, testSecret, RoleReviewer), nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "PROJECT_NOT_FOUND", errorCode(body))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnknownRoute(t *testing.T) {
	s, _ := setupServer(t)

	status, body := doRequest(t, s, http.MethodGet, "/api/unknown", signToken(t, testSecret, RoleAdmin), nil)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "ROUTE_NOT_FOUND", errorCode(body))
}
