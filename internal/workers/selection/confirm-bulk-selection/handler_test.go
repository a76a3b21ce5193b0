package confirmbulkselection

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"coach-selection-workers/internal/cache"
	stderrors "coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"
	"coach-selection-workers/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2026, 4, 20, 9, 30, 0, 0, time.UTC)

const (
	appOne   = "6f1c2a4e-0001-4a6b-9c1d-2e3f4a5b6c01"
	appFour  = "6f1c2a4e-0004-4a6b-9c1d-2e3f4a5b6c04"
	appSeven = "6f1c2a4e-0007-4a6b-9c1d-2e3f4a5b6c07"
	appOther = "9d8e7f60-00ff-4b1a-8c2d-3e4f5a6b7c8d"
)

type publishedMessage struct {
	name           string
	correlationKey string
	variables      interface{}
}

type fakePublisher struct {
	messages []publishedMessage
	err      error
}

func (f *fakePublisher) PublishMessage(_ context.Context, name, correlationKey string, variables interface{}) error {
	f.messages = append(f.messages, publishedMessage{name, correlationKey, variables})
	return f.err
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *cache.Cache) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr, cache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, time.Minute)
}

func newTestHandler(t *testing.T, db *sql.DB, c *cache.Cache, pub MessagePublisher) *Handler {
	h := NewHandler(&Config{Timeout: 5 * time.Second}, repository.New(db), c, pub, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	h.newID = func() string { return "batch-1" }
	return h
}

func expectConfirm(mock sqlmock.Sqlmock, ids []string, selected, rejected int64) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("project-1").
		WillReturnRows(sqlmock.NewRows([]string{"selection_confirmed_at"}).AddRow(nil))
	mock.ExpectExec(regexp.QuoteMeta("SET selection_result = 'selected'")).
		WithArgs("project-1", pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, selected))
	if selected != int64(len(ids)) {
		mock.ExpectRollback()
		return
	}
	mock.ExpectExec(regexp.QuoteMeta("SET selection_result = 'rejected'")).
		WithArgs("project-1", pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, rejected))
	mock.ExpectExec(regexp.QuoteMeta("SET selection_confirmed_at")).
		WithArgs("project-1", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ThreeOfTen(t *testing.T) {
	db, mock := setupMockDB(t)
	mr, c := setupRedis(t)
	require.NoError(t, mr.Set(cache.RecommendationsKey("project-1"), `{}`))
	ids := []string{appOne, appFour, appSeven}

	expectConfirm(mock, ids, 3, 7)

	output, err := newTestHandler(t, db, c, nil).Execute(context.Background(), &Input{
		ProjectID:      "project-1",
		ApplicationIDs: []string{appOne, " "+appFour+" ", "", appSeven},
		ConfirmedBy:    "pm-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 3, output.SelectedCount)
	assert.Equal(t, 7, output.RejectedCount)
	assert.Equal(t, "batch-1", output.BatchID)
	assert.Equal(t, "pm-1", output.ConfirmedBy)
	assert.Equal(t, fixedNow, output.ConfirmedAt)
	assert.False(t, mr.Exists(cache.RecommendationsKey("project-1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_PublishesWorkflowMessage(t *testing.T) {
	db, mock := setupMockDB(t)
	pub := &fakePublisher{}
	expectConfirm(mock, []string{appOne}, 1, 4)

	_, err := newTestHandler(t, db, nil, pub).Execute(context.Background(), &Input{
		ProjectID:      "project-1",
		ApplicationIDs: []string{appOne},
	})

	require.NoError(t, err)
	require.Len(t, pub.messages, 1)
	assert.Equal(t, SelectionConfirmedMessage, pub.messages[0].name)
	assert.Equal(t, "project-1", pub.messages[0].correlationKey)
	assert.Equal(t, confirmedVariables{ProjectID: "project-1", BatchID: "batch-1", SelectedCount: 1, RejectedCount: 4}, pub.messages[0].variables)
}

func TestHandler_Execute_PublishFailureKeepsConfirmation(t *testing.T) {
	db, mock := setupMockDB(t)
	expectConfirm(mock, []string{appOne}, 1, 0)

	output, err := newTestHandler(t, db, nil, &fakePublisher{err: errors.New("gateway unavailable")}).
		Execute(context.Background(), &Input{ProjectID: "project-1", ApplicationIDs: []string{appOne}})

	require.NoError(t, err)
	assert.Equal(t, 1, output.SelectedCount)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		setup    func(mock sqlmock.Sqlmock)
		wantCode stderrors.ErrorCode
	}{
		{
			name:     "missing project id",
			input:    &Input{ApplicationIDs: []string{appOne}},
			setup:    func(sqlmock.Sqlmock) {},
			wantCode: stderrors.ErrCodeInputValidationFailed,
		},
		{
			name:     "empty selection",
			input:    &Input{ProjectID: "project-1", ApplicationIDs: []string{" ", ""}},
			setup:    func(sqlmock.Sqlmock) {},
			wantCode: stderrors.ErrCodeSelectionInvalid,
		},
		{
			name:     "id is not a uuid",
			input:    &Input{ProjectID: "project-1", ApplicationIDs: []string{appOne, "app-1'; --"}},
			setup:    func(sqlmock.Sqlmock) {},
			wantCode: stderrors.ErrCodeSelectionInvalid,
		},
		{
			name:  "id outside the project",
			input: &Input{ProjectID: "project-1", ApplicationIDs: []string{appOne, appOther}},
			setup: func(mock sqlmock.Sqlmock) {
				expectConfirm(mock, []string{appOne, appOther}, 1, 0)
			},
			wantCode: stderrors.ErrCodeSelectionInvalid,
		},
		{
			name:  "second confirmation",
			input: &Input{ProjectID: "project-1", ApplicationIDs: []string{appOne}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
					WithArgs("project-1").
					WillReturnRows(sqlmock.NewRows([]string{"selection_confirmed_at"}).AddRow(fixedNow.Add(-time.Hour)))
				mock.ExpectRollback()
			},
			wantCode: stderrors.ErrCodeSelectionAlreadyConfirmed,
		},
		{
			name:  "unknown project",
			input: &Input{ProjectID: "project-1", ApplicationIDs: []string{appOne}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
					WithArgs("project-1").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectRollback()
			},
			wantCode: stderrors.ErrCodeProjectNotFound,
		},
		{
			name:  "transaction failure",
			input: &Input{ProjectID: "project-1", ApplicationIDs: []string{appOne}},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
					WithArgs("project-1").
					WillReturnRows(sqlmock.NewRows([]string{"selection_confirmed_at"}).AddRow(nil))
				mock.ExpectExec(regexp.QuoteMeta("SET selection_result = 'selected'")).
					WillReturnError(errors.New("serialization failure"))
				mock.ExpectRollback()
			},
			wantCode: stderrors.ErrCodeSelectionConfirmFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			pub := &fakePublisher{}
			tt.setup(mock)

			_, err := newTestHandler(t, db, nil, pub).Execute(context.Background(), tt.input)

			assert.True(t, stderrors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Empty(t, pub.messages, "nothing is announced for a failed confirmation")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
