package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coach-selection-workers/internal/common/database"
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/selection"

	"github.com/lib/pq"
)

const queryRankingCandidates = `
	SELECT id, user_id, COALESCE(submitted_at, created_at), COALESCE(auto_score, 0)
	FROM applications
	WHERE project_id = $1 AND status <> 'draft'`

const queryEvaluations = `
	SELECT id, application_id, reviewer_id, motivation_score, expertise_score, role_fit_score,
	       COALESCE(recommendation, ''), COALESCE(comment, '')
	FROM reviewer_evaluations
	WHERE application_id = ANY($1)
	ORDER BY application_id, id`

const updateFinalScore = `
	UPDATE applications
	SET qualitative_score = $2, final_score = $3, final_rank = $4, updated_at = NOW()
	WHERE id = $1`

const markScoresFinalized = `
	UPDATE projects SET scores_finalized_at = $2, updated_at = NOW() WHERE id = $1`

const lockProjectForSelection = `
	SELECT selection_confirmed_at FROM projects WHERE id = $1 FOR UPDATE`

const markSelected = `
	UPDATE applications
	SET selection_result = 'selected', updated_at = NOW()
	WHERE project_id = $1 AND id = ANY($2) AND status <> 'draft'`

const markRejected = `
	UPDATE applications
	SET selection_result = 'rejected', updated_at = NOW()
	WHERE project_id = $1 AND NOT (id = ANY($2)) AND status <> 'draft'`

const markSelectionConfirmed = `
	UPDATE projects
	SET selection_confirmed_at = $2, status = 'completed', updated_at = NOW()
	WHERE id = $1`

const querySelectionContacts = `
	SELECT a.id, a.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''), COALESCE(u.phone, ''),
	       a.selection_result
	FROM applications a
	JOIN users u ON u.id = a.user_id
	WHERE a.project_id = $1 AND a.selection_result IN ('selected', 'rejected')
	ORDER BY a.selection_result, a.id`

// ConfirmResult reports the outcome of a bulk selection confirmation.
type ConfirmResult struct {
	SelectedCount int       `json:"selectedCount"`
	RejectedCount int       `json:"rejectedCount"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

// ListRankingCandidates loads every submitted application with its auto
// score and reviewer evaluations.
func (r *Repository) ListRankingCandidates(ctx context.Context, projectID string) ([]selection.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, queryRankingCandidates, projectID)
	if err != nil {
		return nil, fmt.Errorf("query ranking candidates: %w", err)
	}
	defer rows.Close()

	var (
		candidates []selection.Candidate
		ids        []string
	)
	index := make(map[string]int)
	for rows.Next() {
		var c selection.Candidate
		if err := rows.Scan(&c.ApplicationID, &c.UserID, &c.SubmittedAt, &c.AutoScore); err != nil {
			return nil, fmt.Errorf("scan ranking candidate: %w", err)
		}
		index[c.ApplicationID] = len(candidates)
		ids = append(ids, c.ApplicationID)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranking candidates: %w", err)
	}
	if len(candidates) == 0 {
		return candidates, nil
	}

	erows, err := r.db.QueryContext(ctx, queryEvaluations, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer erows.Close()

	for erows.Next() {
		var e models.ReviewerEvaluation
		if err := erows.Scan(&e.ID, &e.ApplicationID, &e.ReviewerID, &e.MotivationScore, &e.ExpertiseScore,
			&e.RoleFitScore, &e.Recommendation, &e.Comment); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if i, ok := index[e.ApplicationID]; ok {
			candidates[i].Evaluations = append(candidates[i].Evaluations, e)
		}
	}
	if err := erows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return candidates, nil
}

// SaveFinalScores stores the ranked list and stamps the project as finalized.
func (r *Repository) SaveFinalScores(ctx context.Context, projectID string, list selection.RankedList, at time.Time) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, a := range list.Applications {
			var qual interface{}
			if a.QualitativeAvg != nil {
				qual = *a.QualitativeAvg
			}
			if _, err := tx.ExecContext(ctx, updateFinalScore, a.ApplicationID, qual, a.FinalScore, a.Rank); err != nil {
				return fmt.Errorf("update final score %s: %w", a.ApplicationID, err)
			}
		}
		if _, err := tx.ExecContext(ctx, markScoresFinalized, projectID, at); err != nil {
			return fmt.Errorf("mark scores finalized: %w", err)
		}
		return nil
	})
}

// ConfirmSelection marks the given applications selected and every other
// submitted application of the project rejected, in one transaction. It
// fails without changes when the project was already confirmed or when any
// id is not a submitted application of the project.
func (r *Repository) ConfirmSelection(ctx context.Context, projectID string, applicationIDs []string, at time.Time) (*ConfirmResult, error) {
	ids := uniqueIDs(applicationIDs)
	result := &ConfirmResult{ConfirmedAt: at}

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var confirmed sql.NullTime
		err := tx.QueryRowContext(ctx, lockProjectForSelection, projectID).Scan(&confirmed)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		if err != nil {
			return fmt.Errorf("lock project: %w", err)
		}
		if confirmed.Valid {
			return fmt.Errorf("%w: at %s", ErrSelectionAlreadyConfirmed, confirmed.Time.Format(time.RFC3339))
		}

		res, err := tx.ExecContext(ctx, markSelected, projectID, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("mark selected: %w", err)
		}
		selected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark selected: %w", err)
		}
		if int(selected) != len(ids) {
			return fmt.Errorf("%w: %d of %d ids matched", ErrSelectionMismatch, selected, len(ids))
		}

		res, err = tx.ExecContext(ctx, markRejected, projectID, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}
		rejected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark rejected: %w", err)
		}

		if _, err := tx.ExecContext(ctx, markSelectionConfirmed, projectID, at); err != nil {
			return fmt.Errorf("mark selection confirmed: %w", err)
		}

		result.SelectedCount = int(selected)
		result.RejectedCount = int(rejected)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSelectionContacts returns the contact details of every decided application.
func (r *Repository) ListSelectionContacts(ctx context.Context, projectID string) ([]models.ApplicationContact, error) {
	rows, err := r.db.QueryContext(ctx, querySelectionContacts, projectID)
	if err != nil {
		return nil, fmt.Errorf("query selection contacts: %w", err)
	}
	defer rows.Close()

	var out []models.ApplicationContact
	for rows.Next() {
		var c models.ApplicationContact
		if err := rows.Scan(&c.ApplicationID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.SelectionResult); err != nil {
			return nil, fmt.Errorf("scan selection contact: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate selection contacts: %w", err)
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
