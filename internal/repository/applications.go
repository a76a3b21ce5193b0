package repository

import (
	"context"
	"database/sql"
	"fmt"

	"coach-selection-workers/internal/common/database"
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/scoring"

	"github.com/lib/pq"
)

// Drafts are never scored; an empty $2 means every submitted application.
const queryApplications = `
	SELECT a.id, a.project_id, a.user_id, a.status, a.selection_result, a.submitted_at,
	       a.auto_score, a.qualitative_score, a.final_score, a.final_rank,
	       COALESCE(cp.profile_data, '{}'::jsonb)
	FROM applications a
	LEFT JOIN coach_profiles cp ON cp.user_id = a.user_id
	WHERE a.project_id = $1
	  AND a.status <> 'draft'
	  AND ($2 = '' OR a.id::text = $2)
	ORDER BY a.submitted_at, a.id`

const queryApplicationData = `
	SELECT id, application_id, project_item_id, entry_index, COALESCE(submitted_value, ''),
	       COALESCE(proof_file_url, ''), COALESCE(verification_status, 'pending'), item_score
	FROM application_data
	WHERE application_id = ANY($1)
	ORDER BY application_id, project_item_id, entry_index`

const updateAutoScore = `
	UPDATE applications SET auto_score = $2, updated_at = NOW() WHERE id = $1`

const updateItemScore = `
	UPDATE application_data SET item_score = $3
	WHERE application_id = $1 AND project_item_id = $2`

// ListApplications loads submitted applications with their answers and the
// applicant's profile. applicationID narrows the result to one application.
func (r *Repository) ListApplications(ctx context.Context, projectID, applicationID string) ([]models.Application, error) {
	rows, err := r.db.QueryContext(ctx, queryApplications, projectID, applicationID)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var (
		apps []models.Application
		ids  []string
	)
	index := make(map[string]int)
	for rows.Next() {
		var (
			a                 models.Application
			submitted         sql.NullTime
			auto, qual, final sql.NullFloat64
			rank              sql.NullInt64
			profile           []byte
		)
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.UserID, &a.Status, &a.SelectionResult, &submitted,
			&auto, &qual, &final, &rank, &profile); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		if submitted.Valid {
			a.SubmittedAt = &submitted.Time
		}
		if rank.Valid {
			rv := int(rank.Int64)
			a.FinalRank = &rv
		}
		a.AutoScore = nullFloat(auto)
		a.QualitativeScore = nullFloat(qual)
		a.FinalScore = nullFloat(final)
		a.Profile = profile

		index[a.ID] = len(apps)
		ids = append(ids, a.ID)
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	if len(apps) == 0 {
		return apps, nil
	}

	drows, err := r.db.QueryContext(ctx, queryApplicationData, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query application data: %w", err)
	}
	defer drows.Close()

	for drows.Next() {
		var (
			d     models.ApplicationData
			score sql.NullFloat64
		)
		if err := drows.Scan(&d.ID, &d.ApplicationID, &d.ProjectItemID, &d.EntryIndex, &d.SubmittedValue,
			&d.ProofFileURL, &d.VerificationStatus, &score); err != nil {
			return nil, fmt.Errorf("scan application data: %w", err)
		}
		d.ItemScore = nullFloat(score)
		if i, ok := index[d.ApplicationID]; ok {
			apps[i].Data = append(apps[i].Data, d)
		}
	}
	if err := drows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application data: %w", err)
	}
	return apps, nil
}

// SaveAutoScores writes item scores and auto scores for a batch of
// applications in one transaction.
func (r *Repository) SaveAutoScores(ctx context.Context, scores []scoring.ApplicationScore) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, s := range scores {
			if _, err := tx.ExecContext(ctx, updateAutoScore, s.ApplicationID, s.AutoScore); err != nil {
				return fmt.Errorf("update auto score %s: %w", s.ApplicationID, err)
			}
			for _, it := range s.Items {
				if _, err := tx.ExecContext(ctx, updateItemScore, s.ApplicationID, it.ProjectItemID, it.Score); err != nil {
					return fmt.Errorf("update item score %s/%s: %w", s.ApplicationID, it.ProjectItemID, err)
				}
			}
		}
		return nil
	})
}
