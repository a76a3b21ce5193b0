package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coach-selection-workers/internal/common/database"
	"coach-selection-workers/internal/models"
	"coach-selection-workers/internal/selection"

	"github.com/lib/pq"
)

const queryProject = `
	SELECT id, title, status, max_participants, quantitative_weight, qualitative_weight,
	       scores_finalized_at, selection_confirmed_at
	FROM projects
	WHERE id = $1`

const queryProjectItems = `
	SELECT pi.id, pi.project_id, pi.competency_item_id, pi.is_required, pi.max_score,
	       COALESCE(pi.proof_required_level, ''), pi.display_order,
	       ci.id, ci.name, ci.category, COALESCE(ci.template, ''), ci.is_repeatable, ci.max_entries
	FROM project_items pi
	JOIN competency_items ci ON ci.id = pi.competency_item_id
	WHERE pi.project_id = $1
	ORDER BY pi.display_order, pi.id`

const queryScoringCriteria = `
	SELECT id, project_item_id, matching_type, COALESCE(expected_value, ''), score,
	       COALESCE(value_source, ''), COALESCE(source_field, ''), COALESCE(extract_pattern, ''),
	       COALESCE(aggregation_mode, ''), display_order
	FROM scoring_criteria
	WHERE project_item_id = ANY($1)
	ORDER BY project_item_id, display_order, id`

const queryCustomQuestions = `
	SELECT id, project_id, question, max_score, is_required, display_order
	FROM custom_questions
	WHERE project_id = $1
	ORDER BY display_order, id`

const updateProjectWeights = `
	UPDATE projects
	SET quantitative_weight = $2, qualitative_weight = $3, updated_at = NOW()
	WHERE id = $1`

const updateScoringCriteria = `
	UPDATE scoring_criteria
	SET matching_type = $2, expected_value = $3, score = $4, value_source = $5,
	    source_field = $6, extract_pattern = $7, aggregation_mode = $8, updated_at = NOW()
	WHERE id = $1`

func (r *Repository) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var (
		p                    models.Project
		finalized, confirmed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, queryProject, projectID).Scan(
		&p.ID, &p.Title, &p.Status, &p.MaxParticipants, &p.QuantitativeWeight, &p.QualitativeWeight,
		&finalized, &confirmed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if finalized.Valid {
		p.ScoresFinalizedAt = &finalized.Time
	}
	if confirmed.Valid {
		p.SelectionConfirmedAt = &confirmed.Time
	}
	return &p, nil
}

// GetProjectItems loads a project's items with their competency definitions
// and scoring criteria.
func (r *Repository) GetProjectItems(ctx context.Context, projectID string) ([]models.ProjectItem, error) {
	rows, err := r.db.QueryContext(ctx, queryProjectItems, projectID)
	if err != nil {
		return nil, fmt.Errorf("query project items: %w", err)
	}
	defer rows.Close()

	var (
		items []models.ProjectItem
		ids   []string
	)
	index := make(map[string]int)
	for rows.Next() {
		var it models.ProjectItem
		if err := rows.Scan(
			&it.ID, &it.ProjectID, &it.CompetencyItemID, &it.IsRequired, &it.MaxScore,
			&it.ProofRequiredLevel, &it.DisplayOrder,
			&it.Competency.ID, &it.Competency.Name, &it.Competency.Category, &it.Competency.Template,
			&it.Competency.IsRepeatable, &it.Competency.MaxEntries,
		); err != nil {
			return nil, fmt.Errorf("scan project item: %w", err)
		}
		index[it.ID] = len(items)
		ids = append(ids, it.ID)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project items: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	crows, err := r.db.QueryContext(ctx, queryScoringCriteria, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query scoring criteria: %w", err)
	}
	defer crows.Close()

	for crows.Next() {
		var c models.ScoringCriteria
		if err := crows.Scan(
			&c.ID, &c.ProjectItemID, &c.MatchingType, &c.ExpectedValue, &c.Score,
			&c.ValueSource, &c.SourceField, &c.ExtractPattern, &c.AggregationMode, &c.DisplayOrder,
		); err != nil {
			return nil, fmt.Errorf("scan scoring criteria: %w", err)
		}
		if i, ok := index[c.ProjectItemID]; ok {
			items[i].Criteria = append(items[i].Criteria, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scoring criteria: %w", err)
	}
	return items, nil
}

func (r *Repository) GetCustomQuestions(ctx context.Context, projectID string) ([]models.CustomQuestion, error) {
	rows, err := r.db.QueryContext(ctx, queryCustomQuestions, projectID)
	if err != nil {
		return nil, fmt.Errorf("query custom questions: %w", err)
	}
	defer rows.Close()

	var out []models.CustomQuestion
	for rows.Next() {
		var q models.CustomQuestion
		if err := rows.Scan(&q.ID, &q.ProjectID, &q.Question, &q.MaxScore, &q.IsRequired, &q.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan custom question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate custom questions: %w", err)
	}
	return out, nil
}

// UpdateWeights stores validated weights. Callers validate before calling.
func (r *Repository) UpdateWeights(ctx context.Context, projectID string, w selection.Weights) error {
	res, err := r.db.ExecContext(ctx, updateProjectWeights, projectID, w.Quantitative, w.Qualitative)
	if err != nil {
		return fmt.Errorf("update weights: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	return nil
}

// SaveScoringCriteria persists edited criteria rows in one transaction.
func (r *Repository) SaveScoringCriteria(ctx context.Context, criteria []models.ScoringCriteria) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, c := range criteria {
			if _, err := tx.ExecContext(ctx, updateScoringCriteria,
				c.ID, c.MatchingType, c.ExpectedValue, c.Score, c.ValueSource,
				c.SourceField, c.ExtractPattern, c.AggregationMode,
			); err != nil {
				return fmt.Errorf("update criteria %s: %w", c.ID, err)
			}
		}
		return nil
	})
}
