package scoring

import (
	"errors"
	"math"
	"sort"

	"coach-selection-workers/internal/models"
)

// Item is a project item with its criteria compiled.
type Item struct {
	ProjectItemID string
	Name          string
	Category      string
	Repeatable    bool
	MaxScore      float64
	Criteria      []Criterion
}

// ProjectConfig is the compiled scoring configuration of one project.
type ProjectConfig struct {
	ProjectID string
	Items     []Item
	Problems  []*CompileError
}

// CompileProject compiles every scoring item of a project. BASIC items carry
// no points and are left out.
func CompileProject(projectID string, items []models.ProjectItem) *ProjectConfig {
	cfg := &ProjectConfig{ProjectID: projectID}
	for _, pi := range items {
		if pi.Competency.Category == models.CategoryBasic {
			continue
		}
		criteria, errs := CompileAll(pi.Criteria)
		for _, err := range errs {
			var ce *CompileError
			if errors.As(err, &ce) {
				if ce.ProjectItemID == "" {
					ce.ProjectItemID = pi.ID
				}
				cfg.Problems = append(cfg.Problems, ce)
			}
		}
		cfg.Items = append(cfg.Items, Item{
			ProjectItemID: pi.ID,
			Name:          pi.Competency.Name,
			Category:      pi.Competency.Category,
			Repeatable:    pi.Competency.IsRepeatable,
			MaxScore:      float64(pi.MaxScore),
			Criteria:      criteria,
		})
	}
	return cfg
}

type ItemScore struct {
	ProjectItemID string  `json:"projectItemId"`
	Score         float64 `json:"score"`
	Entries       int     `json:"entries"`
}

type ApplicationScore struct {
	ApplicationID string      `json:"applicationId"`
	AutoScore     float64     `json:"autoScore"`
	Items         []ItemScore `json:"items"`
}

// ScoreApplication computes every item score and the auto score, which is
// their sum. Each item score is capped at the item's max score.
func (p *ProjectConfig) ScoreApplication(app models.Application) ApplicationScore {
	byItem := make(map[string][]models.ApplicationData)
	for _, d := range app.Data {
		byItem[d.ProjectItemID] = append(byItem[d.ProjectItemID], d)
	}

	result := ApplicationScore{ApplicationID: app.ID, Items: make([]ItemScore, 0, len(p.Items))}
	total := 0.0
	for _, item := range p.Items {
		rows := byItem[item.ProjectItemID]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].EntryIndex < rows[j].EntryIndex })

		entries := make([]Entry, len(rows))
		for i, r := range rows {
			entries[i] = Entry{Value: r.SubmittedValue, HasProof: r.HasProof()}
		}

		var score float64
		if item.Repeatable {
			score = Evaluate(item.Criteria, Entry{}, app.Profile, entries)
		} else {
			var source Entry
			if len(entries) > 0 {
				source = entries[0]
			}
			score = Evaluate(item.Criteria, source, app.Profile, nil)
		}
		if score > item.MaxScore {
			score = item.MaxScore
		}
		score = Round2(score)

		total += score
		result.Items = append(result.Items, ItemScore{
			ProjectItemID: item.ProjectItemID,
			Score:         score,
			Entries:       len(entries),
		})
	}
	result.AutoScore = Round2(total)
	return result
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
