// Package search publishes finalized project scores to Elasticsearch so the
// admin dashboard can filter and sort applicants without touching PostgreSQL.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"coach-selection-workers/internal/selection"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"
)

type ScoreDocument struct {
	ProjectID        string    `json:"projectId"`
	ApplicationID    string    `json:"applicationId"`
	UserID           string    `json:"userId"`
	Rank             int       `json:"rank"`
	AutoScore        float64   `json:"autoScore"`
	QualitativeScore *float64  `json:"qualitativeScore,omitempty"`
	FinalScore       float64   `json:"finalScore"`
	IsRecommended    bool      `json:"isRecommended"`
	EvaluationCount  int       `json:"evaluationCount"`
	IndexedAt        time.Time `json:"indexedAt"`
}

func (d ScoreDocument) docID() string {
	return d.ProjectID + ":" + d.ApplicationID
}

// DocumentsFromRanking converts a ranked list into index documents.
func DocumentsFromRanking(projectID string, list selection.RankedList, at time.Time) []ScoreDocument {
	docs := make([]ScoreDocument, 0, len(list.Applications))
	for _, a := range list.Applications {
		docs = append(docs, ScoreDocument{
			ProjectID:        projectID,
			ApplicationID:    a.ApplicationID,
			UserID:           a.UserID,
			Rank:             a.Rank,
			AutoScore:        a.AutoScore,
			QualitativeScore: a.QualitativeAvg,
			FinalScore:       a.FinalScore,
			IsRecommended:    a.IsRecommended,
			EvaluationCount:  a.EvaluationCount,
			IndexedAt:        at,
		})
	}
	return docs
}

const scoreMapping = `{
  "mappings": {
    "properties": {
      "projectId":        {"type": "keyword"},
      "applicationId":    {"type": "keyword"},
      "userId":           {"type": "keyword"},
      "rank":             {"type": "integer"},
      "autoScore":        {"type": "scaled_float", "scaling_factor": 100},
      "qualitativeScore": {"type": "scaled_float", "scaling_factor": 100},
      "finalScore":       {"type": "scaled_float", "scaling_factor": 100},
      "isRecommended":    {"type": "boolean"},
      "evaluationCount":  {"type": "integer"},
      "indexedAt":        {"type": "date"}
    }
  }
}`

type ScoreIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewScoreIndex(client *elasticsearch.Client, index string) *ScoreIndex {
	return &ScoreIndex{client: client, index: index}
}

// EnsureIndex creates the score index with its mapping when it does not exist.
func (s *ScoreIndex) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithBody(strings.NewReader(scoreMapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// another instance created it first
		if gjson.GetBytes(body, "error.type").String() == "resource_already_exists_exception" {
			return nil
		}
		return fmt.Errorf("create index %s failed: %s", s.index, res.Status())
	}
	return nil
}

// IndexScores upserts documents with one bulk request. Document ids are
// "<projectId>:<applicationId>" so re-finalizing a project overwrites.
func (s *ScoreIndex) IndexScores(ctx context.Context, docs []ScoreDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, d := range docs {
		meta := map[string]map[string]string{"index": {"_id": d.docID()}}
		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(d); err != nil {
			return fmt.Errorf("encode score document: %w", err)
		}
	}

	req := esapi.BulkRequest{
		Index: s.index,
		Body:  &buf,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read bulk response: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("bulk index failed: %s", res.Status())
	}
	if gjson.GetBytes(body, "errors").Bool() {
		reason := gjson.GetBytes(body, "items.#.index.error.reason").Array()
		if len(reason) > 0 {
			return fmt.Errorf("bulk index rejected %d documents: %s", len(reason), reason[0].String())
		}
		return fmt.Errorf("bulk index reported errors")
	}
	return nil
}

// ProjectScores returns the indexed documents of a project ordered by rank.
func (s *ScoreIndex) ProjectScores(ctx context.Context, projectID string, size int) ([]ScoreDocument, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"projectId.keyword": projectID},
		},
		"sort": []interface{}{
			map[string]interface{}{"rank": map[string]string{"order": "asc"}},
		},
		"size": size,
	}
	payload, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(payload)),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search scores: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search scores failed: %s", res.Status())
	}

	var docs []ScoreDocument
	for _, hit := range gjson.GetBytes(body, "hits.hits.#._source").Array() {
		var d ScoreDocument
		if err := json.Unmarshal([]byte(hit.Raw), &d); err != nil {
			return nil, fmt.Errorf("decode score document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}
