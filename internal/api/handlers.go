package api

import (
	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/validation"
	"coach-selection-workers/internal/repository"
	"coach-selection-workers/internal/selection"
	calculateprojectscores "coach-selection-workers/internal/workers/scoring/calculate-project-scores"
	finalizeprojectscores "coach-selection-workers/internal/workers/scoring/finalize-project-scores"
	validatescoringconfig "coach-selection-workers/internal/workers/scoring/validate-scoring-config"
	validatesurveyscores "coach-selection-workers/internal/workers/scoring/validate-survey-scores"
	confirmbulkselection "coach-selection-workers/internal/workers/selection/confirm-bulk-selection"
	getselectionrecommendations "coach-selection-workers/internal/workers/selection/get-selection-recommendations"

	"github.com/gofiber/fiber/v2"
)

// bind decodes an optional JSON body and checks its validate tags.
func bind(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return errors.NewInputValidationError("parse body: " + err.Error())
		}
	}
	if res := validation.Struct(dst); !res.Valid {
		return errors.NewInputValidationError(res.Summary())
	}
	return nil
}

func (s *Server) calculateScores(c *fiber.Ctx) error {
	var req calculateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.ops.Calculate.Execute(c.UserContext(), &calculateprojectscores.Input{
		ProjectID:     c.Params("projectId"),
		ApplicationID: req.ApplicationID,
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) finalizeScores(c *fiber.Ctx) error {
	out, err := s.ops.Finalize.Execute(c.UserContext(), &finalizeprojectscores.Input{
		ProjectID: c.Params("projectId"),
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) recommendations(c *fiber.Ctx) error {
	out, err := s.ops.Recommendations.Execute(c.UserContext(), &getselectionrecommendations.Input{
		ProjectID: c.Params("projectId"),
		Refresh:   c.QueryBool("refresh"),
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) confirmSelection(c *fiber.Ctx) error {
	var req confirmRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.ops.Confirm.Execute(c.UserContext(), &confirmbulkselection.Input{
		ProjectID:      c.Params("projectId"),
		ApplicationIDs: req.ApplicationIDs,
		ConfirmedBy:    userID(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) validateSurvey(c *fiber.Ctx) error {
	var req surveyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.ops.Survey.Execute(c.UserContext(), &validatesurveyscores.Input{
		ProjectID:     c.Params("projectId"),
		Snapshot:      req.Snapshot,
		Commands:      req.Commands,
		FailOnInvalid: req.FailOnInvalid,
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

func (s *Server) validateCriteria(c *fiber.Ctx) error {
	var req criteriaRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.ops.Criteria.Execute(c.UserContext(), &validatescoringconfig.Input{
		ProjectID: req.ProjectID,
		Criteria:  req.Criteria,
		Save:      req.Save,
	})
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// updateWeights stores a validated quantitative/qualitative split and drops
// the project's cached ranking.
func (s *Server) updateWeights(c *fiber.Ctx) error {
	var req weightsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	projectID := c.Params("projectId")
	w := selection.Weights{Quantitative: *req.Quantitative, Qualitative: *req.Qualitative}
	if err := w.Validate(); err != nil {
		return errors.NewWeightsInvalidError(err.Error()).
			WithMetadata("quantitativeWeight", w.Quantitative).
			WithMetadata("qualitativeWeight", w.Qualitative)
	}

	ctx := c.UserContext()
	if err := s.repo.UpdateWeights(ctx, projectID, w); err != nil {
		return repository.MapWriteError("update_weights", projectID, err)
	}
	if err := s.cache.InvalidateRecommendations(ctx, projectID); err != nil {
		s.logger.Warn("failed to drop cached recommendations", map[string]interface{}{
			"projectId": projectID,
			"error":     err,
		})
	}
	return c.JSON(fiber.Map{"projectId": projectID, "weights": w})
}
