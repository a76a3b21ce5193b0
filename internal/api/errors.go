package api

import (
	stderrors "errors"

	"coach-selection-workers/internal/common/errors"
	"coach-selection-workers/internal/common/logger"

	"github.com/gofiber/fiber/v2"
)

type errorResponse struct {
	Error *errors.StandardError `json:"error"`
}

// statusOf returns the HTTP status an error is rendered with.
func statusOf(err error) int {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return errors.HTTPStatus(errors.AsStandardError(err).Code)
}

func toStandardError(err error) *errors.StandardError {
	var fe *fiber.Error
	if stderrors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			return &errors.StandardError{Code: "ROUTE_NOT_FOUND", Message: fe.Message}
		default:
			return errors.NewInputValidationError(fe.Message)
		}
	}
	return errors.AsStandardError(err)
}

// errorHandler renders every failure as {"error": StandardError}.
func errorHandler(log logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := statusOf(err)
		stdErr := toStandardError(err)
		if status >= fiber.StatusInternalServerError {
			log.Error("request failed", map[string]interface{}{
				"method": c.Method(),
				"path":   c.Path(),
				"code":   stdErr.Code,
				"error":  err,
			})
		}
		return c.Status(status).JSON(errorResponse{Error: stdErr})
	}
}
