package repository

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"

	"coach-selection-workers/internal/common/errors"
)

// MapError turns a read failure into the StandardError reported to Zeebe and
// the API.
func MapError(operation, projectID string, err error) error {
	return mapError(operation, projectID, err, func() error {
		return errors.NewQueryExecutionFailedError(operation, err)
	})
}

// MapWriteError is MapError for writes.
func MapWriteError(operation, projectID string, err error) error {
	return mapError(operation, projectID, err, func() error {
		return errors.NewDatabaseUpdateFailedError(operation, err)
	})
}

func mapError(operation, projectID string, err error, fallback func() error) error {
	if err == nil {
		return nil
	}
	var stdErr *errors.StandardError
	switch {
	case stderrors.As(err, &stdErr):
		return stdErr
	case stderrors.Is(err, ErrProjectNotFound):
		return errors.NewProjectNotFoundError(projectID)
	case stderrors.Is(err, ErrSelectionAlreadyConfirmed):
		return errors.NewSelectionAlreadyConfirmedError(projectID)
	case stderrors.Is(err, ErrSelectionMismatch):
		return errors.NewSelectionInvalidError(err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.NewQueryTimeoutError(operation)
	case isConnectionError(err):
		return errors.NewDatabaseConnectionFailedError(err)
	default:
		return fallback()
	}
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	return stderrors.Is(err, driver.ErrBadConn) || stderrors.As(err, &opErr)
}
