package server

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/san-kum/pidtune/internal/process"
	"github.com/san-kum/pidtune/internal/storage"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...interface{}) error {
	return errors.Wrapf(errBadRequest, format, args...)
}

var clientErrors = []error{
	errBadRequest,
	process.ErrInvalidSeries,
	process.ErrInsufficientData,
	process.ErrLevelNotReached,
	process.ErrInvertedCrossing,
	process.ErrZeroExcitation,
	process.ErrInvalidModel,
}

// statusFor maps identification and tuning failures to 400, missing
// datasets to 404, a closed loop that cannot be realized to 422 and
// everything else to 500.
func statusFor(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, process.ErrUnstableModel) {
		return http.StatusUnprocessableEntity
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
