package controller

import (
	"errors"
	"net/http"

	"climate-server/internal/modules/climate/service"
	"climate-server/internal/utils"
)

type errorKind struct {
	target error
	status int
	kind   string
}

// Checked in order; the first errors.Is match wins.
var errorKinds = []errorKind{
	{target: service.ErrInvalidDateFormat, status: http.StatusBadRequest, kind: "InvalidDateFormat"},
	{target: service.ErrInvalidRange, status: http.StatusBadRequest, kind: "InvalidRange"},
	{target: service.ErrDataUnavailable, status: http.StatusNotFound, kind: "DataUnavailable"},
	{target: service.ErrNoMatchingData, status: http.StatusNotFound, kind: "NoMatchingData"},
}

// classifyError returns the HTTP status and kind for a service error. Unknown
// errors are internal and have no kind.
func classifyError(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, ""
}

func (c *climateControllerImpl) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classifyError(err)
	if kind == "" {
		c.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.WriteError(w, status, "internal error")
		return
	}
	c.logger.Debug("request rejected", "path", r.URL.Path, "kind", kind, "error", err)
	utils.WriteKindError(w, status, kind, err.Error())
}
