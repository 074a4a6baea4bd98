package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/fractalschool/recsys-backend/internal/pkg/errors"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError translates service-layer errors into HTTP statuses:
// not-found -> 404, validation -> 400 with the stable reason code,
// unauthorized -> 401, everything else -> 500 with the detail withheld.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case err == apperrors.ErrUnauthorized:
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	default:
		if ve, ok := apperrors.AsValidation(err); ok {
			RespondError(c, http.StatusBadRequest, ve.Reason, err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "internal", nil)
	}
}
