package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/fractalschool/recsys-backend/internal/pkg/errors"
)

func TestRespondServiceErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "not found", err: apperrors.NotFound("assignment"), wantStatus: http.StatusNotFound, wantCode: "not_found"},
		{name: "unauthorized", err: apperrors.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantCode: "unauthorized"},
		{name: "validation", err: apperrors.Validation(apperrors.ReasonTimeExpired), wantStatus: http.StatusBadRequest, wantCode: apperrors.ReasonTimeExpired},
		{name: "internal", err: json.Unmarshal([]byte("{"), &struct{}{}), wantStatus: http.StatusInternalServerError, wantCode: "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			RespondServiceError(c, tc.err)

			if recorder.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d", tc.wantStatus, recorder.Code)
			}
			var envelope ErrorEnvelope
			if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code: want=%s got=%s", tc.wantCode, envelope.Error.Code)
			}
		})
	}
}
