package httpjson

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"redeploy/internal/apperr"

	"github.com/stretchr/testify/require"
)

func TestErrorMapsKind(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   apperr.Kind
	}{
		{apperr.Validation("score", "score must be within 0..100"), http.StatusBadRequest, apperr.KindValidation},
		{apperr.StateConflict("agent A-1 is Assigned"), http.StatusConflict, apperr.KindStateConflict},
		{apperr.NotFound("match 7 not found"), http.StatusNotFound, apperr.KindNotFound},
		{apperr.OracleUnavailable("oracle is not configured", nil), http.StatusServiceUnavailable, apperr.KindOracleUnavailable},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, apperr.KindInternal},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		Error(rr, c.err)
		require.Equal(t, c.status, rr.Code)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, c.kind, body.Kind)
	}
}

func TestErrorHidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	Error(rr, apperr.Internal("query failed", errors.New("password=secret")))
	require.NotContains(t, rr.Body.String(), "secret")
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	err := Decode(httptest.NewRecorder(), req, &dst)
	require.True(t, apperr.Is(err, apperr.KindValidation))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, Decode(httptest.NewRecorder(), req, &dst))
	require.Equal(t, "x", dst.Name)
}
