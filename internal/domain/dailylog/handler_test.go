package dailylog

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nidus/nidus/internal/platform/apperr"
)

func newTestServer() *echo.Echo {
	svc, _, _ := newTestService(ActivitiesUpsert)
	e := echo.New()
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(zerolog.New(io.Discard))
	NewHandler(svc).RegisterRoutes(e.Group("/api"))
	return e
}

func call(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHandler_InsertThenUpdate(t *testing.T) {
	e := newTestServer()

	rec, out := call(e, http.MethodPost, "/api/registrosdiarios/sinais-clinicos", `{"paciente_id":5,"temperatura":37.2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	id := out["registro_id"]

	rec, out = call(e, http.MethodPost, "/api/registrosdiarios/sentimentos", `{"paciente_id":5,"estado_geral":"bem"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, out["registro_id"])
}

func TestHandler_Errors(t *testing.T) {
	e := newTestServer()

	rec, _ := call(e, http.MethodPost, "/api/registrosdiarios/novo", `{"atividades_realizadas":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(e, http.MethodPost, "/api/registrosdiarios/novo", `{"paciente_id":"cinco"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(e, http.MethodPost, "/api/registrosdiarios/sentimentos", `{"paciente_id":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(e, http.MethodPost, "/api/registrosdiarios/novo", `{"paciente_id":404}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_List(t *testing.T) {
	e := newTestServer()
	_, _ = call(e, http.MethodPost, "/api/registrosdiarios/novo", `{"paciente_id":5}`)
	_, _ = call(e, http.MethodPost, "/api/registrosdiarios/novo", `{"paciente_id":6}`)

	rec, out := call(e, http.MethodGet, "/api/registrosdiarios?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), out["total"])
	assert.Equal(t, float64(1), out["count"])
	assert.Equal(t, true, out["has_more"])

	rec, _ = call(e, http.MethodGet, "/api/registrosdiarios?paciente_id=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
