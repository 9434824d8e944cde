package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/openscholia/sms-api/internal/models"
	"github.com/openscholia/sms-api/internal/service"
)

type failingImportStore struct{ calls int }

func (s *failingImportStore) Begin(ctx context.Context) (service.ImportTx, error) {
	s.calls++
	return nil, errors.New("store should not be touched")
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	envelope := decodeEnvelope(t, w)
	errObj, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	return errObj["code"].(string)
}

func newSessionHandlerForTest(store service.ImportStore) *SessionHandler {
	importSvc := service.NewImportService(store, nil, nil, nil, nil, 20, 10)
	return NewSessionHandler(nil, importSvc)
}

func TestSessionHandlerExportRequiresSemester(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSessionHandlerForTest(&failingImportStore{})

	c, w := newGinContext(http.MethodGet, "/sessions/export", nil)
	h.Export(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestSessionHandlerImportRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSessionHandlerForTest(&failingImportStore{})

	c, w := newGinContext(http.MethodPost, "/sessions/import", []byte("{not json"))
	h.Import(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "IMPORT_INVALID_JSON", errorCode(t, w))
}

func TestSessionHandlerImportRequiresPackage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSessionHandlerForTest(&failingImportStore{})

	c, w := newGinContext(http.MethodPost, "/sessions/import", []byte(`{"merge_strategy":"update"}`))
	h.Import(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "IMPORT_INVALID_REQUEST", errorCode(t, w))
}

func TestSessionHandlerImportDryRunNeverOpensTransaction(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &failingImportStore{}
	h := newSessionHandlerForTest(store)

	pkg := models.SessionPackage{
		Metadata: models.SessionMetadata{
			Semester: "2025-Spring",
			Version:  models.SessionPackageVersion,
		},
		Courses: []models.SessionCourse{{
			CourseCode: "MATH101",
			CourseName: "Algebra I",
			Semester:   "2025-Spring",
			Credits:    6,
			EvaluationRules: models.EvaluationRules{
				{Category: "final", Weight: 100},
			},
		}},
		Students: []models.SessionStudent{{
			StudentID: "S001",
			FirstName: "Maria",
			LastName:  "Papadimitriou",
			Email:     "maria@example.com",
		}},
	}
	body, err := json.Marshal(map[string]interface{}{
		"package": pkg,
		"dry_run": true,
	})
	require.NoError(t, err)

	c, w := newGinContext(http.MethodPost, "/sessions/import", body)
	h.Import(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Zero(t, store.calls)

	envelope := decodeEnvelope(t, w)
	data := envelope["data"].(map[string]interface{})
	require.Equal(t, true, data["dry_run"])
}
