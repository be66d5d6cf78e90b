package web

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"riskgrid/pipeline"
	"riskgrid/util"
	"testing"
)

func TestArtifactHandler_servesBuiltArtifact(t *testing.T) {
	artifactDir := t.TempDir()
	err := os.WriteFile(filepath.Join(artifactDir, pipeline.GridArtifactFile), []byte(`{"cells":{}}`), 0644)
	util.AssertNil(t, err)

	router := initRouter(artifactDir)

	request := httptest.NewRequest(http.MethodGet, "/grid", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	util.AssertEqual(t, http.StatusOK, recorder.Code)
	util.AssertEqual(t, "application/json", recorder.Header().Get("Content-Type"))
	util.AssertEqual(t, `{"cells":{}}`, recorder.Body.String())
}

func TestArtifactHandler_missingArtifact(t *testing.T) {
	router := initRouter(t.TempDir())

	request := httptest.NewRequest(http.MethodGet, "/intersections", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	util.AssertEqual(t, http.StatusNotFound, recorder.Code)
}
