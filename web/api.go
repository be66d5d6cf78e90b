package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"

	"riskgrid/pipeline"
)

// StartServer serves the artifacts of a finished build so they can be
// inspected in a browser or fetched by the route scorer during development.
func StartServer(port string, artifactDir string) {
	r := initRouter(artifactDir)
	sigolo.Infof("Start artifact server on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func initRouter(artifactDir string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/grid", artifactHandler(artifactDir, pipeline.GridArtifactFile)).Methods(http.MethodGet)
	r.HandleFunc("/intersections", artifactHandler(artifactDir, pipeline.IntersectionsArtifactFile)).Methods(http.MethodGet)
	r.HandleFunc("/config", artifactHandler(artifactDir, pipeline.ScoringConfigArtifactFile)).Methods(http.MethodGet)
	return r
}

func artifactHandler(artifactDir string, artifactFile string) func(http.ResponseWriter, *http.Request) {
	return func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")

		file := filepath.Join(artifactDir, artifactFile)
		data, err := os.ReadFile(file)
		if err != nil {
			sigolo.Errorf("Error reading artifact %s: %+v", file, err)
			writer.WriteHeader(http.StatusNotFound)
			_, err = writer.Write([]byte(fmt.Sprintf("Artifact %s has not been built yet.", artifactFile)))
			if err != nil {
				sigolo.Errorf("Error writing error response: %+v", err)
			}
			return
		}

		sigolo.Debugf("Serve artifact %s (%d bytes)", artifactFile, len(data))
		writer.Header().Set("Content-Type", "application/json")
		_, err = writer.Write(data)
		if err != nil {
			sigolo.Errorf("Error writing artifact response: %+v", err)
		}
	}
}
