package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/homedash/internal/httpserver/deps"
)

type buildResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
}

type healthzResponse struct {
	Status        string        `json:"status"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Build         buildResponse `json:"build"`
}

// Healthz is the liveness probe. It never touches the config store or an
// upstream, so a slow integration cannot get the process restarted.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildResponse{
		Version:   d.Build.Version,
		Commit:    d.Build.Commit,
		BuildDate: d.Build.BuildDate,
		GoVersion: d.Build.GoVersion,
		Modified:  d.Build.Modified,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: d.Now().Sub(d.StartTime).Seconds(),
			Build:         build,
		})
	}
}
