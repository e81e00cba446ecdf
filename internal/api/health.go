package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"autobazar/listing-editor/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck
func HealthCheckHandler(deps *Dependencies, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]entities.ServiceStatus)

		dbStatus := entities.ServiceStatus{Status: "ok", Details: "Audit database connected"}
		if deps.SQL == nil {
			dbStatus = entities.ServiceStatus{Status: "down", Details: "not configured"}
		} else if err := deps.SQL.PingContext(r.Context()); err != nil {
			dbStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
		}
		services["database"] = dbStatus

		session := entities.ServiceStatus{Status: "ok", Details: "Signed in"}
		if deps.Session == nil || !deps.Session.Active() {
			// Catalog browsing works signed out.
			session.Details = "Signed out"
		}
		services["marketplace_session"] = session

		services["editors"] = entities.ServiceStatus{
			Status:  "ok",
			Details: fmt.Sprintf("%d open", deps.Services.Editors.Count()),
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  upSince,
			Uptime:   time.Since(upSince).Round(time.Second).String(),
		}
		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
