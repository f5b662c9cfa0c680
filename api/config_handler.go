// Package api — configuration inspection endpoints.
package api

import (
	"net/http"

	"github.com/liqboard/liqboard/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
type ConfigResponse struct {
	API     config.APIConfig     `json:"api"`
	Data    config.DataConfig    `json:"data"`
	News    config.NewsConfig    `json:"news"`
	Logging config.LoggingConfig `json:"logging"`
}

// handleGetConfig returns the current (running) configuration.
// The FRED section is excluded so the API key never leaves the process;
// its status is available via /config/keys in masked form.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			API:     s.cfg.API,
			Data:    s.cfg.Data,
			News:    s.cfg.News,
			Logging: s.cfg.Logging,
		},
	})
}

// handleGetConfigKeys returns the status of all sensitive API keys.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	keys := config.CheckAPIKeys(s.cfg)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    keys,
	})
}
