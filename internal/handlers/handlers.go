package handlers

import (
	"net/http"
	"time"
)

// HomeHandler handles requests to the root path
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "BB84 quantum key distribution simulator",
		"version": "1.0.0",
		"status":  "running",
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HealthHandler handles health check requests
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "qkd-simulation-api",
	}

	respondWithJSON(w, http.StatusOK, health)
}
