package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// parseProductPath parses /api/v1/{product}/filter.
func parseProductPath(path string) (product string, err error) {
	path = strings.TrimPrefix(path, "/api/v1/")
	path = strings.TrimSuffix(path, "/filter")
	path = strings.Trim(path, "/")
	if path == "" {
		return "", fmt.Errorf("invalid path: empty data product")
	}
	if strings.Contains(path, "/") {
		return "", fmt.Errorf("invalid path format")
	}
	return path, nil
}

// APIResponse is the standard response format.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// writeJSON writes a JSON response to http.ResponseWriter.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) error {
	return writeJSON(w, statusCode, APIResponse{
		Success: false,
		Error:   message,
	})
}

// writeSuccess writes a success response.
func writeSuccess(w http.ResponseWriter, statusCode int, data interface{}) error {
	return writeJSON(w, statusCode, APIResponse{Success: true, Data: data})
}
