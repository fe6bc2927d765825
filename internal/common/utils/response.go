// internal/common/utils/response.go
// Standardized API responses ensure consistency across all endpoints

package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the standard API envelope. Every JSON endpoint returns it.
type Response struct {
	OK      bool        `json:"ok"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes an envelope with the given status code
func JSON(w http.ResponseWriter, statusCode int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// SuccessResponse sends a successful response with a message and data
func SuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{OK: true, Message: message, Data: data})
}

// MessageResponse sends a successful response with a message only
func MessageResponse(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, Response{OK: true, Message: message})
}

// ErrorResponse sends a failure response with a user-facing message
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, Response{OK: false, Message: message})
}
