package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope for catalog and history endpoints.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Total int `json:"total"`
	Limit int `json:"limit,omitempty"`
}

// Raw writes v as the JSON body with no envelope.
func Raw(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(v)
}

// JSON writes a JSON response inside the success envelope.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	Raw(w, status, Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// JSONWithMeta writes a JSON response with metadata.
func JSONWithMeta(w http.ResponseWriter, status int, data interface{}, meta *Meta) {
	Raw(w, status, Response{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    meta,
	})
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, body *ErrorBody) {
	Raw(w, status, body)
}

// NotFound writes the 404 body for unknown endpoints.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, &ErrorBody{
		Error:   "Not Found",
		Message: "The requested endpoint does not exist",
	})
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, &ErrorBody{
		Error:   "Bad Request",
		Message: message,
	})
}

// ServerError writes the generic 500 body. Nothing about the cause is exposed.
func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, &ErrorBody{
		Error:   "Server Error",
		Message: "An unexpected error occurred",
	})
}

// ServiceUnavailable writes a 503 response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	Error(w, http.StatusServiceUnavailable, &ErrorBody{
		Error:   "Service Unavailable",
		Message: message,
	})
}
