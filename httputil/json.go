// httputil/json.go
package httputil

import (
	"encoding/json"
	"net/http"
	"reflect"

	"go.uber.org/zap"
)

// ErrorResponse is the JSON error envelope for infrastructure errors
// (404, 405, 401, 429).
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

var jsonLogger = zap.NewNop()

// SetJSONLogger sets the logger used to report encoding failures that happen
// after the status line has been written. Call it once at startup.
func SetJSONLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	jsonLogger = logger
}

// WriteJSON writes v as JSON with the given status. Status codes outside
// 100-599 become 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		typeName := "nil"
		if v != nil {
			typeName = reflect.TypeOf(v).String()
		}
		jsonLogger.Error("json encoding failed after headers sent",
			zap.String("type", typeName), zap.Error(err))
	}
}

// JSONError writes an ErrorResponse with a machine code and a human message.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}
