package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 发送JSON响应
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// RespondError 发送错误响应. Every failure the user can hit gets a readable
// message body, never a silent status code.
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}

// RespondNotice pairs a payload with a human-readable notice, used for the
// degraded text-only reply path.
func RespondNotice(w http.ResponseWriter, status int, payload interface{}, notice string) {
	RespondJSON(w, status, map[string]interface{}{
		"result": payload,
		"notice": notice,
	})
}
