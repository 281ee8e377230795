package stream

import (
	"encoding/json"
	"net/http"
)

func writeError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"type":   code,
		"detail": detail,
	})
}
