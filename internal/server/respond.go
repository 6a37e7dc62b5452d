package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/sofianehd/linkup/pkg/apperr"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps an application error onto its HTTP status. Internal causes
// are logged server-side and never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	if appErr.Code == apperr.CodeInternal {
		log.Printf("internal error: %v", appErr)
		appErr = &apperr.AppError{Code: apperr.CodeInternal, Message: "internal server error"}
	}
	writeJSON(w, appErr.Code.HTTPStatus(), map[string]interface{}{"error": appErr})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.InvalidArg("malformed request body")
	}
	return nil
}
