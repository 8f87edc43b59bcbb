package responsex

import (
	"encoding/json"
	"net/http"
	"selection_assistant/models/models"
)

func RespondWithJSON(w http.ResponseWriter, http_status_code int, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http_status_code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(response)
}

func RespondWithError(w http.ResponseWriter, http_status_code int, msg string) {
	RespondWithJSON(w, http_status_code, models.Response{
		Code: http_status_code,
		Msg:  msg,
		Data: map[string]interface{}{},
	})
}
