package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ExposeErrors controls whether internal error details reach the client on
// 5xx responses. Only set in development.
var ExposeErrors bool

type Envelope struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message,omitempty"`
	Data        any      `json:"data,omitempty"`
	Error       string   `json:"error,omitempty"`
	ValidValues []string `json:"valid_values,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// Success writes {success:true, message, data}.
func Success(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Error writes {success:false, message, error}. For status >= 500 the error
// detail is replaced unless ExposeErrors is set.
func Error(w http.ResponseWriter, status int, message string, err error, valid ...string) {
	body := Envelope{Success: false, Message: message, ValidValues: valid}
	if err != nil {
		body.Error = err.Error()
	}
	if status >= http.StatusInternalServerError && !ExposeErrors {
		body.Error = "internal server error"
	}
	JSON(w, status, body)
}
