package postgrest

import (
	"encoding/json"
	"errors"

	"github.com/parishdesk/parishdesk/apperr"
)

// notFoundCode is what the backend reports when a Single request did not
// match exactly one row.
const notFoundCode = "PGRST116"

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func decodeErrorBody(payload []byte) errorBody {
	var body errorBody
	if err := json.Unmarshal(payload, &body); err != nil || body.Message == "" && body.Code == "" {
		body.Message = string(payload)
	}
	return body
}

// IsNotFound reports whether err is the backend's "single row expected"
// failure. Callers narrowing a read to one row treat it as an absent record,
// not an error.
func IsNotFound(err error) bool {
	var backend *apperr.BackendError
	return errors.As(err, &backend) && backend.Code == notFoundCode
}
