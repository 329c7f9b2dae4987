package codec

import (
	"encoding/json"
	"strings"

	"github.com/serenemind/sessiond/internal/domain"
)

// errorBody is the structured error envelope the remote services return.
// The detail field may be a plain string, a list of per-field errors, or a
// structured object; extraction follows a fixed precedence.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

type objectDetail struct {
	Message string `json:"message"`
}

// ParseErrorResponse classifies a non-2xx response. A structured body yields
// a validation error carrying the extracted message; anything else is a
// transport error with the generic connection message.
func ParseErrorResponse(statusCode int, body []byte) *domain.ClassifiedError {
	if msg, ok := ExtractDetail(body); ok {
		return domain.ErrValidation(msg).WithStatus(statusCode)
	}
	return domain.ErrTransport("").WithStatus(statusCode)
}

// ExtractDetail pulls a user-presentable message out of a structured error
// body. Precedence: string detail, then joined per-field messages, then the
// object's message field, then the generic fallback. The second return is
// false when the body carries no detail field at all.
func ExtractDetail(body []byte) (string, bool) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s, true
	}

	var fields []fieldError
	if err := json.Unmarshal(eb.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				msgs = append(msgs, f.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, ", "), true
		}
		return domain.GenericValidationMessage, true
	}

	var obj objectDetail
	if err := json.Unmarshal(eb.Detail, &obj); err == nil && obj.Message != "" {
		return obj.Message, true
	}

	return domain.GenericValidationMessage, true
}
