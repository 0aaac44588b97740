package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var ErrBadPayload = errors.New("malformed request payload")

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// DecodeValid parses the JSON body into dst and runs its validate tags.
// Returns the field issues when validation fails.
func DecodeValid(r *http.Request, dst any) ([]ValidationIssue, error) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return nil, ErrBadPayload
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			issues := make([]ValidationIssue, 0, len(fieldErrors))
			for _, fieldError := range fieldErrors {
				issues = append(issues, ValidationIssue{
					Field:  fieldError.Field(),
					Reason: "failed " + fieldError.Tag() + " validation",
				})
			}
			return issues, ErrBadPayload
		}
		return nil, ErrBadPayload
	}
	return nil, nil
}
