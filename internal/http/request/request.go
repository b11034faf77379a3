// Package request is the HTTP Surface's "Validate schema" step (spec
// §4.9): decode a JSON body and run it through a shared
// go-playground/validator instance, grounded on the teacher's
// mapstructure-decode-then-check idiom in internal/http/services/cback
// but using struct tags instead of hand-written field checks.
package request

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/filez-project/filez/pkg/errtypes"
)

var validate = validator.New()

// Bind decodes r's JSON body into dst and validates it against dst's
// `validate` struct tags, returning a errtypes.Validation on either
// failure.
func Bind(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errtypes.Validation{Field: "body", Reason: err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return errtypes.Validation{Field: verrs[0].Field(), Reason: verrs[0].Tag()}
		}
		return errtypes.Validation{Field: "body", Reason: err.Error()}
	}
	return nil
}
