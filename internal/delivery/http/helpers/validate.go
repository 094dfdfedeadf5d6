package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// MaxBodyBytes caps request bodies read by DecodeAndValidate.
const MaxBodyBytes = 1 << 20

// Validator is implemented by request bodies that check their own fields.
// An empty result means valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes a single JSON object from the body into dest, rejecting
// unknown fields, then runs dest.Validate when dest is a Validator. On failure it
// writes a 400 envelope and returns false; handlers should return right away.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	if msg := decodeJSON(w, r, dest); msg != "" {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, msg)
		return false
	}
	v, ok := dest.(Validator)
	if !ok {
		return true
	}
	if errs := v.Validate(); len(errs) > 0 {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
		return false
	}
	return true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest any) string {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	err := dec.Decode(dest)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is required"
	case errors.As(err, &tooLarge):
		return "request body too large"
	case err != nil:
		return err.Error()
	}
	if dec.More() {
		return "request body must contain a single JSON object"
	}
	return ""
}
