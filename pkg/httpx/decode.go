package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

// ErrBadJSON is returned by DecodeJSON for any body that is not a single
// well formed JSON object.
var ErrBadJSON = errors.New("httpx: malformed JSON body")

// DecodeJSON decodes the request body into dst. An empty body decodes as {}
// so endpoints whose fields are all optional accept a bare POST.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBadJSON, err)
	}

	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrBadJSON)
	}

	return nil
}
