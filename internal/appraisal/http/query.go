package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/appraisal/internal/appraisal/service"
	"github.com/aussiebroadwan/appraisal/pkg/validx"
)

// pageFromQuery reads ?limit and ?offset. Range checks happen in the service.
func pageFromQuery(r *http.Request) (service.Page, error) {
	var p service.Page
	q := r.URL.Query()

	for _, f := range []struct {
		name string
		dst  *int
	}{
		{"limit", &p.Limit},
		{"offset", &p.Offset},
	} {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return service.Page{}, validx.Field(f.name, "must be an integer")
		}
		*f.dst = n
	}

	return p, nil
}
