package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/api/shared"
)

// validate is shared across handlers; validator.Validate is safe for
// concurrent use.
var validate = validator.New()

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	shared.RespondWithError(w, r, status, message)
}

// decodeAndValidate parses the JSON body into dst and checks its validation
// tags. Writes a 400 and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "Validation failed: "+err.Error())
		return false
	}
	return true
}

// pathUUID extracts and parses a UUID path parameter. Writes a 400 and
// returns false on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid "+param)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter, falling back to def
// when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}
