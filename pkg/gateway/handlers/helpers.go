// Package handlers implements the dashboard contract endpoints. Every
// response is a JSON object with a success flag; polling endpoints report a
// vanished session as success=false with HTTP 200 so the dashboard stops
// polling instead of treating it as a server fault.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vango-go/callscreen/pkg/gateway/apierror"
	"github.com/vango-go/callscreen/pkg/interview"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the envelope with its HTTP status.
func writeError(w http.ResponseWriter, err error) {
	env, status := apierror.FromError(err)
	writeJSON(w, status, env)
}

// writePollError is writeError for polling endpoints: a missing session is a
// normal end-of-interview signal, delivered as 200 {success:false}.
func writePollError(w http.ResponseWriter, err error) {
	if interview.IsType(err, interview.ErrNotFound) {
		env, _ := apierror.FromError(err)
		writeJSON(w, http.StatusOK, env)
		return
	}
	writeError(w, err)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}
