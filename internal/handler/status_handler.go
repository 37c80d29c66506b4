/*
Package handler provides HTTP handler functions for the read-only status surface.
*/
package handler

import (
	"net/http"

	"sigrelay/internal/pkg/resp"
)

// HandleStatus reports the currently active room identifiers and, per room,
// the display names of its members. Operational visibility only; the roster a
// client acts on is the one returned by its own join.
func HandleStatus(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"rooms": deps.Hub.RoomMembers(),
		}
		resp.RespondSuccess(w, r, data)
	}
}
