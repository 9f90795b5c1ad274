// Package httpapi serves the read-only HTTP side channel of the relay:
// health, room lookup, vote values, invite QR codes and the participant
// web UI.
package httpapi

import (
	"net/http"

	"scrum-poker-relay/domain"
)

// Rooms is the read side of the hub used by the HTTP handlers.
type Rooms interface {
	Resolve(idOrCode string) (domain.Room, error)
	ResolveInvite(code string) (domain.Room, error)
	Stats() (rooms, connections int)
}

type Options struct {
	PublicURL      string
	WebDir         string
	AllowedOrigins []string
}

func NewRouter(rooms Rooms, ws http.Handler, opts Options) http.Handler {
	mux := http.NewServeMux()

	api := NewRoomHandler(rooms, opts.PublicURL)
	web := NewWebHandler(opts.WebDir)

	mux.HandleFunc("GET /health", api.Health)
	mux.HandleFunc("GET /api/story-points", api.StoryPoints)
	mux.HandleFunc("GET /api/room/invite/{code}", api.GetRoomByInvite)
	mux.HandleFunc("GET /api/room/{id}", api.GetRoom)
	mux.HandleFunc("GET /api/room/{id}/{resource}", api.GetRoomResource)

	if ws != nil {
		mux.Handle("GET /ws", ws)
	}

	mux.Handle("GET /assets/", web.Assets())
	mux.HandleFunc("GET /", web.Index)

	return CORS(opts.AllowedOrigins, WithLogging(mux))
}
