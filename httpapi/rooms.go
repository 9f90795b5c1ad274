package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/skip2/go-qrcode"

	"scrum-poker-relay/domain"
)

const qrSize = 256

type RoomHandler struct {
	rooms     Rooms
	publicURL string
}

func NewRoomHandler(rooms Rooms, publicURL string) *RoomHandler {
	return &RoomHandler{rooms: rooms, publicURL: publicURL}
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func (h *RoomHandler) Health(w http.ResponseWriter, r *http.Request) {
	rooms, conns := h.rooms.Stats()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Rooms: rooms, Connections: conns})
}

func (h *RoomHandler) StoryPoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.StoryPoints)
}

// GetRoom accepts either a room id or an invite phrase.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := h.lookup(w, r.PathValue("id"), h.rooms.Resolve)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *RoomHandler) GetRoomByInvite(w http.ResponseWriter, r *http.Request) {
	room, ok := h.lookup(w, r.PathValue("code"), h.rooms.ResolveInvite)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// GetRoomResource serves /api/room/{id}/summary and /api/room/{id}/qr.png.
func (h *RoomHandler) GetRoomResource(w http.ResponseWriter, r *http.Request) {
	var serve func(http.ResponseWriter, domain.Room)
	switch r.PathValue("resource") {
	case "summary":
		serve = h.summary
	case "qr.png":
		serve = h.qr
	default:
		writeError(w, http.StatusNotFound, "unknown room resource")
		return
	}

	room, ok := h.lookup(w, r.PathValue("id"), h.rooms.Resolve)
	if !ok {
		return
	}
	serve(w, room)
}

func (h *RoomHandler) summary(w http.ResponseWriter, room domain.Room) {
	writeJSON(w, http.StatusOK, room.Summary())
}

func (h *RoomHandler) qr(w http.ResponseWriter, room domain.Room) {
	png, err := qrcode.Encode(h.JoinURL(room.ID), qrcode.Medium, qrSize)
	if err != nil {
		slog.Error("qr encode failed", "roomId", room.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "could not render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// JoinURL is the participant web UI link for a room.
func (h *RoomHandler) JoinURL(roomID string) string {
	return h.publicURL + "/join/" + url.PathEscape(roomID)
}

func (h *RoomHandler) lookup(w http.ResponseWriter, key string, resolve func(string) (domain.Room, error)) (domain.Room, bool) {
	room, err := resolve(key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Room not found")
		} else {
			slog.Error("room lookup failed", "key", key, "error", err)
			writeError(w, http.StatusInternalServerError, "room lookup failed")
		}
		return domain.Room{}, false
	}
	return room, true
}
