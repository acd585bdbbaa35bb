package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/lawnchairsociety/tilegen/internal/database"
	"github.com/lawnchairsociety/tilegen/internal/logger"
	"github.com/lawnchairsociety/tilegen/internal/render"
)

const defaultListLimit = 50

// MapSummary describes an archived map without its tiles.
type MapSummary struct {
	ID        int64     `json:"id"`
	Seed      int64     `json:"seed"`
	XMin      int       `json:"x_min"`
	YMin      int       `json:"y_min"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Digest    string    `json:"digest"`
	CreatedAt time.Time `json:"created_at"`
}

// MapList is one page of archived maps.
type MapList struct {
	Total int          `json:"total"`
	Maps  []MapSummary `json:"maps"`
}

func summarize(rec *database.MapRecord) MapSummary {
	return MapSummary{
		ID:        rec.ID,
		Seed:      rec.Seed,
		XMin:      rec.Bounds.XMin,
		YMin:      rec.Bounds.YMin,
		Width:     rec.Bounds.Width,
		Height:    rec.Bounds.Height,
		Digest:    rec.Digest,
		CreatedAt: rec.CreatedAt,
	}
}

// handleListMaps serves GET /maps?limit=N&offset=M, newest first.
func (s *Server) handleListMaps(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit <= 0 {
		http.Error(w, "invalid limit", http.StatusBadRequest)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		http.Error(w, "invalid offset", http.StatusBadRequest)
		return
	}

	records, err := s.archive.ListMaps(limit, offset)
	if err != nil {
		logger.Error("Listing maps failed", "error", err)
		http.Error(w, "archive unavailable", http.StatusInternalServerError)
		return
	}
	total, err := s.archive.CountMaps()
	if err != nil {
		logger.Error("Counting maps failed", "error", err)
		http.Error(w, "archive unavailable", http.StatusInternalServerError)
		return
	}

	list := MapList{Total: total, Maps: make([]MapSummary, 0, len(records))}
	for _, rec := range records {
		list.Maps = append(list.Maps, summarize(rec))
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		logger.Debug("Writing map list failed", "error", err)
	}
}

// handleGetMap serves GET /maps/{id} as HTML, or as text with
// ?format=text.
func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid map id", http.StatusBadRequest)
		return
	}

	rec, err := s.archive.GetMap(id)
	if errors.Is(err, database.ErrMapNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		logger.Error("Loading map failed", "map_id", id, "error", err)
		http.Error(w, "archive unavailable", http.StatusInternalServerError)
		return
	}

	m, err := rec.TileMap(s.catalogue)
	if err != nil {
		// Archived with a different catalogue
		logger.Warning("Archived map does not fit catalogue", "map_id", id, "error", err)
		http.Error(w, "map does not match the server catalogue", http.StatusConflict)
		return
	}

	title := fmt.Sprintf("Map %d (seed %d)", rec.ID, rec.Seed)
	switch r.URL.Query().Get("format") {
	case "", "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = render.HTML(w, m, render.HTMLOptions{Title: title, Seed: rec.Seed})
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = render.Text(w, m, render.TextOptions{Title: title, Legend: true})
	default:
		http.Error(w, "unknown format", http.StatusBadRequest)
		return
	}
	if err != nil {
		logger.Debug("Writing map failed", "map_id", id, "error", err)
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
