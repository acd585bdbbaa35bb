package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/lawnchairsociety/tilegen/internal/database"
)

func openArchive(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "maps.db"))
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading %s: %v", url, err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_ArchivesGeneratedMaps(t *testing.T) {
	db := openArchive(t)
	_, ts := newTestServer(t, testConfig(), db)
	conn := dial(t, ts)

	first := request(t, conn, Request{Width: 3, Height: 2, Seed: 21, Quiet: true})
	if first.done == nil || first.done.MapID == 0 {
		t.Fatalf("done = %+v, want an archived map id", first.done)
	}

	again := request(t, conn, Request{Width: 3, Height: 2, Seed: 21, Quiet: true})
	if again.done == nil || again.done.MapID != first.done.MapID {
		t.Errorf("regenerated map id = %+v, want %d", again.done, first.done.MapID)
	}

	rec, err := db.GetMap(first.done.MapID)
	if err != nil {
		t.Fatalf("GetMap() error = %v", err)
	}
	if rec.Digest != first.done.Digest || rec.Seed != 21 {
		t.Errorf("archived record = %+v", rec)
	}
}

func TestServer_ListMaps(t *testing.T) {
	db := openArchive(t)
	_, ts := newTestServer(t, testConfig(), db)
	conn := dial(t, ts)

	var ids []int64
	for seed := int64(1); seed <= 3; seed++ {
		r := request(t, conn, Request{Width: 2, Height: 2, Seed: seed * 100, Quiet: true})
		if r.done == nil {
			t.Fatalf("seed %d: %+v", seed, r.err)
		}
		ids = append(ids, r.done.MapID)
	}

	status, body := get(t, ts.URL+"/maps?limit=2")
	if status != http.StatusOK {
		t.Fatalf("GET /maps status = %d: %s", status, body)
	}
	var list MapList
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatalf("bad list %s: %v", body, err)
	}

	total, err := db.CountMaps()
	if err != nil {
		t.Fatalf("CountMaps() error = %v", err)
	}
	if list.Total != total || len(list.Maps) != min(2, total) {
		t.Errorf("list = %d of %d, want %d of %d", len(list.Maps), list.Total, min(2, total), total)
	}
	// Equal layouts share a record, so the newest id is the largest seen
	if newest := slices.Max(ids); len(list.Maps) == 0 || list.Maps[0].ID != newest {
		t.Errorf("first listed map = %+v, want id %d", list.Maps, newest)
	}
	for _, m := range list.Maps {
		if m.Width != 2 || m.Height != 2 || m.Digest == "" {
			t.Errorf("summary = %+v", m)
		}
	}

	for _, q := range []string{"limit=0", "limit=x", "offset=-1"} {
		if status, _ := get(t, ts.URL+"/maps?"+q); status != http.StatusBadRequest {
			t.Errorf("GET /maps?%s status = %d, want 400", q, status)
		}
	}
}

func TestServer_GetMap(t *testing.T) {
	db := openArchive(t)
	_, ts := newTestServer(t, testConfig(), db)
	conn := dial(t, ts)

	r := request(t, conn, Request{Width: 3, Height: 2, Seed: 9, Quiet: true})
	if r.done == nil {
		t.Fatalf("generation failed: %+v", r.err)
	}
	base := fmt.Sprintf("%s/maps/%d", ts.URL, r.done.MapID)

	status, body := get(t, base)
	if status != http.StatusOK || !strings.Contains(body, "grid-square") {
		t.Errorf("GET html status = %d, body has grid: %v", status, strings.Contains(body, "grid-square"))
	}
	if !strings.Contains(body, fmt.Sprintf("Map %d", r.done.MapID)) {
		t.Error("html page is missing its title")
	}

	status, body = get(t, base+"?format=text")
	if status != http.StatusOK {
		t.Errorf("GET text status = %d", status)
	}
	if lines := strings.Split(body, "\n"); len(lines) < 8 {
		t.Errorf("text map has %d lines, want at least 8", len(lines))
	}

	tests := []struct {
		path string
		want int
	}{
		{"/maps/999999", http.StatusNotFound},
		{"/maps/abc", http.StatusBadRequest},
		{fmt.Sprintf("/maps/%d?format=pdf", r.done.MapID), http.StatusBadRequest},
	}
	for _, tt := range tests {
		if status, _ := get(t, ts.URL+tt.path); status != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, status, tt.want)
		}
	}
}
