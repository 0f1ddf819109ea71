package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/library"
	"github.com/erdraft/erdraft/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	lib, err := library.NewStore("")
	if err != nil {
		t.Fatalf("library.NewStore: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(nil, session.DefaultOptions())
	return New(DefaultConfig(), sess, lib, logger)
}

// do issues a request against the router and decodes the JSON response into
// out when it is non-nil.
func do(t *testing.T, s *Server, method, path string, body, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec
}

func addTable(t *testing.T, s *Server, name string, x, y float64) diagram.Table {
	t.Helper()
	var tbl diagram.Table
	rec := do(t, s, http.MethodPost, "/api/v1/tables",
		map[string]interface{}{"name": name, "x": x, "y": y}, &tbl)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add table: status %d: %s", rec.Code, rec.Body.String())
	}
	return tbl
}

func addField(t *testing.T, s *Server, tableID, name, typ string) diagram.Field {
	t.Helper()
	var f diagram.Field
	rec := do(t, s, http.MethodPost, "/api/v1/tables/"+tableID+"/fields",
		map[string]string{"name": name, "type": typ}, &f)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add field: status %d: %s", rec.Code, rec.Body.String())
	}
	return f
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, s, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}

func TestTableLifecycle(t *testing.T) {
	s := newTestServer(t)
	tbl := addTable(t, s, "users", 100, 200)
	if tbl.ID == "" || tbl.Name != "users" || tbl.X != 100 {
		t.Fatalf("created table = %+v", tbl)
	}

	var state diagramState
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if len(state.Diagram.Tables) != 1 {
		t.Fatalf("tables = %d", len(state.Diagram.Tables))
	}
	if !state.Dirty || !state.CanUndo || state.CanRedo {
		t.Errorf("flags = dirty %v, undo %v, redo %v", state.Dirty, state.CanUndo, state.CanRedo)
	}

	rec := do(t, s, http.MethodDelete, "/api/v1/tables/"+tbl.ID, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	rec = do(t, s, http.MethodDelete, "/api/v1/tables/"+tbl.ID, nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing: status %d, want 404", rec.Code)
	}
}

func TestAddTableValidation(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/tables", map[string]string{"name": ""}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: status %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables", strings.NewReader("{not json"))
	rec2 := httptest.NewRecorder()
	s.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body: status %d", rec2.Code)
	}
}

func TestMoveAndUndo(t *testing.T) {
	s := newTestServer(t)
	tbl := addTable(t, s, "users", 100, 100)

	// Two transient moves and a final commit coalesce into one undo entry.
	for _, p := range []struct{ x, y float64 }{{120, 110}, {150, 130}} {
		rec := do(t, s, http.MethodPost, fmt.Sprintf("/api/v1/tables/%s/move", tbl.ID),
			map[string]interface{}{"x": p.x, "y": p.y, "transient": true}, nil)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("transient move: status %d", rec.Code)
		}
	}
	do(t, s, http.MethodPost, fmt.Sprintf("/api/v1/tables/%s/move", tbl.ID),
		map[string]interface{}{"x": 200.0, "y": 150.0}, nil)

	var state diagramState
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if got := state.Diagram.Tables[0]; got.X != 200 || got.Y != 150 {
		t.Fatalf("table at (%v, %v)", got.X, got.Y)
	}

	var undo map[string]bool
	do(t, s, http.MethodPost, "/api/v1/undo", nil, &undo)
	if !undo["ok"] {
		t.Fatal("undo reported nothing to undo")
	}
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if got := state.Diagram.Tables[0]; got.X != 100 || got.Y != 100 {
		t.Errorf("after undo table at (%v, %v), want (100, 100)", got.X, got.Y)
	}

	var redo map[string]bool
	do(t, s, http.MethodPost, "/api/v1/redo", nil, &redo)
	if !redo["ok"] {
		t.Error("redo reported nothing to redo")
	}
}

func TestRelationshipEndpoints(t *testing.T) {
	s := newTestServer(t)
	users := addTable(t, s, "users", 100, 100)
	posts := addTable(t, s, "posts", 500, 100)
	uid := addField(t, s, users.ID, "id", "INT")
	aid := addField(t, s, posts.ID, "author_id", "INT")

	var rel diagram.Relationship
	rec := do(t, s, http.MethodPost, "/api/v1/relationships", map[string]string{
		"start_table_id": users.ID,
		"start_field_id": uid.ID,
		"end_table_id":   posts.ID,
		"end_field_id":   aid.ID,
	}, &rel)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add relationship: status %d: %s", rec.Code, rec.Body.String())
	}
	if rel.Cardinality != diagram.OneToMany || rel.OnDelete != diagram.Cascade {
		t.Errorf("defaults = %v/%v", rel.Cardinality, rel.OnDelete)
	}

	var updated diagram.Relationship
	rec = do(t, s, http.MethodPut, "/api/v1/relationships/"+rel.ID, map[string]string{
		"start_table_id": users.ID,
		"start_field_id": uid.ID,
		"end_table_id":   posts.ID,
		"end_field_id":   aid.ID,
		"cardinality":    "many_to_one",
		"on_delete":      "SET NULL",
	}, &updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", rec.Code, rec.Body.String())
	}
	if updated.Cardinality != diagram.ManyToOne || updated.OnDelete != diagram.SetNull {
		t.Errorf("updated = %v/%v", updated.Cardinality, updated.OnDelete)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/relationships/"+rel.ID, map[string]string{
		"start_table_id": users.ID,
		"start_field_id": uid.ID,
		"end_table_id":   posts.ID,
		"end_field_id":   aid.ID,
		"cardinality":    "some_to_some",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad cardinality: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/relationships/nope", map[string]string{}, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("update missing: status %d", rec.Code)
	}
}

func TestTransformEndpoints(t *testing.T) {
	s := newTestServer(t)

	var tr transformState
	rec := do(t, s, http.MethodPut, "/api/v1/transform",
		map[string]float64{"scale": 2, "translate_x": 30}, &tr)
	if rec.Code != http.StatusOK {
		t.Fatalf("set transform: status %d", rec.Code)
	}
	if tr.Scale != 2 || tr.TranslateX != 30 || tr.TranslateY != 0 {
		t.Errorf("transform = %+v", tr)
	}

	rec = do(t, s, http.MethodPut, "/api/v1/transform", map[string]float64{"scale": 50}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range scale: status %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/v1/transform/zoom",
		map[string]float64{"x": 0, "y": 0, "factor": -1}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative zoom factor: status %d", rec.Code)
	}

	do(t, s, http.MethodPost, "/api/v1/transform/reset", nil, nil)
	do(t, s, http.MethodGet, "/api/v1/transform", nil, &tr)
	if tr.Scale != 1 || tr.TranslateX != 0 {
		t.Errorf("after reset = %+v", tr)
	}
}

func TestPointerEventsDriveTheMachine(t *testing.T) {
	s := newTestServer(t)
	tbl := addTable(t, s, "users", 100, 100)

	var resp map[string]string
	do(t, s, http.MethodPost, "/api/v1/events/pointer",
		map[string]interface{}{"type": "down", "x": tbl.X + 50, "y": tbl.Y + 20}, &resp)
	if resp["state"] != "dragging_table" {
		t.Fatalf("state = %q, want dragging_table", resp["state"])
	}

	do(t, s, http.MethodPost, "/api/v1/events/pointer",
		map[string]interface{}{"type": "move", "x": tbl.X + 110, "y": tbl.Y + 20}, &resp)
	do(t, s, http.MethodPost, "/api/v1/events/pointer",
		map[string]interface{}{"type": "up", "x": tbl.X + 110, "y": tbl.Y + 20}, &resp)
	if resp["state"] != "idle" {
		t.Fatalf("state = %q, want idle", resp["state"])
	}

	var state diagramState
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if got := state.Diagram.Tables[0]; got.X != tbl.X+60 {
		t.Errorf("x = %v, want %v", got.X, tbl.X+60)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/events/pointer",
		map[string]interface{}{"type": "wiggle"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown event type: status %d", rec.Code)
	}

	do(t, s, http.MethodPost, "/api/v1/events/escape", nil, &resp)
	if resp["state"] != "idle" {
		t.Errorf("escape state = %q", resp["state"])
	}
}

func TestSQLEndpoint(t *testing.T) {
	s := newTestServer(t)
	tbl := addTable(t, s, "users", 0, 0)
	addField(t, s, tbl.ID, "id", "INT")

	rec := do(t, s, http.MethodGet, "/api/v1/sql", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("sql: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "CREATE TABLE `users`") {
		t.Errorf("default dialect output:\n%s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/sql?dialect=postgresql", nil, nil)
	if !strings.Contains(rec.Body.String(), `CREATE TABLE "users"`) {
		t.Errorf("postgresql output:\n%s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/v1/sql?dialect=db2", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown dialect: status %d", rec.Code)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestServer(t)
	tbl := addTable(t, s, "users", 100, 100)
	addField(t, s, tbl.ID, "id", "INT")

	rec := do(t, s, http.MethodGet, "/api/v1/snapshot?project=blog", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d", rec.Code)
	}
	exported := rec.Body.Bytes()

	// Import into a fresh server.
	s2 := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", bytes.NewReader(exported))
	rec2 := httptest.NewRecorder()
	s2.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusNoContent {
		t.Fatalf("import: status %d: %s", rec2.Code, rec2.Body.String())
	}

	var state diagramState
	do(t, s2, http.MethodGet, "/api/v1/diagram", nil, &state)
	if len(state.Diagram.Tables) != 1 || state.Diagram.Tables[0].Name != "users" {
		t.Errorf("imported tables = %+v", state.Diagram.Tables)
	}
	if state.CanUndo {
		t.Error("import carried history over")
	}
}

func TestImportRejectsMalformed(t *testing.T) {
	s := newTestServer(t)
	addTable(t, s, "keepme", 0, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/snapshot", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("import: status %d, want 422", rec.Code)
	}

	var state diagramState
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if len(state.Diagram.Tables) != 1 {
		t.Error("failed import touched the open diagram")
	}
}

func TestLibraryEndpoints(t *testing.T) {
	s := newTestServer(t)
	tbl := addTable(t, s, "users", 100, 100)
	addField(t, s, tbl.ID, "id", "INT")

	rec := do(t, s, http.MethodPost, "/api/v1/library/blog", nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("save: status %d: %s", rec.Code, rec.Body.String())
	}

	var state diagramState
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if state.Dirty {
		t.Error("library save did not mark the session saved")
	}

	var list struct {
		Diagrams []library.Entry `json:"diagrams"`
	}
	do(t, s, http.MethodGet, "/api/v1/library", nil, &list)
	if len(list.Diagrams) != 1 || list.Diagrams[0].Name != "blog" {
		t.Fatalf("list = %+v", list.Diagrams)
	}
	if list.Diagrams[0].TableCount != 1 {
		t.Errorf("table count = %d", list.Diagrams[0].TableCount)
	}

	// Clear the session, then load the saved entry back.
	rec = do(t, s, http.MethodDelete, "/api/v1/tables/"+tbl.ID, nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatal("delete failed")
	}
	var loaded diagram.Diagram
	rec = do(t, s, http.MethodPost, "/api/v1/library/blog/load", nil, &loaded)
	if rec.Code != http.StatusOK {
		t.Fatalf("load: status %d: %s", rec.Code, rec.Body.String())
	}
	if len(loaded.Tables) != 1 || loaded.Tables[0].Name != "users" {
		t.Errorf("loaded tables = %+v", loaded.Tables)
	}

	rec = do(t, s, http.MethodDelete, "/api/v1/library/blog", nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete: status %d", rec.Code)
	}
	rec = do(t, s, http.MethodPost, "/api/v1/library/blog/load", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("load deleted: status %d", rec.Code)
	}
}

func TestLibrarySaveFailureKeepsSessionDirty(t *testing.T) {
	lib, err := library.NewStore("")
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(DefaultConfig(), session.New(nil, session.DefaultOptions()), lib, logger)
	addTable(t, s, "users", 100, 100)

	// A closed library makes the persistence write fail after export.
	lib.Close()
	rec := do(t, s, http.MethodPost, "/api/v1/library/blog", nil, nil)
	if rec.Code == http.StatusNoContent {
		t.Fatal("save against a closed library reported success")
	}

	var state diagramState
	do(t, s, http.MethodGet, "/api/v1/diagram", nil, &state)
	if !state.Dirty {
		t.Error("failed library save marked the session clean")
	}
}

func TestLibraryRoutesAbsentWithoutStore(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(DefaultConfig(), session.New(nil, session.DefaultOptions()), nil, logger)
	rec := do(t, s, http.MethodGet, "/api/v1/library", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("library route without store: status %d, want 404", rec.Code)
	}
}
