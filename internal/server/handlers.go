package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/erdraft/erdraft/internal/canvas"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
	"github.com/erdraft/erdraft/internal/interaction"
	"github.com/erdraft/erdraft/internal/snapshot"
)

// ---------------------------------------------------------------------------
// Diagram state
// ---------------------------------------------------------------------------

type diagramState struct {
	Diagram *diagram.Diagram `json:"diagram"`
	Dirty   bool             `json:"dirty"`
	CanUndo bool             `json:"can_undo"`
	CanRedo bool             `json:"can_redo"`
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, diagramState{
		Diagram: s.sess.Store.Snapshot(),
		Dirty:   s.sess.Store.IsDirty(),
		CanUndo: s.sess.Store.CanUndo(),
		CanRedo: s.sess.Store.CanRedo(),
	})
}

func (s *Server) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.SetTitle(req.Title); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"title": req.Title})
}

func (s *Server) handleSetDialect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dialect string `json:"dialect"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	k, err := dialect.Parse(req.Dialect)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.SetDialect(k); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"dialect": string(k)})
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string  `json:"name"`
		X    float64 `json:"x"`
		Y    float64 `json:"y"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "table name is required")
		return
	}
	t := diagram.NewTable(req.Name, req.X, req.Y)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.AddTable(t); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTable(w http.ResponseWriter, r *http.Request) {
	var t diagram.Table
	if err := readJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	t.ID = chi.URLParam(r, "tableID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.UpdateTable(t); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.DeleteTable(chi.URLParam(r, "tableID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Transient bool    `json:"transient"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.MoveTable(chi.URLParam(r, "tableID"), req.X, req.Y, req.Transient); err != nil {
		writeStoreError(w, err)
		return
	}
	if !req.Transient {
		s.sess.Store.EndGesture()
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

func (s *Server) handleAddField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "field name and type are required")
		return
	}
	f := diagram.NewField(req.Name, req.Type)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.AddField(chi.URLParam(r, "tableID"), f); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateField(w http.ResponseWriter, r *http.Request) {
	var f diagram.Field
	if err := readJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	f.ID = chi.URLParam(r, "fieldID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.UpdateField(chi.URLParam(r, "tableID"), f); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.DeleteField(chi.URLParam(r, "tableID"), chi.URLParam(r, "fieldID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "field name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.RenameField(chi.URLParam(r, "tableID"), chi.URLParam(r, "fieldID"), req.Name); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Indexes
// ---------------------------------------------------------------------------

func (s *Server) handleAddIndex(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string   `json:"name"`
		Unique     bool     `json:"unique"`
		Method     string   `json:"method"`
		FieldNames []string `json:"field_names"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	idx := diagram.NewIndex(req.Name, req.FieldNames...)
	idx.Unique = req.Unique
	idx.Method = req.Method
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.AddIndex(chi.URLParam(r, "tableID"), idx); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idx)
}

func (s *Server) handleUpdateIndex(w http.ResponseWriter, r *http.Request) {
	var idx diagram.Index
	if err := readJSON(r, &idx); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	idx.ID = chi.URLParam(r, "indexID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.UpdateIndex(chi.URLParam(r, "tableID"), idx); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.DeleteIndex(chi.URLParam(r, "tableID"), chi.URLParam(r, "indexID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Relationships
// ---------------------------------------------------------------------------

type relationshipRequest struct {
	Name         string `json:"name"`
	StartTableID string `json:"start_table_id"`
	StartFieldID string `json:"start_field_id"`
	EndTableID   string `json:"end_table_id"`
	EndFieldID   string `json:"end_field_id"`
	Cardinality  string `json:"cardinality"`
	OnUpdate     string `json:"on_update"`
	OnDelete     string `json:"on_delete"`
}

func (req relationshipRequest) apply(rel *diagram.Relationship) error {
	rel.Name = req.Name
	rel.StartTableID = req.StartTableID
	rel.StartFieldID = req.StartFieldID
	rel.EndTableID = req.EndTableID
	rel.EndFieldID = req.EndFieldID
	if req.Cardinality != "" {
		card, err := diagram.ParseCardinality(req.Cardinality)
		if err != nil {
			return err
		}
		rel.Cardinality = card
	}
	if req.OnUpdate != "" {
		a, err := diagram.ParseRefAction(req.OnUpdate)
		if err != nil {
			return err
		}
		rel.OnUpdate = a
	}
	if req.OnDelete != "" {
		a, err := diagram.ParseRefAction(req.OnDelete)
		if err != nil {
			return err
		}
		rel.OnDelete = a
	}
	return nil
}

func (s *Server) handleAddRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	rel := diagram.NewRelationship(req.StartTableID, req.StartFieldID, req.EndTableID, req.EndFieldID)
	if err := req.apply(&rel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.AddRelationship(rel); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (s *Server) handleUpdateRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.sess.Store.Diagram().RelationshipByID(chi.URLParam(r, "relID"))
	if existing == nil {
		writeError(w, http.StatusNotFound, "relationship not found")
		return
	}
	rel := *existing
	if err := req.apply(&rel); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.sess.Store.UpdateRelationship(rel); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.DeleteRelationship(chi.URLParam(r, "relID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Notes and areas
// ---------------------------------------------------------------------------

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string  `json:"content"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n := diagram.NewNote(req.Content, req.X, req.Y)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.AddNote(n); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	var n diagram.Note
	if err := readJSON(r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	n.ID = chi.URLParam(r, "noteID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.UpdateNote(n); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.DeleteNote(chi.URLParam(r, "noteID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddArea(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string  `json:"label"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		W     float64 `json:"w"`
		H     float64 `json:"h"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	a := diagram.NewArea(req.Label, req.X, req.Y, req.W, req.H)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.AddArea(a); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleUpdateArea(w http.ResponseWriter, r *http.Request) {
	var a diagram.Area
	if err := readJSON(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	a.ID = chi.URLParam(r, "areaID")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.UpdateArea(a); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Store.DeleteArea(chi.URLParam(r, "areaID")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.sess.Store.Undo()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": s.sess.Store.Redo()})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]bool{
		"dirty":    s.sess.Store.IsDirty(),
		"can_undo": s.sess.Store.CanUndo(),
		"can_redo": s.sess.Store.CanRedo(),
	})
}

func (s *Server) handleMarkSaved(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Store.MarkSaved()
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Canvas
// ---------------------------------------------------------------------------

type transformState struct {
	Scale      float64 `json:"scale"`
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
}

func (s *Server) handleGetTransform(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.sess.Transform
	writeJSON(w, http.StatusOK, transformState{Scale: t.Scale, TranslateX: t.TranslateX, TranslateY: t.TranslateY})
}

func (s *Server) handleSetTransform(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Scale      *float64 `json:"scale"`
		TranslateX *float64 `json:"translate_x"`
		TranslateY *float64 `json:"translate_y"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Scale != nil && (*req.Scale < canvas.MinScale || *req.Scale > canvas.MaxScale) {
		writeError(w, http.StatusBadRequest, "scale out of range")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Transform.SetTransform(canvas.Partial{
		Scale:      req.Scale,
		TranslateX: req.TranslateX,
		TranslateY: req.TranslateY,
	})
	t := s.sess.Transform
	writeJSON(w, http.StatusOK, transformState{Scale: t.Scale, TranslateX: t.TranslateX, TranslateY: t.TranslateY})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Factor float64 `json:"factor"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Factor <= 0 {
		writeError(w, http.StatusBadRequest, "zoom factor must be positive")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Transform.ZoomAt(diagram.Point{X: req.X, Y: req.Y}, req.Factor)
	t := s.sess.Transform
	writeJSON(w, http.StatusOK, transformState{Scale: t.Scale, TranslateX: t.TranslateX, TranslateY: t.TranslateY})
}

func (s *Server) handleResetTransform(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Transform.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointerEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type     string  `json:"type"` // down, move, up, leave
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Button   string  `json:"button"` // left, middle, right
		Modifier bool    `json:"modifier"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	button := interaction.ButtonLeft
	switch req.Button {
	case "middle":
		button = interaction.ButtonMiddle
	case "right":
		button = interaction.ButtonRight
	}
	ev := interaction.PointerEvent{
		Screen:   diagram.Point{X: req.X, Y: req.Y},
		Button:   button,
		Modifier: req.Modifier,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch req.Type {
	case "down":
		s.sess.Machine.PointerDown(ev)
	case "move":
		s.sess.Machine.PointerMove(ev)
	case "up":
		s.sess.Machine.PointerUp(ev)
	case "leave":
		s.sess.Machine.PointerLeave()
	default:
		writeError(w, http.StatusBadRequest, "unknown pointer event type "+req.Type)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": s.sess.Machine.State().String()})
}

func (s *Server) handleEscape(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Machine.Escape()
	writeJSON(w, http.StatusOK, map[string]string{"state": s.sess.Machine.State().String()})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sess.Scene())
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

func (s *Server) handleSQL(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sql := ""
	if override := r.URL.Query().Get("dialect"); override != "" {
		k, err := dialect.Parse(override)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sql = s.sess.SQLFor(k)
	} else {
		sql = s.sess.SQL()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, sql)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.sess.Export(snapshot.Meta{
		Author:  r.URL.Query().Get("author"),
		Project: r.URL.Query().Get("project"),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// All-or-nothing: a failed import leaves the open diagram untouched.
	if err := s.sess.Import(data); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Library
// ---------------------------------------------------------------------------

func (s *Server) handleLibraryList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.lib.ListDiagrams(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"diagrams": entries})
}

func (s *Server) handleLibrarySave(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	d := s.sess.Store.Diagram()
	data, err := s.sess.Export(snapshot.Meta{Project: name})
	dialectName := string(d.Dialect)
	tableCount := len(d.Tables)
	s.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.lib.SaveDiagram(r.Context(), name, dialectName, tableCount, data); err != nil {
		writeStoreError(w, err)
		return
	}

	// The session is clean only once the snapshot is actually persisted.
	s.mu.Lock()
	s.sess.Store.MarkSaved()
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLibraryLoad(w http.ResponseWriter, r *http.Request) {
	entry, err := s.lib.GetDiagram(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sess.Import([]byte(entry.Document)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sess.Store.Snapshot())
}

func (s *Server) handleLibraryDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.lib.DeleteDiagram(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
