// Package session wires one editor session together: the diagram store,
// the canvas transform, and the interaction machine, constructed once and
// passed by handle to everything that needs them. No component reaches for
// ambient global state.
package session

import (
	"fmt"

	"github.com/erdraft/erdraft/internal/canvas"
	"github.com/erdraft/erdraft/internal/ddl"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
	"github.com/erdraft/erdraft/internal/interaction"
	"github.com/erdraft/erdraft/internal/render"
	"github.com/erdraft/erdraft/internal/snapshot"
	"github.com/erdraft/erdraft/internal/store"
)

// Options tune a new session.
type Options struct {
	UndoDepth int
	Layout    diagram.Layout
	Defaults  interaction.RelationshipDefaults
}

// DefaultOptions returns the stock session configuration.
func DefaultOptions() Options {
	return Options{
		UndoDepth: store.DefaultUndoDepth,
		Layout:    diagram.DefaultLayout(),
		Defaults:  interaction.DefaultRelationshipDefaults(),
	}
}

// Session is one open diagram with its editing state.
type Session struct {
	Store     *store.Store
	Transform *canvas.Transform
	Machine   *interaction.Machine
	Layout    diagram.Layout
}

// New creates a session around the given diagram (nil starts empty).
func New(d *diagram.Diagram, opts Options) *Session {
	st := store.New(d, opts.UndoDepth)
	tr := canvas.NewTransform()
	return &Session{
		Store:     st,
		Transform: tr,
		Machine:   interaction.New(st, tr, opts.Layout, opts.Defaults),
		Layout:    opts.Layout,
	}
}

// Scene composes the current visual scene.
func (s *Session) Scene() *render.Scene {
	return render.Build(s.Store.Diagram(), s.Transform, s.Machine, s.Layout)
}

// SQL generates DDL for the diagram's own dialect.
func (s *Session) SQL() string {
	return ddl.Generate(s.Store.Diagram())
}

// SQLFor generates DDL for an explicit dialect without retargeting the
// diagram.
func (s *Session) SQLFor(k dialect.Kind) string {
	return ddl.GenerateFor(s.Store.Diagram(), k)
}

// Export serializes the current diagram as a snapshot document.
func (s *Session) Export(meta snapshot.Meta) ([]byte, error) {
	return snapshot.Encode(s.Store.Diagram(), meta)
}

// Import replaces the diagram from a snapshot document. All-or-nothing: on
// any decode error the current diagram and its history are untouched.
func (s *Session) Import(data []byte) error {
	d, _, err := snapshot.Decode(data)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	s.Store.Load(d)
	return nil
}
