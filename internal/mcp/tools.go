package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/erdraft/erdraft/internal/ddl"
	"github.com/erdraft/erdraft/internal/diagram"
	"github.com/erdraft/erdraft/internal/dialect"
	"github.com/erdraft/erdraft/internal/snapshot"
)

// registerTools registers all erdraft MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("erdraft_list_diagrams",
			mcp.WithDescription(
				"List all diagrams saved in the erdraft library. Returns each diagram's "+
					"name, SQL dialect, table count, and timestamps. Use this first to "+
					"discover what diagrams exist before inspecting one.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListDiagrams,
	)

	srv.AddTool(
		mcp.NewTool("erdraft_describe_diagram",
			mcp.WithDescription(
				"Get the full schema of a saved diagram: every table with its fields "+
					"(type, constraints), indexes, and the relationships between tables. "+
					"Use this to understand a schema before generating or reviewing SQL.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name of the saved diagram to describe"),
			),
		),
		s.handleDescribeDiagram,
	)

	srv.AddTool(
		mcp.NewTool("erdraft_generate_sql",
			mcp.WithDescription(
				"Generate CREATE TABLE DDL for a saved diagram. By default the "+
					"diagram's own dialect is used; pass 'dialect' to retarget the "+
					"output to mysql, postgresql, mariadb, oracle, mssql, or sqlite.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name of the saved diagram"),
			),
			mcp.WithString("dialect",
				mcp.Description("Target SQL dialect. Omit to use the diagram's own dialect."),
			),
		),
		s.handleGenerateSQL,
	)

	srv.AddTool(
		mcp.NewTool("erdraft_delete_diagram",
			mcp.WithDescription(
				"Delete a saved diagram from the erdraft library. This cannot be "+
					"undone; use erdraft_list_diagrams to confirm the name first.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Name of the saved diagram to delete"),
			),
		),
		s.handleDeleteDiagram,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

// handleListDiagrams returns all diagrams saved in the library.
func (s *MCPServer) handleListDiagrams(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	entries, err := s.lib.ListDiagrams(ctx)
	if err != nil {
		return toolError("Failed to list diagrams: %v", err)
	}

	type diagramInfo struct {
		Name       string `json:"name"`
		Dialect    string `json:"dialect"`
		TableCount int    `json:"table_count"`
		CreatedAt  string `json:"created_at"`
		UpdatedAt  string `json:"updated_at"`
	}

	items := make([]diagramInfo, len(entries))
	for i, e := range entries {
		items[i] = diagramInfo{
			Name:       e.Name,
			Dialect:    e.Dialect,
			TableCount: e.TableCount,
			CreatedAt:  e.CreatedAt.Format("2006-01-02 15:04:05"),
			UpdatedAt:  e.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
	}

	return successJSON(items)
}

// handleDescribeDiagram returns the decoded schema of one saved diagram.
func (s *MCPServer) handleDescribeDiagram(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	name, err := requireString(request, "name")
	if err != nil {
		return toolError("%v", err)
	}

	entry, err := s.lib.GetDiagram(ctx, name)
	if err != nil {
		return toolError("Diagram %q not found: %v. Use erdraft_list_diagrams to see what exists.", name, err)
	}

	d, _, err := snapshot.Decode([]byte(entry.Document))
	if err != nil {
		return toolError("Saved document for %q failed to decode: %v", name, err)
	}

	type fieldInfo struct {
		Name          string `json:"name"`
		Type          string `json:"type"`
		Primary       bool   `json:"primary,omitempty"`
		Unique        bool   `json:"unique,omitempty"`
		NotNull       bool   `json:"not_null,omitempty"`
		AutoIncrement bool   `json:"auto_increment,omitempty"`
		Default       string `json:"default,omitempty"`
		Comment       string `json:"comment,omitempty"`
	}
	type indexInfo struct {
		Name   string   `json:"name"`
		Unique bool     `json:"unique,omitempty"`
		Fields []string `json:"fields"`
	}
	type tableInfo struct {
		Name    string      `json:"name"`
		Comment string      `json:"comment,omitempty"`
		Fields  []fieldInfo `json:"fields"`
		Indexes []indexInfo `json:"indexes,omitempty"`
	}
	type relInfo struct {
		Name        string `json:"name,omitempty"`
		From        string `json:"from"`
		To          string `json:"to"`
		Cardinality string `json:"cardinality"`
		OnUpdate    string `json:"on_update"`
		OnDelete    string `json:"on_delete"`
	}

	tables := make([]tableInfo, len(d.Tables))
	for i, t := range d.Tables {
		fields := make([]fieldInfo, len(t.Fields))
		for j, f := range t.Fields {
			fields[j] = fieldInfo{
				Name:          f.Name,
				Type:          f.Type,
				Primary:       f.Primary,
				Unique:        f.Unique,
				NotNull:       f.NotNull,
				AutoIncrement: f.AutoIncrement,
				Default:       f.Default,
				Comment:       f.Comment,
			}
		}
		var indexes []indexInfo
		for _, idx := range t.Indexes {
			indexes = append(indexes, indexInfo{
				Name:   idx.Name,
				Unique: idx.Unique,
				Fields: idx.FieldNames,
			})
		}
		tables[i] = tableInfo{
			Name:    t.Name,
			Comment: t.Comment,
			Fields:  fields,
			Indexes: indexes,
		}
	}

	rels := make([]relInfo, 0, len(d.Relationships))
	for _, r := range d.Relationships {
		start := d.TableByID(r.StartTableID)
		end := d.TableByID(r.EndTableID)
		if start == nil || end == nil {
			continue
		}
		from, to := endpointLabel(d, r.StartTableID, r.StartFieldID), endpointLabel(d, r.EndTableID, r.EndFieldID)
		rels = append(rels, relInfo{
			Name:        r.Name,
			From:        from,
			To:          to,
			Cardinality: string(r.Cardinality),
			OnUpdate:    string(r.OnUpdate),
			OnDelete:    string(r.OnDelete),
		})
	}

	return successJSON(map[string]interface{}{
		"title":         d.Title,
		"dialect":       string(d.Dialect),
		"tables":        tables,
		"relationships": rels,
	})
}

// handleGenerateSQL generates DDL for a saved diagram.
func (s *MCPServer) handleGenerateSQL(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	name, err := requireString(request, "name")
	if err != nil {
		return toolError("%v", err)
	}

	entry, err := s.lib.GetDiagram(ctx, name)
	if err != nil {
		return toolError("Diagram %q not found: %v. Use erdraft_list_diagrams to see what exists.", name, err)
	}

	d, _, err := snapshot.Decode([]byte(entry.Document))
	if err != nil {
		return toolError("Saved document for %q failed to decode: %v", name, err)
	}

	sql := ""
	if override := optionalString(request, "dialect"); override != "" {
		k, err := dialect.Parse(override)
		if err != nil {
			return toolError("Unknown dialect %q. Valid dialects: %v", override, dialect.All())
		}
		sql = ddl.GenerateFor(d, k)
	} else {
		sql = ddl.Generate(d)
	}

	return mcp.NewToolResultText(sql), nil
}

// handleDeleteDiagram removes a diagram from the library.
func (s *MCPServer) handleDeleteDiagram(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	name, err := requireString(request, "name")
	if err != nil {
		return toolError("%v", err)
	}

	if err := s.lib.DeleteDiagram(ctx, name); err != nil {
		return toolError("Failed to delete diagram %q: %v", name, err)
	}

	return successJSON(map[string]interface{}{
		"deleted": name,
	})
}

// endpointLabel formats table.field for a relationship endpoint, falling
// back to the raw field id when the field no longer resolves.
func endpointLabel(d *diagram.Diagram, tableID, fieldID string) string {
	t := d.TableByID(tableID)
	if t == nil {
		return fieldID
	}
	f := t.FieldByID(fieldID)
	if f == nil {
		return t.Name + "." + fieldID
	}
	return t.Name + "." + f.Name
}

// --------------------------------------------------------------------------
// Parameter extraction and response helpers
// --------------------------------------------------------------------------

// requireString extracts a required string argument from the tool request.
func requireString(request mcp.CallToolRequest, key string) (string, error) {
	val, err := request.RequireString(key)
	if err != nil {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	return val, nil
}

// optionalString extracts an optional string argument from the tool request.
func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
