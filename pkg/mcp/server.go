// Package mcp exposes aggregated architecture models to LLM agents over
// the Model Context Protocol on stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"archipel/internal/common"
	"archipel/pkg/service"
)

// MCPServer wraps the architecture service to expose it via MCP.
type MCPServer struct {
	arch *service.ArchService
}

// Run starts the MCP server on Stdio.
func Run(ctx context.Context, arch *service.ArchService) error {
	s := server.NewMCPServer(
		"Archipel-Backend",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	ms := &MCPServer{arch: arch}

	// --- Resources ---

	// Resource: Model Summary
	s.AddResource(
		mcp.NewResource(
			"archipel://projects/{id}/summary",
			"Model Summary",
			mcp.WithResourceDescription("Entity and relationship counts for a project"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleModelSummary,
	)

	// Resource: Model Conventions
	s.AddResource(
		mcp.NewResource(
			"archipel://schema/conventions",
			"Model Conventions",
			mcp.WithResourceDescription("Entity levels and relationship stereotypes used by the model"),
			mcp.WithMIMEType("text/markdown"),
		),
		ms.handleConventions,
	)

	// --- Tools ---

	// Tool: List Projects
	s.AddTool(
		mcp.NewTool(
			"list_projects",
			mcp.WithDescription("List the projects available for querying."),
		),
		ms.handleListProjects,
	)

	// Tool: Search Entities
	s.AddTool(
		mcp.NewTool(
			"search_entities",
			mcp.WithDescription("Fuzzy-search entities (containers, components, code items, actors) in a project."),
			mcp.WithString("project", mcp.Required(), mcp.Description("The project ID")),
			mcp.WithString("query", mcp.Required(), mcp.Description("The search query string")),
			mcp.WithNumber("limit", mcp.Description("Max number of results (default 10)")),
		),
		ms.handleSearchEntities,
	)

	// Tool: Get Outgoing Edges (Dependencies)
	s.AddTool(
		mcp.NewTool(
			"get_outgoing_edges",
			mcp.WithDescription("Get outgoing edges (dependencies) from a specific entity."),
			mcp.WithString("project", mcp.Required(), mcp.Description("The project ID")),
			mcp.WithString("entity_id", mcp.Required(), mcp.Description("The ID of the source entity")),
		),
		ms.handleGetOutgoingEdges,
	)

	// Tool: Get Incoming Edges (Consumers)
	s.AddTool(
		mcp.NewTool(
			"get_incoming_edges",
			mcp.WithDescription("Get incoming edges (consumers/callers) of a specific entity."),
			mcp.WithString("project", mcp.Required(), mcp.Description("The ID of the target entity's project")),
			mcp.WithString("entity_id", mcp.Required(), mcp.Description("The ID of the target entity")),
		),
		ms.handleGetIncomingEdges,
	)

	common.Logger().Info().Msg("starting MCP server on stdio")
	return server.ServeStdio(s)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleModelSummary(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	// Extract project id from URI: archipel://projects/{id}/summary
	uriStr := request.Params.URI
	prefix := "archipel://projects/"
	if !strings.HasPrefix(uriStr, prefix) {
		return nil, fmt.Errorf("invalid URI format")
	}
	projectID := strings.TrimSuffix(strings.TrimPrefix(uriStr, prefix), "/summary")

	r, err := ms.arch.GetIR(projectID)
	if err != nil {
		return nil, fmt.Errorf("project not found: %s", projectID)
	}

	summary := map[string]interface{}{
		"system":        r.System.Name,
		"containers":    len(r.Containers),
		"components":    len(r.Components),
		"codeItems":     len(r.CodeItems),
		"actors":        len(r.Actors),
		"relationships": len(r.Relationships),
		"deployments":   len(r.Deployments),
	}

	jsonBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (ms *MCPServer) handleConventions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content := `
# Archipel Model Conventions

## 1. Entity Levels
- 'system': The software system being documented. One per project.
- 'container': A deployable/runtime unit (service, database, SPA).
- 'component': A logical grouping of code inside a container.
- code items ('class', 'function', 'method', 'property', 'interface', 'type'): leaf symbols.
- 'Person' / 'System' actors: people and external systems at the edge.

## 2. Relationship Stereotypes
- 'uses': [entity] -> [entity]. Declared or inferred dependency.
- 'contains': [component] -> [class]. Structural nesting.
- 'deploys-to': [container] -> [deployment node].
- 'depends-on': [container] -> [container]. Startup ordering.

## 3. Usage Guidelines
- To find consumers of an entity: use get_incoming_edges.
- To find what an entity depends on: use get_outgoing_edges.
- Entity IDs are lowercase hyphenated slugs; search_entities resolves loose names to IDs.
`
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := ms.arch.ListProjects()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}

	jsonBytes, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal projects"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleSearchEntities(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	projectID, ok := args["project"].(string)
	if !ok {
		return mcp.NewToolResultError("project argument required"), nil
	}
	query, ok := args["query"].(string)
	if !ok {
		return mcp.NewToolResultError("query argument required"), nil
	}

	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	results, err := ms.arch.Search(projectID, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No matching entities found."), nil
	}

	var formatted []string
	for _, res := range results {
		formatted = append(formatted, fmt.Sprintf("%s (%s) id=%s score=%.2f", res.Entity.Name, res.Entity.Kind, res.Entity.ID, res.Score))
	}
	return mcp.NewToolResultText(strings.Join(formatted, "\n")), nil
}

func (ms *MCPServer) handleGetOutgoingEdges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return ms.handleEdges(request, true)
}

func (ms *MCPServer) handleGetIncomingEdges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return ms.handleEdges(request, false)
}

func (ms *MCPServer) handleEdges(request mcp.CallToolRequest, outgoing bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	projectID, ok := args["project"].(string)
	if !ok {
		return mcp.NewToolResultError("project argument required"), nil
	}
	entityID, ok := args["entity_id"].(string)
	if !ok {
		return mcp.NewToolResultError("entity_id argument required"), nil
	}

	var (
		edges []service.Edge
		err   error
	)
	if outgoing {
		edges, err = ms.arch.OutgoingEdges(projectID, entityID)
	} else {
		edges, err = ms.arch.IncomingEdges(projectID, entityID)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("edge lookup failed: %v", err)), nil
	}

	if len(edges) == 0 {
		return mcp.NewToolResultText("No edges found."), nil
	}

	var formatted []string
	for _, e := range edges {
		line := fmt.Sprintf("%s --[%s]--> %s", e.SourceID, e.Stereotype, e.DestinationID)
		if e.Description != "" {
			line += " (" + e.Description + ")"
		}
		formatted = append(formatted, line)
	}
	return mcp.NewToolResultText(strings.Join(formatted, "\n")), nil
}
