// Package mcp exposes the directory workflows as MCP tools over SSE.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"directoryhub/backend/internal/services"
	"directoryhub/backend/internal/tenancy"
	"directoryhub/backend/pkg/models"
)

// Server registers the directory tools on an MCP server.
type Server struct {
	mcpServer   *server.MCPServer
	generator   services.SchemaGenerator
	directories *services.DirectoryService
	listings    *services.ListingService
}

// NewServer creates the MCP server and registers its tools.
func NewServer(generator services.SchemaGenerator, directories *services.DirectoryService, listings *services.ListingService, version string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"Directory Hub",
			version,
			server.WithToolCapabilities(true),
		),
		generator:   generator,
		directories: directories,
		listings:    listings,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"generate_schema",
			mcp.WithDescription("Propose a directory schema from interview answers (admin)"),
			mcp.WithString("directory_type", mcp.Required(), mcp.Description("What the directory lists, e.g. 'coffee shops in Portland'")),
			mcp.WithString("example_organizations", mcp.Description("A few organizations that belong in the directory")),
			mcp.WithString("required_fields", mcp.Description("Comma separated fields every listing must have")),
			mcp.WithString("optional_fields", mcp.Description("Comma separated nice-to-have fields")),
		),
		s.handleGenerateSchema,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_directories",
			mcp.WithDescription("List the directories of your organization"),
		),
		s.handleListDirectories,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_listing",
			mcp.WithDescription("Submit a listing to a directory for admin review"),
			mcp.WithString("directory_id", mcp.Required(), mcp.Description("The ID of the directory")),
			mcp.WithString("title", mcp.Required(), mcp.Description("The listing's display title")),
			mcp.WithObject("data", mcp.Description("Field values keyed by schema field name")),
		),
		s.handleSubmitListing,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_pending_listings",
			mcp.WithDescription("Show the listings waiting for review, oldest first (admin)"),
			mcp.WithNumber("limit", mcp.Description("Maximum number of listings, default 50")),
		),
		s.handleListPending,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"review_listing",
			mcp.WithDescription("Approve or reject a pending listing (admin)"),
			mcp.WithString("listing_id", mcp.Required(), mcp.Description("The ID of the listing")),
			mcp.WithString("decision", mcp.Required(), mcp.Enum("approve", "reject"), mcp.Description("approve or reject")),
			mcp.WithString("note", mcp.Description("Optional note for the submitter")),
		),
		s.handleReviewListing,
	)
}

func (s *Server) handleGenerateSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireAdmin(ctx); res != nil {
		return res, nil
	}
	directoryType, err := request.RequireString("directory_type")
	if err != nil || directoryType == "" {
		return mcp.NewToolResultError("Missing required parameter: directory_type"), nil
	}

	resp, err := s.generator.GenerateSchema(ctx, models.InterviewAnswers{
		DirectoryType:        directoryType,
		ExampleOrganizations: request.GetString("example_organizations", ""),
		RequiredFields:       request.GetString("required_fields", ""),
		OptionalFields:       request.GetString("optional_fields", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate schema: %v", err)), nil
	}
	return jsonResult(resp)
}

func (s *Server) handleListDirectories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dirs, err := s.directories.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list directories: %v", err)), nil
	}
	return jsonResult(dirs)
}

func (s *Server) handleSubmitListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	directoryID, err := request.RequireString("directory_id")
	if err != nil || directoryID == "" {
		return mcp.NewToolResultError("Missing required parameter: directory_id"), nil
	}
	title, err := request.RequireString("title")
	if err != nil || title == "" {
		return mcp.NewToolResultError("Missing required parameter: title"), nil
	}

	var data map[string]interface{}
	if raw, ok := request.GetArguments()["data"]; ok && raw != nil {
		if data, ok = raw.(map[string]interface{}); !ok {
			return mcp.NewToolResultError("Parameter data must be an object"), nil
		}
	}

	listing, err := s.listings.Submit(ctx, services.SubmitListingInput{
		DirectoryID: directoryID,
		Title:       title,
		Data:        data,
		SubmittedBy: principalEmail(ctx),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to submit listing: %v", err)), nil
	}
	return jsonResult(listing)
}

func (s *Server) handleListPending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireAdmin(ctx); res != nil {
		return res, nil
	}
	limit := request.GetInt("limit", 50)
	if limit < 1 {
		return mcp.NewToolResultError("Parameter limit must be positive"), nil
	}

	listings, err := s.listings.ListPending(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list pending listings: %v", err)), nil
	}
	return jsonResult(listings)
}

func (s *Server) handleReviewListing(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireAdmin(ctx); res != nil {
		return res, nil
	}
	id, err := request.RequireString("listing_id")
	if err != nil || id == "" {
		return mcp.NewToolResultError("Missing required parameter: listing_id"), nil
	}
	note := request.GetString("note", "")

	var listing *models.Listing
	switch decision := request.GetString("decision", ""); decision {
	case "approve":
		listing, err = s.listings.Approve(ctx, id, principalEmail(ctx), note)
	case "reject":
		listing, err = s.listings.Reject(ctx, id, principalEmail(ctx), note)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Unknown decision %q, use approve or reject", decision)), nil
	}
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransition) {
			return mcp.NewToolResultError("Listing has already been reviewed"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to review listing: %v", err)), nil
	}
	return jsonResult(listing)
}

func requireAdmin(ctx context.Context) *mcp.CallToolResult {
	if p, ok := tenancy.PrincipalFrom(ctx); ok && p.Admin {
		return nil
	}
	return mcp.NewToolResultError("This tool requires the directory admin role")
}

func principalEmail(ctx context.Context) string {
	p, _ := tenancy.PrincipalFrom(ctx)
	return p.Email
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// Handler serves the SSE transport under /mcp. authn must place the tenant
// and principal in the request context; tool calls inherit them.
func Handler(mcpServer *server.MCPServer, authn func(http.Handler) http.Handler) http.Handler {
	sseServer := server.NewSSEServer(mcpServer,
		server.WithStaticBasePath("/mcp"),
		server.WithSSEContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if tenantID, err := tenancy.TenantID(r.Context()); err == nil {
				ctx = tenancy.WithTenant(ctx, tenantID)
			}
			if p, ok := tenancy.PrincipalFrom(r.Context()); ok {
				ctx = tenancy.WithPrincipal(ctx, p)
			}
			return ctx
		}),
	)
	return authn(sseServer)
}
