package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/seg-flt/hdrscan/internal/storage"
)

// ChunkSearcher is the slice of the chunk store the search_chunks tool needs.
type ChunkSearcher interface {
	Search(query string, limit int) ([]storage.FTSResult, error)
}

// SearchChunksResult is one hit in a search_chunks response.
type SearchChunksResult struct {
	ID          string   `json:"id"`
	Filepath    string   `json:"filepath"`
	Snippet     string   `json:"snippet"`
	Content     string   `json:"content"`
	Conditional []string `json:"conditional_context,omitempty"`
}

// SearchChunksResponse is the JSON payload returned by search_chunks.
type SearchChunksResponse struct {
	Results []SearchChunksResult `json:"results"`
	Total   int                  `json:"total"`
}

// AddSearchChunksTool registers the search_chunks tool with an MCP server.
// This function is composable - it can be combined with other tool
// registrations.
func AddSearchChunksTool(s *server.MCPServer, searcher ChunkSearcher) {
	tool := mcp.NewTool(
		"search_chunks",
		mcp.WithDescription("Full-text search over indexed C header chunks. Returns declarations, macros, and type definitions with their file paths and preprocessor context, ranked by relevance."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("FTS5 query: keywords, quoted phrases, AND/OR/NOT, or trailing-* prefixes (e.g. 'uart_open', '\"ring buffer\"', 'gpio_*')")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 10)")),
	)

	s.AddTool(tool, createSearchChunksHandler(searcher))
}

func createSearchChunksHandler(searcher ChunkSearcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		query, ok := argsMap["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		limit := 10
		if l, ok := argsMap["limit"].(float64); ok && l > 0 {
			limit = int(l)
		}

		hits, err := searcher.Search(query, limit)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		response := &SearchChunksResponse{
			Results: make([]SearchChunksResult, 0, len(hits)),
			Total:   len(hits),
		}
		for _, hit := range hits {
			response.Results = append(response.Results, SearchChunksResult{
				ID:          hit.Record.ID,
				Filepath:    hit.Record.Metadata.Filepath,
				Snippet:     hit.Snippet,
				Content:     hit.Record.Content,
				Conditional: hit.Record.Metadata.CondContext,
			})
		}

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
