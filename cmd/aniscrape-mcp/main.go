package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/aniscrape/models"
)

func main() {
	apiURL := strings.TrimRight(os.Getenv("ANISCRAPE_API_URL"), "/")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("ANISCRAPE_API_KEY")

	c := &apiClient{baseURL: apiURL, apiKey: apiKey, http: &http.Client{Timeout: 10 * time.Minute}}

	s := server.NewMCPServer(
		"aniscrape",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	homepageTool := mcp.NewTool("get_homepage",
		mcp.WithDescription("List the anime site's homepage: the spotlight slider (with descriptions) and the latest episodes, each with watch and poster URLs."),
		mcp.WithBoolean("streams",
			mcp.Description("Also resolve the embedded video URL of every entry. Slow: one page load per entry."),
		),
	)
	s.AddTool(homepageTool, handleHomepage(c))

	catalogTool := mcp.NewTool("get_catalog_page",
		mcp.WithDescription("Read one page of the site's A-Z catalog for a single letter. An empty result means the letter has no more pages."),
		mcp.WithString("letter",
			mcp.Required(),
			mcp.Description("Index letter, a single character such as 'A' or '#'"),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number, starting at 1 (default: 1)"),
		),
	)
	s.AddTool(catalogTool, handleCatalogPage(c))

	streamTool := mcp.NewTool("resolve_stream",
		mcp.WithDescription("Resolve a watch page URL to the URL of its embedded video player."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Watch page URL on the configured site"),
		),
	)
	s.AddTool(streamTool, handleResolveStream(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiClient calls the aniscrape HTTP API.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// get decodes the JSON response of a GET into out. API error envelopes are
// decoded too; the caller inspects Success.
func (c *apiClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}

func errorText(fallback string, detail *models.ErrorDetail) string {
	if detail == nil {
		return fallback
	}
	return fmt.Sprintf("[%s] %s", detail.Code, detail.Message)
}

func handleHomepage(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := url.Values{}
		if request.GetBool("streams", false) {
			query.Set("streams", "true")
		}

		var resp models.HomepageResponse
		if err := c.get(ctx, "/api/v1/homepage", query, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success || resp.Data == nil {
			return mcp.NewToolResultError(errorText("homepage request failed", resp.Error)), nil
		}
		return mcp.NewToolResultText(formatHomepage(resp.Data)), nil
	}
}

func handleCatalogPage(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		letter, err := request.RequireString("letter")
		if err != nil {
			return mcp.NewToolResultError("letter is required"), nil
		}
		page := request.GetInt("page", 1)

		var resp models.CatalogPageResponse
		query := url.Values{"page": {strconv.Itoa(page)}}
		if err := c.get(ctx, "/api/v1/catalog/"+url.PathEscape(letter), query, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("catalog request failed", resp.Error)), nil
		}
		return mcp.NewToolResultText(formatCatalogPage(&resp)), nil
	}
}

func handleResolveStream(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		watchURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var resp models.StreamResponse
		if err := c.get(ctx, "/api/v1/stream", url.Values{"url": {watchURL}}, &resp); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(errorText("stream request failed", resp.Error)), nil
		}
		if resp.StreamURL == nil {
			return mcp.NewToolResultText("No stream found for " + watchURL), nil
		}
		return mcp.NewToolResultText(*resp.StreamURL), nil
	}
}

func formatHomepage(h *models.HomepageData) string {
	var sb strings.Builder
	writeSection := func(name string, items []models.AnimeSummary) {
		fmt.Fprintf(&sb, "%s (%d):\n", name, len(items))
		for i, a := range items {
			fmt.Fprintf(&sb, "%d. %s\n   watch: %s\n", i+1, a.Title, a.WatchURL)
			if a.ImageURL != "" {
				fmt.Fprintf(&sb, "   image: %s\n", a.ImageURL)
			}
			if a.Description != "" {
				fmt.Fprintf(&sb, "   %s\n", a.Description)
			}
			if a.StreamURL != nil {
				fmt.Fprintf(&sb, "   stream: %s\n", *a.StreamURL)
			}
		}
		sb.WriteString("\n")
	}
	writeSection("Spotlight", h.Spotlight)
	writeSection("Latest episodes", h.LatestEpisodes)
	return strings.TrimRight(sb.String(), "\n")
}

func formatCatalogPage(resp *models.CatalogPageResponse) string {
	if len(resp.Entries) == 0 {
		return fmt.Sprintf("Letter %s page %d: no entries (end of letter)", resp.Letter, resp.Page)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Letter %s page %d (%d entries):\n", resp.Letter, resp.Page, len(resp.Entries))
	for _, e := range resp.Entries {
		fmt.Fprintf(&sb, "- %s: %s\n", e.Title, e.DetailURL)
	}
	return strings.TrimRight(sb.String(), "\n")
}
