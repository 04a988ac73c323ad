package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the filmgrab API request model.
type scrapeRequest struct {
	URL string `json:"url"`
}

// scrapeResponse mirrors both the success and the error body of /api/scrape.
type scrapeResponse struct {
	Name  string  `json:"name"`
	Image *string `json:"image"`
	Links map[string]struct {
		MainURL     string `json:"main_url"`
		RedirectURL string `json:"redirect_url"`
	} `json:"links"`
	Logs  []string `json:"logs"`
	Error string   `json:"error"`
}

func main() {
	apiURL := os.Getenv("FILMGRAB_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	apiKey := os.Getenv("FILMGRAB_API_KEY")

	s := server.NewMCPServer(
		"filmgrab",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	resolveTool := mcp.NewTool("resolve_movie_links",
		mcp.WithDescription("Scrape a movie page and return its title, poster and per-quality download links, each resolved to its final redirect URL where possible."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute URL of the movie page"),
		),
		mcp.WithBoolean("include_logs",
			mcp.Description("Append the step-by-step diagnostic trace to the result"),
		),
	)
	s.AddTool(resolveTool, handleResolve(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleResolve(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		includeLogs := request.GetBool("include_logs", false)

		respBody, status, err := apiPost(ctx, client, apiURL, apiKey, "/api/scrape", scrapeRequest{URL: url})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp scrapeResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response (HTTP %d): %v", status, err)), nil
		}
		if status != http.StatusOK {
			msg := resp.Error
			if msg == "" {
				msg = http.StatusText(status)
			}
			return mcp.NewToolResultError(fmt.Sprintf("[%d] %s", status, msg)), nil
		}

		return mcp.NewToolResultText(formatResult(&resp, includeLogs)), nil
	}
}

// formatResult renders a scrape result as plain text, qualities sorted.
func formatResult(resp *scrapeResponse, includeLogs bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", resp.Name)
	if resp.Image != nil {
		fmt.Fprintf(&b, "Poster: %s\n", *resp.Image)
	}

	labels := make([]string, 0, len(resp.Links))
	for label := range resp.Links {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	b.WriteString("\nLinks:\n")
	if len(labels) == 0 {
		b.WriteString("  (none found)\n")
	}
	for _, label := range labels {
		link := resp.Links[label]
		fmt.Fprintf(&b, "  %s\n    page:     %s\n", label, link.MainURL)
		if link.RedirectURL != "" {
			fmt.Fprintf(&b, "    download: %s\n", link.RedirectURL)
		} else {
			b.WriteString("    download: (unresolved)\n")
		}
	}

	if includeLogs && len(resp.Logs) > 0 {
		b.WriteString("\n---\n")
		b.WriteString(strings.Join(resp.Logs, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// apiPost sends a POST request to the filmgrab API and returns the body and status.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload any) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}
