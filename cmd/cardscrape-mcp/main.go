package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// scrapeRequest mirrors the cardscrape API request model.
type scrapeRequest struct {
	URL            string            `json:"url"`
	Selector       string            `json:"selector"`
	FieldSelectors map[string]string `json:"fieldSelectors,omitempty"`
}

// scrapeResponse mirrors the cardscrape API response model. Success and
// failure bodies share it; Error is set only on failure.
type scrapeResponse struct {
	URL        string          `json:"url"`
	Selector   string          `json:"selector"`
	Courses    json.RawMessage `json:"courses"`
	TotalFound int             `json:"total_found"`
	Detail     string          `json:"detail"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("CARDSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8000"
	}
	apiURL = strings.TrimRight(apiURL, "/")

	s := server.NewMCPServer(
		"cardscrape",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeCardsTool := mcp.NewTool("scrape_cards",
		mcp.WithDescription("Extract repeating listing cards from a web page. Renders JavaScript in a headless browser when available and returns one record per element matching the CSS selector."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the listing page"),
		),
		mcp.WithString("selector",
			mcp.Required(),
			mcp.Description("CSS selector matching each card, e.g. [data-testid^='facility-card-']"),
		),
		mcp.WithObject("field_selectors",
			mcp.Description("Optional map of output field name to a CSS selector evaluated inside each card, e.g. {\"name\": \"h2\", \"url\": \"a\"}. When omitted, name and url are guessed from headings and links."),
		),
	)
	s.AddTool(scrapeCardsTool, handleScrapeCards(apiURL, &http.Client{Timeout: 120 * time.Second}))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func handleScrapeCards(apiURL string, client *http.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		selector, err := request.RequireString("selector")
		if err != nil {
			return mcp.NewToolResultError("selector is required"), nil
		}

		fields, err := fieldSelectorsArg(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/scrape-courses", scrapeRequest{
			URL:            url,
			Selector:       selector,
			FieldSelectors: fields,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if scrapeResp.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", scrapeResp.Error.Code, scrapeResp.Error.Message)), nil
		}

		// Format the records as pretty JSON under a short header.
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, scrapeResp.Courses, "", "  "); err != nil {
			pretty.Write(scrapeResp.Courses)
		}

		result := fmt.Sprintf("Found %d cards on %s (selector %s)\n\n%s",
			scrapeResp.TotalFound, scrapeResp.URL, scrapeResp.Selector, pretty.String())
		return mcp.NewToolResultText(result), nil
	}
}

// fieldSelectorsArg reads the optional field_selectors object. Every value
// must be a string.
func fieldSelectorsArg(args map[string]any) (map[string]string, error) {
	raw, ok := args["field_selectors"]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field_selectors must be an object of field name to CSS selector")
	}
	fields := make(map[string]string, len(obj))
	for name, v := range obj {
		sel, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("field_selectors[%q] must be a string", name)
		}
		fields[name] = sel
	}
	return fields, nil
}

// apiPost sends a POST request to the cardscrape API and returns the
// response body, for success and error statuses alike.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}
