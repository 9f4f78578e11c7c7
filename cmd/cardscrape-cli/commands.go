package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/cardscrape/config"
	"github.com/use-agent/cardscrape/models"
	"github.com/use-agent/cardscrape/scraper"
	"gopkg.in/yaml.v3"
)

// cardScraper is the part of *scraper.Scraper the scrape command needs.
type cardScraper interface {
	ScrapeCards(ctx context.Context, req *models.ScrapeRequest) (*models.ScrapeResponse, error)
	Close()
}

// newScraper is replaced in tests.
var newScraper = func(cfg *config.Config) cardScraper {
	return scraper.NewScraper(cfg)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cardscrape",
		Short: "Extract listing cards from a web page",
		Long: `cardscrape fetches a page, renders it in headless Chrome when
available, and extracts one record per element matching a CSS selector.

Examples:
  # Heuristic extraction (name from headings, url from the first link)
  cardscrape scrape -u "https://example.com/search" -s ".course-card"

  # Explicit fields
  cardscrape scrape -u "https://example.com/search" \
      -s "[data-testid^='facility-card-']" -f name=h2 -f url=a

  # Static markup only, YAML output
  cardscrape scrape -u "https://example.com/search" -s ".card" --no-render --format yaml`,
		SilenceUsage: true,
	}
	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.AddCommand(newScrapeCmd())
	return root
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape cards from one URL",
		RunE:  runScrape,
	}

	flags := cmd.Flags()
	flags.StringP("url", "u", "", "page URL (required)")
	flags.StringP("selector", "s", "", "CSS selector matching each card (required)")
	flags.StringArrayP("field", "f", nil, "field=sub-selector, repeatable")
	flags.String("format", "json", "output format: json, yaml")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.Bool("no-render", false, "skip headless rendering, use static markup only")

	_ = cmd.MarkFlagRequired("url")
	_ = cmd.MarkFlagRequired("selector")
	return cmd
}

func runScrape(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	pageURL, _ := flags.GetString("url")
	selector, _ := flags.GetString("selector")
	fieldArgs, _ := flags.GetStringArray("field")
	format, _ := flags.GetString("format")
	outPath, _ := flags.GetString("output")
	noRender, _ := flags.GetBool("no-render")
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")

	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
	fields, err := parseFields(fieldArgs)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	cfg := config.Load()
	if noRender {
		cfg.Browser.RenderEnabled = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc := newScraper(cfg)
	defer sc.Close()

	resp, err := sc.ScrapeCards(ctx, &models.ScrapeRequest{
		URL:            pageURL,
		Selector:       selector,
		FieldSelectors: fields,
	})
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeResponse(out, resp, format)
}

// parseFields splits each field=selector pair on the first "=". Selectors
// may contain commas and further "=" signs.
func parseFields(args []string) (map[string]string, error) {
	if len(args) == 0 {
		return nil, nil
	}
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		name, sel, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --field %q (want name=selector)", arg)
		}
		fields[name] = sel
	}
	return fields, nil
}

// writeResponse encodes resp as indented JSON or as YAML with the same
// keys as the HTTP API.
func writeResponse(w io.Writer, resp *models.ScrapeResponse, format string) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if format == "json" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
