package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/alexandria/internal/book"
	"github.com/lepinkainen/alexandria/internal/catalog"
	"github.com/lepinkainen/alexandria/internal/config"
	"github.com/lepinkainen/alexandria/internal/covers"
	"github.com/lepinkainen/alexandria/internal/enrichment"
	"github.com/lepinkainen/alexandria/internal/googlebooks"
	"github.com/lepinkainen/alexandria/internal/recommend"
	"github.com/lepinkainen/alexandria/internal/search"
	"github.com/lepinkainen/alexandria/internal/server"
	"github.com/lepinkainen/alexandria/internal/tui"
)

var browseResults = tui.Browse

// CLI represents the complete command structure for the alexandria application
type CLI struct {
	// Global flags
	Corpus string `help:"Path to the corpus file (JSON, YAML or CSV)"`
	DB     string `help:"Path to a SQLite corpus database; takes precedence over --corpus when the file exists"`

	Search SearchCmd `cmd:"" help:"Search the corpus with a keyword query"`
	Browse BrowseCmd `cmd:"" help:"Browse the corpus with filters, no query"`
	Detail DetailCmd `cmd:"" help:"Show the enriched detail view for a single book"`
	Serve  ServeCmd  `cmd:"" help:"Serve the discovery API over HTTP"`
	Import ImportCmd `cmd:"" help:"Import a corpus file into a SQLite database"`
}

// filterFlags are the shared filtering flags for search and browse.
type filterFlags struct {
	Genres    []string `help:"Restrict to these genres (any match)"`
	Author    string   `help:"Restrict to authors containing this text"`
	MinRating float64  `help:"Exclude books rated below this threshold"`
	YearMin   int      `help:"Earliest publication year"`
	YearMax   int      `help:"Latest publication year"`
	Language  string   `help:"Restrict to this language code" default:"All"`
}

func (f filterFlags) filterSet() book.FilterSet {
	return book.FilterSet{
		Genres:    f.Genres,
		Author:    f.Author,
		MinRating: f.MinRating,
		YearMin:   f.YearMin,
		YearMax:   f.YearMax,
		Language:  f.Language,
	}
}

// SearchCmd represents the search command
type SearchCmd struct {
	Query []string `arg:"" help:"Keyword query"`
	filterFlags
	Page        int  `short:"p" help:"Result page to show" default:"1"`
	PageSize    int  `help:"Results per page (default from config)"`
	Interactive bool `short:"i" help:"Pick a result interactively and show its detail view"`
}

// BrowseCmd represents the browse command
type BrowseCmd struct {
	filterFlags
	Page     int `short:"p" help:"Result page to show" default:"1"`
	PageSize int `help:"Results per page (default from config)"`
}

// DetailCmd represents the detail command
type DetailCmd struct {
	ID string `arg:"" help:"Book identifier"`
}

// ServeCmd represents the serve command
type ServeCmd struct {
	Listen string `short:"l" help:"Listen address (default from config)"`
}

// ImportCmd represents the import command
type ImportCmd struct {
	Input  string `short:"f" help:"Path to the corpus file to import" required:""`
	Output string `short:"o" help:"Path to the SQLite database to create" default:"./alexandria.db"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("alexandria"),
		kong.Description("A book discovery tool: search, browse and enrich a local corpus."),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("googlebooks.apikey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}

// openStore opens the corpus: the SQLite database when one is configured and
// present, otherwise the corpus file. Flags win over config values.
func openStore(cli *CLI) (catalog.Store, error) {
	db := cli.DB
	if db == "" {
		db = config.CorpusDB
	}
	if db != "" {
		if _, err := os.Stat(db); err == nil {
			return catalog.NewSQLiteStore(db)
		}
	}

	corpus := cli.Corpus
	if corpus == "" {
		corpus = config.CorpusFile
	}
	return catalog.LoadFile(corpus)
}

func newOrchestrator(store catalog.Store) *enrichment.Orchestrator {
	return enrichment.New(
		store,
		googlebooks.New(googlebooks.WithAPIKey(config.GoogleBooksAPIKey)),
		recommend.New(config.RecommendURL),
		enrichment.NewSessionCache(),
		enrichment.WithTimeout(config.EnrichTimeout),
		enrichment.WithRelatedLimit(config.RelatedLimit),
	)
}

// Run methods for each command

func (s *SearchCmd) Run(cli *CLI) error {
	store, err := openStore(cli)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	corpus, err := store.All(ctx)
	if err != nil {
		return err
	}

	query := strings.Join(s.Query, " ")
	results := search.Rank(query, corpus, s.filterSet())
	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}

	if s.Interactive {
		selection, err := browseResults(query, results)
		if err != nil {
			return err
		}
		if selection.Action != tui.ActionSelected {
			return nil
		}
		return printDetail(ctx, store, selection.Selection.ID)
	}

	pageSize := s.PageSize
	if pageSize <= 0 {
		pageSize = config.PageSize
	}
	page := search.Paginate(results, pageSize, s.Page)
	printResultPage(results, page, pageSize)
	return nil
}

func (b *BrowseCmd) Run(cli *CLI) error {
	store, err := openStore(cli)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	corpus, err := store.All(context.Background())
	if err != nil {
		return err
	}

	records := search.Browse(corpus, b.filterSet())
	if len(records) == 0 {
		fmt.Println("No results.")
		return nil
	}

	pageSize := b.PageSize
	if pageSize <= 0 {
		pageSize = config.PageSize
	}
	page := search.Paginate(records, pageSize, b.Page)
	for i, rec := range page.Items {
		printRecordLine(i+1+(page.Number-1)*pageSize, rec, 0)
	}
	printPageFooter(page.Number, page.TotalPages)
	return nil
}

func (d *DetailCmd) Run(cli *CLI) error {
	store, err := openStore(cli)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return printDetail(context.Background(), store, d.ID)
}

func (s *ServeCmd) Run(cli *CLI) error {
	store, err := openStore(cli)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	listen := s.Listen
	if listen == "" {
		listen = config.ServerListen
	}

	srv := server.New(
		store,
		googlebooks.New(googlebooks.WithAPIKey(config.GoogleBooksAPIKey)),
		recommend.New(config.RecommendURL),
		covers.NewFetcher(),
		server.Config{
			PageSize:      config.PageSize,
			EnrichTimeout: config.EnrichTimeout,
			RelatedLimit:  config.RelatedLimit,
		},
	)
	return srv.Listen(listen)
}

func (i *ImportCmd) Run(_ *CLI) error {
	source, err := catalog.LoadFile(i.Input)
	if err != nil {
		return err
	}

	ctx := context.Background()
	records, err := source.All(ctx)
	if err != nil {
		return err
	}

	db, err := catalog.NewSQLiteStore(i.Output)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Import(ctx, records); err != nil {
		return err
	}
	slog.Info("Corpus imported", "records", len(records), "db", i.Output)
	return nil
}

func printDetail(ctx context.Context, store catalog.Store, id string) error {
	detail, err := newOrchestrator(store).Enrich(ctx, book.NewPlaceholder(id))
	if err != nil {
		return err
	}

	rec := detail.Record
	fmt.Printf("%s\n", rec.Title)
	if author := rec.Author(); author != "" {
		fmt.Printf("  by %s\n", author)
	}
	if rec.Year > 0 {
		fmt.Printf("  Published: %d\n", rec.Year)
	}
	if rec.HasRating() {
		fmt.Printf("  Rating: %.2f/5\n", rec.Rating)
	}
	if len(rec.Genres) > 0 {
		fmt.Printf("  Genres: %s\n", strings.Join(rec.Genres, ", "))
	}
	if rec.Description != "" {
		fmt.Printf("\n  %s\n", rec.Description)
	}

	if meta := detail.Metadata; meta != nil {
		fmt.Println()
		if meta.Publisher != "" {
			fmt.Printf("  Publisher: %s\n", meta.Publisher)
		}
		if meta.Language != "" {
			fmt.Printf("  Language: %s\n", book.FormatLanguage(meta.Language))
		}
		if meta.PageCount > 0 {
			rt := book.EstimateReadingTime(meta.PageCount)
			fmt.Printf("  Pages: %d (~%dh %dm reading time)\n", meta.PageCount, rt.Hours, rt.Minutes)
		}
	}

	if len(detail.Related) > 0 {
		fmt.Println("\nRelated books:")
		for _, related := range detail.Related {
			fmt.Printf("  - %s", related.Title)
			if author := related.Author(); author != "" {
				fmt.Printf(" by %s", author)
			}
			fmt.Println()
		}
	}
	return nil
}

func printResultPage(results []book.RankedResult, page search.Page[book.RankedResult], pageSize int) {
	start := (page.Number - 1) * pageSize
	for i, result := range page.Items {
		printRecordLine(start+i+1, result.Record, result.Score)
	}
	fmt.Printf("\n%d results", len(results))
	printPageFooter(page.Number, page.TotalPages)
}

func printRecordLine(position int, rec book.Record, score float64) {
	line := fmt.Sprintf("%3d. %s", position, rec.Title)
	if author := rec.Author(); author != "" {
		line += fmt.Sprintf(" by %s", author)
	}
	if rec.Year > 0 {
		line += fmt.Sprintf(" (%d)", rec.Year)
	}
	if score > 0 {
		line += fmt.Sprintf("  [score %.0f]", score)
	}
	fmt.Println(line)
}

func printPageFooter(current, totalPages int) {
	if totalPages <= 1 {
		fmt.Println()
		return
	}
	var window []string
	for _, n := range search.PageWindow(current, totalPages) {
		if n == current {
			window = append(window, fmt.Sprintf("[%d]", n))
		} else {
			window = append(window, fmt.Sprintf("%d", n))
		}
	}
	fmt.Printf(" - page %s of %d\n", strings.Join(window, " "), totalPages)
}
