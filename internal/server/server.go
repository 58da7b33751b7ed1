// Package server exposes the discovery pipeline over HTTP, mirroring the API
// the browsing frontend consumes.
package server

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lepinkainen/alexandria/internal/book"
	"github.com/lepinkainen/alexandria/internal/catalog"
	"github.com/lepinkainen/alexandria/internal/covers"
	"github.com/lepinkainen/alexandria/internal/enrichment"
	"github.com/lepinkainen/alexandria/internal/search"
)

// Config carries the server's tunables.
type Config struct {
	PageSize      int
	EnrichTimeout time.Duration
	RelatedLimit  int
}

// Server wires the pipeline components behind a fiber app. The enrichment
// cache is the only cross-request shared resource; each detail request gets
// its own orchestrator over it so concurrent selections cannot fence each
// other out.
type Server struct {
	app     *fiber.App
	store   catalog.Store
	meta    enrichment.MetadataSource
	related enrichment.RelatedSource
	cache   *enrichment.SessionCache
	fetcher *covers.Fetcher
	cfg     Config
}

// New assembles the HTTP server.
func New(store catalog.Store, meta enrichment.MetadataSource, related enrichment.RelatedSource, fetcher *covers.Fetcher, cfg Config) *Server {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 12
	}
	if cfg.EnrichTimeout <= 0 {
		cfg.EnrichTimeout = enrichment.DefaultTimeout
	}
	if cfg.RelatedLimit <= 0 {
		cfg.RelatedLimit = enrichment.DefaultRelatedLimit
	}

	s := &Server{
		app:     fiber.New(fiber.Config{DisableStartupMessage: true}),
		store:   store,
		meta:    meta,
		related: related,
		cache:   enrichment.NewSessionCache(),
		fetcher: fetcher,
		cfg:     cfg,
	}
	s.routes()
	return s
}

// App returns the underlying fiber app, used by tests via app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or is shut down.
func (s *Server) Listen(addr string) error {
	slog.Info("HTTP API listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) routes() {
	s.app.Get("/search", s.handleSearch)
	s.app.Get("/browse", s.handleBrowse)
	s.app.Get("/book/:id", s.handleGetBook)
	s.app.Get("/book/:id/detail", s.handleBookDetail)
	s.app.Post("/recommend", s.handleRecommend)
	s.app.Get("/covers/:id", s.handleCover)
}

func (s *Server) newOrchestrator() *enrichment.Orchestrator {
	return enrichment.New(s.store, s.meta, s.related, s.cache,
		enrichment.WithTimeout(s.cfg.EnrichTimeout),
		enrichment.WithRelatedLimit(s.cfg.RelatedLimit),
	)
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Query is required")
	}

	corpus, err := s.store.All(c.Context())
	if err != nil {
		slog.Error("Corpus read failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	results := search.Rank(query, corpus, parseFilters(c))
	facets := search.Facets(results)
	if selected := queryList(c, "categories"); len(selected) > 0 {
		results = search.Refine(results, selected)
	}

	pageSize := c.QueryInt("page_size", s.cfg.PageSize)
	page := search.Paginate(results, pageSize, c.QueryInt("page", 1))

	return c.JSON(fiber.Map{
		"query":       query,
		"total":       len(results),
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"facets":      facets,
		"results":     page.Items,
	})
}

func (s *Server) handleBrowse(c *fiber.Ctx) error {
	corpus, err := s.store.All(c.Context())
	if err != nil {
		slog.Error("Corpus read failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	records := search.Browse(corpus, parseFilters(c))
	pageSize := c.QueryInt("page_size", s.cfg.PageSize)
	page := search.Paginate(records, pageSize, c.QueryInt("page", 1))

	return c.JSON(fiber.Map{
		"total":       len(records),
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"items":       page.Items,
	})
}

func (s *Server) handleGetBook(c *fiber.Ctx) error {
	rec, err := s.store.GetRecord(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Book not found")
		}
		slog.Error("Record lookup failed", "id", c.Params("id"), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
	}
	return c.JSON(rec)
}

func (s *Server) handleBookDetail(c *fiber.Ctx) error {
	detail, err := s.newOrchestrator().Enrich(c.Context(), book.NewPlaceholder(c.Params("id")))
	if err != nil {
		if errors.Is(err, book.ErrUnresolvable) {
			return errorJSON(c, fiber.StatusNotFound, "Book not found")
		}
		slog.Error("Enrichment failed", "id", c.Params("id"), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	resp := fiber.Map{
		"record":    detail.Record,
		"resolved":  detail.Resolved,
		"metadata":  detail.Metadata,
		"related":   detail.Related,
		"cover_url": covers.URLFor(detail.Record),
	}
	if detail.Metadata != nil && detail.Metadata.PageCount > 0 {
		rt := book.EstimateReadingTime(detail.Metadata.PageCount)
		resp["reading_time"] = fiber.Map{"hours": rt.Hours, "minutes": rt.Minutes}
	}
	return c.JSON(resp)
}

type recommendRequest struct {
	LikedIDs []string `json:"liked_ids"`
	Limit    int      `json:"limit"`
}

// handleRecommend is the same-category recommender the frontend falls back
// on when no smarter service is deployed.
func (s *Server) handleRecommend(c *fiber.Ctx) error {
	var req recommendRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(req.LikedIDs) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "liked_ids is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.RelatedLimit
	}

	corpus, err := s.store.All(c.Context())
	if err != nil {
		slog.Error("Corpus read failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	seen := make(map[string]bool, len(req.LikedIDs))
	for _, id := range req.LikedIDs {
		seen[id] = true
	}

	var related []book.Record
	for _, id := range req.LikedIDs {
		rec, err := s.store.GetRecord(c.Context(), id)
		if err != nil {
			continue
		}
		for _, candidate := range enrichment.SameCategory(corpus, rec, limit) {
			if seen[candidate.ID] {
				continue
			}
			seen[candidate.ID] = true
			related = append(related, candidate)
			if len(related) == limit {
				return c.JSON(related)
			}
		}
	}
	if related == nil {
		related = []book.Record{}
	}
	return c.JSON(related)
}

func (s *Server) handleCover(c *fiber.Ctx) error {
	rec, err := s.store.GetRecord(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Book not found")
		}
		return errorJSON(c, fiber.StatusInternalServerError, "Internal Server Error")
	}

	data, err := s.fetcher.Thumbnail(c.Context(), covers.URLFor(rec), c.QueryInt("width", covers.DefaultThumbnailWidth))
	if err != nil {
		slog.Warn("Cover fetch failed", "id", rec.ID, "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Cover unavailable")
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	return c.Send(data)
}

// parseFilters builds a FilterSet from query parameters. Absent parameters
// leave the zero value, which matches everything.
func parseFilters(c *fiber.Ctx) book.FilterSet {
	return book.FilterSet{
		Genres:    queryList(c, "genres"),
		Author:    c.Query("author"),
		MinRating: c.QueryFloat("min_rating", 0),
		YearMin:   c.QueryInt("year_min", 0),
		YearMax:   c.QueryInt("year_max", 0),
		Language:  c.Query("language", book.LanguageAll),
	}
}

func queryList(c *fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	return book.SplitNames(raw)
}
