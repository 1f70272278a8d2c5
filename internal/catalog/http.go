package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BookExplorer/internal/scrape"
	"BookExplorer/pkg/kit"
)

type Server struct {
	Scraper Scraper
	Index   ProductIndex
	Log     *zap.Logger

	pages       *pageCache
	navigation  lastGood[[]scrape.Category]
	bestsellers lastGood[[]scrape.Shelf]
}

func NewServer(scraper Scraper, index ProductIndex, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		Scraper: scraper,
		Index:   index,
		Log:     log,
		pages:   newPageCache(),
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", s.handleReady)

	r.Get("/navigation", s.handleNavigation)
	r.Get("/bestsellers", s.handleBestsellers)
	r.Get("/category/{slug}", s.handleCategory)
	r.Get("/products", s.handleProducts)
	r.Get("/search", s.handleSearch)
	r.Post("/history", s.handleHistory)

	return r
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.Index.Ping(r.Context()); err != nil {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "index not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	cats, err := s.Scraper.Navigation(r.Context())
	if err != nil {
		s.Log.Warn("navigation scrape failed", zap.Error(err))
		cached, ok := s.navigation.load()
		if !ok {
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
			return
		}
		kit.WriteJSON(w, http.StatusOK, cached)
		return
	}

	s.navigation.store(cats)
	kit.WriteJSON(w, http.StatusOK, cats)
}

func (s *Server) handleBestsellers(w http.ResponseWriter, r *http.Request) {
	shelves, err := s.Scraper.Bestsellers(r.Context())
	if err != nil {
		s.Log.Warn("bestsellers scrape failed", zap.Error(err))
		cached, ok := s.bestsellers.load()
		if !ok {
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
			return
		}
		kit.WriteJSON(w, http.StatusOK, cached)
		return
	}

	s.bestsellers.store(shelves)
	s.indexShelves(r, shelves)
	kit.WriteJSON(w, http.StatusOK, shelves)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if r.URL.Query().Get("loadMore") == "true" {
		s.handleLoadMore(w, r, slug)
		return
	}

	products, err := s.Scraper.Category(r.Context(), slug, 1)
	if err != nil {
		s.Log.Warn("category scrape failed", zap.String("slug", slug), zap.Error(err))
		cached, ok := s.pages.snapshot(slug)
		if !ok {
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
			return
		}
		kit.WriteJSON(w, http.StatusOK, cached)
		return
	}

	s.pages.setInitial(slug, products)
	s.indexProducts(r, products)
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) handleLoadMore(w http.ResponseWriter, r *http.Request, slug string) {
	page, claimed := s.pages.beginLoadMore(slug)
	if !claimed {
		// No snapshot yet or a fetch is already running: serve what we have.
		cached, ok := s.pages.snapshot(slug)
		if !ok {
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
			return
		}
		kit.WriteJSON(w, http.StatusOK, cached)
		return
	}

	products, err := s.Scraper.Category(r.Context(), slug, page)
	s.pages.completeLoadMore(slug, products, err == nil)
	if err != nil {
		s.Log.Warn("load more scrape failed",
			zap.String("slug", slug), zap.Int("page", page), zap.Error(err))
	} else {
		s.indexProducts(r, products)
	}

	cached, _ := s.pages.snapshot(slug)
	kit.WriteJSON(w, http.StatusOK, cached)
}

type productSummary struct {
	Title string `json:"title"`
	Price string `json:"price"`
	Image string `json:"image"`
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("category")
	if slug == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "category is required", nil)
		return
	}

	products, ok := s.pages.snapshot(slug)
	if !ok {
		fetched, err := s.Scraper.Category(r.Context(), slug, 1)
		if err != nil {
			s.Log.Warn("category scrape failed", zap.String("slug", slug), zap.Error(err))
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
			return
		}
		s.pages.setInitial(slug, fetched)
		s.indexProducts(r, fetched)
		products = fetched
	}

	out := make([]productSummary, 0, len(products))
	for _, p := range products {
		out = append(out, productSummary{Title: p.Title, Price: p.Price, Image: p.Image})
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "q is required", nil)
		return
	}

	detail, err := s.Scraper.ProductDetail(r.Context(), q)
	if err != nil {
		s.Log.Warn("product detail scrape failed", zap.String("q", q), zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
		return
	}

	s.indexProducts(r, detail.Recommendations)
	kit.WriteJSON(w, http.StatusOK, detail)
}

type historyReq struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req historyReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	products, err := s.Index.ByIDs(r.Context(), req.IDs)
	if err != nil {
		s.Log.Error("history lookup failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "lookup failed", nil)
		return
	}
	if products == nil {
		products = []scrape.Product{}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) indexProducts(r *http.Request, products []scrape.Product) {
	if len(products) == 0 {
		return
	}
	if err := s.Index.Upsert(r.Context(), products); err != nil {
		s.Log.Warn("product index upsert failed", zap.Error(err))
	}
}

func (s *Server) indexShelves(r *http.Request, shelves []scrape.Shelf) {
	for _, shelf := range shelves {
		s.indexProducts(r, shelf.Products)
	}
}
