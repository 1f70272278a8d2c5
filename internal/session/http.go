package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"BookExplorer/pkg/kit"
)

const sessionTTL = 30 * 24 * time.Hour

type Server struct {
	Log     *zap.Logger
	Storage StorageProvider
	Tokens  *TokenMaker
}

type ctxKey string

const namespaceKey ctxKey = "session_namespace"

func namespaceFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(namespaceKey).(string)
	return v, ok
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Storage.Ping(ctx); err != nil {
			if s.Log != nil {
				s.Log.Warn("readyz failed", zap.Error(err))
			}
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Post("/session", s.handleCreate)

	r.Group(func(pr chi.Router) {
		pr.Use(s.requireSession)

		pr.Get("/session/cart", s.handleGetCart)
		pr.Post("/session/cart/items", s.handleAddItem)
		pr.Patch("/session/cart/items/{id}", s.handleUpdateItem)
		pr.Delete("/session/cart/items/{id}", s.handleRemoveItem)
		pr.Delete("/session/cart", s.handleClearCart)
		pr.Put("/session/cart/open", s.handleCartOpen)

		pr.Get("/session/currencies", s.handleCurrencies)
		pr.Put("/session/currency", s.handleSetCurrency)
		pr.Get("/session/price", s.handlePrice)

		pr.Get("/session/history", s.handleGetHistory)
		pr.Post("/session/history", s.handleRecordView)
	})

	return r
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
			return
		}

		claims, err := s.Tokens.Parse(strings.TrimPrefix(authz, "Bearer "))
		if err != nil {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), namespaceKey, claims.Namespace)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type createResp struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ns := "s_" + uuid.NewString()

	tok, err := s.Tokens.New(ns, sessionTTL)
	if err != nil {
		s.Log.Error("token issue failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, createResp{SessionID: ns, Token: tok})
}

// openStore constructs and hydrates the store for the request's namespace.
// Every request runs its own read-modify-write cycle against storage.
func (s *Server) openStore(r *http.Request) *Store {
	ns, _ := namespaceFromContext(r.Context())
	st := NewStore(s.Storage.Namespace(ns), s.Log)
	st.Hydrate(r.Context())
	return st
}

func (s *Server) openHistory(r *http.Request) *History {
	ns, _ := namespaceFromContext(r.Context())
	h := NewHistory(s.Storage.Namespace(ns), s.Log)
	h.Hydrate(r.Context())
	return h
}

type lineView struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	UnitPrice    string `json:"unit_price"`
	Image        string `json:"image"`
	Quantity     int    `json:"quantity"`
	DisplayPrice string `json:"display_price"`
}

type cartView struct {
	Items           []lineView `json:"items"`
	Subtotal        string     `json:"subtotal"`
	DisplaySubtotal string     `json:"display_subtotal"`
	Currency        Currency   `json:"currency"`
	CartOpen        bool       `json:"cart_open"`
}

func viewOf(st *Store) cartView {
	lines := st.Cart()

	items := make([]lineView, 0, len(lines))
	for _, l := range lines {
		lineTotal := l.UnitPrice.Mul(decimalFromInt(l.Quantity))
		items = append(items, lineView{
			ID:           l.ID,
			Title:        l.Title,
			UnitPrice:    l.UnitPrice.String(),
			Image:        l.Image,
			Quantity:     l.Quantity,
			DisplayPrice: st.DisplayAmount(lineTotal),
		})
	}

	sub := st.Subtotal()
	return cartView{
		Items:           items,
		Subtotal:        sub.String(),
		DisplaySubtotal: st.DisplayAmount(sub),
		Currency:        st.Currency(),
		CartOpen:        st.CartOpen(),
	}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, viewOf(s.openStore(r)))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req ProductView
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "title required", nil)
		return
	}

	st := s.openStore(r)
	st.AddToCart(r.Context(), req)
	kit.WriteJSON(w, http.StatusOK, viewOf(st))
}

type updateItemReq struct {
	Delta int `json:"delta"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	st := s.openStore(r)
	st.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Delta)
	kit.WriteJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	st := s.openStore(r)
	st.RemoveFromCart(r.Context(), chi.URLParam(r, "id"))
	kit.WriteJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	st := s.openStore(r)
	st.ClearCart(r.Context())
	kit.WriteJSON(w, http.StatusOK, viewOf(st))
}

type cartOpenReq struct {
	Open bool `json:"open"`
}

func (s *Server) handleCartOpen(w http.ResponseWriter, r *http.Request) {
	var req cartOpenReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	st := s.openStore(r)
	st.SetCartOpen(r.Context(), req.Open)
	kit.WriteJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, Currencies)
}

type setCurrencyReq struct {
	Code string `json:"code"`
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req setCurrencyReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	// Unknown codes are a silent no-op; the response carries whichever
	// currency is actually active.
	st := s.openStore(r)
	st.SetCurrency(r.Context(), req.Code)
	kit.WriteJSON(w, http.StatusOK, viewOf(st))
}

type priceResp struct {
	Display string `json:"display"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	st := s.openStore(r)
	kit.WriteJSON(w, http.StatusOK, priceResp{Display: st.ConvertPrice(q)})
}

type historyResp struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	h := s.openHistory(r)
	ids := h.ReadHistory(r.Context())
	if ids == nil {
		ids = []int64{}
	}
	kit.WriteJSON(w, http.StatusOK, historyResp{IDs: ids})
}

type recordViewReq struct {
	ProductID int64 `json:"product_id"`
}

func (s *Server) handleRecordView(w http.ResponseWriter, r *http.Request) {
	var req recordViewReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	h := s.openHistory(r)
	h.RecordView(r.Context(), req.ProductID)

	ids := h.ReadHistory(r.Context())
	if ids == nil {
		ids = []int64{}
	}
	kit.WriteJSON(w, http.StatusOK, historyResp{IDs: ids})
}
