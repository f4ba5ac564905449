// Package httpapi exposes the live websocket endpoint and read-only
// snapshot and stats routes over HTTP.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apperrors "github.com/louisbranch/pitchside/internal/platform/errors"
	"github.com/louisbranch/pitchside/internal/platform/requestctx"
	"github.com/louisbranch/pitchside/internal/services/ledger/api/view"
	"github.com/louisbranch/pitchside/internal/services/ledger/service"
)

// HeaderClubID optionally pins the club a request acts for.
const HeaderClubID = "X-Pitchside-Club-Id"

// readTimeout bounds every non-websocket request.
const readTimeout = 30 * time.Second

// Config wires the router.
type Config struct {
	Service    *service.Service
	Identities service.IdentityVerifier
	// Live serves /ws. Nil leaves the route unmounted.
	Live           http.Handler
	AllowedOrigins []string
}

// NewRouter builds the HTTP surface.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Authorization", HeaderClubID},
		MaxAge:         300,
	}))

	r.Get("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if cfg.Live != nil {
		r.Handle("/ws", cfg.Live)
	}

	h := &handlers{svc: cfg.Service}
	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(readTimeout))
		r.Use(authenticate(cfg.Identities))
		r.Get("/matches/{matchID}/snapshot", h.snapshot)
		r.Get("/matches/{matchID}/stats", h.matchStats)
		r.Get("/clubs/stats", h.seasonStats)
	})
	return r
}

// authenticate resolves the bearer token into the request context.
func authenticate(identities service.IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestctx.WithLocale(r.Context(), localeFrom(r))
			if identities == nil {
				http.Error(w, "authentication is not configured", http.StatusServiceUnavailable)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
			if token == "" {
				writeError(w, r.WithContext(ctx), apperrors.New(apperrors.CodeUnauthenticated, "bearer token is required"))
				return
			}
			identity, err := identities.Verify(token)
			if err != nil {
				writeError(w, r.WithContext(ctx), err)
				return
			}
			ctx = requestctx.WithUserID(ctx, identity.UserID)
			ctx = requestctx.WithClubID(ctx, strings.TrimSpace(r.Header.Get(HeaderClubID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// localeFrom takes the first tag of Accept-Language; the catalog does the
// matching.
func localeFrom(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	return strings.TrimSpace(first)
}

type handlers struct {
	svc *service.Service
}

func (h *handlers) snapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := h.svc.ResolveCaller(ctx, requestctx.UserIDFromContext(ctx), requestctx.ClubIDFromContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	snap, err := h.svc.Snapshot(ctx, caller, chi.URLParam(r, "matchID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) matchStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := h.svc.ResolveCaller(ctx, requestctx.UserIDFromContext(ctx), requestctx.ClubIDFromContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.svc.ComputeMatchStats(ctx, caller, chi.URLParam(r, "matchID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewMatchStats(result))
}

func (h *handlers) seasonStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, err := h.svc.ResolveCaller(ctx, requestctx.UserIDFromContext(ctx), requestctx.ClubIDFromContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := h.svc.ComputeSeasonStats(ctx, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewSeasonStats(result))
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := apperrors.UserMessage(err, requestctx.LocaleFromContext(r.Context()))
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		log.Printf("http: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: message})
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeForbidden, apperrors.CodeOwnershipViolation:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidState, apperrors.CodeAlreadyCorrected, apperrors.CodeIllegalTransition:
		return http.StatusConflict
	case apperrors.CodeLedgerAborted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}
