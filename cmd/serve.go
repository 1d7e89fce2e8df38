package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/citation-intel/internal/model"
	"github.com/sells-group/citation-intel/internal/pipeline"
	sig "github.com/sells-group/citation-intel/internal/signal"
	"github.com/sells-group/citation-intel/internal/store"
)

const maxBodyBytes = 4 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the citation intelligence HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           buildRouter(env, cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the API routes over env.
func buildRouter(env *appEnv, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	h := &apiHandler{env: env}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/citations/analyze", h.analyze)
		r.Get("/runs/{id}", h.getRun)
		r.Get("/intelligence", h.listIntelligence)
		r.Get("/intelligence/summary", h.summary)
		r.Get("/intelligence/{id}", h.getIntelligence)
		r.Get("/recommendations", h.listRecommendations)
		r.Post("/recommendations/{id}/actioned", h.markActioned)
		r.Post("/visibility/report", h.visibilityReport)
		r.Get("/signals", h.listSignals)
		r.Post("/signals", h.ingestSignals)
	})

	return r
}

type apiHandler struct {
	env *appEnv
}

func (h *apiHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var req pipeline.Request
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.env.Pipeline.Run(r.Context(), req)
	if err != nil {
		if eris.Is(err, pipeline.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	h.env.alertBatch(r.Context(), result)
	respondJSON(w, http.StatusOK, result)
}

func (h *apiHandler) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.env.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func intelligenceQuery(r *http.Request) store.IntelligenceFilter {
	q := r.URL.Query()
	return store.IntelligenceFilter{
		Category:       model.Category(q.Get("category")),
		Status:         model.IntelligenceStatus(q.Get("status")),
		SourceAnswerID: q.Get("source_answer_id"),
		Limit:          queryInt(r, "limit"),
		Offset:         queryInt(r, "offset"),
	}
}

func (h *apiHandler) listIntelligence(w http.ResponseWriter, r *http.Request) {
	records, err := h.env.Store.ListIntelligence(r.Context(), intelligenceQuery(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"intelligence": records})
}

func (h *apiHandler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.env.Store.SummarizeIntelligence(r.Context(), intelligenceQuery(r))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (h *apiHandler) getIntelligence(w http.ResponseWriter, r *http.Request) {
	ci, err := h.env.Store.GetIntelligence(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	rec, err := h.env.Store.GetRecommendation(r.Context(), ci.ID)
	if err != nil && !store.IsNotFound(err) {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, intelligenceDetail{CitationIntelligence: ci, Recommendation: rec})
}

func (h *apiHandler) listRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RecommendationFilter{
		Type:     model.RecommendationType(q.Get("type")),
		Priority: model.Priority(q.Get("priority")),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	if v := q.Get("actioned"); v != "" {
		actioned, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, eris.Errorf("invalid actioned value %q", v))
			return
		}
		filter.Actioned = &actioned
	}

	recs, err := h.env.Store.ListRecommendations(r.Context(), filter)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

func (h *apiHandler) markActioned(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.env.Store.MarkActioned(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "actioned": true})
}

func (h *apiHandler) visibilityReport(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	report, err := buildVisibilityReport(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// signalsRequest is the POST /v1/signals body.
type signalsRequest struct {
	ClientID string      `json:"client_id"`
	Items    []sig.Input `json:"items"`
}

func (h *apiHandler) ingestSignals(w http.ResponseWriter, r *http.Request) {
	var req signalsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ClientID == "" {
		respondError(w, http.StatusBadRequest, eris.New("client_id is required"))
		return
	}
	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, eris.New("items must not be empty"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"results": ingestSignals(r.Context(), h.env.Signals, req.ClientID, req.Items),
	})
}

func (h *apiHandler) listSignals(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		respondError(w, http.StatusBadRequest, eris.New("client_id is required"))
		return
	}
	sigs, err := h.env.Store.ListSignals(r.Context(), clientID, queryInt(r, "limit"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"signals": sigs})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, eris.New("invalid request body"))
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("serve: request failed", zap.Int("status", status), zap.Error(err))
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func respondStoreError(w http.ResponseWriter, err error) {
	if store.IsNotFound(err) {
		respondError(w, http.StatusNotFound, err)
		return
	}
	respondError(w, http.StatusInternalServerError, err)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
