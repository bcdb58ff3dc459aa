// Package httphandler serves the issuepulse REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/issuepulse/internal/application"
	"github.com/ericfisherdev/issuepulse/internal/domain/port/driven"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	source        driven.GitHubSource
	engagementSvc *application.EngagementService
	labelSvc      *application.LabelSelectorService
	scoreStore    driven.ScoreStore
	ghOpts        []application.Option
	logger        *slog.Logger
}

// NewHandler creates a Handler. labelSvc and scoreStore may be nil; the
// routes that need them then answer 503. ghOpts configure the registry
// built for each request.
func NewHandler(
	source driven.GitHubSource,
	engagementSvc *application.EngagementService,
	labelSvc *application.LabelSelectorService,
	scoreStore driven.ScoreStore,
	logger *slog.Logger,
	ghOpts ...application.Option,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		source:        source,
		engagementSvc: engagementSvc,
		labelSvc:      labelSvc,
		scoreStore:    scoreStore,
		ghOpts:        append(slices.Clone(ghOpts), application.WithLogger(logger)),
		logger:        logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/engagement", h.CalculateEngagement)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/issues/{number}", h.GetIssue)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/issues/{number}/history", h.GetIssueHistory)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/issues/{number}/scores", h.ListScores)
	mux.HandleFunc("POST /api/v1/labels/select", h.SelectLabel)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// registry returns a fresh cache registry. Caches live for one request so
// every response reflects GitHub at the time it was asked.
func (h *Handler) registry() *application.GitHub {
	return application.NewGitHub(h.source, h.ghOpts...)
}

// CalculateEngagement scores one issue, a repository's open issues, or a
// project's open issues.
func (h *Handler) CalculateEngagement(w http.ResponseWriter, r *http.Request) {
	var req EngagementRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.engagementSvc.CalculateScores(r.Context(), h.registry(), req.toRequest())
	if err != nil {
		h.writeServiceError(w, err, "failed to calculate engagement")
		return
	}

	writeJSON(w, http.StatusOK, toEngagementResponse(resp))
}

// GetIssue returns a single issue with its comments and reactions.
func (h *Handler) GetIssue(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, ok := issuePath(w, r)
	if !ok {
		return
	}

	issue, err := h.registry().Repository(owner, repo).IssueDetailed(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, err, "failed to get issue")
		return
	}

	writeJSON(w, http.StatusOK, toIssueResponse(issue))
}

// GetIssueHistory reconstructs an issue as it stood at the time given by the
// "at" query parameter (RFC 3339), with the engagement score at that time.
func (h *Handler) GetIssueHistory(w http.ResponseWriter, r *http.Request) {
	owner, repo, number, ok := issuePath(w, r)
	if !ok {
		return
	}

	atParam := r.URL.Query().Get("at")
	if atParam == "" {
		writeError(w, http.StatusBadRequest, "missing at parameter")
		return
	}
	at, err := time.Parse(time.RFC3339, atParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid at parameter: expected RFC 3339 timestamp")
		return
	}
	at = at.UTC()

	issue, err := h.registry().Repository(owner, repo).IssueDetailed(r.Context(), number)
	if err != nil {
		h.writeServiceError(w, err, "failed to get issue")
		return
	}

	historic, ok := issue.HistoricAt(at)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "issue did not exist at the requested time")
		return
	}

	score := application.CalculateScore(historic, at)
	previous := application.CalculatePreviousScore(issue, at, h.engagementSvc.Window())

	writeJSON(w, http.StatusOK, HistoryResponse{
		At:             at.Format(time.RFC3339),
		Issue:          toIssueResponse(historic),
		Score:          score,
		PreviousScore:  previous,
		Classification: string(application.Classify(score, previous)),
	})
}

// ListScores returns the persisted engagement scores of an issue, newest first.
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	if h.scoreStore == nil {
		writeError(w, http.StatusServiceUnavailable, "score history is not configured")
		return
	}

	owner, repo, number, ok := issuePath(w, r)
	if !ok {
		return
	}

	records, err := h.scoreStore.ListByIssue(r.Context(), owner, repo, number)
	if err != nil {
		h.logger.Error("failed to list scores", "repo", owner+"/"+repo, "number", number, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ScoreResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toScoreResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// SelectLabel asks the configured language model for the best label.
func (h *Handler) SelectLabel(w http.ResponseWriter, r *http.Request) {
	if h.labelSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "label selection is not configured")
		return
	}

	var req LabelSelectRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	choice, err := h.labelSvc.SelectLabel(r.Context(), h.registry(), req.toRequest())
	if err != nil {
		h.writeServiceError(w, err, "failed to select label")
		return
	}

	writeJSON(w, http.StatusOK, toLabelChoiceResponse(choice))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Time:           time.Now().UTC().Format(time.RFC3339),
		LabelSelection: h.labelSvc != nil,
		ScoreHistory:   h.scoreStore != nil,
	})
}

// writeServiceError maps application and source errors to HTTP statuses.
// Only unexpected failures are logged.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, driven.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "github rejected the configured credentials")
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, application.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, driven.ErrLabelsNotLoaded):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(msg, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// issuePath extracts owner, repo and issue number from the request path,
// writing a 400 response when the number is invalid.
func issuePath(w http.ResponseWriter, r *http.Request) (string, string, int, bool) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid issue number")
		return "", "", 0, false
	}

	if !isValidName(owner) || !isValidName(repo) {
		writeError(w, http.StatusBadRequest, "invalid repository name")
		return "", "", 0, false
	}

	return owner, repo, number, true
}

// isValidName reports whether name is a plausible GitHub owner or repository
// name: non-empty, made of alphanumerics, hyphens, dots or underscores.
func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for _, ch := range name {
		if !isValidRepoChar(ch) {
			return false
		}
	}
	return true
}

// isValidRepoChar returns true if the rune is allowed in a repository owner or name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
