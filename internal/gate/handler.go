package gate

import (
	"context"
	"log/slog"
	"net/http"

	"passgate/internal/ratelimit/models"
	metadata "passgate/pkg/platform/middleware/metadata"
)

// Messages rendered into the page's alert slot.
const (
	MsgServerError = "Server error. Please try again."
	MsgThrottled   = "Too many requests. Please try again later."
)

// Processor is satisfied by *Service; tests substitute mocks.
type Processor interface {
	Process(ctx context.Context, sub Submission) (*Result, error)
}

// Handler is the thin HTTP layer over the gate service.
type Handler struct {
	service  Processor
	renderer *Renderer
	logger   *slog.Logger
}

// NewHandler constructs the gate handler.
func NewHandler(service Processor, renderer *Renderer, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		logger:   logger,
	}
}

// HandleIndex handles GET / and serves the verification page.
func (h *Handler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, "")
}

// HandleSubmit handles verification submissions on POST / and POST /verify.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusOK, MsgIncomplete)
		return
	}

	// challenge_token is the canonical field; the challenge widget posts its
	// native g-recaptcha-response name, accepted as a fallback.
	challengeToken := r.PostFormValue("challenge_token")
	if challengeToken == "" {
		challengeToken = r.PostFormValue("g-recaptcha-response")
	}

	sub := Submission{
		ChallengeToken:  challengeToken,
		BehavioralToken: r.PostFormValue("behavioral_token"),
		ClientIP:        metadata.GetClientIP(ctx),
		Browser:         metadata.GetBrowser(ctx),
	}

	result, err := h.service.Process(ctx, sub)
	if err != nil {
		h.logger.ErrorContext(ctx, "submission processing failed", "error", err)
		h.renderPage(w, r, http.StatusInternalServerError, MsgServerError)
		return
	}

	if result.Admitted {
		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
		return
	}

	h.renderPage(w, r, http.StatusOK, result.Message)
}

// RejectThrottled re-renders the page with a throttle notice. Installed as
// the rate limit middleware's reject func.
func (h *Handler) RejectThrottled(w http.ResponseWriter, r *http.Request, _ *models.Result) {
	h.renderPage(w, r, http.StatusTooManyRequests, MsgThrottled)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.RenderPage(w, errMsg); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render gate page", "error", err)
	}
}
