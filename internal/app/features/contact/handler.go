// internal/app/features/contact/handler.go

// Package contact serves the contact form endpoints: the process-server
// contract at /submit-message, the serverless-route contract at
// /api/contact, and the read endpoints over stored submissions.
package contact

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/formdrop/httputil"
	"github.com/dalemusser/formdrop/internal/app/intake"
	"github.com/dalemusser/formdrop/internal/domain/models"
	"github.com/dalemusser/formdrop/metrics"
	"go.uber.org/zap"
)

// Response bodies shared by both contracts.
const (
	MsgThanks       = "Thank you! We will reply soon."
	MsgSubmitFailed = "Something went wrong. Please try again."
	MsgAPIFailed    = "Failed to process submission"
)

// Response is the JSON body of every submit endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// contract is one HTTP face of the pipeline. The two differ only in status
// codes and wording.
type contract struct {
	route         string
	invalidStatus int
	failStatus    int
	limitedStatus int
	invalidMsg    func(*intake.ValidationError) string
	failMsg       string
}

var (
	submitContract = contract{
		route:         "submit-message",
		invalidStatus: http.StatusOK,
		failStatus:    http.StatusOK,
		limitedStatus: http.StatusOK,
		invalidMsg:    (*intake.ValidationError).SubmitMessage,
		failMsg:       MsgSubmitFailed,
	}
	apiContract = contract{
		route:         "api-contact",
		invalidStatus: http.StatusBadRequest,
		failStatus:    http.StatusInternalServerError,
		limitedStatus: http.StatusTooManyRequests,
		invalidMsg:    (*intake.ValidationError).APIMessage,
		failMsg:       MsgAPIFailed,
	}
)

// Lister reads back stored submissions.
type Lister interface {
	List(ctx context.Context) ([]models.Submission, error)
}

// Handler holds the dependencies of the contact routes.
type Handler struct {
	svc    *intake.Service
	lister Lister
	logger *zap.Logger
}

// NewHandler builds a Handler.
func NewHandler(svc *intake.Service, lister Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, lister: lister, logger: logger}
}

// submit runs the pipeline and answers in c's wording. Every path through
// it writes exactly one response.
func (h *Handler) submit(c contract) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := intake.DecodeRequest(r)
		if err != nil {
			h.logger.Warn("request body rejected", zap.String("route", c.route), zap.Error(err))
			h.fail(w, c)
			return
		}

		_, err = h.svc.Submit(r.Context(), p)
		var ve *intake.ValidationError
		switch {
		case errors.As(err, &ve):
			metrics.ObserveSubmission(c.route, metrics.OutcomeInvalid)
			httputil.WriteJSON(w, c.invalidStatus, Response{Error: c.invalidMsg(ve)})
		case err != nil:
			h.fail(w, c)
		default:
			metrics.ObserveSubmission(c.route, metrics.OutcomeAccepted)
			httputil.WriteJSON(w, http.StatusOK, Response{Success: true, Message: MsgThanks})
		}
	}
}

func (h *Handler) fail(w http.ResponseWriter, c contract) {
	metrics.ObserveSubmission(c.route, metrics.OutcomeFailed)
	httputil.WriteJSON(w, c.failStatus, Response{Error: c.failMsg})
}

// recovered is the response for a panic inside c's handler.
func (h *Handler) recovered(c contract) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { h.fail(w, c) }
}

// limited is the response for a rate-limited request on c.
func (h *Handler) limited(c contract) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.logger.Info("submission rate limited",
			zap.String("route", c.route),
			zap.String("remote_ip", r.RemoteAddr))
		metrics.ObserveSubmission(c.route, metrics.OutcomeRateLimited)
		httputil.WriteJSON(w, c.limitedStatus, Response{Error: c.failMsg})
	}
}

// preflight answers OPTIONS /api/contact. CORS headers are already set by
// the route middleware.
func (h *Handler) preflight(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, struct{}{})
}
