package post

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/respond"
	"github.com/google/uuid"
	"github.com/portfolio-chat/portfoliochat/metrics"
	"github.com/portfolio-chat/portfoliochat/models"
	"github.com/portfolio-chat/portfoliochat/persona"
	"github.com/portfolio-chat/portfoliochat/provider"
	"github.com/portfolio-chat/portfoliochat/relay"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/semaphore"
)

const maxBodyBytes = 1 << 20

func New(log *slog.Logger, llm llms.Model, sc persona.SystemContext, settings persona.Settings, m *metrics.Metrics, maxConcurrent int64, timeout time.Duration) Handler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return Handler{
		log:      log,
		llm:      llm,
		sc:       sc,
		settings: settings,
		metrics:  m,
		sem:      semaphore.NewWeighted(maxConcurrent),
		timeout:  timeout,
		now:      time.Now,
	}
}

type Handler struct {
	log      *slog.Logger
	llm      llms.Model
	sc       persona.SystemContext
	settings persona.Settings
	metrics  *metrics.Metrics
	sem      *semaphore.Weighted
	timeout  time.Duration
	now      func() time.Time
}

type failure struct {
	status  int
	message string
}

var (
	failureInvalidBody = failure{http.StatusBadRequest, "Invalid request body"}
	failureNoMessage   = failure{http.StatusBadRequest, "Message is required"}
	failureOverloaded  = failure{http.StatusServiceUnavailable, "The assistant is busy. Please try again shortly."}
)

var kindToFailure = map[provider.Kind]failure{
	provider.KindAuth:    {http.StatusUnauthorized, "Invalid OpenAI API key configuration."},
	provider.KindQuota:   {http.StatusPaymentRequired, "OpenAI API quota exceeded. Please try again later."},
	provider.KindTimeout: {http.StatusGatewayTimeout, "The assistant took too long to respond. Please try again."},
	provider.KindUnknown: {http.StatusInternalServerError, "Sorry, I encountered an error. Please try again."},
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(slog.String("requestId", uuid.NewString()))

	var req models.ChatPostRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil {
		log.Warn("failed to decode body", slog.Any("error", err))
		h.fail(w, "invalid", failureInvalidBody)
		return
	}

	if err = relay.Validate(req); err != nil {
		log.Warn("invalid chat request", slog.Any("error", err))
		if errors.Is(err, relay.ErrMessageRequired) {
			h.fail(w, "invalid", failureNoMessage)
			return
		}
		h.fail(w, "invalid", failure{http.StatusBadRequest, err.Error()})
		return
	}

	if !h.sem.TryAcquire(1) {
		log.Warn("too many concurrent chat requests")
		h.fail(w, "overloaded", failureOverloaded)
		return
	}
	defer h.sem.Release(1)

	msgs := relay.BuildMessages(h.sc, req.ConversationHistory, req.Message)
	log.Debug("generating content", slog.Int("historyLength", len(req.ConversationHistory)))

	reply, err := h.generate(r.Context(), msgs)
	if err != nil {
		kind := provider.Classify(err)
		log.Error("failed to generate content", slog.String("kind", kind.String()), slog.Any("error", err))
		h.fail(w, kind.String(), kindToFailure[kind])
		return
	}

	h.metrics.RecordChat("ok")
	respond.WithJSON(w, models.ChatPostResponse{
		Success:   true,
		Response:  reply,
		Timestamp: models.Timestamp(h.now()),
	}, http.StatusOK)
}

func (h Handler) generate(ctx context.Context, msgs []llms.MessageContent) (reply string, err error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	h.metrics.ChatRequestsInFlight.Inc()
	defer h.metrics.ChatRequestsInFlight.Dec()
	start := time.Now()

	resp, err := h.llm.GenerateContent(ctx, msgs, relay.CallOptions(h.settings)...)
	if err == nil {
		reply, err = provider.Reply(resp)
	}
	// The client may not wrap context errors, so join the deadline in.
	if err != nil {
		err = errors.Join(err, ctx.Err())
	}

	outcome := "ok"
	if err != nil {
		outcome = provider.Classify(err).String()
	}
	h.metrics.RecordProviderCall(outcome, time.Since(start))
	return reply, err
}

func (h Handler) fail(w http.ResponseWriter, outcome string, f failure) {
	h.metrics.RecordChat(outcome)
	respond.WithJSON(w, models.ErrorResponse{Error: f.message}, f.status)
}
