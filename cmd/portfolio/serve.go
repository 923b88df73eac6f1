package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	chatpost "github.com/portfolio-chat/portfoliochat/handlers/chat/post"
	healthget "github.com/portfolio-chat/portfoliochat/handlers/health/get"
	"github.com/portfolio-chat/portfoliochat/metrics"
	"github.com/portfolio-chat/portfoliochat/persona"
	"github.com/portfolio-chat/portfoliochat/provider"
	"github.com/portfolio-chat/portfoliochat/ratelimit"
	"github.com/portfolio-chat/portfoliochat/static"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

type ServeCommand struct {
	OpenAIAPIKey          string        `help:"The OpenAI API key." env:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL         string        `help:"Override the OpenAI API base URL." env:"OPENAI_BASE_URL" default:""`
	PersonaFile           string        `help:"YAML file containing the system prompt, knowledge base and model settings." env:"PERSONA_FILE" default:""`
	ServiceName           string        `help:"The service name reported by the health endpoint." env:"SERVICE_NAME" default:"Portfolio Chatbot API"`
	StaticDir             string        `help:"Serve the front end from this directory instead of the embedded bundle." env:"STATIC_DIR" default:""`
	ProviderTimeout       time.Duration `help:"The maximum time to wait for the completion provider." env:"PROVIDER_TIMEOUT" default:"30s"`
	MaxConcurrentRequests int64         `help:"The maximum number of concurrent provider calls." env:"MAX_CONCURRENT_REQUESTS" default:"16"`
	RateLimit             float64       `help:"Chat requests per second allowed per client." env:"RATE_LIMIT" default:"0.5"`
	RateLimitBurst        int           `help:"Chat request burst allowed per client." env:"RATE_LIMIT_BURST" default:"10"`
	TrustForwardedFor     bool          `help:"Identify clients by X-Forwarded-For when rate limiting." env:"TRUST_FORWARDED_FOR" default:"false"`
	ListenAddr            string        `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:3001"`
	TLSCertFile           string        `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile            string        `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	LogLevel              string        `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	p, err := persona.Load(c.PersonaFile)
	if err != nil {
		return fmt.Errorf("failed to load persona: %w", err)
	}
	log.Info("loaded persona", slog.String("name", p.Name), slog.String("model", p.Settings.Model), slog.Int("maxTokens", p.Settings.MaxTokens), slog.Float64("temperature", p.Settings.Temperature))

	log.Info("creating LLM client")
	httpClient := &http.Client{}
	llm, err := provider.New(log, httpClient, provider.Options{
		APIKey:  c.OpenAIAPIKey,
		BaseURL: c.OpenAIBaseURL,
		Model:   p.Settings.Model,
	})
	if err != nil {
		return err
	}

	m := metrics.New()

	chat := chatpost.New(log, llm, p.Context, p.Settings, m, c.MaxConcurrentRequests, c.ProviderTimeout)
	limitedChat := ratelimit.New(rate.Limit(c.RateLimit), c.RateLimitBurst, chat)
	limitedChat.TrustForwardedFor = c.TrustForwardedFor
	limitedChat.OnReject = func(r *http.Request) {
		m.RecordRateLimited()
		log.Warn("rate limited", slog.String("client", limitedChat.ClientID(r)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/chat", limitedChat)
	mux.Handle("GET /api/health", healthget.New(c.ServiceName))
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("GET /", static.Handler(c.StaticDir))

	withCORSMux := cors.AllowAll().Handler(mux)

	s := &http.Server{
		Addr:              c.ListenAddr,
		Handler:           withCORSMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down", slog.Any("error", err))
		}
	}()

	scheme := "http"
	if c.TLSCertFile != "" && c.TLSKeyFile != "" {
		scheme = "https"
	}
	log.Info("Listening",
		slog.String("addr", c.ListenAddr),
		slog.String("chat", fmt.Sprintf("%s://%s/api/chat", scheme, c.ListenAddr)),
		slog.String("health", fmt.Sprintf("%s://%s/api/health", scheme, c.ListenAddr)),
		slog.String("portfolio", fmt.Sprintf("%s://%s/", scheme, c.ListenAddr)))

	if scheme == "https" {
		log.Info("Enabling TLS mode")
		var cert tls.Certificate
		cert, err = tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load cert: %w", err)
		}
		s.TLSConfig = &tls.Config{
			MinVersion:   tls.VersionTLS12,
			Certificates: []tls.Certificate{cert},
		}
		err = s.ListenAndServeTLS(c.TLSCertFile, c.TLSKeyFile)
	} else {
		err = s.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
