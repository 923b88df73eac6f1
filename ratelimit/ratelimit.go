package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/a-h/respond"
	"github.com/portfolio-chat/portfoliochat/models"
	"golang.org/x/time/rate"
)

func New(limit rate.Limit, burst int, next http.Handler) *Limiter {
	return &Limiter{
		Next:     next,
		Limit:    limit,
		Burst:    burst,
		Now:      time.Now,
		IdleTTL:  10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

type Limiter struct {
	Next  http.Handler
	Limit rate.Limit
	Burst int
	// TrustForwardedFor uses the first X-Forwarded-For address as the client
	// identity. Only enable behind a proxy that sets the header.
	TrustForwardedFor bool
	// OnReject is called for every rejected request.
	OnReject func(r *http.Request)
	Now      func() time.Time
	IdleTTL  time.Duration

	m        sync.Mutex
	visitors map[string]*visitor
	lastGC   time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func (l *Limiter) ClientID(r *http.Request) string {
	if l.TrustForwardedFor {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *Limiter) allow(id string) bool {
	l.m.Lock()
	defer l.m.Unlock()
	now := l.Now()
	if now.Sub(l.lastGC) > l.IdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.IdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}
	v, ok := l.visitors[id]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.Limit, l.Burst)}
		l.visitors[id] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *Limiter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !l.allow(l.ClientID(r)) {
		if l.OnReject != nil {
			l.OnReject(r)
		}
		w.Header().Set("Retry-After", "1")
		respond.WithJSON(w, models.ErrorResponse{Error: "Too many requests. Please try again later."}, http.StatusTooManyRequests)
		return
	}
	l.Next.ServeHTTP(w, r)
}
