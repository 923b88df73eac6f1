package get

import (
	"net/http"
	"time"

	"github.com/a-h/respond"
	"github.com/portfolio-chat/portfoliochat/models"
)

func New(serviceName string) Handler {
	return Handler{
		serviceName: serviceName,
		now:         time.Now,
	}
}

type Handler struct {
	serviceName string
	now         func() time.Time
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respond.WithJSON(w, models.HealthGetResponse{
		Status:    "ok",
		Timestamp: models.Timestamp(h.now()),
		Service:   h.serviceName,
	}, http.StatusOK)
}
