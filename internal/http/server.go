package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trustedge/integrations/config"
	"github.com/trustedge/integrations/internal/core"
	"github.com/trustedge/integrations/internal/service"
)

// ServerOptions groups dependencies for Server.
type ServerOptions struct {
	Jobs     *service.JobService    // Required
	Worker   *service.WorkerService // Required
	Bookings core.BookingRepository // Required
	HTTP     config.HTTPConfig
	WhatsApp config.WhatsAppConfig
	Logger   *slog.Logger // Optional: structured logger
}

// Server exposes the reservation, worker trigger, and webhook endpoints.
type Server struct {
	jobs     *service.JobService
	worker   *service.WorkerService
	bookings core.BookingRepository
	httpCfg  config.HTTPConfig
	waCfg    config.WhatsAppConfig
	logger   *slog.Logger
}

// NewServer constructs a Server.
func NewServer(opts ServerOptions) (*Server, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobService is required")
	case opts.Worker == nil:
		return nil, errors.New("WorkerService is required")
	case opts.Bookings == nil:
		return nil, errors.New("BookingRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		jobs:     opts.Jobs,
		worker:   opts.Worker,
		bookings: opts.Bookings,
		httpCfg:  opts.HTTP,
		waCfg:    opts.WhatsApp,
		logger:   logger.With("component", "http"),
	}, nil
}

// Handler builds the route table with the standard middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/booking/reserve", s.handleReserveSlot)
	mux.HandleFunc("GET /api/webhooks/whatsapp", s.handleWebhookVerify)
	mux.HandleFunc("POST /api/webhooks/whatsapp", s.handleWebhookEvents)

	runJobs := RequireBearer(s.httpCfg.JobRunnerToken)(http.HandlerFunc(s.handleRunJobs))
	mux.Handle("POST /api/internal/integration-jobs/run", runJobs)

	var handler http.Handler = mux
	handler = Logging(s.logger)(handler)
	handler = RequestID(handler)
	handler = Recover(s.logger)(handler)
	return handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
