package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ridecipher/internal/access"
	"ridecipher/internal/crypto"
	"ridecipher/internal/domain"
	"ridecipher/internal/metrics"
)

// Defaults applied to zero-valued Options.
const (
	DefaultMaxBodyBytes = 64 << 10
	DefaultCreateRate   = 50
	DefaultCreateBurst  = 100
)

// Options configures a Server. Service is required; everything else is
// optional.
type Options struct {
	Service  domain.EncryptionService
	Records  domain.RecordStore
	Verifier *access.TokenVerifier
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// CreateRate and CreateBurst size the per-caller token bucket guarding
	// POST /v1/sessions.
	CreateRate   float64
	CreateBurst  int
	MaxBodyBytes int64
	// RetryAfter is sent with vault_full responses.
	RetryAfter time.Duration
}

// Server is the HTTP front of the encryption service.
type Server struct {
	svc        domain.EncryptionService
	records    domain.RecordStore
	verifier   *access.TokenVerifier
	metrics    *metrics.Metrics
	log        *slog.Logger
	limiter    *keyedLimiter
	maxBody    int64
	retryAfter string
	mux        *http.ServeMux
}

// New builds a Server and registers its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.CreateRate <= 0 {
		opts.CreateRate = DefaultCreateRate
	}
	if opts.CreateBurst <= 0 {
		opts.CreateBurst = DefaultCreateBurst
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 30 * time.Second
	}
	s := &Server{
		svc:        opts.Service,
		records:    opts.Records,
		verifier:   opts.Verifier,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		limiter:    newKeyedLimiter(rate.Limit(opts.CreateRate), opts.CreateBurst, 10*time.Minute),
		maxBody:    opts.MaxBodyBytes,
		retryAfter: strconv.Itoa(int(opts.RetryAfter.Seconds())),
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return withRequestLogging(s.mux, s.log)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, p access.Principal)

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok\n")
	})
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	s.handle("POST /v1/sessions", access.CapCreateSession, s.createSession)
	s.handle("POST /v1/sessions/{id}/encrypt", access.CapEncrypt, s.encrypt)
	s.handle("POST /v1/sessions/{id}/decrypt", access.CapDecrypt, s.decrypt)
	s.handle("DELETE /v1/sessions/{id}", access.CapEndSession, s.endSession)
	s.handle("GET /v1/stats", access.CapReadStats, s.stats)
	s.handle("GET /v1/rides/{ride}/records", access.CapReadRecords, s.listRecords)
}

// handle registers h behind authentication, the capability check and
// per-route metrics.
func (s *Server) handle(pattern string, capability access.Capability, h handlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if s.metrics != nil {
				s.metrics.ObserveRequest(pattern, sw.status, time.Since(start))
			}
		}()

		p, err := s.authenticate(r)
		if err != nil {
			s.fail(sw, r, err)
			return
		}
		if !p.Can(capability) {
			s.log.Warn("gateway.forbidden", "subject", p.Subject, "role", string(p.Role), "capability", string(capability))
			s.fail(sw, r, access.ErrForbidden)
			return
		}
		h(sw, r, p)
	})
}

// authenticate resolves the caller. Without a verifier every caller is an
// anonymous admin.
func (s *Server) authenticate(r *http.Request) (access.Principal, error) {
	if s.verifier == nil {
		return access.Principal{Subject: "anonymous", Role: access.RoleAdmin}, nil
	}
	h := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return access.Principal{}, access.ErrUnauthenticated
	}
	return s.verifier.Verify(strings.TrimSpace(raw))
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, p access.Principal) {
	key := p.Subject
	if s.verifier == nil {
		key = clientIP(r)
	}
	if !s.limiter.allow(key) {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many session requests")
		return
	}

	var req CreateSessionRequest
	if err := decodeJSON(w, r, s.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request", err.Error())
		return
	}
	pub, err := crypto.FromB64(req.ClientPublicKey)
	if err != nil {
		s.fail(w, r, domain.ErrKeyExchange)
		return
	}

	hs, err := s.svc.CreateSession(r.Context(), domain.RideID(req.RideID), pub)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, EncodeHandshake(hs))
}

func (s *Server) encrypt(w http.ResponseWriter, r *http.Request, _ access.Principal) {
	var req EncryptRequest
	if err := decodeJSON(w, r, s.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request", err.Error())
		return
	}

	rec, err := s.svc.Encrypt(r.Context(), domain.SessionID(r.PathValue("id")), req.Location)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := EncodeRecord(rec)
	if s.records != nil {
		id, err := s.records.Append(r.Context(), rec)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		out.ID = id
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decrypt(w http.ResponseWriter, r *http.Request, _ access.Principal) {
	var req DecryptRequest
	if err := decodeJSON(w, r, s.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed_request", err.Error())
		return
	}
	rec, err := req.Decode(domain.SessionID(r.PathValue("id")))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	loc, err := s.svc.Decrypt(r.Context(), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request, _ access.Principal) {
	summary, ok := s.svc.EndSession(r.Context(), domain.SessionID(r.PathValue("id")))
	if !ok {
		s.fail(w, r, domain.ErrSessionNotFound)
		return
	}
	writeJSON(w, http.StatusOK, EncodeSummary(summary))
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request, _ access.Principal) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request, _ access.Principal) {
	if s.records == nil {
		writeError(w, http.StatusNotImplemented, "records_disabled", "no record store configured")
		return
	}
	ride := domain.RideID(r.PathValue("ride"))
	stored, err := s.records.List(r.Context(), ride)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := RecordList{RideID: string(ride), Records: make([]Record, 0, len(stored))}
	for _, sr := range stored {
		rec := EncodeRecord(sr.Record)
		rec.ID = sr.ID
		at := sr.StoredAt
		rec.StoredAt = &at
		out.Records = append(out.Records, rec)
	}
	writeJSON(w, http.StatusOK, out)
}
