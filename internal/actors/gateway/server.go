package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	jwtactor "github.com/rbroggi/clients/internal/actors/jwt"
	"github.com/rbroggi/clients/internal/core/model"
	"github.com/rbroggi/clients/internal/metrics"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
)

const (
	// ActorIDHeader carries the id of the user acting through the API.
	ActorIDHeader = "X-Actor-Id"

	bearerPrefix = "Bearer "
)

// clientUsecase is the client lifecycle as seen by the HTTP transport.
type clientUsecase interface {
	RegisterClient(ctx context.Context, args model.RegisterClientArgs) (*model.RegisterClientResponse, error)
	UpdateClient(ctx context.Context, args model.UpdateClientArgs) error
	DeleteClient(ctx context.Context, args model.DeleteClientArgs) error
	GetClient(ctx context.Context, id int64) (*model.GetClientResponse, error)
	ListClients(ctx context.Context) (*model.ListClientsResponse, error)
	SearchClients(ctx context.Context, args model.SearchClientsArgs) (*model.ListClientsResponse, error)
}

// authUsecase exchanges service-account credentials for access tokens.
type authUsecase interface {
	IssueToken(ctx context.Context, args model.IssueTokenArgs) (*model.IssueTokenResponse, error)
}

// tokenVerifier validates bearer tokens.
type tokenVerifier interface {
	Verify(token string) (*jwtactor.Claims, error)
}

// healthChecker reports whether the service can serve requests.
type healthChecker interface {
	Healthz(ctx context.Context) error
}

// ServerArgs are the mandatory args to instantiate the Server.
type ServerArgs struct {
	Clients  clientUsecase
	Auth     authUsecase
	Verifier tokenVerifier
	Health   healthChecker
	Metrics  *metrics.Metrics
}

// ServerOptArgs are the optional arguments for building a Server.
type ServerOptArgs = func(*Server)

// WithMetricsHandler overrides the handler served on /metrics.
func WithMetricsHandler(h http.Handler) ServerOptArgs {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// Server is the HTTP/JSON transport of the clients service.
type Server struct {
	mux            *runtime.ServeMux
	clients        clientUsecase
	auth           authUsecase
	verifier       tokenVerifier
	health         healthChecker
	metrics        *metrics.Metrics
	metricsHandler http.Handler
}

type route struct {
	method        string
	pattern       string
	authenticated bool
	handler       runtime.HandlerFunc
}

// NewServer creates the Server and registers its routes.
func NewServer(args ServerArgs, optArgs ...ServerOptArgs) (*Server, error) {
	if args.Clients == nil || args.Auth == nil || args.Verifier == nil || args.Health == nil || args.Metrics == nil {
		return nil, errors.New("missing mandatory gateway dependency")
	}

	s := &Server{
		clients:        args.Clients,
		auth:           args.Auth,
		verifier:       args.Verifier,
		health:         args.Health,
		metrics:        args.Metrics,
		metricsHandler: promhttp.Handler(),
	}
	for _, opt := range optArgs {
		opt(s)
	}

	s.mux = runtime.NewServeMux(
		runtime.WithErrorHandler(errorHandler),
		runtime.WithMarshalerOption(runtime.MIMEWildcard, &runtime.JSONPb{
			MarshalOptions: protojson.MarshalOptions{
				UseProtoNames:   true,
				EmitUnpopulated: true,
			},
			UnmarshalOptions: protojson.UnmarshalOptions{
				DiscardUnknown: true,
			},
		}),
	)

	// The mux tries the most recently registered pattern first, so the literal
	// search route goes after the {id} routes.
	routes := []route{
		{method: http.MethodGet, pattern: "/healthz", handler: s.healthz},
		{method: http.MethodGet, pattern: "/metrics", handler: s.serveMetrics},
		{method: http.MethodPost, pattern: "/v1/auth/token", handler: s.issueToken},
		{method: http.MethodPost, pattern: "/v1/clients", authenticated: true, handler: s.registerClient},
		{method: http.MethodGet, pattern: "/v1/clients", authenticated: true, handler: s.listClients},
		{method: http.MethodGet, pattern: "/v1/clients/{id}", authenticated: true, handler: s.getClient},
		{method: http.MethodPut, pattern: "/v1/clients/{id}", authenticated: true, handler: s.updateClient},
		{method: http.MethodDelete, pattern: "/v1/clients/{id}", authenticated: true, handler: s.deleteClient},
		{method: http.MethodGet, pattern: "/v1/clients/search", authenticated: true, handler: s.searchClients},
	}
	for _, rt := range routes {
		if err := s.mux.HandlePath(rt.method, rt.pattern, s.instrument(rt)); err != nil {
			return nil, fmt.Errorf("error registering route %s %s: %w", rt.method, rt.pattern, err)
		}
	}

	return s, nil
}

// Handler returns the root HTTP handler, with request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s.mux)
}

// instrument adds authentication and per-route metrics to a handler.
func (s *Server) instrument(rt route) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			s.metrics.ObserveRequest(rt.method, rt.pattern, rec.status, start)
		}()

		if rt.authenticated {
			claims, err := s.authenticate(r)
			if err != nil {
				s.writeError(rec, r, err)
				return
			}
			r = r.WithContext(withSubject(r.Context(), claims.Subject))
		}
		rt.handler(rec, r, pathParams)
	}
}

func (s *Server) authenticate(r *http.Request) (*jwtactor.Claims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, status.Error(codes.Unauthenticated, "missing bearer token")
	}
	claims, err := s.verifier.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
	if err != nil {
		log.WithError(err).Debug("rejected bearer token")
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return claims, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	_, outbound := runtime.MarshalerForRequest(s.mux, r)
	runtime.HTTPError(r.Context(), s.mux, outbound, w, r, toStatusError(err))
}

func (s *Server) writeResponse(w http.ResponseWriter, r *http.Request, code int, body interface{}) {
	_, outbound := runtime.MarshalerForRequest(s.mux, r)
	buf, err := outbound.Marshal(body)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("error marshaling response: %w", err))
		return
	}
	w.Header().Set("Content-Type", outbound.ContentType(body))
	w.WriteHeader(code)
	if _, err := w.Write(buf); err != nil {
		log.WithError(err).Debug("failed to write response body")
	}
}

func (s *Server) decodeBody(r *http.Request, v interface{}) error {
	inbound, _ := runtime.MarshalerForRequest(s.mux, r)
	if err := inbound.NewDecoder(r.Body).Decode(v); err != nil {
		return status.Error(codes.InvalidArgument, "malformed request body")
	}
	return nil
}

type subjectKey struct{}

func withSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// subjectFromContext returns the service account of an authenticated request.
func subjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey{}).(string)
	return subject
}
