package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rbroggi/clients/internal/core/model"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type clientRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	NIT       string `json:"nit"`
	Email     string `json:"email"`
}

func (c clientRequest) toModel() model.Client {
	return model.Client{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		NIT:       c.NIT,
		Email:     c.Email,
	}
}

type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   string `json:"expires_at"`
}

type healthzResponse struct {
	Status string `json:"status"`
}

func (s *Server) registerClient(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req clientRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.clients.RegisterClient(r.Context(), model.RegisterClientArgs{
		Client:  req.toModel(),
		ActorID: actorID(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.IncrementClientsRegistered()

	w.Header().Set("Location", fmt.Sprintf("/v1/clients/%d", resp.Client.ID))
	s.writeResponse(w, r, http.StatusCreated, resp.Client)
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := s.clients.ListClients(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResponse(w, r, http.StatusOK, nonNil(resp.Clients))
}

func (s *Server) searchClients(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp, err := s.clients.SearchClients(r.Context(), model.SearchClientsArgs{
		Query: r.URL.Query().Get("query"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResponse(w, r, http.StatusOK, nonNil(resp.Clients))
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	id, err := pathID(pathParams)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.clients.GetClient(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Client == nil {
		s.writeError(w, r, clientNotFound(id))
		return
	}
	s.writeResponse(w, r, http.StatusOK, resp.Client)
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	id, err := pathID(pathParams)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req clientRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.clients.UpdateClient(r.Context(), model.UpdateClientArgs{
		ID:      id,
		Client:  req.toModel(),
		ActorID: actorID(r),
	}); err != nil {
		s.writeError(w, r, notFoundAsClient(err, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	id, err := pathID(pathParams)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.clients.DeleteClient(r.Context(), model.DeleteClientArgs{
		ID:      id,
		ActorID: actorID(r),
	}); err != nil {
		s.writeError(w, r, notFoundAsClient(err, id))
		return
	}
	log.WithField("client-id", id).WithField("subject", subjectFromContext(r.Context())).Info("client deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req tokenRequest
	if err := s.decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.auth.IssueToken(r.Context(), model.IssueTokenArgs{
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeResponse(w, r, http.StatusOK, tokenResponse{
		AccessToken: resp.AccessToken,
		TokenType:   strings.TrimSpace(bearerPrefix),
		ExpiresAt:   resp.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if err := s.health.Healthz(r.Context()); err != nil {
		log.WithError(err).Warn("health check failed")
		s.writeError(w, r, status.Error(codes.Unavailable, "storage unreachable"))
		return
	}
	s.writeResponse(w, r, http.StatusOK, healthzResponse{Status: "Ok"})
}

func (s *Server) serveMetrics(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	s.metricsHandler.ServeHTTP(w, r)
}

// actorID reads the acting user from the X-Actor-Id header. Missing or
// unparseable values yield 0.
func actorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(ActorIDHeader)), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func pathID(pathParams map[string]string) (int64, error) {
	raw := pathParams["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, fmt.Sprintf("invalid client id %q", raw))
	}
	return id, nil
}

func notFoundAsClient(err error, id int64) error {
	if errors.Is(err, model.ErrNotFound) {
		return clientNotFound(id)
	}
	return err
}

func nonNil(clients []model.Client) []model.Client {
	if clients == nil {
		return []model.Client{}
	}
	return clients
}
