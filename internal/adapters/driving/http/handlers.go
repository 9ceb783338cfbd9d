package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/mailbridge-core/internal/core/domain"
	"github.com/custodia-labs/mailbridge-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`

	// Code carries a machine-readable failure class where one exists,
	// e.g. needs_reauth.
	Code string `json:"code,omitempty" example:"needs_reauth"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports per-component readiness
// @Description Readiness status with per-component results
type ReadyResponse struct {
	Status     string            `json:"status" example:"ready"`
	Components map[string]string `json:"components"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the database and, when configured, Redis
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	components := map[string]string{}
	ready := true

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			components["database"] = err.Error()
			ready = false
		} else {
			components["database"] = "ok"
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(ctx); err != nil {
			components["redis"] = err.Error()
			ready = false
		} else {
			components["redis"] = "ok"
		}
	}

	resp := ReadyResponse{Status: "ready", Components: components}
	if !ready {
		resp.Status = "not ready"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleOpenAPI serves the generated OpenAPI document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "openapi document unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Authorization flow endpoints

// handleBeginAuth godoc
// @Summary      Begin Gmail authorization
// @Description  Starts an authorization flow for an end user and returns the Google consent URL to redirect them to
// @Tags         Authorization
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.BeginAuthRequest  true  "End user to authorize"
// @Success      200      {object}  driving.BeginAuthResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body or missing external_user_id"
// @Failure      401      {object}  ErrorResponse  "Missing or invalid bearer token"
// @Router       /api/v1/auth/url [post]
func (s *Server) handleBeginAuth(w http.ResponseWriter, r *http.Request) {
	var req driving.BeginAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.oauthService.BeginAuthorization(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if authCtx := GetAuthContext(r.Context()); authCtx != nil {
		s.logger.Info("authorization started",
			"subject", authCtx.Subject,
			"external_user_id", req.ExternalUserID)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleOAuthCallback godoc
// @Summary      OAuth callback
// @Description  Completes the authorization flow; Google redirects the user's browser here
// @Tags         Authorization
// @Produce      json
// @Param        state              query     string  true   "CSRF state token"
// @Param        code               query     string  false  "Authorization code"
// @Param        error              query     string  false  "Provider error code, e.g. access_denied"
// @Param        error_description  query     string  false  "Provider error detail"
// @Success      200  {object}  driving.CallbackResult
// @Failure      400  {object}  ErrorResponse  "Invalid or expired state, or missing code"
// @Failure      502  {object}  ErrorResponse  "Provider rejected the exchange"
// @Failure      503  {object}  ErrorResponse  "Provider unavailable"
// @Router       /oauth/callback [get]
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := driving.CallbackRequest{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	}

	result, err := s.oauthService.CompleteAuthorization(r.Context(), req)
	if err != nil {
		var perr *domain.ProviderError
		switch {
		case errors.Is(err, domain.ErrInvalidState):
			// Deliberately vague: the state is missing, expired or
			// already used, and callers are not told which.
			writeError(w, http.StatusBadRequest, "invalid or expired state")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.As(err, &perr):
			status := http.StatusBadGateway
			if perr.Transient() {
				status = http.StatusServiceUnavailable
			}
			writeErrorCode(w, status, perr.Code, "authorization failed")
		case errors.Is(err, domain.ErrProviderUnavailable):
			writeError(w, http.StatusServiceUnavailable, "provider unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "authorization failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Connection endpoints

// handleListConnections godoc
// @Summary      List connections
// @Description  Lists a user's Gmail connections, newest first
// @Tags         Connections
// @Produce      json
// @Security     BearerAuth
// @Param        user              query     string  true   "External user id"
// @Param        include_inactive  query     bool    false  "Include disconnected connections"
// @Success      200  {array}   domain.ConnectionSummary
// @Failure      400  {object}  ErrorResponse  "Missing user parameter"
// @Router       /api/v1/connections [get]
func (s *Server) handleListConnections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	user := q.Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "user is required")
		return
	}

	includeInactive := false
	if v := q.Get("include_inactive"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid include_inactive")
			return
		}
		includeInactive = parsed
	}

	summaries, err := s.connectionService.List(r.Context(), user, includeInactive)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// handleGetConnection godoc
// @Summary      Get connection
// @Description  Returns one connection summary
// @Tags         Connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Connection ID"
// @Success      200  {object}  domain.ConnectionSummary
// @Failure      404  {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id} [get]
func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	summary, err := s.connectionService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleConnectionStatus godoc
// @Summary      Connection status
// @Description  Reports whether the connection can currently produce a valid access token
// @Tags         Connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Connection ID"
// @Success      200  {object}  driving.ConnectionStatus
// @Failure      404  {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id}/status [get]
func (s *Server) handleConnectionStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	status, err := s.connectionService.Status(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// disconnectRequest is the optional body of a disconnect call.
// @Description Disconnect options
type disconnectRequest struct {
	// RevokeRemote controls whether the tokens are also revoked at
	// Google. Defaults to true.
	RevokeRemote *bool `json:"revoke_remote,omitempty"`
}

// handleDisconnect godoc
// @Summary      Disconnect connection
// @Description  Revokes the connection's tokens upstream (best effort) and deactivates it locally
// @Tags         Connections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true   "Connection ID"
// @Param        request  body      disconnectRequest  false  "Disconnect options"
// @Success      200      {object}  StatusResponse
// @Failure      404      {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id}/disconnect [post]
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req disconnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	revokeRemote := true
	if req.RevokeRemote != nil {
		revokeRemote = *req.RevokeRemote
	}

	if err := s.oauthService.Disconnect(r.Context(), id, revokeRemote); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "disconnected"})
}

// handleRemoveConnection godoc
// @Summary      Delete connection
// @Description  Revokes the connection's tokens upstream (best effort) and deletes the row
// @Tags         Connections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Connection ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id} [delete]
func (s *Server) handleRemoveConnection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.oauthService.RemoveConnection(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// Mailbox endpoints

// handleGetProfile godoc
// @Summary      Mailbox profile
// @Description  Returns the connected mailbox's profile
// @Tags         Mail
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Connection ID"
// @Success      200  {object}  domain.GmailProfile
// @Failure      404  {object}  ErrorResponse  "Connection not found"
// @Failure      409  {object}  ErrorResponse  "Connection inactive or needs reauthorization"
// @Router       /api/v1/connections/{id}/profile [get]
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	profile, err := s.mailService.Profile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// handleListLabels godoc
// @Summary      List labels
// @Description  Lists the mailbox's labels
// @Tags         Mail
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Connection ID"
// @Success      200  {array}   domain.GmailLabel
// @Failure      404  {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id}/labels [get]
func (s *Server) handleListLabels(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	labels, err := s.mailService.Labels(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, labels)
}

// handleListMessages godoc
// @Summary      Search messages
// @Description  Lists message references matching a Gmail query; q is passed to Gmail verbatim
// @Tags         Mail
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      string  true   "Connection ID"
// @Param        q            query     string  false  "Gmail query string"
// @Param        max_results  query     int     false  "Page size"
// @Param        page_token   query     string  false  "Continuation token"
// @Param        label_ids    query     []string  false  "Label ids to filter by"  collectionFormat(multi)
// @Success      200  {object}  domain.GmailMessageList
// @Failure      400  {object}  ErrorResponse  "Invalid max_results"
// @Failure      404  {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id}/messages [get]
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	req := driving.SearchRequest{
		Q:         q.Get("q"),
		PageToken: q.Get("page_token"),
		LabelIDs:  q["label_ids"],
	}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid max_results")
			return
		}
		req.MaxResults = n
	}

	list, err := s.mailService.Search(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// handleGetMessage godoc
// @Summary      Get message
// @Description  Fetches one message in the requested format
// @Tags         Mail
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true   "Connection ID"
// @Param        mid     path      string  true   "Message ID"
// @Param        format  query     string  false  "Gmail format: full, metadata, minimal or raw"
// @Success      200  {object}  domain.GmailMessage
// @Failure      404  {object}  ErrorResponse  "Connection or message not found"
// @Router       /api/v1/connections/{id}/messages/{mid} [get]
func (s *Server) handleGetMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	mid := r.PathValue("mid")
	format := r.URL.Query().Get("format")

	msg, err := s.mailService.GetMessage(r.Context(), id, mid, format)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// handleSendMessage godoc
// @Summary      Send message
// @Description  Sends a base64url-encoded RFC 822 message from the connected mailbox
// @Tags         Mail
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Connection ID"
// @Param        request  body      driving.SendRequest  true  "Raw message"
// @Success      200      {object}  domain.GmailMessageRef
// @Failure      400      {object}  ErrorResponse  "Invalid request body or missing raw payload"
// @Failure      404      {object}  ErrorResponse  "Connection not found"
// @Router       /api/v1/connections/{id}/messages [post]
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req driving.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := s.mailService.Send(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ref)
}

// handleModifyMessage godoc
// @Summary      Modify message labels
// @Description  Adds and removes labels on a message
// @Tags         Mail
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Connection ID"
// @Param        mid      path      string                 true  "Message ID"
// @Param        request  body      driving.ModifyRequest  true  "Labels to add and remove"
// @Success      200      {object}  domain.GmailMessage
// @Failure      400      {object}  ErrorResponse  "Invalid request body or nothing to modify"
// @Failure      404      {object}  ErrorResponse  "Connection or message not found"
// @Router       /api/v1/connections/{id}/messages/{mid}/modify [post]
func (s *Server) handleModifyMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	mid := r.PathValue("mid")

	var req driving.ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := s.mailService.Modify(r.Context(), id, mid, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// Helpers

// writeServiceError maps service-layer sentinels onto HTTP statuses.
// Wrapped errors classify through errors.Is.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrNeedsReauth):
		writeErrorCode(w, http.StatusConflict, "needs_reauth", "connection needs reauthorization")
	case errors.Is(err, domain.ErrConnectionInactive):
		writeError(w, http.StatusConflict, "connection is inactive")
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidGrant),
		errors.Is(err, domain.ErrProviderRejected):
		writeError(w, http.StatusBadGateway, "provider rejected the request")
	case errors.Is(err, domain.ErrProviderUnavailable):
		writeError(w, http.StatusServiceUnavailable, "provider unavailable")
	case errors.Is(err, domain.ErrDecryptionFailed):
		writeError(w, http.StatusInternalServerError, "stored credentials are unreadable")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
