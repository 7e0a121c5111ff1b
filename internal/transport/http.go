package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/draftroom/draftroom/internal/auth"
	"github.com/draftroom/draftroom/internal/domain/access"
	"github.com/draftroom/draftroom/internal/domain/identity"
	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/domain/workspace"
	"github.com/draftroom/draftroom/internal/session"
)

// Server wires HTTP handlers for the workspace client.
type Server struct {
	workspace   *workspace.Service
	coordinator *session.Coordinator
	identity    *identity.Store
	verifier    AccountVerifier
	logger      *slog.Logger
}

// NewRouter creates the HTTP router with auth middleware applied.
func NewRouter(ws *workspace.Service, coordinator *session.Coordinator, ids *identity.Store, verifier AccountVerifier, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		workspace:   ws,
		coordinator: coordinator,
		identity:    ids,
		verifier:    verifier,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("POST /auth/session", s.handleSignIn)
	mux.HandleFunc("POST /auth/refresh", s.handleTokenRefresh)
	mux.HandleFunc("DELETE /auth/session", s.handleSignOut)
	mux.HandleFunc("PUT /session/last-visited", s.handleSetLastVisited)

	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("PATCH /projects/{id}", s.handleRenameProject)
	mux.HandleFunc("DELETE /projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("GET /projects/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("POST /projects/{id}/documents", s.handleCreateDocument)
	mux.HandleFunc("GET /projects/{id}/members", s.handleListMembers)
	mux.HandleFunc("POST /projects/{id}/members", s.handleAddMember)
	mux.HandleFunc("PATCH /projects/{id}/members/{accountID}", s.handleChangeRole)
	mux.HandleFunc("DELETE /projects/{id}/members/{accountID}", s.handleRemoveMember)

	mux.HandleFunc("GET /documents/{id}", s.handleReadDocument)
	mux.HandleFunc("PUT /documents/{id}/content", s.handleWriteDocument)
	mux.HandleFunc("PUT /documents/{id}/open", s.handleSetDocumentOpen)
	mux.HandleFunc("DELETE /documents/{id}", s.handleDeleteDocument)

	return AuthMiddleware(verifier)(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := s.coordinator.Snapshot()
	resp := map[string]any{"state": snap.State}
	if snap.Account != nil {
		resp["account"] = snap.Account
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	s.coordinator.BeginAuthentication()
	acct, err := s.verifier.Verify(req.Token)
	if err != nil {
		s.coordinator.CancelAuthentication()
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	s.coordinator.HandleEvent(r.Context(), auth.Event{Type: auth.EventSignedIn, Account: acct})
	s.writeJSON(w, http.StatusOK, map[string]any{"state": session.StateAuthenticated, "account": acct})
}

func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}

	acct, err := s.verifier.Verify(req.Token)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	s.coordinator.HandleEvent(r.Context(), auth.Event{Type: auth.EventTokenRefreshed, Account: acct})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s.coordinator.HandleEvent(r.Context(), auth.Event{Type: auth.EventSignedOut})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetLastVisited(w http.ResponseWriter, r *http.Request) {
	var ptr identity.Pointer
	if err := json.NewDecoder(r.Body).Decode(&ptr); err != nil || ptr.ProjectID == "" {
		http.Error(w, "missing project_id", http.StatusBadRequest)
		return
	}
	if err := s.identity.SetLastVisited(r.Context(), ptr); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	projects, err := s.workspace.ListProjects(r.Context(), ident)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	proj, err := s.workspace.CreateProject(r.Context(), ident, req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, proj)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	proj, err := s.workspace.GetProject(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, proj)
}

func (s *Server) handleRenameProject(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.workspace.RenameProject(r.Context(), ident, r.PathValue("id"), req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	if err := s.workspace.DeleteProject(r.Context(), ident, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	docs, err := s.workspace.ListDocuments(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		Type project.DocumentType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	doc, err := s.workspace.CreateDocument(r.Context(), ident, r.PathValue("id"), req.Type)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	members, err := s.workspace.ListMembers(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		AccountID string       `json:"account_id"`
		Role      project.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.workspace.AddMember(r.Context(), ident, r.PathValue("id"), req.AccountID, req.Role); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangeRole(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		Role project.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.workspace.ChangeRole(r.Context(), ident, r.PathValue("id"), r.PathValue("accountID"), req.Role); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	if err := s.workspace.RemoveMember(r.Context(), ident, r.PathValue("id"), r.PathValue("accountID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadDocument(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	doc, err := s.workspace.ReadDocument(r.Context(), ident, r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleWriteDocument(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.workspace.WriteDocument(r.Context(), ident, r.PathValue("id"), req.Content); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDocumentOpen(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	var req struct {
		Open bool `json:"open"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.workspace.SetDocumentOpen(r.Context(), ident, r.PathValue("id"), req.Open); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	ident, ok := s.callerIdentity(w, r)
	if !ok {
		return
	}
	if err := s.workspace.DeleteDocument(r.Context(), ident, r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// callerIdentity resolves the identity for a request: the verified account
// when a bearer token was presented, otherwise the device guest identity.
// On a retired device an unauthenticated request has no identity at all.
func (s *Server) callerIdentity(w http.ResponseWriter, r *http.Request) (access.Identity, bool) {
	if acct, ok := AccountFromContext(r.Context()); ok {
		return access.AccountIdentity(acct.ID), true
	}

	guestID, err := s.identity.GetOrCreateGuestID(r.Context())
	if err != nil {
		if errors.Is(err, identity.ErrGuestIdentityRetired) {
			http.Error(w, "sign in required", http.StatusUnauthorized)
			return access.Identity{}, false
		}
		s.writeError(w, err)
		return access.Identity{}, false
	}
	return access.GuestIdentity(guestID), true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, access.ErrAccessDenied):
		http.Error(w, "access denied", http.StatusForbidden)
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrDocumentNotFound),
		errors.Is(err, project.ErrMemberNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, project.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, project.ErrLastOwner):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
