package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"feedbase/api/internal/auth"
	"feedbase/api/internal/filter"
	"feedbase/api/internal/rbac"
	"feedbase/api/internal/search"
	"feedbase/api/internal/uploads"
)

type HTTPServer struct {
	service    *Service
	uploads    *uploads.Store
	corsOrigin string
	log        zerolog.Logger
}

func NewHTTPServer(service *Service, uploadStore *uploads.Store, corsOrigin string, log zerolog.Logger) *HTTPServer {
	return &HTTPServer{service: service, uploads: uploadStore, corsOrigin: corsOrigin, log: log}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}
		if err := s.service.Health(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleSignUp(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleSignIn(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		s.handleRefresh(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		s.handleLogout(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password/request" {
		s.handleRequestReset(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/reset-password" {
		s.handleResetPassword(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userId":        session.UserID,
			"userName":      session.UserName,
			"email":         session.Email,
		})
		return
	}

	// Workspace routes: /api/w/{workspace}/...
	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "w" {
		s.handleWorkspace(w, r, parts[2], parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleWorkspace(w http.ResponseWriter, r *http.Request, workspaceSlug string, rest []string) {
	ctx := r.Context()
	ws, err := s.service.ResolveWorkspace(ctx, workspaceSlug)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	switch {
	// GET /api/w/{ws}
	case len(rest) == 0 && r.Method == http.MethodGet:
		boards, err := s.service.ListBoards(ctx, ws.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"workspace": map[string]any{"slug": ws.Slug, "name": ws.Name},
			"boards":    boards,
		})

	// GET /api/w/{ws}/boards | POST /api/w/{ws}/boards
	case len(rest) == 1 && rest[0] == "boards" && r.Method == http.MethodGet:
		boards, err := s.service.ListBoards(ctx, ws.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"boards": boards})

	case len(rest) == 1 && rest[0] == "boards" && r.Method == http.MethodPost:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionAdmin); !ok {
			return
		}
		var body CreateBoardInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		board, err := s.service.CreateBoard(ctx, ws.ID, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, board)

	// GET /api/w/{ws}/tags | POST /api/w/{ws}/tags
	case len(rest) == 1 && rest[0] == "tags" && r.Method == http.MethodGet:
		tags, err := s.service.ListTags(ctx, ws.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tags": tags})

	case len(rest) == 1 && rest[0] == "tags" && r.Method == http.MethodPost:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		var body CreateTagInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		tag, err := s.service.CreateTag(ctx, ws.ID, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, tag)

	// posts collection
	case len(rest) == 1 && rest[0] == "posts" && r.Method == http.MethodGet:
		s.handleListPosts(w, r, ws.ID, workspaceSlug)

	case len(rest) == 1 && rest[0] == "posts" && r.Method == http.MethodPost:
		var body CreatePostInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, err := s.service.CreatePost(ctx, ws, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, post)

	// POST /api/w/{ws}/posts/bulk-delete
	case len(rest) == 2 && rest[0] == "posts" && rest[1] == "bulk-delete" && r.Method == http.MethodPost:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		var body struct {
			IDs []string `json:"ids"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		deleted, err := s.service.BulkDeletePosts(ctx, ws.ID, body.IDs)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})

	// GET /api/w/{ws}/posts/export.csv (before the slug route, export.csv
	// is not a post slug)
	case len(rest) == 2 && rest[0] == "posts" && rest[1] == "export.csv" && r.Method == http.MethodGet:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		state := filter.ParseState(r.URL.Query())
		result, err := s.service.ExportPostsCSV(ctx, ws, state)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeFile(w, result.MimeType, result.Filename, result.Data)

	// single post
	case len(rest) == 2 && rest[0] == "posts" && r.Method == http.MethodGet:
		post, err := s.service.GetPost(ctx, ws.ID, rest[1])
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)

	case len(rest) == 2 && rest[0] == "posts" && r.Method == http.MethodDelete:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		if err := s.service.DeletePost(ctx, ws.ID, rest[1]); err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})

	// GET /api/w/{ws}/posts/{id}/navigation
	case len(rest) == 3 && rest[0] == "posts" && rest[2] == "navigation" && r.Method == http.MethodGet:
		state := filter.ParseState(r.URL.Query())
		nav, err := s.service.GetPostNavigation(ctx, workspaceSlug, rest[1], state)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nav)

	// POST /api/w/{ws}/posts/{id}/vote
	case len(rest) == 3 && rest[0] == "posts" && rest[2] == "vote" && r.Method == http.MethodPost:
		var body struct {
			VoterKey string `json:"voterKey"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		result, err := s.service.ToggleVote(ctx, ws.ID, rest[1], body.VoterKey)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	// comments
	case len(rest) == 3 && rest[0] == "posts" && rest[2] == "comments" && r.Method == http.MethodGet:
		comments, err := s.service.ListComments(ctx, ws.ID, rest[1])
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"comments": comments})

	case len(rest) == 3 && rest[0] == "posts" && rest[2] == "comments" && r.Method == http.MethodPost:
		var body AddCommentInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		comment, err := s.service.AddComment(ctx, ws.ID, rest[1], body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, comment)

	// PATCH /api/w/{ws}/posts/{id}/status
	case len(rest) == 3 && rest[0] == "posts" && rest[2] == "status" && r.Method == http.MethodPatch:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, err := s.service.SetPostStatus(ctx, ws, rest[1], body.Status)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)

	// PUT /api/w/{ws}/posts/{id}/tags
	case len(rest) == 3 && rest[0] == "posts" && rest[2] == "tags" && r.Method == http.MethodPut:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		var body struct {
			Tags []string `json:"tags"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		post, err := s.service.SetPostTags(ctx, ws.ID, rest[1], body.Tags)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)

	// GET /api/w/{ws}/roadmap
	case len(rest) == 1 && rest[0] == "roadmap" && r.Method == http.MethodGet:
		columns, err := s.service.Roadmap(ctx, ws.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"columns": columns})

	// changelog
	case len(rest) == 1 && rest[0] == "changelog" && r.Method == http.MethodGet:
		entries, err := s.service.ListChangelog(ctx, ws.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})

	case len(rest) == 1 && rest[0] == "changelog" && r.Method == http.MethodPost:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		var body PublishChangelogInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		entry, err := s.service.PublishChangelogEntry(ctx, ws.ID, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)

	// GET /api/w/{ws}/search
	case len(rest) == 1 && rest[0] == "search" && r.Method == http.MethodGet:
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		resp := s.service.Search(ws.ID, strings.TrimSpace(q.Get("q")), search.ResultType(q.Get("type")), limit, offset)
		writeJSON(w, http.StatusOK, resp)

	// members
	case len(rest) == 1 && rest[0] == "members" && r.Method == http.MethodGet:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionAdmin); !ok {
			return
		}
		members, err := s.service.ListMembers(ctx, ws.ID)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"members": members})

	case len(rest) == 1 && rest[0] == "invites" && r.Method == http.MethodPost:
		session, ok := s.requireRole(w, r, ws.ID, rbac.ActionAdmin)
		if !ok {
			return
		}
		var body InviteMemberInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		member, err := s.service.InviteMember(ctx, ws, session.UserName, body)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, member)

	// GET /api/w/{ws}/changelog/export.pdf
	case len(rest) == 2 && rest[0] == "changelog" && rest[1] == "export.pdf" && r.Method == http.MethodGet:
		if _, ok := s.requireRole(w, r, ws.ID, rbac.ActionTriage); !ok {
			return
		}
		result, err := s.service.ExportChangelogPDF(ctx, ws)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeFile(w, result.MimeType, result.Filename, result.Data)

	// POST /api/w/{ws}/attachments
	case len(rest) == 1 && rest[0] == "attachments" && r.Method == http.MethodPost:
		s.handleUploadAttachment(w, r, ws.ID)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleListPosts(w http.ResponseWriter, r *http.Request, workspaceID, workspaceSlug string) {
	query := r.URL.Query()
	state := filter.ParseState(query)
	page := filter.Page(query)

	result, err := s.service.ListPosts(r.Context(), workspaceID, state, page)
	if err != nil {
		s.fail(w, err)
		return
	}

	basePath := "/api/w/" + workspaceSlug + "/posts"
	writeJSON(w, http.StatusOK, map[string]any{
		"posts":       result.Posts,
		"total":       result.Total,
		"page":        result.Page,
		"perPage":     result.PerPage,
		"anyFilter":   state.AnyActive(),
		"listUrl":     filter.BuildListURL(basePath, query, filter.Patch{}),
		"clearAllUrl": filter.ClearAllURL(basePath),
	})
}

func (s *HTTPServer) handleUploadAttachment(w http.ResponseWriter, r *http.Request, workspaceID string) {
	if s.uploads == nil {
		writeError(w, http.StatusServiceUnavailable, "UPLOADS_UNAVAILABLE", "Attachment storage is not configured", nil)
		return
	}

	contentType := r.Header.Get("Content-Type")
	url, err := s.uploads.Upload(r.Context(), workspaceID, contentType, r.ContentLength, r.Body)
	if err != nil {
		if errors.Is(err, uploads.ErrUnsupportedType) {
			writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", "Only png, jpeg, gif, and webp attachments are accepted", nil)
			return
		}
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"url": url})
}

// --- auth handlers --------------------------------------------------------

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body SignUpInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.SignUp(r.Context(), body)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionPayload(session))
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body SignInInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.SignIn(r.Context(), body)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (s *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	session, err := s.service.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.Logout(r.Context(), session, body.RefreshToken); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleRequestReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.RequestPasswordReset(r.Context(), body.Email); err != nil {
		s.fail(w, err)
		return
	}
	// Always 200: requesting a reset must not reveal whether the email exists.
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.ResetPassword(r.Context(), body.Token, body.NewPassword); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// --- session plumbing -----------------------------------------------------

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) requireRole(w http.ResponseWriter, r *http.Request, workspaceID string, action rbac.Action) (Session, bool) {
	session, ok := s.requireSession(w, r)
	if !ok {
		return Session{}, false
	}
	if err := s.service.Authorize(r.Context(), workspaceID, session.UserID, action); err != nil {
		s.fail(w, err)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, code, message, details)
}

// --- middleware -----------------------------------------------------------

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", writer.status).
			Int64("duration_ms", time.Since(started).Milliseconds()).
			Msg("request")
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

// --- response helpers -----------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeFile(w http.ResponseWriter, mimeType, filename string, data []byte) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"token":        session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"userName":     session.UserName,
		"email":        session.Email,
		"expiresAt":    session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
