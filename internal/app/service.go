// Package app wires the feedback domain together: session handling,
// workspace listings, triage actions, and the HTTP surface.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"feedbase/api/internal/auth"
	"feedbase/api/internal/authpw"
	"feedbase/api/internal/config"
	"feedbase/api/internal/email"
	"feedbase/api/internal/export"
	"feedbase/api/internal/filter"
	"feedbase/api/internal/rbac"
	"feedbase/api/internal/search"
	"feedbase/api/internal/store"
	"feedbase/api/internal/util"
)

const listPageSize = 20

// Session is an authenticated team-member session.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetWorkspaceBySlug(ctx context.Context, slug string) (store.Workspace, error)
	ListBoards(ctx context.Context, workspaceID string) ([]store.Board, error)
	GetBoardBySlug(ctx context.Context, workspaceID, slug string) (store.Board, error)
	InsertBoard(ctx context.Context, board store.Board) error
	ListTags(ctx context.Context, workspaceID string) ([]store.Tag, error)
	InsertTag(ctx context.Context, tag store.Tag) error

	ListPosts(ctx context.Context, workspaceID string, f store.ListFilter, limit, offset int) ([]store.Post, int, error)
	ListPostRefs(ctx context.Context, workspaceID string, f store.ListFilter) ([]store.PostRef, error)
	GetPost(ctx context.Context, workspaceID, idOrSlug string) (store.Post, error)
	InsertPost(ctx context.Context, post store.Post) error
	UpdatePostStatus(ctx context.Context, workspaceID, postID, status string) (bool, error)
	ReplacePostTags(ctx context.Context, workspaceID, postID string, tagSlugs []string) error
	DeletePost(ctx context.Context, workspaceID, postID string) (bool, error)
	DeletePosts(ctx context.Context, workspaceID string, postIDs []string) ([]string, error)
	TogglePostVote(ctx context.Context, postID, voterKey string) (bool, int, error)
	ListComments(ctx context.Context, postID string) ([]store.Comment, error)
	InsertComment(ctx context.Context, comment store.Comment) error
	ListChangelogEntries(ctx context.Context, workspaceID string) ([]store.ChangelogEntry, error)
	InsertChangelogEntry(ctx context.Context, entry store.ChangelogEntry) error

	GetUserByID(ctx context.Context, userID string) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetMemberRole(ctx context.Context, workspaceID, userID string) (string, error)
	UpsertMember(ctx context.Context, workspaceID, userID, role string) error
	ListMembers(ctx context.Context, workspaceID string) ([]store.Member, error)

	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)
	Ping(ctx context.Context) error
}

// SessionStore holds refresh tokens; Redis in production, Postgres as a
// fallback when Redis is not configured.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type passwordService interface {
	SignUp(ctx context.Context, req authpw.SignUpRequest) (store.User, error)
	SignIn(ctx context.Context, email, password string) (store.User, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type searchIndex interface {
	Search(q search.Query) search.Response
	IndexPost(p search.PostRecord)
	IndexChangelog(c search.ChangelogRecord)
	DeletePost(id string)
	DeletePosts(ids []string)
}

type mailer interface {
	IsConfigured() bool
	SendStatusChangeEmail(to, userName, postTitle, newStatus, postURL string) error
	SendInviteEmail(to, inviterName, workspaceName, inviteURL string) error
	SendPasswordResetEmail(to, userName, resetURL string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions SessionStore
	pw       passwordService
	search   searchIndex
	mail     mailer
	log      zerolog.Logger
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions SessionStore, pw *authpw.Service, searchSvc *search.Service, mailSvc *email.Service, log zerolog.Logger) *Service {
	s := &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		pw:       pw,
		log:      log,
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	if mailSvc != nil {
		s.mail = mailSvc
	}
	return s
}

// --- sessions -------------------------------------------------------------

type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) SignUp(ctx context.Context, input SignUpInput) (Session, error) {
	user, err := s.pw.SignUp(ctx, authpw.SignUpRequest{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		switch {
		case errors.Is(err, authpw.ErrEmailTaken):
			return Session{}, domainError(http.StatusConflict, "EMAIL_TAKEN", err.Error(), nil)
		case errors.Is(err, authpw.ErrMissingFields), errors.Is(err, authpw.ErrWeakPassword):
			return Session{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, input SignInInput) (Session, error) {
	user, err := s.pw.SignIn(ctx, strings.TrimSpace(strings.ToLower(input.Email)), input.Password)
	if err != nil {
		if errors.Is(err, authpw.ErrInvalidCredentials) {
			return Session{}, domainError(http.StatusUnauthorized, "INVALID_CREDENTIALS", err.Error(), nil)
		}
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, domainError(http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token is invalid or expired", nil)
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.DisplayName,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	token, err := s.pw.RequestPasswordReset(ctx, strings.TrimSpace(strings.ToLower(emailAddr)))
	if err != nil {
		return err
	}
	if token == "" {
		// unknown email, nothing to send
		return nil
	}
	if s.mail != nil && s.mail.IsConfigured() {
		user, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(emailAddr)))
		if err == nil {
			resetURL := s.cfg.PublicBaseURL + "/reset-password?token=" + url.QueryEscape(token)
			go func() {
				if err := s.mail.SendPasswordResetEmail(user.Email, user.DisplayName, resetURL); err != nil {
					s.log.Warn().Err(err).Msg("send password reset email failed")
				}
			}()
		}
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := s.pw.ResetPassword(ctx, token, newPassword); err != nil {
		switch {
		case errors.Is(err, authpw.ErrInvalidResetToken):
			return domainError(http.StatusUnauthorized, "INVALID_RESET_TOKEN", err.Error(), nil)
		case errors.Is(err, authpw.ErrWeakPassword):
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
		}
		return err
	}
	return nil
}

// Authorize checks the user's membership role in a workspace against the
// required action.
func (s *Service) Authorize(ctx context.Context, workspaceID, userID string, action rbac.Action) error {
	role, err := s.store.GetMemberRole(ctx, workspaceID, userID)
	if err != nil {
		return err
	}
	if !rbac.Can(rbac.Normalize(role), action) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "insufficient role for this action", nil)
	}
	return nil
}

// --- workspaces, boards, tags --------------------------------------------

func (s *Service) ResolveWorkspace(ctx context.Context, slug string) (store.Workspace, error) {
	ws, err := s.store.GetWorkspaceBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Workspace{}, notFoundError("workspace not found")
		}
		return store.Workspace{}, err
	}
	return ws, nil
}

func (s *Service) ListBoards(ctx context.Context, workspaceID string) ([]store.Board, error) {
	return s.store.ListBoards(ctx, workspaceID)
}

type CreateBoardInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Service) CreateBoard(ctx context.Context, workspaceID string, input CreateBoardInput) (store.Board, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Board{}, validationError("name is required")
	}
	slug := util.Slugify(name)
	if slug == "roadmap" || slug == "changelog" {
		return store.Board{}, validationError("board name collides with a system board")
	}

	board := store.Board{
		ID:          util.NewID("brd"),
		WorkspaceID: workspaceID,
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.store.InsertBoard(ctx, board); err != nil {
		if store.IsUniqueViolation(err) {
			return store.Board{}, domainError(http.StatusConflict, "BOARD_EXISTS", "a board with this name already exists", nil)
		}
		return store.Board{}, err
	}
	return board, nil
}

func (s *Service) ListTags(ctx context.Context, workspaceID string) ([]store.Tag, error) {
	return s.store.ListTags(ctx, workspaceID)
}

type CreateTagInput struct {
	Name string `json:"name"`
}

func (s *Service) CreateTag(ctx context.Context, workspaceID string, input CreateTagInput) (store.Tag, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.Tag{}, validationError("name is required")
	}

	tag := store.Tag{
		ID:          util.NewID("tag"),
		WorkspaceID: workspaceID,
		Name:        name,
		Slug:        util.Slugify(name),
	}
	if err := s.store.InsertTag(ctx, tag); err != nil {
		if store.IsUniqueViolation(err) {
			return store.Tag{}, domainError(http.StatusConflict, "TAG_EXISTS", "a tag with this name already exists", nil)
		}
		return store.Tag{}, err
	}
	return tag, nil
}

// --- posts ----------------------------------------------------------------

func toListFilter(state filter.State) store.ListFilter {
	return store.ListFilter{
		Statuses:   state.Statuses,
		BoardSlugs: state.BoardSlugs,
		TagSlugs:   state.TagSlugs,
		Search:     state.Search,
		Order:      string(state.Order),
	}
}

// ListPostsResult is one page of a filtered listing.
type ListPostsResult struct {
	Posts   []store.Post
	Total   int
	Page    int
	PerPage int
}

func (s *Service) ListPosts(ctx context.Context, workspaceID string, state filter.State, page int) (ListPostsResult, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * listPageSize

	posts, total, err := s.store.ListPosts(ctx, workspaceID, toListFilter(state), listPageSize, offset)
	if err != nil {
		return ListPostsResult{}, err
	}
	for i := range posts {
		posts[i] = withAuthorFallback(posts[i])
	}

	return ListPostsResult{
		Posts:   posts,
		Total:   total,
		Page:    page,
		PerPage: listPageSize,
	}, nil
}

func (s *Service) GetPost(ctx context.Context, workspaceID, idOrSlug string) (store.Post, error) {
	post, err := s.store.GetPost(ctx, workspaceID, idOrSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, notFoundError("post not found")
		}
		return store.Post{}, err
	}
	return withAuthorFallback(post), nil
}

type CreatePostInput struct {
	BoardSlug       string `json:"board"`
	Title           string `json:"title"`
	Content         string `json:"content"`
	AuthorName      string `json:"authorName"`
	AuthorEmail     string `json:"authorEmail"`
	AuthorAvatarURL string `json:"authorAvatarUrl"`
}

func (s *Service) CreatePost(ctx context.Context, ws store.Workspace, input CreatePostInput) (store.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.Post{}, validationError("title is required")
	}
	boardSlug := strings.ToLower(strings.TrimSpace(input.BoardSlug))
	if boardSlug == "" {
		return store.Post{}, validationError("board is required")
	}
	if boardSlug == "roadmap" || boardSlug == "changelog" {
		return store.Post{}, validationError("cannot post to a system board")
	}

	board, err := s.store.GetBoardBySlug(ctx, ws.ID, boardSlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Post{}, validationError("board not found")
		}
		return store.Post{}, err
	}

	slug := util.Slugify(title)
	if slug == "" {
		slug = "post"
	}

	post := store.Post{
		ID:              util.NewID("post"),
		WorkspaceID:     ws.ID,
		BoardID:         board.ID,
		BoardSlug:       board.Slug,
		Slug:            slug,
		Title:           title,
		Content:         strings.TrimSpace(input.Content),
		Status:          filter.StatusPending,
		AuthorName:      strings.TrimSpace(input.AuthorName),
		AuthorEmail:     strings.TrimSpace(strings.ToLower(input.AuthorEmail)),
		AuthorAvatarURL: strings.TrimSpace(input.AuthorAvatarURL),
	}

	// slug collisions within a board get a short random suffix
	for attempt := 0; ; attempt++ {
		err := s.store.InsertPost(ctx, post)
		if err == nil {
			break
		}
		if store.IsUniqueViolation(err) && attempt < 3 {
			post.Slug = slug + "-" + util.NewID("")[:6]
			continue
		}
		return store.Post{}, err
	}

	if s.search != nil {
		s.search.IndexPost(search.PostRecord{
			ID:          post.ID,
			Slug:        post.Slug,
			Title:       post.Title,
			Content:     post.Content,
			Status:      post.Status,
			BoardSlug:   post.BoardSlug,
			WorkspaceID: ws.ID,
		})
	}

	return s.GetPost(ctx, ws.ID, post.ID)
}

// VoteResult reports the state after a vote toggle.
type VoteResult struct {
	Voted   bool `json:"voted"`
	Upvotes int  `json:"upvotes"`
}

func (s *Service) ToggleVote(ctx context.Context, workspaceID, idOrSlug, voterKey string) (VoteResult, error) {
	if strings.TrimSpace(voterKey) == "" {
		return VoteResult{}, validationError("voter key is required")
	}
	post, err := s.GetPost(ctx, workspaceID, idOrSlug)
	if err != nil {
		return VoteResult{}, err
	}
	voted, upvotes, err := s.store.TogglePostVote(ctx, post.ID, voterKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VoteResult{}, notFoundError("post not found")
		}
		return VoteResult{}, err
	}
	return VoteResult{Voted: voted, Upvotes: upvotes}, nil
}

func (s *Service) ListComments(ctx context.Context, workspaceID, idOrSlug string) ([]store.Comment, error) {
	post, err := s.GetPost(ctx, workspaceID, idOrSlug)
	if err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, post.ID)
}

type AddCommentInput struct {
	AuthorName string `json:"authorName"`
	Body       string `json:"body"`
}

func (s *Service) AddComment(ctx context.Context, workspaceID, idOrSlug string, input AddCommentInput) (store.Comment, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return store.Comment{}, validationError("body is required")
	}
	post, err := s.GetPost(ctx, workspaceID, idOrSlug)
	if err != nil {
		return store.Comment{}, err
	}

	comment := store.Comment{
		ID:         util.NewID("cmt"),
		PostID:     post.ID,
		AuthorName: strings.TrimSpace(input.AuthorName),
		Body:       body,
	}
	if comment.AuthorName == "" {
		comment.AuthorName = "Anonymous"
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return store.Comment{}, err
	}
	comment.CreatedAt = time.Now()
	return comment, nil
}

// --- triage ---------------------------------------------------------------

func (s *Service) SetPostStatus(ctx context.Context, ws store.Workspace, postID, status string) (store.Post, error) {
	canonical := filter.NormalizeStatus(status)
	known := false
	for _, token := range filter.KnownStatuses {
		if token == canonical {
			known = true
			break
		}
	}
	if !known {
		return store.Post{}, validationError("status must be one of pending, review, planned, progress, completed, closed")
	}

	updated, err := s.store.UpdatePostStatus(ctx, ws.ID, postID, canonical)
	if err != nil {
		return store.Post{}, err
	}
	if !updated {
		return store.Post{}, notFoundError("post not found")
	}

	post, err := s.GetPost(ctx, ws.ID, postID)
	if err != nil {
		return store.Post{}, err
	}

	if s.search != nil {
		s.search.IndexPost(search.PostRecord{
			ID:          post.ID,
			Slug:        post.Slug,
			Title:       post.Title,
			Content:     post.Content,
			Status:      post.Status,
			BoardSlug:   post.BoardSlug,
			WorkspaceID: ws.ID,
		})
	}

	if s.mail != nil && s.mail.IsConfigured() && post.AuthorEmail != "" {
		postURL := fmt.Sprintf("%s/w/%s/posts/%s", s.cfg.PublicBaseURL, ws.Slug, post.Slug)
		to, name, title, st := post.AuthorEmail, post.AuthorName, post.Title, post.Status
		go func() {
			if err := s.mail.SendStatusChangeEmail(to, name, title, st, postURL); err != nil {
				s.log.Warn().Err(err).Str("post_id", post.ID).Msg("send status change email failed")
			}
		}()
	}

	return post, nil
}

func (s *Service) SetPostTags(ctx context.Context, workspaceID, postID string, tagSlugs []string) (store.Post, error) {
	post, err := s.GetPost(ctx, workspaceID, postID)
	if err != nil {
		return store.Post{}, err
	}

	normalized := make([]string, 0, len(tagSlugs))
	seen := make(map[string]struct{}, len(tagSlugs))
	for _, slug := range tagSlugs {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		normalized = append(normalized, slug)
	}

	if err := s.store.ReplacePostTags(ctx, workspaceID, post.ID, normalized); err != nil {
		return store.Post{}, err
	}
	return s.GetPost(ctx, workspaceID, post.ID)
}

func (s *Service) DeletePost(ctx context.Context, workspaceID, postID string) error {
	deleted, err := s.store.DeletePost(ctx, workspaceID, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return notFoundError("post not found")
	}
	if s.search != nil {
		s.search.DeletePost(postID)
	}
	return nil
}

// BulkDeletePosts removes a selection of posts. Ids that do not exist in
// the workspace are skipped; the returned slice holds what was actually
// deleted.
func (s *Service) BulkDeletePosts(ctx context.Context, workspaceID string, postIDs []string) ([]string, error) {
	ids := make([]string, 0, len(postIDs))
	for _, id := range postIDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	sel := NewSelection().SelectAll(ids)
	if len(sel.IDs) == 0 {
		return []string{}, nil
	}

	deleted, err := s.store.DeletePosts(ctx, workspaceID, sel.IDs)
	if err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.DeletePosts(deleted)
	}
	return deleted, nil
}

// --- roadmap & changelog --------------------------------------------------

// RoadmapColumn is one swimlane of the public roadmap.
type RoadmapColumn struct {
	Status string       `json:"status"`
	Posts  []store.Post `json:"posts"`
}

// Roadmap returns the planned/progress/completed columns, each sorted by
// upvotes.
func (s *Service) Roadmap(ctx context.Context, workspaceID string) ([]RoadmapColumn, error) {
	columns := make([]RoadmapColumn, 0, 3)
	for _, status := range []string{filter.StatusPlanned, filter.StatusProgress, filter.StatusCompleted} {
		posts, _, err := s.store.ListPosts(ctx, workspaceID, store.ListFilter{
			Statuses: []string{status},
			Order:    string(filter.OrderLikes),
		}, 100, 0)
		if err != nil {
			return nil, err
		}
		for i := range posts {
			posts[i] = withAuthorFallback(posts[i])
		}
		columns = append(columns, RoadmapColumn{Status: status, Posts: posts})
	}
	return columns, nil
}

func (s *Service) ListChangelog(ctx context.Context, workspaceID string) ([]store.ChangelogEntry, error) {
	return s.store.ListChangelogEntries(ctx, workspaceID)
}

type PublishChangelogInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Service) PublishChangelogEntry(ctx context.Context, workspaceID string, input PublishChangelogInput) (store.ChangelogEntry, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return store.ChangelogEntry{}, validationError("title is required")
	}

	entry := store.ChangelogEntry{
		ID:          util.NewID("cl"),
		WorkspaceID: workspaceID,
		Title:       title,
		Content:     strings.TrimSpace(input.Content),
		PublishedAt: time.Now(),
	}
	if err := s.store.InsertChangelogEntry(ctx, entry); err != nil {
		return store.ChangelogEntry{}, err
	}

	if s.search != nil {
		s.search.IndexChangelog(search.ChangelogRecord{
			ID:          entry.ID,
			Title:       entry.Title,
			Content:     entry.Content,
			WorkspaceID: workspaceID,
		})
	}
	return entry, nil
}

// --- search ---------------------------------------------------------------

func (s *Service) Search(workspaceID, text string, filterType search.ResultType, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(search.Query{
		Text:        text,
		WorkspaceID: workspaceID,
		FilterType:  filterType,
		Limit:       limit,
		Offset:      offset,
	})
}

// --- members --------------------------------------------------------------

func (s *Service) ListMembers(ctx context.Context, workspaceID string) ([]store.Member, error) {
	return s.store.ListMembers(ctx, workspaceID)
}

type InviteMemberInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InviteMember grants an existing account a role in the workspace and
// sends an invite email.
func (s *Service) InviteMember(ctx context.Context, ws store.Workspace, inviterName string, input InviteMemberInput) (store.Member, error) {
	emailAddr := strings.TrimSpace(strings.ToLower(input.Email))
	if emailAddr == "" {
		return store.Member{}, validationError("email is required")
	}
	role := string(rbac.Normalize(input.Role))

	user, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Member{}, validationError("no account exists for this email; ask them to sign up first")
		}
		return store.Member{}, err
	}

	if err := s.store.UpsertMember(ctx, ws.ID, user.ID, role); err != nil {
		return store.Member{}, err
	}

	if s.mail != nil && s.mail.IsConfigured() {
		inviteURL := fmt.Sprintf("%s/w/%s", s.cfg.PublicBaseURL, ws.Slug)
		go func() {
			if err := s.mail.SendInviteEmail(user.Email, inviterName, ws.Name, inviteURL); err != nil {
				s.log.Warn().Err(err).Str("workspace_id", ws.ID).Msg("send invite email failed")
			}
		}()
	}

	return store.Member{
		UserID:      user.ID,
		WorkspaceID: ws.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        role,
	}, nil
}

// --- export ---------------------------------------------------------------

// ExportPostsCSV renders the current filtered listing as CSV.
func (s *Service) ExportPostsCSV(ctx context.Context, ws store.Workspace, state filter.State) (*export.Result, error) {
	posts, _, err := s.store.ListPosts(ctx, ws.ID, toListFilter(state), 1000, 0)
	if err != nil {
		return nil, err
	}
	return export.PostsCSV(ws.Slug, posts)
}

// ExportChangelogPDF renders the workspace changelog as a PDF.
func (s *Service) ExportChangelogPDF(ctx context.Context, ws store.Workspace) (*export.Result, error) {
	entries, err := s.store.ListChangelogEntries(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	result, err := export.ChangelogPDF(ws.Name, entries)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			return nil, domainError(http.StatusServiceUnavailable, "PDF_UNAVAILABLE", "PDF rendering is not available on this server", nil)
		}
		return nil, err
	}
	return result, nil
}

// --- helpers --------------------------------------------------------------

func (s *Service) Health(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// withAuthorFallback fills in a display name and generated avatar for
// anonymous submissions. Returns a new value, the input is not mutated.
func withAuthorFallback(post store.Post) store.Post {
	if strings.TrimSpace(post.AuthorName) == "" {
		post.AuthorName = "Anonymous"
	}
	if post.AuthorAvatarURL == "" {
		post.AuthorAvatarURL = "https://api.dicebear.com/7.x/initials/svg?seed=" + url.QueryEscape(post.AuthorName)
	}
	return post
}
