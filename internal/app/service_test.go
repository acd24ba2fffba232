package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"feedbase/api/internal/authpw"
	"feedbase/api/internal/config"
	"feedbase/api/internal/filter"
	"feedbase/api/internal/search"
	"feedbase/api/internal/store"
)

type fakeStore struct {
	getWorkspaceBySlugFn   func(context.Context, string) (store.Workspace, error)
	listBoardsFn           func(context.Context, string) ([]store.Board, error)
	getBoardBySlugFn       func(context.Context, string, string) (store.Board, error)
	insertBoardFn          func(context.Context, store.Board) error
	insertTagFn            func(context.Context, store.Tag) error
	listPostsFn            func(context.Context, string, store.ListFilter, int, int) ([]store.Post, int, error)
	listPostRefsFn         func(context.Context, string, store.ListFilter) ([]store.PostRef, error)
	getPostFn              func(context.Context, string, string) (store.Post, error)
	insertPostFn           func(context.Context, store.Post) error
	updatePostStatusFn     func(context.Context, string, string, string) (bool, error)
	replacePostTagsFn      func(context.Context, string, string, []string) error
	deletePostFn           func(context.Context, string, string) (bool, error)
	deletePostsFn          func(context.Context, string, []string) ([]string, error)
	togglePostVoteFn       func(context.Context, string, string) (bool, int, error)
	insertCommentFn        func(context.Context, store.Comment) error
	insertChangelogFn      func(context.Context, store.ChangelogEntry) error
	getUserByIDFn          func(context.Context, string) (store.User, error)
	getUserByEmailFn       func(context.Context, string) (store.User, error)
	getMemberRoleFn        func(context.Context, string, string) (string, error)
	upsertMemberFn         func(context.Context, string, string, string) error
	isAccessTokenRevokedFn func(context.Context, string) (bool, error)
}

func (f *fakeStore) GetWorkspaceBySlug(ctx context.Context, slug string) (store.Workspace, error) {
	if f.getWorkspaceBySlugFn != nil {
		return f.getWorkspaceBySlugFn(ctx, slug)
	}
	return store.Workspace{}, sql.ErrNoRows
}
func (f *fakeStore) ListBoards(ctx context.Context, workspaceID string) ([]store.Board, error) {
	if f.listBoardsFn != nil {
		return f.listBoardsFn(ctx, workspaceID)
	}
	return nil, nil
}
func (f *fakeStore) GetBoardBySlug(ctx context.Context, workspaceID, slug string) (store.Board, error) {
	if f.getBoardBySlugFn != nil {
		return f.getBoardBySlugFn(ctx, workspaceID, slug)
	}
	return store.Board{}, sql.ErrNoRows
}
func (f *fakeStore) InsertBoard(ctx context.Context, board store.Board) error {
	if f.insertBoardFn != nil {
		return f.insertBoardFn(ctx, board)
	}
	return nil
}
func (f *fakeStore) ListTags(context.Context, string) ([]store.Tag, error) { return nil, nil }
func (f *fakeStore) InsertTag(ctx context.Context, tag store.Tag) error {
	if f.insertTagFn != nil {
		return f.insertTagFn(ctx, tag)
	}
	return nil
}
func (f *fakeStore) ListPosts(ctx context.Context, workspaceID string, lf store.ListFilter, limit, offset int) ([]store.Post, int, error) {
	if f.listPostsFn != nil {
		return f.listPostsFn(ctx, workspaceID, lf, limit, offset)
	}
	return nil, 0, nil
}
func (f *fakeStore) ListPostRefs(ctx context.Context, workspaceID string, lf store.ListFilter) ([]store.PostRef, error) {
	if f.listPostRefsFn != nil {
		return f.listPostRefsFn(ctx, workspaceID, lf)
	}
	return nil, nil
}
func (f *fakeStore) GetPost(ctx context.Context, workspaceID, idOrSlug string) (store.Post, error) {
	if f.getPostFn != nil {
		return f.getPostFn(ctx, workspaceID, idOrSlug)
	}
	return store.Post{}, sql.ErrNoRows
}
func (f *fakeStore) InsertPost(ctx context.Context, post store.Post) error {
	if f.insertPostFn != nil {
		return f.insertPostFn(ctx, post)
	}
	return nil
}
func (f *fakeStore) UpdatePostStatus(ctx context.Context, workspaceID, postID, status string) (bool, error) {
	if f.updatePostStatusFn != nil {
		return f.updatePostStatusFn(ctx, workspaceID, postID, status)
	}
	return false, nil
}
func (f *fakeStore) ReplacePostTags(ctx context.Context, workspaceID, postID string, tagSlugs []string) error {
	if f.replacePostTagsFn != nil {
		return f.replacePostTagsFn(ctx, workspaceID, postID, tagSlugs)
	}
	return nil
}
func (f *fakeStore) DeletePost(ctx context.Context, workspaceID, postID string) (bool, error) {
	if f.deletePostFn != nil {
		return f.deletePostFn(ctx, workspaceID, postID)
	}
	return false, nil
}
func (f *fakeStore) DeletePosts(ctx context.Context, workspaceID string, postIDs []string) ([]string, error) {
	if f.deletePostsFn != nil {
		return f.deletePostsFn(ctx, workspaceID, postIDs)
	}
	return nil, nil
}
func (f *fakeStore) TogglePostVote(ctx context.Context, postID, voterKey string) (bool, int, error) {
	if f.togglePostVoteFn != nil {
		return f.togglePostVoteFn(ctx, postID, voterKey)
	}
	return false, 0, nil
}
func (f *fakeStore) ListComments(context.Context, string) ([]store.Comment, error) { return nil, nil }
func (f *fakeStore) InsertComment(ctx context.Context, comment store.Comment) error {
	if f.insertCommentFn != nil {
		return f.insertCommentFn(ctx, comment)
	}
	return nil
}
func (f *fakeStore) ListChangelogEntries(context.Context, string) ([]store.ChangelogEntry, error) {
	return nil, nil
}
func (f *fakeStore) InsertChangelogEntry(ctx context.Context, entry store.ChangelogEntry) error {
	if f.insertChangelogFn != nil {
		return f.insertChangelogFn(ctx, entry)
	}
	return nil
}
func (f *fakeStore) GetUserByID(ctx context.Context, userID string) (store.User, error) {
	if f.getUserByIDFn != nil {
		return f.getUserByIDFn(ctx, userID)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) GetMemberRole(ctx context.Context, workspaceID, userID string) (string, error) {
	if f.getMemberRoleFn != nil {
		return f.getMemberRoleFn(ctx, workspaceID, userID)
	}
	return "", sql.ErrNoRows
}
func (f *fakeStore) UpsertMember(ctx context.Context, workspaceID, userID, role string) error {
	if f.upsertMemberFn != nil {
		return f.upsertMemberFn(ctx, workspaceID, userID, role)
	}
	return nil
}
func (f *fakeStore) ListMembers(context.Context, string) ([]store.Member, error) { return nil, nil }
func (f *fakeStore) RevokeAccessToken(context.Context, string, time.Time) error  { return nil }
func (f *fakeStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if f.isAccessTokenRevokedFn != nil {
		return f.isAccessTokenRevokedFn(ctx, jti)
	}
	return false, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeSessions struct {
	saveFn   func(context.Context, string, store.User, time.Time) error
	lookupFn func(context.Context, string) (store.User, error)
	revokeFn func(context.Context, string) error
}

func (f *fakeSessions) SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error {
	if f.saveFn != nil {
		return f.saveFn(ctx, tokenHash, user, expiresAt)
	}
	return nil
}
func (f *fakeSessions) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	if f.lookupFn != nil {
		return f.lookupFn(ctx, tokenHash)
	}
	return store.User{}, errors.New("session not found")
}
func (f *fakeSessions) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if f.revokeFn != nil {
		return f.revokeFn(ctx, tokenHash)
	}
	return nil
}

type fakePasswords struct {
	signUpFn func(context.Context, authpw.SignUpRequest) (store.User, error)
	signInFn func(context.Context, string, string) (store.User, error)
}

func (f *fakePasswords) SignUp(ctx context.Context, req authpw.SignUpRequest) (store.User, error) {
	if f.signUpFn != nil {
		return f.signUpFn(ctx, req)
	}
	return store.User{}, nil
}
func (f *fakePasswords) SignIn(ctx context.Context, email, password string) (store.User, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return store.User{}, nil
}
func (f *fakePasswords) RequestPasswordReset(context.Context, string) (string, error) {
	return "", nil
}
func (f *fakePasswords) ResetPassword(context.Context, string, string) error { return nil }

type fakeSearch struct {
	indexed   []search.PostRecord
	deleted   []string
	changelog []search.ChangelogRecord
}

func (f *fakeSearch) Search(search.Query) search.Response { return search.Response{} }
func (f *fakeSearch) IndexPost(p search.PostRecord)       { f.indexed = append(f.indexed, p) }
func (f *fakeSearch) IndexChangelog(c search.ChangelogRecord) {
	f.changelog = append(f.changelog, c)
}
func (f *fakeSearch) DeletePost(id string)     { f.deleted = append(f.deleted, id) }
func (f *fakeSearch) DeletePosts(ids []string) { f.deleted = append(f.deleted, ids...) }

type fakeMailer struct {
	statusSent chan string
	inviteSent chan string
}

func (f *fakeMailer) IsConfigured() bool { return true }
func (f *fakeMailer) SendStatusChangeEmail(to, userName, postTitle, newStatus, postURL string) error {
	if f.statusSent != nil {
		f.statusSent <- to + ":" + newStatus
	}
	return nil
}
func (f *fakeMailer) SendInviteEmail(to, inviterName, workspaceName, inviteURL string) error {
	if f.inviteSent != nil {
		f.inviteSent <- to
	}
	return nil
}
func (f *fakeMailer) SendPasswordResetEmail(string, string, string) error { return nil }

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg:      config.Config{PublicBaseURL: "https://feedbase.test", JWTSecret: "test-secret", AccessTTL: 15 * time.Minute, RefreshTTL: 30 * 24 * time.Hour},
		store:    fs,
		sessions: &fakeSessions{},
		pw:       &fakePasswords{},
		log:      zerolog.Nop(),
	}
}

func TestSignUpErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"email taken", authpw.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
		{"weak password", authpw.ErrWeakPassword, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"missing fields", authpw.ErrMissingFields, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&fakeStore{})
			svc.pw = &fakePasswords{signUpFn: func(context.Context, authpw.SignUpRequest) (store.User, error) {
				return store.User{}, tc.err
			}}
			_, err := svc.SignUp(context.Background(), SignUpInput{Email: "a@b.c", Password: "hunter22", DisplayName: "A"})
			var domainErr *DomainError
			if !errors.As(err, &domainErr) {
				t.Fatalf("expected DomainError, got %v", err)
			}
			if domainErr.Status != tc.wantStatus || domainErr.Code != tc.wantCode {
				t.Fatalf("got %d %s, want %d %s", domainErr.Status, domainErr.Code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	svc := newTestService(&fakeStore{})
	svc.pw = &fakePasswords{signInFn: func(context.Context, string, string) (store.User, error) {
		return store.User{}, authpw.ErrInvalidCredentials
	}}
	_, err := svc.SignIn(context.Background(), SignInInput{Email: "a@b.c", Password: "nope"})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	if domainErr.Status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", domainErr.Status)
	}
}

func TestCreatePostRetriesSlugCollision(t *testing.T) {
	ws := store.Workspace{ID: "ws1", Slug: "acme"}
	var inserted []store.Post
	fs := &fakeStore{
		getBoardBySlugFn: func(_ context.Context, _, slug string) (store.Board, error) {
			return store.Board{ID: "b1", Slug: slug}, nil
		},
		insertPostFn: func(_ context.Context, post store.Post) error {
			inserted = append(inserted, post)
			if len(inserted) == 1 {
				return &pgconn.PgError{Code: "23505", ConstraintName: "posts_workspace_slug_key"}
			}
			return nil
		},
		getPostFn: func(_ context.Context, _, id string) (store.Post, error) {
			return inserted[len(inserted)-1], nil
		},
	}
	svc := newTestService(fs)

	post, err := svc.CreatePost(context.Background(), ws, CreatePostInput{
		BoardSlug: "features",
		Title:     "Dark Mode",
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("insert attempts = %d, want 2", len(inserted))
	}
	if inserted[0].Slug != "dark-mode" {
		t.Fatalf("first slug = %q, want dark-mode", inserted[0].Slug)
	}
	if !strings.HasPrefix(post.Slug, "dark-mode-") || len(post.Slug) != len("dark-mode-")+6 {
		t.Fatalf("retried slug = %q, want dark-mode-<6 chars>", post.Slug)
	}
	if post.Status != "pending" {
		t.Fatalf("status = %q, want pending", post.Status)
	}
}

func TestCreatePostRejectsSystemBoard(t *testing.T) {
	svc := newTestService(&fakeStore{})
	for _, board := range []string{"roadmap", "changelog"} {
		_, err := svc.CreatePost(context.Background(), store.Workspace{ID: "ws1"}, CreatePostInput{
			BoardSlug: board,
			Title:     "x",
		})
		var domainErr *DomainError
		if !errors.As(err, &domainErr) || domainErr.Status != http.StatusUnprocessableEntity {
			t.Fatalf("board %q: got %v, want 422", board, err)
		}
	}
}

func TestSetPostStatus(t *testing.T) {
	ws := store.Workspace{ID: "ws1", Slug: "acme"}

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newTestService(&fakeStore{})
		_, err := svc.SetPostStatus(context.Background(), ws, "p1", "shipped")
		var domainErr *DomainError
		if !errors.As(err, &domainErr) || domainErr.Status != http.StatusUnprocessableEntity {
			t.Fatalf("got %v, want 422", err)
		}
	})

	t.Run("canonicalizes aliases", func(t *testing.T) {
		var gotStatus string
		fs := &fakeStore{
			updatePostStatusFn: func(_ context.Context, _, _, status string) (bool, error) {
				gotStatus = status
				return true, nil
			},
			getPostFn: func(context.Context, string, string) (store.Post, error) {
				return store.Post{ID: "p1", Status: "progress"}, nil
			},
		}
		svc := newTestService(fs)
		if _, err := svc.SetPostStatus(context.Background(), ws, "p1", "In-Progress"); err != nil {
			t.Fatalf("SetPostStatus: %v", err)
		}
		if gotStatus != "progress" {
			t.Fatalf("stored status = %q, want progress", gotStatus)
		}
	})

	t.Run("missing post is 404", func(t *testing.T) {
		svc := newTestService(&fakeStore{
			updatePostStatusFn: func(context.Context, string, string, string) (bool, error) {
				return false, nil
			},
		})
		_, err := svc.SetPostStatus(context.Background(), ws, "missing", "planned")
		var domainErr *DomainError
		if !errors.As(err, &domainErr) || domainErr.Status != http.StatusNotFound {
			t.Fatalf("got %v, want 404", err)
		}
	})

	t.Run("notifies the author", func(t *testing.T) {
		fs := &fakeStore{
			updatePostStatusFn: func(context.Context, string, string, string) (bool, error) {
				return true, nil
			},
			getPostFn: func(context.Context, string, string) (store.Post, error) {
				return store.Post{
					ID:          "p1",
					Slug:        "dark-mode",
					Title:       "Dark Mode",
					Status:      "planned",
					AuthorEmail: "jo@example.com",
				}, nil
			},
		}
		svc := newTestService(fs)
		mail := &fakeMailer{statusSent: make(chan string, 1)}
		svc.mail = mail

		if _, err := svc.SetPostStatus(context.Background(), ws, "p1", "planned"); err != nil {
			t.Fatalf("SetPostStatus: %v", err)
		}
		select {
		case msg := <-mail.statusSent:
			if msg != "jo@example.com:planned" {
				t.Fatalf("notification = %q", msg)
			}
		case <-time.After(time.Second):
			t.Fatal("no status change email sent")
		}
	})
}

func TestSetPostTagsNormalizes(t *testing.T) {
	var gotTags []string
	fs := &fakeStore{
		getPostFn: func(context.Context, string, string) (store.Post, error) {
			return store.Post{ID: "p1"}, nil
		},
		replacePostTagsFn: func(_ context.Context, _, _ string, tagSlugs []string) error {
			gotTags = tagSlugs
			return nil
		},
	}
	svc := newTestService(fs)
	if _, err := svc.SetPostTags(context.Background(), "ws1", "p1", []string{" UI ", "ui", "", "Bug"}); err != nil {
		t.Fatalf("SetPostTags: %v", err)
	}
	if len(gotTags) != 2 || gotTags[0] != "ui" || gotTags[1] != "bug" {
		t.Fatalf("tags = %v, want [ui bug]", gotTags)
	}
}

func TestBulkDeletePosts(t *testing.T) {
	var requested []string
	fs := &fakeStore{
		deletePostsFn: func(_ context.Context, _ string, postIDs []string) ([]string, error) {
			requested = postIDs
			return postIDs[:1], nil
		},
	}
	svc := newTestService(fs)
	idx := &fakeSearch{}
	svc.search = idx

	deleted, err := svc.BulkDeletePosts(context.Background(), "ws1", []string{"b", "a", "", "a"})
	if err != nil {
		t.Fatalf("BulkDeletePosts: %v", err)
	}
	if len(requested) != 2 || requested[0] != "a" || requested[1] != "b" {
		t.Fatalf("requested ids = %v, want [a b]", requested)
	}
	if len(deleted) != 1 {
		t.Fatalf("deleted = %v, want one id", deleted)
	}
	if len(idx.deleted) != 1 {
		t.Fatalf("search deletions = %v", idx.deleted)
	}
}

func TestBulkDeletePostsEmptySelection(t *testing.T) {
	called := false
	fs := &fakeStore{
		deletePostsFn: func(context.Context, string, []string) ([]string, error) {
			called = true
			return nil, nil
		},
	}
	svc := newTestService(fs)
	deleted, err := svc.BulkDeletePosts(context.Background(), "ws1", []string{"", "  "})
	if err != nil {
		t.Fatalf("BulkDeletePosts: %v", err)
	}
	if called {
		t.Fatal("store should not be hit for an empty selection")
	}
	if len(deleted) != 0 {
		t.Fatalf("deleted = %v, want empty", deleted)
	}
}

func TestInviteMemberRequiresAccount(t *testing.T) {
	svc := newTestService(&fakeStore{})
	_, err := svc.InviteMember(context.Background(), store.Workspace{ID: "ws1", Name: "Acme"}, "Sam", InviteMemberInput{
		Email: "new@example.com",
		Role:  "triager",
	})
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("got %v, want 422", err)
	}
}

func TestInviteMemberUpsertsAndNotifies(t *testing.T) {
	var gotRole string
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			return store.User{ID: "u2", Email: email, DisplayName: "Pat"}, nil
		},
		upsertMemberFn: func(_ context.Context, _, _, role string) error {
			gotRole = role
			return nil
		},
	}
	svc := newTestService(fs)
	mail := &fakeMailer{inviteSent: make(chan string, 1)}
	svc.mail = mail

	member, err := svc.InviteMember(context.Background(), store.Workspace{ID: "ws1", Name: "Acme", Slug: "acme"}, "Sam", InviteMemberInput{
		Email: "Pat@Example.com",
		Role:  "Triager",
	})
	if err != nil {
		t.Fatalf("InviteMember: %v", err)
	}
	if gotRole != "triager" {
		t.Fatalf("role = %q, want triager", gotRole)
	}
	if member.Email != "pat@example.com" {
		t.Fatalf("member email = %q", member.Email)
	}
	select {
	case to := <-mail.inviteSent:
		if to != "pat@example.com" {
			t.Fatalf("invite sent to %q", to)
		}
	case <-time.After(time.Second):
		t.Fatal("no invite email sent")
	}
}

func TestAuthorize(t *testing.T) {
	fs := &fakeStore{
		getMemberRoleFn: func(_ context.Context, _, userID string) (string, error) {
			if userID == "u-admin" {
				return "admin", nil
			}
			if userID == "u-viewer" {
				return "viewer", nil
			}
			return "", sql.ErrNoRows
		},
	}
	svc := newTestService(fs)
	ctx := context.Background()

	if err := svc.Authorize(ctx, "ws1", "u-admin", "triage"); err != nil {
		t.Fatalf("admin should triage: %v", err)
	}
	err := svc.Authorize(ctx, "ws1", "u-viewer", "triage")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusForbidden {
		t.Fatalf("viewer triage: got %v, want 403", err)
	}
	err = svc.Authorize(ctx, "ws1", "u-stranger", "read")
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusForbidden {
		t.Fatalf("non-member: got %v, want 403", err)
	}
}

func TestToggleVoteRequiresVoterKey(t *testing.T) {
	svc := newTestService(&fakeStore{})
	_, err := svc.ToggleVote(context.Background(), "ws1", "p1", "  ")
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("got %v, want 422", err)
	}
}

func TestListPostsAuthorFallback(t *testing.T) {
	fs := &fakeStore{
		listPostsFn: func(context.Context, string, store.ListFilter, int, int) ([]store.Post, int, error) {
			return []store.Post{
				{ID: "p1", Title: "No author"},
				{ID: "p2", Title: "Named", AuthorName: "Jo", AuthorAvatarURL: "https://example.com/jo.png"},
			}, 2, nil
		},
	}
	svc := newTestService(fs)
	result, err := svc.ListPosts(context.Background(), "ws1", filter.State{}, 1)
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if result.Posts[0].AuthorName != "Anonymous" {
		t.Fatalf("fallback name = %q", result.Posts[0].AuthorName)
	}
	if !strings.Contains(result.Posts[0].AuthorAvatarURL, "dicebear.com") {
		t.Fatalf("fallback avatar = %q", result.Posts[0].AuthorAvatarURL)
	}
	if result.Posts[1].AuthorName != "Jo" || !strings.Contains(result.Posts[1].AuthorAvatarURL, "jo.png") {
		t.Fatalf("named author mangled: %+v", result.Posts[1])
	}
}
