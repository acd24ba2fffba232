package store

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Workspace struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Board struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"-"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PostCount   int       `json:"postCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Post struct {
	ID              string    `json:"id"`
	WorkspaceID     string    `json:"-"`
	BoardID         string    `json:"-"`
	BoardSlug       string    `json:"boardSlug"`
	Slug            string    `json:"slug"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Status          string    `json:"status"`
	Upvotes         int       `json:"upvotes"`
	AuthorName      string    `json:"authorName"`
	AuthorEmail     string    `json:"-"`
	AuthorAvatarURL string    `json:"authorAvatarUrl"`
	TagSlugs        []string  `json:"tags"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// PostRef is the projection the navigation resolver and list pages share:
// enough to identify, order, and link a post without carrying its body.
type PostRef struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Upvotes   int       `json:"upvotes"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListFilter mirrors the URL filter state as the store consumes it. Empty
// slices and empty strings mean the dimension is not applied. System
// boards (roadmap, changelog) are always excluded regardless of
// BoardSlugs.
type ListFilter struct {
	Statuses   []string
	BoardSlugs []string
	TagSlugs   []string
	Search     string
	Order      string
}

type Tag struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"-"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	PostCount   int    `json:"postCount"`
}

type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ChangelogEntry struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"-"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	PublishedAt time.Time `json:"publishedAt"`
}

type Member struct {
	UserID      string    `json:"userId"`
	WorkspaceID string    `json:"-"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}
