// Package cache carries invalidation signals from writes to the layers that
// cache public pages.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	TagPostList = "blog:list"

	PathHome    = "/"
	PathBlog    = "/blog"
	PathBooks   = "/books"
	PathCourses = "/courses"
	PathMedia   = "/dashboard/media"
)

// Signal names the cached views a write made stale.
type Signal struct {
	Tags  []string `json:"tags"`
	Paths []string `json:"paths"`
}

// PostTag is the cache tag of one post's detail view.
func PostTag(id uuid.UUID) string {
	return "blog:post:" + id.String()
}

// PostPath is the public path of a post.
func PostPath(slug string) string {
	return PathBlog + "/" + slug
}

// ForPost builds the signal for a write to one post. Slugs that changed in the
// write should all be passed so the old path is dropped too.
func ForPost(id uuid.UUID, slugs ...string) Signal {
	s := Signal{Tags: []string{TagPostList}}
	if id != uuid.Nil {
		s.Tags = append(s.Tags, PostTag(id))
	}
	seen := map[string]bool{}
	for _, slug := range slugs {
		if slug == "" || seen[slug] {
			continue
		}
		seen[slug] = true
		s.Paths = append(s.Paths, PostPath(slug))
	}
	s.Paths = append(s.Paths, PathBlog)
	return s
}

// ForPaths builds a signal that only names paths.
func ForPaths(paths ...string) Signal {
	return Signal{Paths: paths}
}

// Invalidator receives signals. Invalidate must not block on slow downstreams
// and has no way to report failure.
type Invalidator interface {
	Invalidate(ctx context.Context, s Signal)
}

// Nop drops every signal.
type Nop struct{}

func (Nop) Invalidate(context.Context, Signal) {}

// Multi fans a signal out to several invalidators.
type Multi []Invalidator

func (m Multi) Invalidate(ctx context.Context, s Signal) {
	for _, inv := range m {
		inv.Invalidate(ctx, s)
	}
}

// Webhook posts signals to the public site's revalidation endpoint.
type Webhook struct {
	url     string
	secret  string
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewWebhook(url, secret string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{}
	}
	return &Webhook{
		url:     url,
		secret:  secret,
		client:  client,
		timeout: 5 * time.Second,
		logger:  log.With().Str("service", "revalidateWebhook").Logger(),
	}
}

type webhookPayload struct {
	Secret string   `json:"secret"`
	Tags   []string `json:"tags"`
	Paths  []string `json:"paths"`
}

// Invalidate sends the signal on a background goroutine detached from the
// request context.
func (w *Webhook) Invalidate(ctx context.Context, s Signal) {
	go w.send(context.WithoutCancel(ctx), s)
}

func (w *Webhook) send(ctx context.Context, s Signal) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{Secret: w.secret, Tags: s.Tags, Paths: s.Paths})
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to encode revalidation payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error().Err(err).Str("url", w.url).Msg("Failed to build revalidation request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn().Err(err).Strs("tags", s.Tags).Strs("paths", s.Paths).Msg("Revalidation request failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Warn().Int("status", resp.StatusCode).Strs("paths", s.Paths).Msg("Revalidation rejected")
		return
	}
	w.logger.Debug().Strs("tags", s.Tags).Strs("paths", s.Paths).Msg("Revalidated")
}
