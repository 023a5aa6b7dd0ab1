package service

import (
	"context"
	"html"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/pkg/logger"
)

const membersIndex = "members"

// SearchService maintains the member directory index. Indexing is
// fire-and-forget: a search outage never blocks registration.
type SearchService interface {
	IndexUser(ctx context.Context, user *model.User)
	SearchMembers(ctx context.Context, query string, limit int64) ([]MemberHit, error)
}

type MemberHit struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url,omitempty"`
	Organization string `json:"organization,omitempty"`
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	s.initIndex()
	return s
}

func (s *searchService) initIndex() {
	sortable := []string{"name"}
	if _, err := s.client.Index(membersIndex).UpdateSortableAttributes(&sortable); err != nil {
		logger.Warn("failed to update members sortable attributes", "error", err)
	}
	searchable := []string{"name", "organization"}
	if _, err := s.client.Index(membersIndex).UpdateSearchableAttributes(&searchable); err != nil {
		logger.Warn("failed to update members searchable attributes", "error", err)
	}
}

// cleanTextForIndex strips markup from user-supplied text before it reaches
// the index.
func (s *searchService) cleanTextForIndex(text string) string {
	sanitized := s.sanitizer.Sanitize(text)
	cleanText := html.UnescapeString(sanitized)
	return strings.Join(strings.Fields(cleanText), " ")
}

func (s *searchService) IndexUser(ctx context.Context, user *model.User) {
	doc := MemberHit{
		ID:           user.ID.String(),
		Name:         s.cleanTextForIndex(user.Name),
		AvatarURL:    stringOrEmpty(user.AvatarURL),
		Organization: s.cleanTextForIndex(stringOrEmpty(user.Organization)),
	}
	primaryKey := "id"
	if _, err := s.client.Index(membersIndex).AddDocuments([]MemberHit{doc}, &primaryKey); err != nil {
		logger.Warn("failed to index member", "user_id", user.ID, "error", err)
	}
}

func (s *searchService) SearchMembers(ctx context.Context, query string, limit int64) ([]MemberHit, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	res, err := s.client.Index(membersIndex).Search(query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return nil, err
	}

	return decodeMemberHits(res.Hits), nil
}

func decodeMemberHits(raw meilisearch.Hits) []MemberHit {
	hits := make([]MemberHit, 0, len(raw))
	for _, h := range raw {
		var hit MemberHit
		if err := h.DecodeInto(&hit); err != nil {
			logger.Warn("failed to decode member hit", "error", err)
			continue
		}
		hits = append(hits, hit)
	}
	return hits
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
