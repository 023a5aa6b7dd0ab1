package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/romes311/tourismiq/internal/repository"
	"github.com/romes311/tourismiq/pkg/apperror"
	"github.com/romes311/tourismiq/pkg/logger"
	"gorm.io/gorm"
)

type UpvoteService interface {
	// SetUpvote is the idempotent "ensure present/absent" toggle. It returns
	// the authoritative counter value, which the client reconciles against.
	SetUpvote(ctx context.Context, postID, userID uuid.UUID, desired bool) (int64, error)
	GetCount(ctx context.Context, postID uuid.UUID) (int64, error)
}

// countCache is the slice of redis the counter cache needs.
type countCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type upvoteService struct {
	repo     repository.UpvoteRepository
	postRepo repository.PostRepository
	cache    countCache
}

func NewUpvoteService(repo repository.UpvoteRepository, postRepo repository.PostRepository, redisClient *redis.Client) UpvoteService {
	s := &upvoteService{
		repo:     repo,
		postRepo: postRepo,
	}
	if redisClient != nil {
		s.cache = redisClient
	}
	return s
}

const upvoteCacheTTL = 7 * 24 * time.Hour

func upvoteCountKey(postID uuid.UUID) string {
	return fmt.Sprintf("upvote_count:%s", postID.String())
}

func (s *upvoteService) SetUpvote(ctx context.Context, postID, userID uuid.UUID, desired bool) (int64, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: post not found", apperror.ErrNotFound)
		}
		return 0, err
	}

	count, err := s.repo.SetUpvote(ctx, postID, userID, desired)
	if err != nil {
		return 0, err
	}

	// Invalidate rather than write: concurrent commits could land their
	// counts in the cache out of commit order, while a delete converges on
	// the next read. Best-effort; the DB value just returned is
	// authoritative either way.
	if s.cache != nil {
		if err := s.cache.Del(ctx, upvoteCountKey(postID)).Err(); err != nil {
			logger.Warn("upvote cache invalidation failed", "post_id", postID, "error", err)
		}
	}

	return count, nil
}

func (s *upvoteService) GetCount(ctx context.Context, postID uuid.UUID) (int64, error) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, upvoteCountKey(postID)).Result()
		if err == nil {
			if count, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	// Cache miss: recount membership rows and repopulate.
	count, err := s.repo.CountMembers(ctx, postID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, upvoteCountKey(postID), count, upvoteCacheTTL).Err()
	}
	return count, nil
}
