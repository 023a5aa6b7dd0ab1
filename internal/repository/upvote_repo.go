package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpvoteRepository interface {
	// SetUpvote makes "user counts toward post" match desired and returns the
	// resulting counter value. Membership row and denormalized counter move
	// together in one transaction; repeated calls with the same desired value
	// are no-ops.
	SetUpvote(ctx context.Context, postID, userID uuid.UUID, desired bool) (int64, error)
	CountMembers(ctx context.Context, postID uuid.UUID) (int64, error)
}

type upvoteRepository struct {
	db *gorm.DB
}

func NewUpvoteRepository(db *gorm.DB) UpvoteRepository {
	return &upvoteRepository{db: db}
}

func (r *upvoteRepository) SetUpvote(ctx context.Context, postID, userID uuid.UUID, desired bool) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var changed int64

		if desired {
			// The unique index on (post_id, user_id) makes concurrent inserts
			// for the same pair collapse to one; only the row that actually
			// landed moves the counter.
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.Upvote{PostID: postID, UserID: userID})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected
			if changed > 0 {
				if err := tx.Model(&model.Post{}).
					Where("id = ?", postID).
					UpdateColumn("upvote_count", gorm.Expr("upvote_count + 1")).Error; err != nil {
					return err
				}
			}
		} else {
			res := tx.Where("post_id = ? AND user_id = ?", postID, userID).
				Delete(&model.Upvote{})
			if res.Error != nil {
				return res.Error
			}
			changed = res.RowsAffected
			if changed > 0 {
				if err := tx.Model(&model.Post{}).
					Where("id = ?", postID).
					UpdateColumn("upvote_count", gorm.Expr("upvote_count - 1")).Error; err != nil {
					return err
				}
			}
		}

		var post model.Post
		if err := tx.Select("upvote_count").First(&post, "id = ?", postID).Error; err != nil {
			return err
		}
		count = post.UpvoteCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountMembers recounts live membership rows; used to verify the
// denormalized counter.
func (r *upvoteRepository) CountMembers(ctx context.Context, postID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Upvote{}).
		Where("post_id = ?", postID).
		Count(&count).Error
	return count, err
}
