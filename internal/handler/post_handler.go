package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/dto"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/internal/repository"
	"github.com/romes311/tourismiq/internal/service"
	"github.com/romes311/tourismiq/pkg/apperror"
	"github.com/romes311/tourismiq/pkg/response"
	"github.com/romes311/tourismiq/pkg/validator"
	"gorm.io/gorm"
)

type PostHandler struct {
	posts   repository.PostRepository
	upvotes service.UpvoteService
}

func NewPostHandler(posts repository.PostRepository, upvotes service.UpvoteService) *PostHandler {
	return &PostHandler{posts: posts, upvotes: upvotes}
}

func (h *PostHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	post := &model.Post{
		UserID: userID,
		Title:  req.Title,
		Body:   req.Body,
	}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": post})
}

func (h *PostHandler) Get(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest)
		return
	}

	post, err := h.posts.FindByID(c.Request.Context(), postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, apperror.ErrNotFound)
			return
		}
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": post})
}

// SetUpvote toggles membership to the desired state and returns the
// authoritative count for the client to reconcile against.
func (h *PostHandler) SetUpvote(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		response.Error(c, apperror.ErrInvalidRequest)
		return
	}

	var req dto.SetUpvoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	count, err := h.upvotes.SetUpvote(c.Request.Context(), postID, userID, *req.Desired)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
