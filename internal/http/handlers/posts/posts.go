// Package posts exposes the post, comment and like surface, including the
// friend-ranked feed.
package posts

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/memoriesapp/memories-service/internal/cache"
	"github.com/memoriesapp/memories-service/internal/events"
	"github.com/memoriesapp/memories-service/internal/http/middleware"
	"github.com/memoriesapp/memories-service/internal/social"
	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/utils/response"
)

// Create handles creating a new post
// @Summary Create a new post
// @Tags posts
// @Accept json
// @Produce json
// @Param post body types.CreatePostRequest true "Post content"
// @Success 201 {object} map[string]string "Post created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /posts [post]
func Create(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		var req types.CreatePostRequest

		err := json.NewDecoder(r.Body).Decode(&req)
		if errors.Is(err, io.EOF) {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("request body cannot be empty")))
			return
		} else if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		postID, err := st.CreatePost(r.Context(), &types.Post{
			UserID:      userID,
			Description: req.Description,
			Image:       req.Image,
		})
		if err != nil {
			response.WriteError(w, err)
			return
		}
		slog.Info("Post created", slog.String("post_id", postID), slog.String("user_id", userID))

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": postID})
	}
}

// Feed handles the ranked posts feed
// @Summary Get the posts feed
// @Description Posts by the viewer and their friends rank first; an optional search narrows by description
// @Tags posts
// @Produce json
// @Param search query string false "Search term"
// @Success 200 {array} types.Post "Feed fetched successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /posts [get]
func Feed(st storage.Storage, friendCache *cache.FriendCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		search := r.URL.Query().Get("search")

		posts, err := st.GetPosts(r.Context(), search)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		friends, err := friendCache.FriendIDs(r.Context(), userID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		ranked := social.RankFeed(userID, friends, posts, search != "")

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Posts fetched successfully", ranked))
	}
}

// GetPost fetches a single post
// @Summary Get a post by id
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} types.Post "Post fetched successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/{id} [get]
func GetPost(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		if postID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post ID is required")))
			return
		}

		post, err := st.GetPostByID(r.Context(), postID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post fetched successfully", post))
	}
}

// UserPosts lists a user's posts, newest first
// @Summary Get all posts by a user
// @Tags posts
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} types.Post "Posts fetched successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /posts/get-user-post/{id} [get]
func UserPosts(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		targetID := r.PathValue("id")
		if targetID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("user ID is required")))
			return
		}

		posts, err := st.GetUserPosts(r.Context(), targetID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Posts fetched successfully", posts))
	}
}

// Delete removes a post owned by the authenticated user
// @Summary Delete a post
// @Tags posts
// @Param id path string true "Post ID"
// @Success 200 {object} response.Response "Post deleted successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not the post owner"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/{id} [delete]
func Delete(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		if postID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post ID is required")))
			return
		}

		post, err := st.GetPostByID(r.Context(), postID)
		if err != nil {
			response.WriteError(w, err)
			return
		}
		if post.UserID != userID {
			response.WriteJSON(w, http.StatusForbidden, response.GeneralError(errors.New("only the owner can delete a post")))
			return
		}

		if err := st.DeletePost(r.Context(), postID); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Post deleted successfully", nil))
	}
}

// LikePost toggles the user's like on a post
// @Summary Like or unlike a post
// @Description Toggle the authenticated user's like; liking again removes it
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} types.Post "Like toggled successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/like/{id} [post]
func LikePost(st storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		if postID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post ID is required")))
			return
		}

		post, err := st.GetPostByID(r.Context(), postID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		likes := social.ToggleLike(post.Likes, userID)
		if err := st.UpdatePostLikes(r.Context(), postID, likes); err != nil {
			response.WriteError(w, err)
			return
		}

		if slices.Contains(likes, userID) {
			if err := publisher.PublishPostLiked(postID, userID, post.UserID); err != nil {
				slog.Error("Failed to publish post liked event", slog.String("error", err.Error()))
			}
		}

		post.Likes = likes
		response.WriteJSON(w, http.StatusOK, response.RequestOK("Like toggled successfully", post))
	}
}

// Comment adds a comment to a post
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param comment body types.CommentRequest true "Comment content"
// @Success 201 {object} map[string]string "Comment created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Post not found"
// @Security BearerAuth
// @Router /posts/comment/{id} [post]
func Comment(st storage.Storage, publisher events.Publisher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		if postID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post ID is required")))
			return
		}

		var req types.CommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		post, err := st.GetPostByID(r.Context(), postID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		commentID, err := st.CreateComment(r.Context(), &types.Comment{
			PostID:  postID,
			UserID:  userID,
			From:    req.From,
			Comment: req.Comment,
		})
		if err != nil {
			response.WriteError(w, err)
			return
		}

		if err := st.AddPostComment(r.Context(), postID, commentID); err != nil {
			response.WriteError(w, err)
			return
		}

		if err := publisher.PublishPostCommented(postID, commentID, userID, post.UserID); err != nil {
			slog.Error("Failed to publish post commented event", slog.String("error", err.Error()))
		}

		response.WriteJSON(w, http.StatusCreated, map[string]string{"id": commentID})
	}
}

// GetComments lists a post's comments with replies
// @Summary Get a post's comments
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {array} types.Comment "Comments fetched successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Security BearerAuth
// @Router /posts/comments/{id} [get]
func GetComments(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		postID := r.PathValue("id")
		if postID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("post ID is required")))
			return
		}

		comments, err := st.GetPostComments(r.Context(), postID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Comments fetched successfully", comments))
	}
}

// LikeComment toggles the user's like on a comment
// @Summary Like or unlike a comment
// @Tags posts
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} response.Response "Like toggled successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /posts/like-comment/{id} [post]
func LikeComment(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		commentID := r.PathValue("id")
		if commentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("comment ID is required")))
			return
		}

		comment, err := st.GetCommentByID(r.Context(), commentID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		likes := social.ToggleLike(comment.Likes, userID)
		if err := st.UpdateCommentLikes(r.Context(), commentID, likes); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Like toggled successfully", nil))
	}
}

// LikeReply toggles the user's like on a reply within a comment
// @Summary Like or unlike a reply
// @Tags posts
// @Produce json
// @Param id path string true "Comment ID"
// @Param rid path string true "Reply ID"
// @Success 200 {object} response.Response "Like toggled successfully"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Comment or reply not found"
// @Security BearerAuth
// @Router /posts/like-comment/{id}/{rid} [post]
func LikeReply(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		commentID := r.PathValue("id")
		replyID := r.PathValue("rid")
		if commentID == "" || replyID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("comment ID and reply ID are required")))
			return
		}

		comment, err := st.GetCommentByID(r.Context(), commentID)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		var reply *types.Reply
		for i := range comment.Replies {
			if comment.Replies[i].ID == replyID {
				reply = &comment.Replies[i]
				break
			}
		}
		if reply == nil {
			response.WriteError(w, storage.ErrNotFound)
			return
		}

		likes := social.ToggleLike(reply.Likes, userID)
		if err := st.UpdateReplyLikes(r.Context(), commentID, replyID, likes); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Like toggled successfully", nil))
	}
}

// Reply adds a reply to a comment
// @Summary Reply to a comment
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Comment ID"
// @Param reply body types.ReplyRequest true "Reply content"
// @Success 201 {object} response.Response "Reply created successfully"
// @Failure 400 {object} response.Response "Bad request"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 404 {object} response.Response "Comment not found"
// @Security BearerAuth
// @Router /posts/reply/{id} [post]
func Reply(st storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(errors.New("user not authenticated")))
			return
		}

		commentID := r.PathValue("id")
		if commentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("comment ID is required")))
			return
		}

		var req types.ReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		// Validate request
		validate := validator.New()
		if err := validate.Struct(req); err != nil {
			if ve, ok := err.(validator.ValidationErrors); ok {
				response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if err := st.AddReply(r.Context(), commentID, types.Reply{
			UserID:  userID,
			From:    req.From,
			ReplyAt: req.ReplyAt,
			Comment: req.Comment,
		}); err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("Reply created successfully", nil))
	}
}
