package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memoriesapp/memories-service/internal/cache"
	"github.com/memoriesapp/memories-service/internal/http/middleware"
	"github.com/memoriesapp/memories-service/internal/storage/memory"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
	"github.com/memoriesapp/memories-service/internal/utils/jwt"
	"github.com/memoriesapp/memories-service/internal/utils/response"
)

const testSecret = "test-secret"

type recordingPublisher struct {
	likedPosts     []string
	commentedPosts []string
}

func (p *recordingPublisher) PublishFriendRequested(requestID, fromID, toID string) error {
	return nil
}

func (p *recordingPublisher) PublishFriendAccepted(requestID, acceptedBy, requesterID string) error {
	return nil
}

func (p *recordingPublisher) PublishPostLiked(postID, likedBy, authorID string) error {
	p.likedPosts = append(p.likedPosts, postID)
	return nil
}

func (p *recordingPublisher) PublishPostCommented(postID, commentID, commentedBy, authorID string) error {
	p.commentedPosts = append(p.commentedPosts, postID)
	return nil
}

type testEnv struct {
	store     *memory.Memory
	publisher *recordingPublisher
	mux       *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	store := memory.New()
	publisher := &recordingPublisher{}
	friendCache := cache.NewFriendCache(store, redisClient)
	authRequired := middleware.AuthMiddleware(testSecret)

	mux := http.NewServeMux()
	mux.Handle("POST /posts", authRequired(Create(store)))
	mux.Handle("GET /posts", authRequired(Feed(store, friendCache)))
	mux.Handle("GET /posts/{id}", authRequired(GetPost(store)))
	mux.Handle("DELETE /posts/{id}", authRequired(Delete(store)))
	mux.Handle("GET /posts/get-user-post/{id}", authRequired(UserPosts(store)))
	mux.Handle("POST /posts/like/{id}", authRequired(LikePost(store, publisher)))
	mux.Handle("POST /posts/comment/{id}", authRequired(Comment(store, publisher)))
	mux.Handle("GET /posts/comments/{id}", authRequired(GetComments(store)))
	mux.Handle("POST /posts/like-comment/{id}", authRequired(LikeComment(store)))
	mux.Handle("POST /posts/like-comment/{id}/{rid}", authRequired(LikeReply(store)))
	mux.Handle("POST /posts/reply/{id}", authRequired(Reply(store)))

	return &testEnv{store: store, publisher: publisher, mux: mux}
}

func (e *testEnv) addUser(t *testing.T, firstName, email string) string {
	t.Helper()

	id, err := e.store.CreateUser(context.Background(), &users.User{
		FirstName: firstName,
		LastName:  "Tester",
		Email:     email,
		Verified:  true,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) addPost(t *testing.T, userID, description string) string {
	t.Helper()

	id, err := e.store.CreatePost(context.Background(), &types.Post{
		UserID:      userID,
		Description: description,
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) do(t *testing.T, asUserID, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	sessionToken, err := jwt.CreateToken(asUserID, testSecret)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+sessionToken)

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func feedIDs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	items, ok := resp.Data.([]interface{})
	require.True(t, ok, "expected list data, got %v", resp.Data)

	ids := make([]string, 0, len(items))
	for _, item := range items {
		post, ok := item.(map[string]interface{})
		require.True(t, ok)
		ids = append(ids, post["id"].(string))
	}
	return ids
}

func TestCreateAndFetchPost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")

	rec := env.do(t, alice, http.MethodPost, "/posts", `{"description":"Sunset at the beach"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	postID := created["id"]
	require.NotEmpty(t, postID)

	rec = env.do(t, alice, http.MethodGet, "/posts/"+postID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sunset at the beach")

	// author profile is attached
	assert.Contains(t, rec.Body.String(), `"firstName":"Alice"`)

	rec = env.do(t, alice, http.MethodPost, "/posts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, alice, http.MethodPost, "/posts", `{"image":"x.jpg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedRanksFriendsFirst(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")
	bob := env.addUser(t, "Bob", "bob@example.com")
	carol := env.addUser(t, "Carol", "carol@example.com")

	require.NoError(t, env.store.AddFriend(context.Background(), alice, bob))

	carolPost := env.addPost(t, carol, "hiking in the alps")
	bobPost := env.addPost(t, bob, "city lights")
	alicePost := env.addPost(t, alice, "my morning coffee")

	rec := env.do(t, alice, http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// friend-circle posts first, newest first within each partition
	assert.Equal(t, []string{alicePost, bobPost, carolPost}, feedIDs(t, rec))
}

func TestFeedSearchSuppressesStrangersOnFriendMatch(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")
	bob := env.addUser(t, "Bob", "bob@example.com")
	carol := env.addUser(t, "Carol", "carol@example.com")

	require.NoError(t, env.store.AddFriend(context.Background(), alice, bob))

	env.addPost(t, carol, "sunset at the pier")
	bobPost := env.addPost(t, bob, "sunset from my window")

	rec := env.do(t, alice, http.MethodGet, "/posts?search=sunset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{bobPost}, feedIDs(t, rec))

	// without a friend match the search returns everything
	rec = env.do(t, alice, http.MethodGet, "/posts?search=pier", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, feedIDs(t, rec), 1)
}

func TestLikeToggle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")
	bob := env.addUser(t, "Bob", "bob@example.com")
	postID := env.addPost(t, bob, "city lights")

	rec := env.do(t, alice, http.MethodPost, "/posts/like/"+postID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	post, err := env.store.GetPostByID(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, post.Likes)
	assert.Equal(t, []string{postID}, env.publisher.likedPosts)

	// second toggle removes the like and publishes nothing new
	rec = env.do(t, alice, http.MethodPost, "/posts/like/"+postID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	post, err = env.store.GetPostByID(context.Background(), postID)
	require.NoError(t, err)
	assert.Empty(t, post.Likes)
	assert.Equal(t, []string{postID}, env.publisher.likedPosts)

	rec = env.do(t, alice, http.MethodPost, "/posts/like/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentAndReplyFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")
	bob := env.addUser(t, "Bob", "bob@example.com")
	postID := env.addPost(t, bob, "city lights")

	rec := env.do(t, alice, http.MethodPost, "/posts/comment/"+postID,
		`{"comment":"Beautiful shot!","from":"Alice Tester"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	commentID := created["id"]
	require.NotEmpty(t, commentID)
	assert.Equal(t, []string{postID}, env.publisher.commentedPosts)

	// the comment id lands on the post document
	post, err := env.store.GetPostByID(context.Background(), postID)
	require.NoError(t, err)
	assert.Equal(t, []string{commentID}, post.Comments)

	rec = env.do(t, bob, http.MethodPost, "/posts/reply/"+commentID,
		`{"comment":"Thanks!","from":"Bob Tester","replyAt":"Alice Tester"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, alice, http.MethodGet, "/posts/comments/"+postID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Beautiful shot!")
	assert.Contains(t, rec.Body.String(), "Thanks!")

	// like the comment, then its reply
	rec = env.do(t, bob, http.MethodPost, "/posts/like-comment/"+commentID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	comment, err := env.store.GetCommentByID(context.Background(), commentID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob}, comment.Likes)
	require.Len(t, comment.Replies, 1)

	replyID := comment.Replies[0].ID
	rec = env.do(t, alice, http.MethodPost, "/posts/like-comment/"+commentID+"/"+replyID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	comment, err = env.store.GetCommentByID(context.Background(), commentID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, comment.Replies[0].Likes)

	rec = env.do(t, alice, http.MethodPost, "/posts/like-comment/"+commentID+"/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePostOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")
	bob := env.addUser(t, "Bob", "bob@example.com")
	postID := env.addPost(t, bob, "city lights")

	rec := env.do(t, alice, http.MethodDelete, "/posts/"+postID, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, bob, http.MethodDelete, "/posts/"+postID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, bob, http.MethodGet, "/posts/"+postID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserPosts(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "Alice", "alice@example.com")
	bob := env.addUser(t, "Bob", "bob@example.com")

	first := env.addPost(t, alice, "first")
	second := env.addPost(t, alice, "second")
	env.addPost(t, bob, "not mine")

	rec := env.do(t, bob, http.MethodGet, "/posts/get-user-post/"+alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{second, first}, feedIDs(t, rec))
}
