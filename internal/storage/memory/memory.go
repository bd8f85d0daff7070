// Package memory holds a map-backed Storage used by tests. Behavior mirrors
// the mongodb implementation: newest-first listings, wholesale likes
// rewrites, denied requests excluded from duplicate detection.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

type Memory struct {
	mu sync.Mutex

	seq            int
	users          map[string]*users.User
	posts          map[string]*types.Post
	comments       map[string]*types.Comment
	friendRequests map[string]*types.FriendRequest
	verifications  map[string]*types.TokenRecord
	passwordResets map[string]*types.TokenRecord
}

var _ storage.Storage = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		users:          make(map[string]*users.User),
		posts:          make(map[string]*types.Post),
		comments:       make(map[string]*types.Comment),
		friendRequests: make(map[string]*types.FriendRequest),
		verifications:  make(map[string]*types.TokenRecord),
		passwordResets: make(map[string]*types.TokenRecord),
	}
}

// nextID issues monotonically increasing ids so insertion order doubles as
// chronological order, like ObjectIDs do.
func (m *Memory) nextID() string {
	m.seq++
	return strconv.Itoa(m.seq)
}

func cloneUser(u *users.User) *users.User {
	copied := *u
	copied.Friends = append([]string(nil), u.Friends...)
	copied.Views = append([]string(nil), u.Views...)
	return &copied
}

func clonePost(p *types.Post) *types.Post {
	copied := *p
	copied.Likes = append([]string{}, p.Likes...)
	copied.Comments = append([]string(nil), p.Comments...)
	return &copied
}

func cloneComment(c *types.Comment) *types.Comment {
	copied := *c
	copied.Likes = append([]string{}, c.Likes...)
	copied.Replies = make([]types.Reply, len(c.Replies))
	for i, r := range c.Replies {
		copied.Replies[i] = r
		copied.Replies[i].Likes = append([]string{}, r.Likes...)
	}
	return &copied
}

func (m *Memory) CreateUser(_ context.Context, u *users.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == u.Email {
			return "", storage.ErrDuplicateEmail
		}
	}

	copied := cloneUser(u)
	copied.ID = m.nextID()
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	m.users[copied.ID] = copied
	return copied.ID, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) GetUserProfiles(_ context.Context, ids []string) ([]*users.PublicUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*users.PublicUser{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u.Public())
		}
	}
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, id string, upd users.UpdateProfileRequest) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u.FirstName = upd.FirstName
	u.LastName = upd.LastName
	u.Location = upd.Location
	u.ProfileURL = upd.ProfileURL
	u.Profession = upd.Profession
	u.UpdatedAt = time.Now()
	return cloneUser(u), nil
}

func (m *Memory) UpdateUserPassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Password = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) MarkUserVerified(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.Verified = true
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *Memory) AddFriend(_ context.Context, userID, friendID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return storage.ErrNotFound
	}
	for _, f := range u.Friends {
		if f == friendID {
			return nil
		}
	}
	u.Friends = append(u.Friends, friendID)
	return nil
}

func (m *Memory) AddProfileView(_ context.Context, targetID, viewerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[targetID]
	if !ok {
		return storage.ErrNotFound
	}
	u.Views = append(u.Views, viewerID)
	return nil
}

func (m *Memory) SuggestFriends(_ context.Context, userID string, limit int64) ([]*users.PublicUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	self, ok := m.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	friends := make(map[string]struct{}, len(self.Friends))
	for _, f := range self.Friends {
		friends[f] = struct{}{}
	}

	ids := make([]string, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })

	out := []*users.PublicUser{}
	for _, id := range ids {
		if int64(len(out)) >= limit {
			break
		}
		if id == userID {
			continue
		}
		if _, isFriend := friends[id]; isFriend {
			continue
		}
		out = append(out, m.users[id].Public())
	}
	return out, nil
}

func (m *Memory) CreateFriendRequest(_ context.Context, from, to string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := &types.FriendRequest{
		ID:          m.nextID(),
		RequestFrom: from,
		RequestTo:   to,
		Status:      types.RequestPending,
		CreatedAt:   time.Now(),
	}
	m.friendRequests[req.ID] = req
	return req.ID, nil
}

func (m *Memory) GetFriendRequestBetween(_ context.Context, from, to string) (*types.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, req := range m.friendRequests {
		if req.RequestFrom == from && req.RequestTo == to && req.Status != types.RequestDenied {
			copied := *req
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) GetFriendRequestByID(_ context.Context, id string) (*types.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.friendRequests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *Memory) UpdateFriendRequestStatus(_ context.Context, id string, status types.FriendRequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.friendRequests[id]
	if !ok {
		return storage.ErrNotFound
	}
	req.Status = status
	return nil
}

func (m *Memory) ListPendingRequests(_ context.Context, userID string, limit int64) ([]*types.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.FriendRequest
	for _, req := range m.friendRequests {
		if req.RequestTo == userID && req.Status == types.RequestPending {
			copied := *req
			if from, ok := m.users[req.RequestFrom]; ok {
				copied.From = from.Public()
			}
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[j].ID, out[i].ID) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) CreateVerification(_ context.Context, rec *types.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *rec
	m.verifications[rec.UserID] = &copied
	return nil
}

func (m *Memory) GetVerification(_ context.Context, userID string) (*types.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.verifications[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *Memory) DeleteVerification(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.verifications[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.verifications, userID)
	return nil
}

func (m *Memory) CreatePasswordReset(_ context.Context, rec *types.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *rec
	m.passwordResets[rec.UserID] = &copied
	return nil
}

func (m *Memory) GetPasswordResetByUserID(_ context.Context, userID string) (*types.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.passwordResets[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *Memory) GetPasswordResetByEmail(_ context.Context, email string) (*types.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rec := range m.passwordResets {
		if rec.Email == email {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *Memory) DeletePasswordReset(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.passwordResets[userID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.passwordResets, userID)
	return nil
}

func (m *Memory) ListExpiredVerifications(_ context.Context, now time.Time) ([]*types.TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.TokenRecord
	for _, rec := range m.verifications {
		if rec.Expired(now) {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *Memory) DeleteExpiredResets(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for userID, rec := range m.passwordResets {
		if rec.Expired(now) {
			delete(m.passwordResets, userID)
			count++
		}
	}
	return count, nil
}

func (m *Memory) CreatePost(_ context.Context, p *types.Post) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := clonePost(p)
	copied.ID = m.nextID()
	copied.CreatedAt = time.Now()
	if copied.Likes == nil {
		copied.Likes = []string{}
	}
	m.posts[copied.ID] = copied
	return copied.ID, nil
}

func (m *Memory) GetPosts(_ context.Context, search string) ([]*types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.Post
	for _, p := range m.posts {
		if search != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(search)) {
			continue
		}
		copied := clonePost(p)
		if owner, ok := m.users[p.UserID]; ok {
			copied.Author = owner.Public()
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[j].ID, out[i].ID) })
	return out, nil
}

func (m *Memory) GetPostByID(_ context.Context, id string) (*types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := clonePost(p)
	if owner, ok := m.users[p.UserID]; ok {
		copied.Author = owner.Public()
	}
	return copied, nil
}

func (m *Memory) GetUserPosts(_ context.Context, userID string) ([]*types.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.Post
	for _, p := range m.posts {
		if p.UserID != userID {
			continue
		}
		copied := clonePost(p)
		if owner, ok := m.users[p.UserID]; ok {
			copied.Author = owner.Public()
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[j].ID, out[i].ID) })
	return out, nil
}

func (m *Memory) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.posts, id)
	return nil
}

func (m *Memory) UpdatePostLikes(_ context.Context, id string, likes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Likes = append([]string{}, likes...)
	return nil
}

func (m *Memory) AddPostComment(_ context.Context, postID, commentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	p.Comments = append(p.Comments, commentID)
	return nil
}

func (m *Memory) CreateComment(_ context.Context, c *types.Comment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := cloneComment(c)
	copied.ID = m.nextID()
	copied.CreatedAt = time.Now()
	if copied.Likes == nil {
		copied.Likes = []string{}
	}
	if copied.Replies == nil {
		copied.Replies = []types.Reply{}
	}
	m.comments[copied.ID] = copied
	return copied.ID, nil
}

func (m *Memory) GetCommentByID(_ context.Context, id string) (*types.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneComment(c), nil
}

func (m *Memory) GetPostComments(_ context.Context, postID string) ([]*types.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.Comment
	for _, c := range m.comments {
		if c.PostID != postID {
			continue
		}
		copied := cloneComment(c)
		if author, ok := m.users[c.UserID]; ok {
			copied.Author = author.Public()
		}
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return lessID(out[j].ID, out[i].ID) })
	return out, nil
}

func (m *Memory) UpdateCommentLikes(_ context.Context, id string, likes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.Likes = append([]string{}, likes...)
	return nil
}

func (m *Memory) AddReply(_ context.Context, commentID string, r types.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[commentID]
	if !ok {
		return storage.ErrNotFound
	}
	r.ID = m.nextID()
	r.CreatedAt = time.Now()
	if r.Likes == nil {
		r.Likes = []string{}
	}
	c.Replies = append(c.Replies, r)
	return nil
}

func (m *Memory) UpdateReplyLikes(_ context.Context, commentID, replyID string, likes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.comments[commentID]
	if !ok {
		return storage.ErrNotFound
	}
	for i := range c.Replies {
		if c.Replies[i].ID == replyID {
			c.Replies[i].Likes = append([]string{}, likes...)
			return nil
		}
	}
	return storage.ErrNotFound
}

// lessID orders numeric string ids; issued ids are always numeric.
func lessID(a, b string) bool {
	ai, _ := strconv.Atoi(a)
	bi, _ := strconv.Atoi(b)
	return ai < bi
}
