package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

type postDoc struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	UserID      primitive.ObjectID   `bson:"userId"`
	Description string               `bson:"description"`
	Image       string               `bson:"image,omitempty"`
	Likes       []string             `bson:"likes"`
	Comments    []primitive.ObjectID `bson:"comments"`
	CreatedAt   time.Time            `bson:"createdAt"`
}

func (d *postDoc) toPost() *types.Post {
	likes := d.Likes
	if likes == nil {
		likes = []string{}
	}
	return &types.Post{
		ID:          d.ID.Hex(),
		UserID:      d.UserID.Hex(),
		Description: d.Description,
		Image:       d.Image,
		Likes:       likes,
		Comments:    hexIDs(d.Comments),
		CreatedAt:   d.CreatedAt,
	}
}

func (m *Mongo) CreatePost(ctx context.Context, p *types.Post) (string, error) {
	uid, err := objectID(p.UserID)
	if err != nil {
		return "", err
	}

	res, err := m.posts.InsertOne(ctx, postDoc{
		UserID:      uid,
		Description: p.Description,
		Image:       p.Image,
		Likes:       []string{},
		Comments:    []primitive.ObjectID{},
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("inserting post: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// GetPosts returns all posts newest first, optionally filtered by a
// case-insensitive substring match on the description, with each author's
// public profile attached.
func (m *Mongo) GetPosts(ctx context.Context, search string) ([]*types.Post, error) {
	filter := bson.M{}
	if search != "" {
		filter["description"] = bson.M{
			"$regex":   regexp.QuoteMeta(search),
			"$options": "i",
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := m.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []*types.Post
	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		posts = append(posts, doc.toPost())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	if err := m.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (m *Mongo) GetPostByID(ctx context.Context, id string) (*types.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc postDoc
	if err := m.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNotFound(err)
	}

	post := doc.toPost()
	if err := m.attachAuthors(ctx, []*types.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

func (m *Mongo) GetUserPosts(ctx context.Context, userID string) ([]*types.Post, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := m.posts.Find(ctx, bson.M{"userId": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding user posts: %w", err)
	}
	defer cur.Close(ctx)

	var posts []*types.Post
	for cur.Next(ctx) {
		var doc postDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		posts = append(posts, doc.toPost())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	if err := m.attachAuthors(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (m *Mongo) DeletePost(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := m.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdatePostLikes rewrites the post's likes list wholesale. Concurrent
// togglers race last-writer-wins; see the like-toggle contract.
func (m *Mongo) UpdatePostLikes(ctx context.Context, id string, likes []string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if likes == nil {
		likes = []string{}
	}

	res, err := m.posts.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"likes": likes}})
	if err != nil {
		return fmt.Errorf("updating post likes: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) AddPostComment(ctx context.Context, postID, commentID string) error {
	pid, err := objectID(postID)
	if err != nil {
		return err
	}
	cid, err := objectID(commentID)
	if err != nil {
		return err
	}

	res, err := m.posts.UpdateByID(ctx, pid, bson.M{"$push": bson.M{"comments": cid}})
	if err != nil {
		return fmt.Errorf("appending comment id: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) attachAuthors(ctx context.Context, posts []*types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.UserID)
	}

	profiles, err := m.GetUserProfiles(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*users.PublicUser, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	for _, p := range posts {
		p.Author = byID[p.UserID]
	}
	return nil
}
