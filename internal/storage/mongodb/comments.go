package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/memoriesapp/memories-service/internal/storage"
	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/memoriesapp/memories-service/internal/types/users"
)

type replyDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"userId"`
	From      string             `bson:"from"`
	ReplyAt   string             `bson:"replyAt"`
	Comment   string             `bson:"comment"`
	Likes     []string           `bson:"likes"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	PostID    primitive.ObjectID `bson:"postId"`
	UserID    primitive.ObjectID `bson:"userId"`
	From      string             `bson:"from"`
	Comment   string             `bson:"comment"`
	Likes     []string           `bson:"likes"`
	Replies   []replyDoc         `bson:"replies"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *replyDoc) toReply() types.Reply {
	likes := d.Likes
	if likes == nil {
		likes = []string{}
	}
	return types.Reply{
		ID:        d.ID.Hex(),
		UserID:    d.UserID.Hex(),
		From:      d.From,
		ReplyAt:   d.ReplyAt,
		Comment:   d.Comment,
		Likes:     likes,
		CreatedAt: d.CreatedAt,
	}
}

func (d *commentDoc) toComment() *types.Comment {
	likes := d.Likes
	if likes == nil {
		likes = []string{}
	}
	replies := make([]types.Reply, 0, len(d.Replies))
	for i := range d.Replies {
		replies = append(replies, d.Replies[i].toReply())
	}
	return &types.Comment{
		ID:        d.ID.Hex(),
		PostID:    d.PostID.Hex(),
		UserID:    d.UserID.Hex(),
		From:      d.From,
		Comment:   d.Comment,
		Likes:     likes,
		Replies:   replies,
		CreatedAt: d.CreatedAt,
	}
}

func (m *Mongo) CreateComment(ctx context.Context, c *types.Comment) (string, error) {
	pid, err := objectID(c.PostID)
	if err != nil {
		return "", err
	}
	uid, err := objectID(c.UserID)
	if err != nil {
		return "", err
	}

	res, err := m.comments.InsertOne(ctx, commentDoc{
		PostID:    pid,
		UserID:    uid,
		From:      c.From,
		Comment:   c.Comment,
		Likes:     []string{},
		Replies:   []replyDoc{},
		CreatedAt: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("inserting comment: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

func (m *Mongo) GetCommentByID(ctx context.Context, id string) (*types.Comment, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	var doc commentDoc
	if err := m.comments.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, mapNotFound(err)
	}
	return doc.toComment(), nil
}

// GetPostComments lists a post's comments newest first with commenter and
// replier profiles attached.
func (m *Mongo) GetPostComments(ctx context.Context, postID string) ([]*types.Comment, error) {
	pid, err := objectID(postID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cur, err := m.comments.Find(ctx, bson.M{"postId": pid}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding comments: %w", err)
	}
	defer cur.Close(ctx)

	var comments []*types.Comment
	for cur.Next(ctx) {
		var doc commentDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		comments = append(comments, doc.toComment())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	if err := m.attachCommentAuthors(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateCommentLikes rewrites the comment's likes list wholesale, same
// race window as post likes.
func (m *Mongo) UpdateCommentLikes(ctx context.Context, id string, likes []string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if likes == nil {
		likes = []string{}
	}

	res, err := m.comments.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"likes": likes}})
	if err != nil {
		return fmt.Errorf("updating comment likes: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) AddReply(ctx context.Context, commentID string, r types.Reply) error {
	cid, err := objectID(commentID)
	if err != nil {
		return err
	}
	uid, err := objectID(r.UserID)
	if err != nil {
		return err
	}

	doc := replyDoc{
		ID:        primitive.NewObjectID(),
		UserID:    uid,
		From:      r.From,
		ReplyAt:   r.ReplyAt,
		Comment:   r.Comment,
		Likes:     []string{},
		CreatedAt: time.Now(),
	}

	res, err := m.comments.UpdateByID(ctx, cid, bson.M{"$push": bson.M{"replies": doc}})
	if err != nil {
		return fmt.Errorf("appending reply: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) UpdateReplyLikes(ctx context.Context, commentID, replyID string, likes []string) error {
	cid, err := objectID(commentID)
	if err != nil {
		return err
	}
	rid, err := objectID(replyID)
	if err != nil {
		return err
	}
	if likes == nil {
		likes = []string{}
	}

	res, err := m.comments.UpdateOne(ctx,
		bson.M{"_id": cid, "replies._id": rid},
		bson.M{"$set": bson.M{"replies.$.likes": likes}},
	)
	if err != nil {
		return fmt.Errorf("updating reply likes: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (m *Mongo) attachCommentAuthors(ctx context.Context, comments []*types.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	var ids []string
	for _, c := range comments {
		ids = append(ids, c.UserID)
		for i := range c.Replies {
			ids = append(ids, c.Replies[i].UserID)
		}
	}

	profiles, err := m.GetUserProfiles(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[string]*users.PublicUser, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	for _, c := range comments {
		c.Author = byID[c.UserID]
		for i := range c.Replies {
			c.Replies[i].Author = byID[c.Replies[i].UserID]
		}
	}
	return nil
}
