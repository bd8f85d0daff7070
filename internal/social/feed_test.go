package social

import (
	"testing"

	"github.com/memoriesapp/memories-service/internal/types"
	"github.com/stretchr/testify/assert"
)

func post(id, owner string) *types.Post {
	return &types.Post{ID: id, UserID: owner}
}

func ids(posts []*types.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestRankFeedFriendsFirst(t *testing.T) {
	// u's friend B posted later (id=2), stranger C earlier (id=1);
	// input arrives reverse-chronological.
	posts := []*types.Post{post("2", "B"), post("1", "C")}

	ranked := RankFeed("U", []string{"B"}, posts, false)
	assert.Equal(t, []string{"2", "1"}, ids(ranked))
}

func TestRankFeedInterleavedPreservesPartitionOrder(t *testing.T) {
	posts := []*types.Post{
		post("5", "C"),
		post("4", "B"),
		post("3", "C"),
		post("2", "U"),
		post("1", "D"),
	}

	ranked := RankFeed("U", []string{"B"}, posts, false)
	// friend partition (B, U) first in input order, then the rest in input order
	assert.Equal(t, []string{"4", "2", "5", "3", "1"}, ids(ranked))
}

func TestRankFeedSearchSuppressesOthersWhenFriendMatches(t *testing.T) {
	posts := []*types.Post{post("2", "B"), post("1", "C")}

	ranked := RankFeed("U", []string{"B"}, posts, true)
	assert.Equal(t, []string{"2"}, ids(ranked))
}

func TestRankFeedSearchWithoutFriendMatchesReturnsAll(t *testing.T) {
	posts := []*types.Post{post("2", "C"), post("1", "D")}

	ranked := RankFeed("U", []string{"B"}, posts, true)
	assert.Equal(t, []string{"2", "1"}, ids(ranked))
}

func TestRankFeedNoFriendsReturnsOriginal(t *testing.T) {
	posts := []*types.Post{post("3", "C"), post("2", "D"), post("1", "E")}

	ranked := RankFeed("U", nil, posts, false)
	assert.Equal(t, []string{"3", "2", "1"}, ids(ranked))
}

func TestRankFeedOwnPostsCountAsFriendPosts(t *testing.T) {
	posts := []*types.Post{post("2", "C"), post("1", "U")}

	ranked := RankFeed("U", nil, posts, false)
	assert.Equal(t, []string{"1", "2"}, ids(ranked))
}
