package social

import "github.com/memoriesapp/memories-service/internal/types"

// RankFeed orders candidate posts so the viewer's own and their friends'
// content comes first. Input order (reverse-chronological) is preserved
// within each partition.
//
// When searched is true and at least one friend post matched, non-friend
// matches are suppressed entirely. This mirrors the product's historical
// search behavior and is covered by tests; do not "fix" it without a
// deliberate product decision.
func RankFeed(viewerID string, friendIDs []string, posts []*types.Post, searched bool) []*types.Post {
	circle := make(map[string]struct{}, len(friendIDs)+1)
	for _, id := range friendIDs {
		circle[id] = struct{}{}
	}
	circle[viewerID] = struct{}{}

	var friendPosts, otherPosts []*types.Post
	for _, p := range posts {
		if _, ok := circle[p.UserID]; ok {
			friendPosts = append(friendPosts, p)
		} else {
			otherPosts = append(otherPosts, p)
		}
	}

	if len(friendPosts) == 0 {
		return posts
	}
	if searched {
		return friendPosts
	}
	return append(friendPosts, otherPosts...)
}
