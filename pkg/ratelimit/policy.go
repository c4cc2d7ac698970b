package ratelimit

import "time"

// Named policies for the product's sensitive operations. The per-post vote
// policies are meant to be combined with their global counterparts: a vote
// handler checks both and denies if either denies.
var (
	// Login limits credential attempts per IP.
	Login = Policy{Limit: 5, Window: time.Minute}

	// Signup limits account creation per IP.
	Signup = Policy{Limit: 3, Window: time.Minute}

	// WorkspaceCreation limits new workspace provisioning per IP.
	WorkspaceCreation = Policy{Limit: 3, Window: time.Hour}

	// AnonymousVote limits unauthenticated voting per IP across all posts.
	AnonymousVote = Policy{Limit: 20, Window: time.Minute}

	// AnonymousVotePerPost limits unauthenticated voting per IP on one post.
	AnonymousVotePerPost = Policy{Limit: 5, Window: time.Minute}

	// AuthenticatedVote limits signed-in voting per user across all posts.
	AuthenticatedVote = Policy{Limit: 60, Window: time.Minute}

	// AuthenticatedVotePerPost limits signed-in voting per user on one post.
	AuthenticatedVotePerPost = Policy{Limit: 10, Window: time.Minute}
)
