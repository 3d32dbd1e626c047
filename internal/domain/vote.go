package domain

import "time"

// TargetKind discriminates what a vote is cast on.
type TargetKind uint8

const (
	TargetPost TargetKind = iota + 1
	TargetComment
)

// String returns "post" or "comment".
func (k TargetKind) String() string {
	switch k {
	case TargetPost:
		return "post"
	case TargetComment:
		return "comment"
	default:
		return "unknown"
	}
}

// VoteTarget is either a post or a comment, identified by id.
// Build values with PostTarget or CommentTarget.
type VoteTarget struct {
	Kind TargetKind
	ID   string
}

// PostTarget returns the vote target for post id.
func PostTarget(id string) VoteTarget { return VoteTarget{Kind: TargetPost, ID: id} }

// CommentTarget returns the vote target for comment id.
func CommentTarget(id string) VoteTarget { return VoteTarget{Kind: TargetComment, ID: id} }

// VoteKey identifies the single vote a voter may hold on a target. It is
// comparable and used directly as a map key.
type VoteKey struct {
	VoterID string
	Target  VoteTarget
}

// Direction is the current direction of a vote.
type Direction int8

const (
	Down Direction = -1
	Up   Direction = 1
)

// DirectionOf maps the transport's is_upvote flag to a Direction.
func DirectionOf(isUpvote bool) Direction {
	if isUpvote {
		return Up
	}
	return Down
}

// VoteState is the state of a (voter, target) pair in the voting state machine.
type VoteState uint8

const (
	NoVote VoteState = iota
	Upvoted
	Downvoted
)

// String returns a short name for the state.
func (s VoteState) String() string {
	switch s {
	case Upvoted:
		return "upvoted"
	case Downvoted:
		return "downvoted"
	default:
		return "none"
	}
}

// Vote is the recorded vote of one voter on one target.
type Vote struct {
	Key       VoteKey
	Direction Direction
	CreatedAt time.Time
}

// State returns the state machine state represented by v. A nil vote is NoVote.
func (v *Vote) State() VoteState {
	switch {
	case v == nil:
		return NoVote
	case v.Direction == Up:
		return Upvoted
	default:
		return Downvoted
	}
}
