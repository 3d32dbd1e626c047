// Package services – VoteService
//
// VoteService turns a (voter, target, direction) request into a state
// transition over the voter's single Vote record for that target and the
// target's counters.
//
//	state      up                        down
//	NoVote     upvotes+1, record up      downvotes+1, record down
//	Upvoted    no-op                     upvotes-1, downvotes+1, flip
//	Downvoted  downvotes-1, upvotes+1    no-op
//
// Score is recomputed from the counters after every request, no-ops included.
// There is no transition back to NoVote. The read-compare-mutate sequence runs
// inside one store Update, so concurrent votes cannot lose updates.
package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-linkboard/internal/domain"
	"github.com/tbourn/go-linkboard/internal/repo"
)

// VoteService applies votes to posts and comments.
type VoteService struct {
	base
}

// NewVoteService returns a VoteService backed by store.
func NewVoteService(store Store) *VoteService {
	return &VoteService{base: newBase(store)}
}

// VoteOnPost applies the voter's vote to the post and returns the updated
// post, or ErrPostNotFound.
func (s *VoteService) VoteOnPost(ctx context.Context, postID string, voter domain.Identity, isUpvote bool) (*domain.Post, error) {
	_, span := s.start(ctx, "VoteOnPost", postID, voter.ID, isUpvote)
	defer span.End()

	var out domain.Post
	var outcome string
	err := s.Store.Update(func(tx *repo.Tx) error {
		p := tx.Post(postID)
		if p == nil {
			return ErrPostNotFound
		}
		key := domain.VoteKey{VoterID: voter.ID, Target: domain.PostTarget(postID)}
		outcome = s.apply(tx, key, domain.DirectionOf(isUpvote), &p.Tally)
		out = p.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	votesTotal.WithLabelValues(domain.TargetPost.String(), outcome).Inc()
	span.SetAttributes(attribute.String("vote.outcome", outcome))
	return &out, nil
}

// VoteOnComment applies the voter's vote to the comment and returns the
// updated comment, or ErrCommentNotFound.
func (s *VoteService) VoteOnComment(ctx context.Context, commentID string, voter domain.Identity, isUpvote bool) (*domain.Comment, error) {
	_, span := s.start(ctx, "VoteOnComment", commentID, voter.ID, isUpvote)
	defer span.End()

	var out domain.Comment
	var outcome string
	err := s.Store.Update(func(tx *repo.Tx) error {
		c := tx.Comment(commentID)
		if c == nil {
			return ErrCommentNotFound
		}
		key := domain.VoteKey{VoterID: voter.ID, Target: domain.CommentTarget(commentID)}
		outcome = s.apply(tx, key, domain.DirectionOf(isUpvote), &c.Tally)
		out = c.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	votesTotal.WithLabelValues(domain.TargetComment.String(), outcome).Inc()
	span.SetAttributes(attribute.String("vote.outcome", outcome))
	return &out, nil
}

func (s *VoteService) start(ctx context.Context, name, targetID, voterID string, isUpvote bool) (context.Context, trace.Span) {
	return otel.Tracer("services/VoteService").Start(ctx, name,
		trace.WithAttributes(
			attribute.String("target.id", targetID),
			attribute.String("user.id", voterID),
			attribute.Bool("vote.up", isUpvote),
		),
	)
}

// apply runs one transition for key against tally and reports its outcome.
// It must be called inside Update.
func (s *VoteService) apply(tx *repo.Tx, key domain.VoteKey, d domain.Direction, tally *domain.Tally) string {
	v := tx.Vote(key)
	outcome := voteOutcomeRepeat

	switch v.State() {
	case domain.NoVote:
		if d == domain.Up {
			tally.Upvotes++
		} else {
			tally.Downvotes++
		}
		tx.PutVote(&domain.Vote{Key: key, Direction: d, CreatedAt: s.Now()})
		outcome = voteOutcomeNew
	case domain.Upvoted:
		if d == domain.Down {
			tally.Upvotes--
			tally.Downvotes++
			v.Direction = domain.Down
			outcome = voteOutcomeFlip
		}
	case domain.Downvoted:
		if d == domain.Up {
			tally.Downvotes--
			tally.Upvotes++
			v.Direction = domain.Up
			outcome = voteOutcomeFlip
		}
	}

	tally.Rescore()
	return outcome
}
