package domain

import "testing"

func TestVoteKey_DistinguishesTargetKind(t *testing.T) {
	// Same voter and id, different kinds: must be two distinct keys.
	m := map[VoteKey]int{}
	m[VoteKey{VoterID: "u1", Target: PostTarget("x")}] = 1
	m[VoteKey{VoterID: "u1", Target: CommentTarget("x")}] = 2
	if len(m) != 2 {
		t.Fatalf("expected 2 distinct keys, got %d", len(m))
	}

	// Ids that would collide under "{user}_{target}_{kind}" string formatting.
	a := VoteKey{VoterID: "a_b", Target: PostTarget("c")}
	b := VoteKey{VoterID: "a", Target: PostTarget("b_c")}
	if a == b {
		t.Fatalf("keys %+v and %+v must differ", a, b)
	}
}

func TestDirectionOf(t *testing.T) {
	if DirectionOf(true) != Up || DirectionOf(false) != Down {
		t.Fatalf("DirectionOf mapping broken")
	}
}

func TestVote_State(t *testing.T) {
	cases := []struct {
		v    *Vote
		want VoteState
	}{
		{nil, NoVote},
		{&Vote{Direction: Up}, Upvoted},
		{&Vote{Direction: Down}, Downvoted},
	}
	for _, tc := range cases {
		if got := tc.v.State(); got != tc.want {
			t.Fatalf("State(%+v) = %v; want %v", tc.v, got, tc.want)
		}
	}
}

func TestTargetKind_String(t *testing.T) {
	if TargetPost.String() != "post" || TargetComment.String() != "comment" || TargetKind(0).String() != "unknown" {
		t.Fatalf("unexpected TargetKind strings")
	}
	if NoVote.String() != "none" || Upvoted.String() != "upvoted" || Downvoted.String() != "downvoted" {
		t.Fatalf("unexpected VoteState strings")
	}
}
