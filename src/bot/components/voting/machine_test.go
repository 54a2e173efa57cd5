package voting

import (
	"testing"

	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

func TestEvaluateOutcomeVoteThreshold(t *testing.T) {
	cases := []struct {
		name      string
		cfg       types.ChannelConfig
		votes     store.Tally
		approvals store.Tally
		want      Outcome
	}{
		{
			name:  "single vote meets threshold 1",
			cfg:   types.ChannelConfig{VotingThreshold: 1},
			votes: store.Tally{InFavor: 1},
			want:  OutcomeAccepted,
		},
		{
			name:  "single vote short of threshold 2",
			cfg:   types.ChannelConfig{VotingThreshold: 2},
			votes: store.Tally{InFavor: 1},
			want:  OutcomePending,
		},
		{
			name:  "threshold 0 means one vote suffices",
			cfg:   types.ChannelConfig{VotingThreshold: 0},
			votes: store.Tally{InFavor: 1},
			want:  OutcomeAccepted,
		},
		{
			name: "threshold 0 with no votes stays pending",
			cfg:  types.ChannelConfig{VotingThreshold: 0},
			want: OutcomePending,
		},
		{
			name:  "net counts against votes",
			cfg:   types.ChannelConfig{VotingThreshold: 2},
			votes: store.Tally{InFavor: 3, Against: 2},
			want:  OutcomePending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateOutcome(tc.cfg, tc.votes, tc.approvals); got != tc.want {
				t.Fatalf("outcome = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestEvaluateOutcomeDownvoteRejection(t *testing.T) {
	cfg := types.ChannelConfig{VotingThreshold: 1, VotingAgainstThreshold: 1}

	if got := EvaluateOutcome(cfg, store.Tally{Against: 1}, store.Tally{}); got != OutcomeRejected {
		t.Fatalf("single against vote should reject, got %d", got)
	}

	// An in-favor vote offsets the against vote: net against is 0.
	if got := EvaluateOutcome(cfg, store.Tally{InFavor: 1, Against: 1}, store.Tally{}); got != OutcomePending {
		t.Fatalf("offset against vote should not reject, got %d", got)
	}

	// Threshold 0 disables rejection entirely.
	cfg.VotingAgainstThreshold = 0
	if got := EvaluateOutcome(cfg, store.Tally{Against: 5}, store.Tally{}); got != OutcomePending {
		t.Fatalf("disabled rejection should stay pending, got %d", got)
	}
}

func TestEvaluateOutcomeRejectionWinsTies(t *testing.T) {
	// One cast can satisfy both conditions when thresholds are loose;
	// the destructive outcome must win deterministically.
	cfg := types.ChannelConfig{VotingThreshold: -3, VotingAgainstThreshold: 1}
	got := EvaluateOutcome(cfg, store.Tally{Against: 1}, store.Tally{})
	if got != OutcomeRejected {
		t.Fatalf("rejection should win over acceptance, got %d", got)
	}
}

func TestEvaluateOutcomeApprovalGate(t *testing.T) {
	cfg := types.ChannelConfig{
		VotingThreshold:   1,
		ApprovalThreshold: 2,
		ApproverRoles:     []string{"approver"},
	}

	if got := EvaluateOutcome(cfg, store.Tally{InFavor: 1}, store.Tally{InFavor: 1}); got != OutcomePending {
		t.Fatalf("one approval short of threshold 2 should stay pending, got %d", got)
	}
	if got := EvaluateOutcome(cfg, store.Tally{InFavor: 1}, store.Tally{InFavor: 2}); got != OutcomeAccepted {
		t.Fatalf("votes AND approvals met should accept, got %d", got)
	}

	// Approvers configured but no threshold: approvals do not gate.
	cfg.ApprovalThreshold = 0
	if got := EvaluateOutcome(cfg, store.Tally{InFavor: 1}, store.Tally{}); got != OutcomeAccepted {
		t.Fatalf("zero approval threshold should not gate, got %d", got)
	}

	// Threshold set but feature inactive (no approvers): no gate either.
	cfg = types.ChannelConfig{VotingThreshold: 1, ApprovalThreshold: 2}
	if got := EvaluateOutcome(cfg, store.Tally{InFavor: 1}, store.Tally{}); got != OutcomeAccepted {
		t.Fatalf("inactive approval feature should not gate, got %d", got)
	}
}

func TestRoleEligible(t *testing.T) {
	if !RoleEligible(types.ChannelConfig{}, 0) {
		t.Fatal("threshold 0 is always satisfied")
	}
	cfg := types.ChannelConfig{SubmissionThreshold: 2}
	if RoleEligible(cfg, 1) {
		t.Fatal("one accepted submission should not satisfy quota 2")
	}
	if !RoleEligible(cfg, 2) {
		t.Fatal("two accepted submissions should satisfy quota 2")
	}
}

func TestPermissions(t *testing.T) {
	open := types.ChannelConfig{}
	if !CanVote(open, nil) {
		t.Fatal("empty allowed_to_vote_roles means unrestricted")
	}

	restricted := types.ChannelConfig{AllowedToVoteRoles: []string{"voters"}}
	if CanVote(restricted, []string{"other"}) {
		t.Fatal("missing vote role should deny")
	}
	if !CanVote(restricted, []string{"voters"}) {
		t.Fatal("vote role should allow")
	}

	if CanApprove(open, []string{"anything"}, "u1") {
		t.Fatal("approval inactive: nobody can approve")
	}

	byRole := types.ChannelConfig{ApproverRoles: []string{"approver"}}
	if !CanApprove(byRole, []string{"approver"}, "u1") {
		t.Fatal("approver role should allow")
	}
	if CanApprove(byRole, []string{"other"}, "u1") {
		t.Fatal("non-approver should be denied")
	}

	byUser := types.ChannelConfig{ApproverUsers: []string{"u1"}}
	if !CanApprove(byUser, nil, "u1") {
		t.Fatal("listed approver user should allow")
	}
	if CanApprove(byUser, nil, "u2") {
		t.Fatal("unlisted user should be denied")
	}
}
