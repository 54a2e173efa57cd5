// Package voting is the ballot-cast state machine. A candidate message
// moves to accepted, rejected-by-downvote or dismissed; each transition
// is driven by exactly one interaction against a fresh tally snapshot.
package voting

import (
	"github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

// Outcome of threshold evaluation after a vote or approve cast.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeAccepted
	OutcomeRejected
)

// EvaluateOutcome checks the terminal conditions for one submission
// against fresh tallies. Rejection is evaluated first: it is
// destructive and irreversible, so it wins when a single cast satisfies
// both conditions.
func EvaluateOutcome(cfg types.ChannelConfig, votes, approvals store.Tally) Outcome {
	if cfg.VotingAgainstThreshold > 0 &&
		votes.Against-votes.InFavor >= cfg.VotingAgainstThreshold {
		return OutcomeRejected
	}
	if votes.Net() >= effectiveVotingThreshold(cfg) && approvalSatisfied(cfg, approvals) {
		return OutcomeAccepted
	}
	return OutcomePending
}

// A configured threshold of 0 means "one vote suffices", not "zero
// votes suffice": an approval alone must not accept an unvoted entry.
func effectiveVotingThreshold(cfg types.ChannelConfig) int {
	if cfg.VotingThreshold <= 0 {
		return 1
	}
	return cfg.VotingThreshold
}

// approvalSatisfied: approvals gate acceptance only when the feature is
// active and a threshold is set; thresholds compose with AND.
func approvalSatisfied(cfg types.ChannelConfig, approvals store.Tally) bool {
	if !cfg.ApprovalActive() || cfg.ApprovalThreshold <= 0 {
		return true
	}
	return approvals.InFavor >= cfg.ApprovalThreshold
}

// RoleEligible reports whether the submitter's accepted-submission
// count satisfies the per-submitter quota. A threshold of 0 is always
// satisfied.
func RoleEligible(cfg types.ChannelConfig, acceptedCount int64) bool {
	if cfg.SubmissionThreshold <= 0 {
		return true
	}
	return acceptedCount >= int64(cfg.SubmissionThreshold)
}

// CanVote reports whether the actor may cast a regular vote.
func CanVote(cfg types.ChannelConfig, roles []string) bool {
	return discord.HasAnyRole(roles, cfg.AllowedToVoteRoles)
}

// CanApprove reports whether the actor may approve or dismiss. Always
// false while the approval feature is inactive.
func CanApprove(cfg types.ChannelConfig, roles []string, userID string) bool {
	if !cfg.ApprovalActive() {
		return false
	}
	for _, u := range cfg.ApproverUsers {
		if u == userID {
			return true
		}
	}
	return len(cfg.ApproverRoles) > 0 && discord.HasAnyRole(roles, cfg.ApproverRoles)
}
