// Package render projects a submission and its tallies into the display
// model for the voting message. The projection is pure and never a
// source of truth: ballots live in the ledger, never in message text.
package render

import (
	"fmt"
	"strings"

	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

// Button custom IDs routed by the interaction handler.
const (
	CustomIDVoteUp   = "curator:vote:up"
	CustomIDVoteDown = "curator:vote:down"
	CustomIDApprove  = "curator:approve"
	CustomIDDismiss  = "curator:dismiss"
)

// State is the display state of a submission message.
type State int

const (
	StateCandidate State = iota
	StateAccepted
	StateRejected
)

const defaultColor = 0x5865F2

// Input is everything the projection reads.
type Input struct {
	Submission types.Submission
	Config     types.ChannelConfig
	Votes      store.Tally
	Approvals  store.Tally
	State      State
	// Similar holds links of stored image submissions within hash range.
	Similar []string
}

// Button is one interactive component of the rendered message.
type Button struct {
	ID       string
	Label    string
	Disabled bool
}

// Model is the rendered message, platform-agnostic.
type Model struct {
	Title       string
	Link        string
	Description string
	Color       int
	InFavor     []string
	Against     []string
	ApprovedBy  []string
	Summary     string
	Similar     []string
	Buttons     []Button
}

// Project maps a snapshot to its display model.
func Project(in Input) Model {
	m := Model{
		Title:       title(in),
		Link:        in.Submission.Link,
		Description: in.Submission.Description,
		Color:       color(in.Config),
		InFavor:     mentions(in.Votes.InFavorUsers),
		Against:     mentions(in.Votes.AgainstUsers),
		Summary:     summary(in),
		Similar:     in.Similar,
	}

	approvalActive := in.Config.ApprovalActive()
	if approvalActive {
		m.ApprovedBy = mentions(in.Approvals.InFavorUsers)
	}

	disabled := in.State != StateCandidate
	m.Buttons = append(m.Buttons,
		Button{ID: CustomIDVoteUp, Label: fmt.Sprintf("👍 %d", in.Votes.InFavor), Disabled: disabled},
		Button{ID: CustomIDVoteDown, Label: fmt.Sprintf("👎 %d", in.Votes.Against), Disabled: disabled},
	)
	if approvalActive {
		m.Buttons = append(m.Buttons, Button{
			ID:       CustomIDApprove,
			Label:    approveLabel(in.Config, in.Approvals),
			Disabled: disabled,
		})
		// Dismiss is only offered while no approval is on record; it
		// returns if the approval is toggled off again.
		if in.Approvals.InFavor == 0 {
			m.Buttons = append(m.Buttons, Button{ID: CustomIDDismiss, Label: "🗑 Dismiss", Disabled: disabled})
		}
	}
	return m
}

func title(in Input) string {
	if in.Submission.Title != "" {
		return in.Submission.Title
	}
	if in.Config.Title != "" {
		return in.Config.Title
	}
	return string(in.Submission.Type)
}

func color(cfg types.ChannelConfig) int {
	if cfg.MessageColor != 0 {
		return cfg.MessageColor
	}
	return defaultColor
}

func summary(in Input) string {
	if in.State == StateRejected {
		return "Rejected"
	}
	net := in.Votes.Net()
	if net < 0 {
		net = 0
	}
	return fmt.Sprintf("%d/%d", net, in.Config.VotingThreshold)
}

func approveLabel(cfg types.ChannelConfig, approvals store.Tally) string {
	if cfg.ApprovalThreshold > 0 {
		return fmt.Sprintf("✅ %d/%d", approvals.InFavor, cfg.ApprovalThreshold)
	}
	return fmt.Sprintf("✅ %d", approvals.InFavor)
}

func mentions(userIDs []string) []string {
	out := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, "<@"+id+">")
	}
	return out
}

// JoinMentions formats a mention list for an embed field.
func JoinMentions(list []string) string {
	if len(list) == 0 {
		return "—"
	}
	return strings.Join(list, " ")
}
