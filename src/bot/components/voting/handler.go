package voting

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/link-curator/src/bot/components/render"
	shareddiscord "github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

// Config wires the voting handler.
type Config struct {
	Channels    store.Channels
	Submissions store.Submissions
	Ledger      store.Ledger
	Gateway     shareddiscord.Gateway
	GuildID     string
}

// Handler routes button interactions on voting messages.
type Handler struct {
	config Config
}

func NewHandler(config Config) *Handler {
	return &Handler{config: config}
}

// HandleInteraction acknowledges the click and processes the cast.
// Permission failures and unknown messages end silently; infrastructure
// failures are logged and the interaction ends with no visible change.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}
	customID := i.MessageComponentData().CustomID
	if !strings.HasPrefix(customID, "curator:") {
		return
	}
	if i.Member == nil || i.Message == nil {
		return
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		log.Printf("voting: acknowledge interaction: %v", err)
		return
	}

	err := h.Process(context.Background(), Cast{
		ChannelID: i.ChannelID,
		MessageID: i.Message.ID,
		UserID:    i.Member.User.ID,
		Roles:     i.Member.Roles,
		CustomID:  customID,
	})
	if err != nil {
		log.Printf("voting: process %s on %s: %v", customID, i.Message.ID, err)
	}
}

// Cast is one button interaction.
type Cast struct {
	ChannelID string
	MessageID string
	UserID    string
	Roles     []string
	CustomID  string
}

// Process executes one cast against fresh snapshots. It owns no state:
// everything is re-read from the stores each interaction.
func (h *Handler) Process(ctx context.Context, cast Cast) error {
	sub, err := h.config.Submissions.ByMessageID(ctx, cast.MessageID)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load submission: %w", err)
	}
	if !sub.IsCandidate {
		// Terminal-state buttons are disabled; a stale click is a no-op.
		return nil
	}

	settings, err := h.config.Channels.GetByID(ctx, sub.ChannelSettingsID)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load channel settings: %w", err)
	}
	cfg := settings.Data

	switch cast.CustomID {
	case render.CustomIDDismiss:
		return h.dismiss(ctx, cfg, sub, cast)
	case render.CustomIDApprove:
		if !CanApprove(cfg, cast.Roles, cast.UserID) {
			return nil
		}
		return h.castBallot(ctx, cfg, sub, cast, store.KindApproval, true)
	case render.CustomIDVoteUp, render.CustomIDVoteDown:
		if !CanVote(cfg, cast.Roles) {
			return nil
		}
		return h.castBallot(ctx, cfg, sub, cast, store.KindVote,
			cast.CustomID == render.CustomIDVoteUp)
	}
	return nil
}

// dismiss removes a candidate outright. Only approvers may dismiss, and
// only while no approval is on record.
func (h *Handler) dismiss(ctx context.Context, cfg types.ChannelConfig, sub *types.Submission, cast Cast) error {
	if !CanApprove(cfg, cast.Roles, cast.UserID) {
		return nil
	}
	approvals, err := h.config.Ledger.Tally(ctx, cast.MessageID, store.KindApproval)
	if err != nil {
		return fmt.Errorf("approval tally: %w", err)
	}
	if approvals.InFavor > 0 {
		return nil
	}
	return h.remove(ctx, sub, cast.ChannelID, cast.MessageID)
}

func (h *Handler) castBallot(ctx context.Context, cfg types.ChannelConfig, sub *types.Submission, cast Cast, kind store.Kind, inFavor bool) error {
	if _, err := h.config.Ledger.CastBallot(ctx, cast.MessageID, cast.UserID, kind, inFavor); err != nil {
		return fmt.Errorf("cast ballot: %w", err)
	}

	votes, err := h.config.Ledger.Tally(ctx, cast.MessageID, store.KindVote)
	if err != nil {
		return fmt.Errorf("vote tally: %w", err)
	}
	approvals, err := h.config.Ledger.Tally(ctx, cast.MessageID, store.KindApproval)
	if err != nil {
		return fmt.Errorf("approval tally: %w", err)
	}

	switch EvaluateOutcome(cfg, votes, approvals) {
	case OutcomeRejected:
		return h.remove(ctx, sub, cast.ChannelID, cast.MessageID)
	case OutcomeAccepted:
		return h.accept(ctx, cfg, sub, cast, votes, approvals)
	default:
		return h.edit(ctx, cfg, sub, cast, votes, approvals, render.StateCandidate)
	}
}

// accept grants the awarded role (when the quota is met) before flipping
// candidacy. A failed count or grant leaves the submission a candidate,
// so the next interaction retries; granting a role the member already
// holds is a no-op on the Discord side, so the reverse failure order is
// harmless. The flip-once guard still covers unpin against races.
func (h *Handler) accept(ctx context.Context, cfg types.ChannelConfig, sub *types.Submission, cast Cast, votes, approvals store.Tally) error {
	accepted, err := h.config.Submissions.CountByUser(ctx, sub.UserID, false)
	if err != nil {
		return fmt.Errorf("count accepted: %w", err)
	}
	// The count excludes this submission while it is still a candidate.
	if RoleEligible(cfg, accepted+1) {
		if err := h.config.Gateway.GrantRole(h.config.GuildID, sub.UserID, cfg.AwardedRoleID); err != nil {
			return fmt.Errorf("grant role: %w", err)
		}
	}

	flipped, err := h.config.Submissions.MarkAccepted(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("mark accepted: %w", err)
	}
	if flipped {
		if err := h.config.Gateway.UnpinMessage(cast.ChannelID, cast.MessageID); err != nil {
			log.Printf("voting: unpin %s: %v", cast.MessageID, err)
		}
	}

	sub.IsCandidate = false
	return h.edit(ctx, cfg, sub, cast, votes, approvals, render.StateAccepted)
}

// remove deletes the ballots, the submission row and the message. Used
// by both downvote rejection and dismissal.
func (h *Handler) remove(ctx context.Context, sub *types.Submission, channelID, messageID string) error {
	if err := h.config.Ledger.DeleteForMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete ballots: %w", err)
	}
	if err := h.config.Submissions.Delete(ctx, store.SubmissionFilter{Link: sub.Link}); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if err := h.config.Gateway.DeleteMessage(channelID, messageID); err != nil {
		log.Printf("voting: delete message %s: %v", messageID, err)
	}
	return nil
}

func (h *Handler) edit(ctx context.Context, cfg types.ChannelConfig, sub *types.Submission, cast Cast, votes, approvals store.Tally, state render.State) error {
	model := render.Project(render.Input{
		Submission: *sub,
		Config:     cfg,
		Votes:      votes,
		Approvals:  approvals,
		State:      state,
	})
	if err := h.config.Gateway.EditMessage(cast.ChannelID, cast.MessageID, render.ToMessage(model)); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}
	return nil
}
