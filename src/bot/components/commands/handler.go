package commands

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/link-curator/src/shared/errs"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

// Handler routes /curator subcommands to the channel store. The command
// surface is deliberately thin; validation lives in the store so the
// web API shares it.
type Handler struct {
	channels store.Channels
}

func NewHandler(channels store.Channels) *Handler {
	return &Handler{channels: channels}
}

// HandleInteraction is the discordgo handler for application commands.
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != CommandCurator {
		return
	}
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionManageServer == 0 {
		replyEphemeral(s, i, "You need the Manage Server permission to configure curation.")
		return
	}
	if len(data.Options) == 0 {
		return
	}

	sub := data.Options[0]
	opts := optionMap(sub.Options)
	ctx := context.Background()

	var (
		msg string
		err error
	)
	switch sub.Name {
	case SubEnable:
		msg, err = h.enable(ctx, i.ChannelID, i.GuildID, opts)
	case SubUpdate:
		msg, err = h.update(ctx, i.ChannelID, opts)
	case SubDisable:
		err = h.channels.Remove(ctx, i.ChannelID)
		msg = "Submissions disabled in this channel."
	case SubMigrate:
		msg, err = h.migrate(ctx, i.ChannelID, opts)
	case SubShow:
		msg, err = h.show(ctx, i.ChannelID)
	default:
		return
	}

	if err != nil {
		log.Printf("commands: %s in channel %s: %v", sub.Name, i.ChannelID, err)
		replyEphemeral(s, i, errs.UserMessage(err))
		return
	}
	replyEphemeral(s, i, msg)
}

func (h *Handler) enable(ctx context.Context, channelID, guildID string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	cfg := types.ChannelConfig{}
	if o, ok := opts["awarded-role"]; ok {
		cfg.AwardedRoleID = o.Value.(string)
	}
	if o, ok := opts["voting-threshold"]; ok {
		cfg.VotingThreshold = int(o.IntValue())
	}
	if o, ok := opts["voting-against-threshold"]; ok {
		cfg.VotingAgainstThreshold = int(o.IntValue())
	}
	if o, ok := opts["approval-threshold"]; ok {
		cfg.ApprovalThreshold = int(o.IntValue())
	}
	if o, ok := opts["submission-threshold"]; ok {
		cfg.SubmissionThreshold = int(o.IntValue())
	}
	if o, ok := opts["title"]; ok {
		cfg.Title = o.StringValue()
	}
	if err := h.channels.Upsert(ctx, channelID, guildID, cfg); err != nil {
		return "", err
	}
	return "Submissions enabled in this channel.", nil
}

func (h *Handler) update(ctx context.Context, channelID string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	opName := opts["operation"].StringValue()
	field := opts["field"].StringValue()
	value := ""
	if o, ok := opts["value"]; ok {
		value = o.StringValue()
	}

	patch, err := buildPatch(opName, field, value)
	if err != nil {
		return "", err
	}
	if err := h.channels.PatchMerge(ctx, channelID, patch); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated `%s`.", field), nil
}

func (h *Handler) migrate(ctx context.Context, channelID string, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	target := opts["target"].Value.(string)
	if err := h.channels.Migrate(ctx, channelID, target); err != nil {
		return "", err
	}
	return fmt.Sprintf("Settings moved to <#%s>.", target), nil
}

func (h *Handler) show(ctx context.Context, channelID string) (string, error) {
	settings, err := h.channels.Get(ctx, channelID)
	if err == store.ErrNotFound {
		return "Submissions are not enabled in this channel.", nil
	}
	if err != nil {
		return "", err
	}
	cfg := settings.Data

	var b strings.Builder
	fmt.Fprintf(&b, "**Curation settings for <#%s>**\n", channelID)
	fmt.Fprintf(&b, "Awarded role: <@&%s>\n", cfg.AwardedRoleID)
	fmt.Fprintf(&b, "Voting threshold: %d\n", cfg.VotingThreshold)
	fmt.Fprintf(&b, "Voting against threshold: %d\n", cfg.VotingAgainstThreshold)
	fmt.Fprintf(&b, "Approval threshold: %d\n", cfg.ApprovalThreshold)
	fmt.Fprintf(&b, "Submission threshold: %d\n", cfg.SubmissionThreshold)
	if cfg.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", cfg.Title)
	}
	fmt.Fprintf(&b, "Submission types: %s\n", joinTypes(cfg.SubmissionTypes))
	fmt.Fprintf(&b, "Approver roles: %s\n", joinIDs(cfg.ApproverRoles, "<@&%s>"))
	fmt.Fprintf(&b, "Approver users: %s\n", joinIDs(cfg.ApproverUsers, "<@%s>"))
	fmt.Fprintf(&b, "Submitter roles: %s\n", joinIDs(cfg.SubmitterRoles, "<@&%s>"))
	fmt.Fprintf(&b, "Allowed to vote roles: %s", joinIDs(cfg.AllowedToVoteRoles, "<@&%s>"))
	return b.String(), nil
}

// buildPatch turns the operation/field/value triple into a typed patch.
// List values are comma separated and may be raw IDs or mentions.
func buildPatch(opName, field, value string) (store.ConfigPatch, error) {
	var patch store.ConfigPatch
	switch opName {
	case "set":
		patch.Op = store.OpSet
	case "unset":
		patch.Op = store.OpUnset
	case "add":
		patch.Op = store.OpAdd
	case "subtract":
		patch.Op = store.OpSubtract
	default:
		return patch, errs.NewUserFacing(fmt.Sprintf("unknown operation %q", opName), nil)
	}

	needsValue := patch.Op != store.OpUnset
	if needsValue && value == "" {
		return patch, errs.NewUserFacing("a value is required for this operation", nil)
	}

	switch field {
	case "voting_threshold", "voting_against_threshold", "approval_threshold",
		"submission_threshold", "message_color":
		n := 0
		if needsValue {
			var err error
			n, err = parseIntValue(field, value)
			if err != nil {
				return patch, err
			}
		}
		switch field {
		case "voting_threshold":
			patch.VotingThreshold = &n
		case "voting_against_threshold":
			patch.VotingAgainstThreshold = &n
		case "approval_threshold":
			patch.ApprovalThreshold = &n
		case "submission_threshold":
			patch.SubmissionThreshold = &n
		case "message_color":
			patch.MessageColor = &n
		}
	case "title":
		patch.Title = &value
	case "awarded_role":
		id := stripMention(value)
		patch.AwardedRoleID = &id
	default:
		patch.Lists = map[store.ListField][]string{
			store.ListField(field): splitList(value),
		}
	}
	return patch, nil
}

func parseIntValue(field, value string) (int, error) {
	base := 10
	v := value
	if field == "message_color" {
		v = strings.TrimPrefix(strings.TrimPrefix(v, "#"), "0x")
		base = 16
	}
	n, err := strconv.ParseInt(v, base, 32)
	if err != nil {
		return 0, errs.NewUserFacing(fmt.Sprintf("%q is not a valid value for %s", value, field), err)
	}
	return int(n), nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = stripMention(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// stripMention unwraps <@id>, <@!id> and <@&id> to the bare snowflake.
func stripMention(v string) string {
	if !strings.HasPrefix(v, "<@") || !strings.HasSuffix(v, ">") {
		return v
	}
	v = strings.TrimSuffix(strings.TrimPrefix(v, "<@"), ">")
	v = strings.TrimPrefix(v, "!")
	return strings.TrimPrefix(v, "&")
}

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func joinTypes(ts []types.SubmissionType) string {
	if len(ts) == 0 {
		return "all"
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return strings.Join(out, ", ")
}

func joinIDs(ids []string, format string) string {
	if len(ids) == 0 {
		return "none"
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf(format, id)
	}
	return strings.Join(out, ", ")
}

func replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("commands: interaction respond: %v", err)
	}
}
