// Package commands is the thin slash-command surface over the channel
// configuration store.
package commands

import (
	"github.com/bwmarrin/discordgo"
)

const (
	CommandCurator = "curator"

	SubEnable  = "enable"
	SubUpdate  = "update"
	SubDisable = "disable"
	SubMigrate = "migrate"
	SubShow    = "show"
)

var fieldChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "voting-threshold", Value: "voting_threshold"},
	{Name: "voting-against-threshold", Value: "voting_against_threshold"},
	{Name: "approval-threshold", Value: "approval_threshold"},
	{Name: "submission-threshold", Value: "submission_threshold"},
	{Name: "message-color", Value: "message_color"},
	{Name: "title", Value: "title"},
	{Name: "awarded-role", Value: "awarded_role"},
	{Name: "submission-types", Value: "submission_types"},
	{Name: "approver-roles", Value: "approver_roles"},
	{Name: "approver-users", Value: "approver_users"},
	{Name: "submitter-roles", Value: "submitter_roles"},
	{Name: "allowed-to-vote-roles", Value: "allowed_to_vote_roles"},
}

var opChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "set", Value: "set"},
	{Name: "unset", Value: "unset"},
	{Name: "add", Value: "add"},
	{Name: "subtract", Value: "subtract"},
}

// Definition is the /curator command tree.
var Definition = &discordgo.ApplicationCommand{
	Name:        CommandCurator,
	Description: "Manage link curation for this channel",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        SubEnable,
			Description: "Enable submissions in this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "awarded-role",
					Description: "Role granted on acceptance",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "voting-threshold",
					Description: "Net in-favor votes required (0 = one vote)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "voting-against-threshold",
					Description: "Net against votes that reject (0 = disabled)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "approval-threshold",
					Description: "Approvals required for acceptance (0 = none)",
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "submission-threshold",
					Description: "Accepted submissions required before the role is granted",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Default title for voting messages",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        SubUpdate,
			Description: "Update one setting of this channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "operation",
					Description: "How to apply the value",
					Required:    true,
					Choices:     opChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "field",
					Description: "Setting to change",
					Required:    true,
					Choices:     fieldChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "value",
					Description: "New value (comma-separated for lists)",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        SubDisable,
			Description: "Disable submissions in this channel",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        SubMigrate,
			Description: "Move this channel's settings to another channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "target",
					Description: "Channel to move the settings to",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        SubShow,
			Description: "Show this channel's curation settings",
		},
	},
}

// Register upserts the command tree for the guild.
func Register(s *discordgo.Session, appID, guildID string) error {
	_, err := s.ApplicationCommandCreate(appID, guildID, Definition)
	return err
}
