// Package discord wraps the chat platform behind a small Gateway
// interface so the admission and voting logic can be exercised without a
// live session.
package discord

import (
	"github.com/bwmarrin/discordgo"
)

// OutgoingMessage is the renderable payload the bot posts or edits.
type OutgoingMessage struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// Gateway is the messaging capability consumed by the curation core.
type Gateway interface {
	SendMessage(channelID string, msg OutgoingMessage) (messageID string, err error)
	EditMessage(channelID, messageID string, msg OutgoingMessage) error
	DeleteMessage(channelID, messageID string) error
	PinMessage(channelID, messageID string) error
	UnpinMessage(channelID, messageID string) error
	MemberRoles(guildID, userID string) ([]string, error)
	GrantRole(guildID, userID, roleID string) error
}

// SessionGateway implements Gateway on a discordgo session.
type SessionGateway struct {
	session *discordgo.Session
}

func NewSessionGateway(s *discordgo.Session) *SessionGateway {
	return &SessionGateway{session: s}
}

func (g *SessionGateway) SendMessage(channelID string, msg OutgoingMessage) (string, error) {
	sent, err := g.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    msg.Content,
		Embeds:     msg.Embeds,
		Components: msg.Components,
	})
	if err != nil {
		return "", err
	}
	return sent.ID, nil
}

func (g *SessionGateway) EditMessage(channelID, messageID string, msg OutgoingMessage) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Content = &msg.Content
	edit.Embeds = &msg.Embeds
	edit.Components = &msg.Components
	_, err := g.session.ChannelMessageEditComplex(edit)
	return err
}

func (g *SessionGateway) DeleteMessage(channelID, messageID string) error {
	return g.session.ChannelMessageDelete(channelID, messageID)
}

func (g *SessionGateway) PinMessage(channelID, messageID string) error {
	return g.session.ChannelMessagePin(channelID, messageID)
}

func (g *SessionGateway) UnpinMessage(channelID, messageID string) error {
	return g.session.ChannelMessageUnpin(channelID, messageID)
}

func (g *SessionGateway) MemberRoles(guildID, userID string) ([]string, error) {
	member, err := g.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, err
	}
	return member.Roles, nil
}

func (g *SessionGateway) GrantRole(guildID, userID, roleID string) error {
	return g.session.GuildMemberRoleAdd(guildID, userID, roleID)
}
