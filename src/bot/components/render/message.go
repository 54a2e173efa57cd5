package render

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	shareddiscord "github.com/stake-plus/link-curator/src/shared/discord"
)

// ToMessage converts the display model into the outgoing Discord payload.
func ToMessage(m Model) shareddiscord.OutgoingMessage {
	embed := &discordgo.MessageEmbed{
		Title:       m.Title,
		URL:         m.Link,
		Description: m.Description,
		Color:       m.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Voted in favor", Value: JoinMentions(m.InFavor), Inline: true},
			{Name: "Voted against", Value: JoinMentions(m.Against), Inline: true},
		},
	}
	if m.ApprovedBy != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Approved by", Value: JoinMentions(m.ApprovedBy), Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Votes", Value: m.Summary,
	})
	if len(m.Similar) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Similar entries", Value: strings.Join(m.Similar, "\n"),
		})
	}

	buttons := make([]discordgo.MessageComponent, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		style := discordgo.SecondaryButton
		if b.ID == CustomIDDismiss {
			style = discordgo.DangerButton
		}
		buttons = append(buttons, discordgo.Button{
			CustomID: b.ID,
			Label:    b.Label,
			Style:    style,
			Disabled: b.Disabled,
		})
	}

	var components []discordgo.MessageComponent
	if len(buttons) > 0 {
		components = []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
	}

	return shareddiscord.OutgoingMessage{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
}
