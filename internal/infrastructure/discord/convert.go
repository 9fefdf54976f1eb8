package discord

import (
	"encoding/base64"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/platform"
)

func channelKind(t discordgo.ChannelType) platform.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return platform.ChannelVoice
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews:
		return platform.ChannelText
	case discordgo.ChannelTypeGuildCategory:
		return platform.ChannelCategory
	}
	return platform.ChannelOther
}

func channelFrom(c *discordgo.Channel) platform.Channel {
	return platform.Channel{
		ID:       c.ID,
		Name:     c.Name,
		ParentID: c.ParentID,
		Kind:     channelKind(c.Type),
	}
}

func memberFrom(m *discordgo.Member, voiceChannelID string) platform.Member {
	member := platform.Member{
		Nick:           m.Nick,
		VoiceChannelID: voiceChannelID,
	}
	if m.User != nil {
		member.ID = m.User.ID
		member.Username = m.User.Username
		member.Bot = m.User.Bot
	}
	return member
}

// optionsFrom flattens the top-level options of a slash command. Users and
// channels are kept as ids.
func optionsFrom(options []*discordgo.ApplicationCommandInteractionDataOption) bot.Options {
	out := make(bot.Options, len(options))
	for _, o := range options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionInteger:
			out[o.Name] = o.IntValue()
		case discordgo.ApplicationCommandOptionBoolean:
			out[o.Name] = o.BoolValue()
		default:
			out[o.Name] = fmt.Sprint(o.Value)
		}
	}
	return out
}

func embedsFrom(reply *platform.Reply) []*discordgo.MessageEmbed {
	embeds := make([]*discordgo.MessageEmbed, 0, len(reply.Embeds))
	for _, e := range reply.Embeds {
		embed := &discordgo.MessageEmbed{
			Title:       e.Title,
			URL:         e.URL,
			Description: e.Description,
			Color:       e.Color,
		}
		if e.Thumbnail != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
		}
		if e.Image != "" {
			embed.Image = &discordgo.MessageEmbedImage{URL: e.Image}
		}
		if e.Footer != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		for _, f := range e.Fields {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   f.Name,
				Value:  f.Value,
				Inline: f.Inline,
			})
		}
		embeds = append(embeds, embed)
	}
	return embeds
}

func componentsFrom(reply *platform.Reply) []discordgo.MessageComponent {
	if len(reply.Buttons) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, b := range reply.Buttons {
		style := discordgo.SecondaryButton
		if b.Style == platform.ButtonPrimary {
			style = discordgo.PrimaryButton
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.Label,
			Style:    style,
			CustomID: b.CustomID,
		})
	}
	return []discordgo.MessageComponent{row}
}

func permissionBits(p platform.Permission) int64 {
	var bits int64
	if p.Has(platform.PermissionConnect) {
		bits |= discordgo.PermissionVoiceConnect
	}
	if p.Has(platform.PermissionSpeak) {
		bits |= discordgo.PermissionVoiceSpeak
	}
	if p.Has(platform.PermissionSendMessages) {
		bits |= discordgo.PermissionSendMessages
	}
	return bits
}

func activityType(t platform.ActivityType) discordgo.ActivityType {
	switch t {
	case platform.ActivityWatching:
		return discordgo.ActivityTypeWatching
	case platform.ActivityStreaming:
		return discordgo.ActivityTypeStreaming
	case platform.ActivityCompeting:
		return discordgo.ActivityTypeCompeting
	}
	return discordgo.ActivityTypeGame
}

func statusData(p platform.Presence) discordgo.UpdateStatusData {
	data := discordgo.UpdateStatusData{Status: p.Status}
	if p.ActivityType != "" && p.ActivityText != "" {
		data.Activities = []*discordgo.Activity{{
			Name: p.ActivityText,
			Type: activityType(p.ActivityType),
			URL:  p.URL,
		}}
	}
	return data
}

func dataURI(contentType string, image []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
}
