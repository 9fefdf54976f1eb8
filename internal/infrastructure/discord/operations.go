package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/anyme/vcbot/internal/platform"
)

const (
	avatarMaxBytes = 8 << 20
	avatarTimeout  = 15 * time.Second
)

// Operations implements platform.Client over a discordgo session. Reads go
// to the session state cache first and fall back to the REST API.
type Operations struct {
	session *discordgo.Session
	http    *http.Client
	logger  *log.Entry
}

var _ platform.Client = (*Operations)(nil)

func NewOperations(session *discordgo.Session) *Operations {
	return &Operations{
		session: session,
		http:    &http.Client{Timeout: avatarTimeout},
		logger:  log.WithField("object", "DiscordOperations"),
	}
}

func (o *Operations) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := o.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to delete message")
	}
	return nil
}

func (o *Operations) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	if err := o.session.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to remove reaction")
	}
	return nil
}

func (o *Operations) SendDirect(ctx context.Context, userID, content string) error {
	channel, err := o.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "failed to open direct channel")
	}
	if _, err := o.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to send direct message")
	}
	return nil
}

func (o *Operations) Member(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	m, err := o.session.State.Member(guildID, userID)
	if err != nil {
		m, err = o.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get member")
		}
	}
	member := memberFrom(m, voiceChannelIn(o.session.State, guildID, userID))
	return &member, nil
}

func (o *Operations) MoveMember(ctx context.Context, guildID, userID, channelID string) error {
	if err := o.session.GuildMemberMove(guildID, userID, &channelID, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to move member")
	}
	return nil
}

func (o *Operations) DisconnectMember(ctx context.Context, guildID, userID string) error {
	if err := o.session.GuildMemberMove(guildID, userID, nil, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to disconnect member")
	}
	return nil
}

func (o *Operations) SetNickname(ctx context.Context, guildID, userID, nick string) error {
	if err := o.session.GuildMemberNickname(guildID, userID, nick, discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to set nickname")
	}
	return nil
}

func (o *Operations) Channel(ctx context.Context, channelID string) (*platform.Channel, error) {
	c, err := o.session.State.Channel(channelID)
	if err != nil {
		c, err = o.session.Channel(channelID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get channel")
		}
	}
	channel := channelFrom(c)
	return &channel, nil
}

func (o *Operations) GuildChannels(ctx context.Context, guildID string) ([]platform.Channel, error) {
	var channels []*discordgo.Channel
	if g, err := o.session.State.Guild(guildID); err == nil && len(g.Channels) > 0 {
		channels = g.Channels
	} else {
		channels, err = o.session.GuildChannels(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "failed to list channels")
		}
	}
	out := make([]platform.Channel, 0, len(channels))
	for _, c := range channels {
		out = append(out, channelFrom(c))
	}
	return out, nil
}

// VoiceMembers is served from the state cache, which tracks voice states
// from the gateway.
func (o *Operations) VoiceMembers(_ context.Context, guildID string) (map[string]string, error) {
	g, err := o.session.State.Guild(guildID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get guild state")
	}
	out := make(map[string]string, len(g.VoiceStates))
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != "" {
			out[vs.UserID] = vs.ChannelID
		}
	}
	return out, nil
}

func (o *Operations) GuildStats(ctx context.Context, guildID string) (*platform.GuildStats, error) {
	g, err := o.session.State.Guild(guildID)
	if err != nil {
		g, err = o.session.Guild(guildID, discordgo.WithContext(ctx))
		if err != nil {
			return nil, errors.Wrap(err, "failed to get guild")
		}
	}
	stats := &platform.GuildStats{
		Name:    g.Name,
		Members: g.MemberCount,
		Boosts:  g.PremiumSubscriptionCount,
	}
	if g.Icon != "" {
		stats.IconURL = discordgo.EndpointGuildIcon(g.ID, g.Icon)
	}
	if g.Banner != "" {
		stats.BannerURL = discordgo.EndpointGuildBanner(g.ID, g.Banner)
	}
	for _, p := range g.Presences {
		if p.Status != discordgo.StatusOffline {
			stats.Online++
		}
	}
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != "" {
			stats.InVoice++
		}
	}
	return stats, nil
}

func (o *Operations) GrantAccess(ctx context.Context, channelID, userID string, allow platform.Permission) error {
	err := o.session.ChannelPermissionSet(
		channelID, userID, discordgo.PermissionOverwriteTypeMember,
		permissionBits(allow), 0, discordgo.WithContext(ctx),
	)
	if err != nil {
		return errors.Wrap(err, "failed to set channel permissions")
	}
	return nil
}

func (o *Operations) SelfID() string {
	if o.session.State == nil || o.session.State.User == nil {
		return ""
	}
	return o.session.State.User.ID
}

// SetAvatar downloads the image and uploads it as a data URI.
func (o *Operations) SetAvatar(ctx context.Context, imageURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build avatar request")
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to download avatar")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download avatar: status %d", resp.StatusCode)
	}
	image, err := io.ReadAll(io.LimitReader(resp.Body, avatarMaxBytes))
	if err != nil {
		return errors.Wrap(err, "failed to read avatar")
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	if _, err := o.session.UserUpdate("", dataURI(contentType, image), discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to update avatar")
	}
	o.logger.WithField("bytes", len(image)).Debug("avatar updated")
	return nil
}

func (o *Operations) SetUsername(ctx context.Context, name string) error {
	if _, err := o.session.UserUpdate(name, "", discordgo.WithContext(ctx)); err != nil {
		return errors.Wrap(err, "failed to update username")
	}
	return nil
}

// SetPresence goes over the gateway, which has no per-call context.
func (o *Operations) SetPresence(_ context.Context, p platform.Presence) error {
	if err := o.session.UpdateStatusComplex(statusData(p)); err != nil {
		return errors.Wrap(err, "failed to update presence")
	}
	return nil
}
