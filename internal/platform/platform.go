// Package platform describes the chat platform as a set of capabilities the
// bot relies on. The Discord adapter implements it; tests use platformtest.
package platform

import (
	"context"
	"strings"
	"unicode/utf8"
)

// NickLimit is the maximum nickname length accepted by the platform, in runes.
const NickLimit = 32

type (
	ChannelKind int

	Member struct {
		ID         string
		Username   string
		Nick       string
		GlobalName string
		Bot        bool
		// VoiceChannelID is empty when the member is not connected to voice.
		VoiceChannelID string
	}

	Channel struct {
		ID       string
		Name     string
		ParentID string
		Kind     ChannelKind
	}

	GuildStats struct {
		Name      string
		IconURL   string
		BannerURL string
		Members   int
		Online    int
		InVoice   int
		Boosts    int
	}

	ActivityType string

	Presence struct {
		Status       string
		ActivityType ActivityType
		ActivityText string
		URL          string
	}

	// Permission is a platform-neutral channel permission granted by access.
	Permission int
)

const (
	ChannelOther ChannelKind = iota
	ChannelText
	ChannelVoice
	ChannelCategory
)

const (
	ActivityPlaying   ActivityType = "playing"
	ActivityWatching  ActivityType = "watching"
	ActivityStreaming ActivityType = "streaming"
	ActivityCompeting ActivityType = "competing"
)

const (
	PermissionConnect Permission = 1 << iota
	PermissionSpeak
	PermissionSendMessages
)

var (
	Statuses       = []string{"online", "idle", "dnd", "invisible"}
	ActivityTypes  = []string{string(ActivityPlaying), string(ActivityWatching), string(ActivityStreaming), string(ActivityCompeting)}
	voiceAccess    = PermissionConnect | PermissionSpeak
	textOnlyAccess = PermissionSendMessages
)

// DisplayName prefers the guild nickname, then the global name, then the username.
func (m Member) DisplayName() string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.GlobalName != "":
		return m.GlobalName
	default:
		return m.Username
	}
}

func (m Member) InVoice() bool {
	return m.VoiceChannelID != ""
}

func (c Channel) IsVoice() bool {
	return c.Kind == ChannelVoice
}

// AccessFor returns the permissions access grants on a channel of the given kind.
func AccessFor(kind ChannelKind) Permission {
	if kind == ChannelVoice {
		return voiceAccess
	}
	return textOnlyAccess
}

func (p Permission) Has(flag Permission) bool {
	return p&flag == flag
}

// TruncateNick cuts s to NickLimit runes.
func TruncateNick(s string) string {
	if utf8.RuneCountInString(s) <= NickLimit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:NickLimit]))
}

type (
	Messages interface {
		DeleteMessage(ctx context.Context, channelID, messageID string) error
		RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error
		SendDirect(ctx context.Context, userID, content string) error
	}

	Members interface {
		Member(ctx context.Context, guildID, userID string) (*Member, error)
		MoveMember(ctx context.Context, guildID, userID, channelID string) error
		DisconnectMember(ctx context.Context, guildID, userID string) error
		// SetNickname with an empty nick resets it to the platform default.
		SetNickname(ctx context.Context, guildID, userID, nick string) error
	}

	Guilds interface {
		Channel(ctx context.Context, channelID string) (*Channel, error)
		GuildChannels(ctx context.Context, guildID string) ([]Channel, error)
		// VoiceMembers maps user ids to the voice channel they occupy.
		VoiceMembers(ctx context.Context, guildID string) (map[string]string, error)
		GuildStats(ctx context.Context, guildID string) (*GuildStats, error)
		GrantAccess(ctx context.Context, channelID, userID string, allow Permission) error
	}

	Identity interface {
		SelfID() string
		SetAvatar(ctx context.Context, imageURL string) error
		SetUsername(ctx context.Context, name string) error
		SetPresence(ctx context.Context, presence Presence) error
	}

	Client interface {
		Messages
		Members
		Guilds
		Identity
	}
)
