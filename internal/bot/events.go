package bot

import (
	"strconv"

	"github.com/anyme/vcbot/internal/platform"
)

const (
	KindContentPosted        = "content_posted"
	KindReactionAttempted    = "reaction_attempted"
	KindVoicePresenceChanged = "voice_presence_changed"
	KindCommandInvoked       = "command_invoked"
	KindComponentInvoked     = "component_invoked"
)

// Event is one notification received from the platform.
type Event interface {
	Kind() string
	GuildID() string
}

type (
	Base struct {
		Guild string
	}

	ContentPosted struct {
		Base
		ChannelID string
		MessageID string
		AuthorID  string
		AuthorBot bool
	}

	ReactionAttempted struct {
		Base
		ChannelID string
		MessageID string
		UserID    string
		UserBot   bool
		Emoji     string
	}

	// VoicePresenceChanged carries the voice channel before and after the
	// change. An empty channel means disconnected.
	VoicePresenceChanged struct {
		Base
		UserID string
		Bot    bool
		Old    string
		New    string
	}

	CommandInvoked struct {
		Base
		Invoker platform.Member
		Name    string
		Options Options
		Reply   platform.Responder
	}

	ComponentInvoked struct {
		Base
		UserID   string
		CustomID string
		Reply    platform.Responder
	}

	// Options holds resolved command arguments. Users and channels are
	// stored by id.
	Options map[string]any
)

func (b Base) GuildID() string { return b.Guild }

func (ContentPosted) Kind() string        { return KindContentPosted }
func (ReactionAttempted) Kind() string    { return KindReactionAttempted }
func (VoicePresenceChanged) Kind() string { return KindVoicePresenceChanged }
func (CommandInvoked) Kind() string       { return KindCommandInvoked }
func (ComponentInvoked) Kind() string     { return KindComponentInvoked }

// Moved reports whether the voice location actually changed.
func (e VoicePresenceChanged) Moved() bool {
	return e.Old != e.New
}

func (o Options) String(name string) (string, bool) {
	switch v := o[name].(type) {
	case string:
		return v, v != ""
	case int64:
		return strconv.FormatInt(v, 10), true
	}
	return "", false
}

func (o Options) Int(name string) (int64, bool) {
	switch v := o[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (o Options) Has(name string) bool {
	_, ok := o.String(name)
	return ok
}
