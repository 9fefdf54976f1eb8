// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/anyme/vcbot/internal/platform"
)

// Call is one recorded mutation issued against the fake.
type Call struct {
	Op     string
	Target string
	Arg    string
}

type Fake struct {
	mu sync.Mutex

	Self     string
	Members  map[string]*platform.Member
	Channels map[string]*platform.Channel
	Stats    platform.GuildStats

	calls    []Call
	failures map[string]error
}

var _ platform.Client = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Self:     "bot",
		Members:  make(map[string]*platform.Member),
		Channels: make(map[string]*platform.Channel),
		failures: make(map[string]error),
	}
}

func (f *Fake) AddMember(m platform.Member) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Members[m.ID] = &m
	return f
}

func (f *Fake) AddChannel(c platform.Channel) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Channels[c.ID] = &c
	return f
}

// Fail makes every op call against target return err. An empty target
// matches all targets.
func (f *Fake) Fail(op, target string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op+"/"+target] = err
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsOf returns the recorded calls for op.
func (f *Fake) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// VoiceOf returns the current voice channel of a member.
func (f *Fake) VoiceOf(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Members[userID]; ok {
		return m.VoiceChannelID
	}
	return ""
}

func (f *Fake) NickOf(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Members[userID]; ok {
		return m.Nick
	}
	return ""
}

// SetVoice moves a member without recording a call, as the member would do.
func (f *Fake) SetVoice(userID, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Members[userID]; ok {
		m.VoiceChannelID = channelID
	}
}

func (f *Fake) record(op, target, arg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Target: target, Arg: arg})
	if err, ok := f.failures[op+"/"+target]; ok {
		return err
	}
	if err, ok := f.failures[op+"/"]; ok {
		return err
	}
	return nil
}

func (f *Fake) lookup(op, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[op+"/"+target]; ok {
		return err
	}
	if err, ok := f.failures[op+"/"]; ok {
		return err
	}
	return nil
}

func (f *Fake) DeleteMessage(_ context.Context, channelID, messageID string) error {
	return f.record("delete_message", messageID, channelID)
}

func (f *Fake) RemoveReaction(_ context.Context, _, messageID, emoji, userID string) error {
	return f.record("remove_reaction", userID, messageID+":"+emoji)
}

func (f *Fake) SendDirect(_ context.Context, userID, content string) error {
	return f.record("send_direct", userID, content)
}

func (f *Fake) Member(_ context.Context, _, userID string) (*platform.Member, error) {
	if err := f.lookup("member", userID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.Members[userID]
	if !ok {
		return nil, fmt.Errorf("unknown member %s", userID)
	}
	cp := *m
	return &cp, nil
}

func (f *Fake) MoveMember(_ context.Context, _, userID, channelID string) error {
	if err := f.record("move", userID, channelID); err != nil {
		return err
	}
	f.SetVoice(userID, channelID)
	return nil
}

func (f *Fake) DisconnectMember(_ context.Context, _, userID string) error {
	if err := f.record("disconnect", userID, ""); err != nil {
		return err
	}
	f.SetVoice(userID, "")
	return nil
}

func (f *Fake) SetNickname(_ context.Context, _, userID, nick string) error {
	if err := f.record("nick", userID, nick); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.Members[userID]; ok {
		m.Nick = nick
	}
	return nil
}

func (f *Fake) Channel(_ context.Context, channelID string) (*platform.Channel, error) {
	if err := f.lookup("channel", channelID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.Channels[channelID]
	if !ok {
		return nil, fmt.Errorf("unknown channel %s", channelID)
	}
	cp := *c
	return &cp, nil
}

func (f *Fake) GuildChannels(_ context.Context, _ string) ([]platform.Channel, error) {
	if err := f.lookup("guild_channels", ""); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]platform.Channel, 0, len(f.Channels))
	for _, c := range f.Channels {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) VoiceMembers(_ context.Context, _ string) (map[string]string, error) {
	if err := f.lookup("voice_members", ""); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for id, m := range f.Members {
		if m.VoiceChannelID != "" {
			out[id] = m.VoiceChannelID
		}
	}
	return out, nil
}

func (f *Fake) GuildStats(_ context.Context, _ string) (*platform.GuildStats, error) {
	if err := f.lookup("guild_stats", ""); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := f.Stats
	return &stats, nil
}

func (f *Fake) GrantAccess(_ context.Context, channelID, userID string, allow platform.Permission) error {
	return f.record("grant", userID, fmt.Sprintf("%s:%d", channelID, allow))
}

func (f *Fake) SelfID() string {
	return f.Self
}

func (f *Fake) SetAvatar(_ context.Context, imageURL string) error {
	return f.record("avatar", f.Self, imageURL)
}

func (f *Fake) SetUsername(_ context.Context, name string) error {
	return f.record("username", f.Self, name)
}

func (f *Fake) SetPresence(_ context.Context, p platform.Presence) error {
	return f.record("presence", f.Self, fmt.Sprintf("%s|%s|%s|%s", p.Status, p.ActivityType, p.ActivityText, p.URL))
}

// Responder records the replies of one interaction.
type Responder struct {
	mu       sync.Mutex
	Deferred bool
	Replies  []*platform.Reply
}

var _ platform.Responder = (*Responder)(nil)

func (r *Responder) Defer(context.Context, bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Deferred = true
	return nil
}

func (r *Responder) Respond(_ context.Context, reply *platform.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Replies = append(r.Replies, reply)
	return nil
}

// Only returns the single reply sent, or nil when there were zero or many.
func (r *Responder) Only() *platform.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Replies) != 1 {
		return nil
	}
	return r.Replies[0]
}

// Mutations counts recorded calls that change platform state.
func (f *Fake) Mutations() int {
	return len(f.Calls())
}
