package commands

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/config"
	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/db/sqlite"
	"github.com/anyme/vcbot/internal/handlers/moderation"
	"github.com/anyme/vcbot/internal/ledger"
	"github.com/anyme/vcbot/internal/platform"
	"github.com/anyme/vcbot/internal/platform/platformtest"
)

const guild = "g1"

var owner = platform.Member{ID: "owner", Username: "boss"}

type harness struct {
	router *Router
	fake   *platformtest.Fake
	db     db.Client
	sleeps []time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	client, err := sqlite.NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	fake := platformtest.New()
	fake.AddMember(owner)
	fake.AddChannel(platform.Channel{ID: "v1", Name: "Lobby", Kind: platform.ChannelVoice, ParentID: "cat"})
	fake.AddChannel(platform.Channel{ID: "v2", Name: "Games", Kind: platform.ChannelVoice, ParentID: "cat"})
	fake.AddChannel(platform.Channel{ID: "v3", Name: "Afk", Kind: platform.ChannelVoice})
	fake.AddChannel(platform.Channel{ID: "t1", Name: "general", Kind: platform.ChannelText})
	fake.AddChannel(platform.Channel{ID: "cat", Name: "Voice", Kind: platform.ChannelCategory})

	cfg := config.Config{
		OwnerID:         owner.ID,
		DefaultLanguage: "en",
		Commands: config.Commands{
			WakeupDelay:  800 * time.Millisecond,
			StreamingURL: "https://twitch.tv/serial",
			StatsURL:     "https://discord.gg/anyme",
			EmbedColor:   0x2F3136,
		},
	}
	restrictions := moderation.NewRestrictions(ledger.New(client), fake)

	h := &harness{fake: fake, db: client}
	h.router = NewRouter(cfg, fake, restrictions, client)
	h.router.sleep = func(_ context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}
	h.router.pick = func(int) int { return 0 }
	return h
}

func (h *harness) invoke(t *testing.T, invoker platform.Member, name string, opts bot.Options) *platformtest.Responder {
	t.Helper()
	resp := &platformtest.Responder{}
	_, err := h.router.Handle(context.Background(), bot.CommandInvoked{
		Base:    bot.Base{Guild: guild},
		Invoker: invoker,
		Name:    name,
		Options: opts,
		Reply:   resp,
	})
	if err != nil {
		t.Fatalf("handle %s: %v", name, err)
	}
	if len(resp.Replies) != 1 {
		t.Fatalf("%s: expected exactly one reply, got %d", name, len(resp.Replies))
	}
	return resp
}

func description(t *testing.T, resp *platformtest.Responder) string {
	t.Helper()
	reply := resp.Only()
	if reply == nil || len(reply.Embeds) == 0 {
		t.Fatalf("reply without embed")
	}
	return reply.Embeds[0].Description
}

func TestNonOperatorIsDeniedWithoutSideEffects(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	intruder := platform.Member{ID: "intruder", Username: "eve"}
	h.fake.AddMember(intruder)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory", VoiceChannelID: "v1"})

	opts := bot.Options{
		optMember:      "m",
		optChannel:     "v2",
		optAction:      actionAdd,
		optTimes:       int64(3),
		optDM:          "wake up",
		optMessage:     "hello",
		optCategory:    "cat",
		optType:        "idle",
		optDescription: "something",
	}
	for _, name := range h.router.Names() {
		resp := h.invoke(t, intruder, name, opts)
		reply := resp.Only()
		if !reply.Ephemeral {
			t.Fatalf("%s: denial must be ephemeral", name)
		}
		if !strings.Contains(description(t, resp), "you do not have the permission") {
			t.Fatalf("%s: unexpected denial text %q", name, description(t, resp))
		}
		if resp.Deferred {
			t.Fatalf("%s: denied command must not be deferred", name)
		}
	}

	if n := h.fake.Mutations(); n != 0 {
		t.Fatalf("expected zero platform mutations, got %v", h.fake.Calls())
	}
	for _, list := range db.Lists {
		records, err := h.db.ListModerationRecords(context.Background(), list)
		if err != nil {
			t.Fatalf("list %s: %v", list, err)
		}
		if len(records) != 0 {
			t.Fatalf("expected empty %s ledger, got %d records", list, len(records))
		}
	}
	usage, err := h.db.ListUsage(context.Background(), intruder.ID, 0)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(usage) != 0 {
		t.Fatalf("denied commands must not be logged, got %d", len(usage))
	}
}

func TestEmptyListReportsEmptyState(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	for name, want := range map[string]string{
		"toutou": "No member in the tethered list.",
		"chut":   "No member in the muted list.",
	} {
		resp := h.invoke(t, owner, name, bot.Options{optAction: actionList})
		if got := description(t, resp); !strings.HasSuffix(got, want) {
			t.Fatalf("%s list: got %q want suffix %q", name, got, want)
		}
	}
}

func TestListRendersOneLinePerRecord(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "a", Username: "alice"})
	h.fake.AddMember(platform.Member{ID: "b", Username: "bob"})
	h.invoke(t, owner, "chut", bot.Options{optAction: actionAdd, optMember: "a"})
	h.invoke(t, owner, "chut", bot.Options{optAction: actionAdd, optMember: "b"})

	got := description(t, h.invoke(t, owner, "chut", bot.Options{optAction: actionList}))
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", got)
	}
	for _, line := range lines {
		if !strings.Contains(line, "🔇") || !strings.HasSuffix(line, "added by <@owner>") {
			t.Fatalf("unexpected list line %q", line)
		}
	}
}

func TestChutAddAndRemove(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory", Nick: "Mal", VoiceChannelID: "v1"})

	added := description(t, h.invoke(t, owner, "chut", bot.Options{optAction: actionAdd, optMember: "m"}))
	if !strings.Contains(added, "was added to the muted list by <@owner>") {
		t.Fatalf("unexpected add reply %q", added)
	}
	if h.fake.VoiceOf("m") != "" {
		t.Fatalf("muted member must be disconnected")
	}
	if got := h.fake.NickOf("m"); got != "🔇 Mal (👑 boss)" {
		t.Fatalf("unexpected nick %q", got)
	}

	removed := description(t, h.invoke(t, owner, "chut", bot.Options{optAction: "REMOVE", optMember: "m"}))
	if !strings.Contains(removed, "was removed from the muted list") {
		t.Fatalf("unexpected remove reply %q", removed)
	}
	if got := h.fake.NickOf("m"); got != "Mal" {
		t.Fatalf("nick not restored: %q", got)
	}

	usage, err := h.db.ListUsage(context.Background(), owner.ID, 0)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	actions := make([]string, 0, len(usage))
	for _, u := range usage {
		actions = append(actions, u.Action)
	}
	if diff := cmp.Diff([]string{"chut:remove", "chut:add"}, actions); diff != "" {
		t.Fatalf("unexpected usage log (-want +got):\n%s", diff)
	}
}

func TestRemoveUnknownMemberIsDistinctNotFound(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})

	resp := h.invoke(t, owner, "toutou", bot.Options{optAction: actionRemove, optMember: "m"})
	if !resp.Only().Ephemeral {
		t.Fatalf("not found reply should be ephemeral")
	}
	if got := description(t, resp); !strings.Contains(got, "<@m> is not in the tethered list.") {
		t.Fatalf("unexpected reply %q", got)
	}
	if len(h.fake.CallsOf("nick")) != 0 {
		t.Fatalf("no rename expected")
	}
}

func TestListActionRequiresMemberForMutations(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got := description(t, h.invoke(t, owner, "toutou", bot.Options{optAction: actionAdd}))
	if !strings.Contains(got, "You must provide a member for add/remove!") {
		t.Fatalf("unexpected reply %q", got)
	}
	got = description(t, h.invoke(t, owner, "toutou", bot.Options{optAction: "kick"}))
	if !strings.Contains(got, "Invalid action") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestWakeupClampsMovesAndReturnsToOrigin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory", VoiceChannelID: "v1"})

	resp := h.invoke(t, owner, "wakeup", bot.Options{optMember: "m", optTimes: int64(9), optDM: "debout"})
	if !resp.Deferred {
		t.Fatalf("wakeup should defer its reply")
	}

	moves := h.fake.CallsOf("move")
	got := make([]string, 0, len(moves))
	for _, c := range moves {
		got = append(got, c.Arg)
	}
	want := []string{"v2", "v2", "v2", "v2", "v2", "v1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected moves (-want +got):\n%s", diff)
	}
	if len(h.sleeps) != maxWakeups || h.sleeps[0] != 800*time.Millisecond {
		t.Fatalf("unexpected sleeps %v", h.sleeps)
	}
	dms := h.fake.CallsOf("send_direct")
	if len(dms) != 1 || dms[0].Target != "m" || dms[0].Arg != "debout" {
		t.Fatalf("unexpected direct messages %v", dms)
	}
	if desc := description(t, resp); !strings.Contains(desc, "**5** times") {
		t.Fatalf("unexpected reply %q", desc)
	}

	usage, err := h.db.ListUsage(context.Background(), owner.ID, 0)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(usage) != 1 || usage[0].Action != "wakeup" {
		t.Fatalf("wakeup must be logged, got %+v", usage)
	}
}

func TestWakeupSkipsFailedMove(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory", VoiceChannelID: "v1"})
	h.router.pick = func(n int) int { return n - 1 }
	h.fake.Fail("move", "m", context.DeadlineExceeded)

	resp := h.invoke(t, owner, "wakeup", bot.Options{optMember: "m", optTimes: int64(0), optDM: "debout"})
	if got := len(h.fake.CallsOf("move")); got != 2 {
		t.Fatalf("expected one clamped move plus the return, got %d", got)
	}
	if desc := description(t, resp); !strings.Contains(desc, "**1** times") {
		t.Fatalf("unexpected reply %q", desc)
	}
}

func TestWakeupRequiresVoice(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})

	got := description(t, h.invoke(t, owner, "wakeup", bot.Options{optMember: "m", optTimes: int64(2), optDM: "x"}))
	if !strings.Contains(got, "<@m> `(m)` is not in voice!") {
		t.Fatalf("unexpected reply %q", got)
	}
	if h.fake.Mutations() != 0 {
		t.Fatalf("no platform call expected, got %v", h.fake.Calls())
	}
}

func TestJoinOptionConflicts(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	cases := map[string]bot.Options{
		"You cannot use **membre** and **salon** at the same time!": {optMember: "m", optChannel: "v1"},
		"You must provide either a member or a channel!":            {},
		"The selected channel is not a voice channel!":              {optChannel: "t1"},
	}
	for want, opts := range cases {
		got := description(t, h.invoke(t, owner, "join", opts))
		if !strings.Contains(got, want) {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestJoinMovesInvokerToMemberChannel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory", VoiceChannelID: "v2"})

	got := description(t, h.invoke(t, owner, "join", bot.Options{optMember: "m"}))
	if !strings.Contains(got, "you must be in voice") {
		t.Fatalf("invoker outside voice must be refused, got %q", got)
	}

	h.fake.SetVoice(owner.ID, "v1")
	got = description(t, h.invoke(t, owner, "join", bot.Options{optMember: "m"}))
	if !strings.Contains(got, "was moved to **Games**") {
		t.Fatalf("unexpected reply %q", got)
	}
	if h.fake.VoiceOf(owner.ID) != "v2" {
		t.Fatalf("invoker not moved")
	}
}

func TestAccessGrantsByChannelKind(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.invoke(t, owner, "access", bot.Options{optMember: "m", optChannel: "v1"})
	h.invoke(t, owner, "access", bot.Options{optMember: "m", optChannel: "t1"})

	grants := h.fake.CallsOf("grant")
	if len(grants) != 2 {
		t.Fatalf("expected two grants, got %v", grants)
	}
	voiceGrant := platform.PermissionConnect | platform.PermissionSpeak
	if grants[0].Arg != fmt.Sprintf("v1:%d", voiceGrant) {
		t.Fatalf("unexpected voice grant %q", grants[0].Arg)
	}
	if grants[1].Arg != fmt.Sprintf("t1:%d", platform.PermissionSendMessages) {
		t.Fatalf("unexpected text grant %q", grants[1].Arg)
	}
}

func TestBringCategoryMovesEveryoneInVoice(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.AddMember(platform.Member{ID: "a", Username: "alice", VoiceChannelID: "v3"})
	h.fake.AddMember(platform.Member{ID: "b", Username: "bob", VoiceChannelID: "v3"})
	h.fake.AddMember(platform.Member{ID: "c", Username: "carol"})

	got := description(t, h.invoke(t, owner, "bringcc", bot.Options{optCategory: "cat"}))
	if !strings.Contains(got, "<#cat>") {
		t.Fatalf("unexpected reply %q", got)
	}
	for _, id := range []string{"a", "b"} {
		if ch := h.fake.VoiceOf(id); ch != "v1" && ch != "v2" {
			t.Fatalf("%s not moved into the category, in %q", id, ch)
		}
	}
	if h.fake.VoiceOf("c") != "" {
		t.Fatalf("absent member must not be moved")
	}

	got = description(t, h.invoke(t, owner, "bringcc", bot.Options{optCategory: "v1"}))
	if !strings.Contains(got, "Invalid category!") {
		t.Fatalf("unexpected reply %q", got)
	}
}

func TestBotStatusIsPersistedAndRestored(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got := description(t, h.invoke(t, owner, "bot-status", bot.Options{optType: "idle"}))
	if !strings.Contains(got, "**idle**") {
		t.Fatalf("unexpected reply %q", got)
	}
	h.invoke(t, owner, "bot-activities", bot.Options{optType: "streaming", optDescription: "live"})

	if err := h.router.RestorePresence(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	presences := h.fake.CallsOf("presence")
	if len(presences) != 3 {
		t.Fatalf("expected three presence updates, got %v", presences)
	}
	want := "idle|streaming|live|https://twitch.tv/serial"
	if presences[2].Arg != want {
		t.Fatalf("restored presence %q want %q", presences[2].Arg, want)
	}
}

func TestRestorePresenceWithoutHistoryIsNoop(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	if err := h.router.RestorePresence(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if h.fake.Mutations() != 0 {
		t.Fatalf("nothing to restore, got %v", h.fake.Calls())
	}
}

func TestInvalidStatusIsRejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	got := description(t, h.invoke(t, owner, "bot-status", bot.Options{optType: "asleep"}))
	if !strings.Contains(got, "Invalid status!") {
		t.Fatalf("unexpected reply %q", got)
	}
	if h.fake.Mutations() != 0 {
		t.Fatalf("no presence change expected")
	}
}

func TestPlatformFailureGivesGenericReply(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.Fail("send_direct", "", context.Canceled)

	got := description(t, h.invoke(t, owner, "mp", bot.Options{optMember: "m", optMessage: "hi"}))
	if !strings.Contains(got, "Unable to send the direct message.") {
		t.Fatalf("unexpected reply %q", got)
	}
	usage, err := h.db.ListUsage(context.Background(), owner.ID, 0)
	if err != nil {
		t.Fatalf("list usage: %v", err)
	}
	if len(usage) != 0 {
		t.Fatalf("failed command must not be logged")
	}
}

func TestHelpButtonsAnswerAnyone(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	resp := &platformtest.Responder{}
	_, err := h.router.Handle(context.Background(), bot.ComponentInvoked{
		Base:     bot.Base{Guild: guild},
		UserID:   "intruder",
		CustomID: ButtonHelpMuted,
		Reply:    resp,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	reply := resp.Only()
	if reply == nil || !reply.Ephemeral {
		t.Fatalf("expected one ephemeral reply")
	}
	if !strings.Contains(reply.Embeds[0].Description, "/chut list") {
		t.Fatalf("unexpected usage %q", reply.Embeds[0].Description)
	}
}

func TestHelpListsCommandsWithButtons(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	reply := h.invoke(t, owner, "help", nil).Only()
	if len(reply.Buttons) != 3 || reply.Buttons[0].CustomID != ButtonHelpTethered {
		t.Fatalf("unexpected buttons %+v", reply.Buttons)
	}
	if len(reply.Embeds[0].Fields) == 0 {
		t.Fatalf("help must list commands")
	}
}

func TestRandomIndexCoversRange(t *testing.T) {
	t.Parallel()

	if got := randomIndex(1); got != 0 {
		t.Fatalf("single choice must be index 0, got %d", got)
	}
	seen := make(map[int]bool)
	for i := 0; i < 2000; i++ {
		n := randomIndex(3)
		if n < 0 || n >= 3 {
			t.Fatalf("index %d out of range", n)
		}
		seen[n] = true
	}
	if !seen[2] {
		t.Fatalf("last index never picked, saw %v", seen)
	}
}

func TestWakeupWithSingleOtherChannel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.router.pick = randomIndex
	delete(h.fake.Channels, "v3")
	h.fake.AddMember(platform.Member{ID: "m", Username: "mallory", VoiceChannelID: "v1"})

	resp := h.invoke(t, owner, "wakeup", bot.Options{optMember: "m", optTimes: int64(2)})

	moves := h.fake.CallsOf("move")
	got := make([]string, 0, len(moves))
	for _, c := range moves {
		got = append(got, c.Arg)
	}
	if diff := cmp.Diff([]string{"v2", "v2", "v1"}, got); diff != "" {
		t.Fatalf("unexpected moves (-want +got):\n%s", diff)
	}
	if desc := description(t, resp); !strings.Contains(desc, "**2** times") {
		t.Fatalf("unexpected reply %q", desc)
	}
}

func TestBringCategoryWithSingleChannel(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.router.pick = randomIndex
	h.fake.AddChannel(platform.Channel{ID: "solo", Name: "Solo", Kind: platform.ChannelCategory})
	h.fake.AddChannel(platform.Channel{ID: "v9", Name: "Only", Kind: platform.ChannelVoice, ParentID: "solo"})
	h.fake.AddMember(platform.Member{ID: "a", Username: "alice", VoiceChannelID: "v3"})
	h.fake.AddMember(platform.Member{ID: "b", Username: "bob", VoiceChannelID: "v1"})

	got := description(t, h.invoke(t, owner, "bringcc", bot.Options{optCategory: "solo"}))
	if !strings.Contains(got, "<#solo>") {
		t.Fatalf("unexpected reply %q", got)
	}
	for _, id := range []string{"a", "b"} {
		if ch := h.fake.VoiceOf(id); ch != "v9" {
			t.Fatalf("%s expected in v9, in %q", id, ch)
		}
	}
}
