package moderation

import (
	"context"
	"errors"
	"testing"

	"github.com/anyme/vcbot/internal/bot"
	"github.com/anyme/vcbot/internal/db"
	"github.com/anyme/vcbot/internal/db/sqlite"
	vcerrors "github.com/anyme/vcbot/internal/errors"
	"github.com/anyme/vcbot/internal/ledger"
	"github.com/anyme/vcbot/internal/platform"
	"github.com/anyme/vcbot/internal/platform/platformtest"
)

const guild = "g1"

var operator = platform.Member{ID: "op", Username: "boss"}

type fixture struct {
	ledger       *ledger.Ledger
	fake         *platformtest.Fake
	enforcer     *Enforcer
	follow       *FollowCoordinator
	restrictions *Restrictions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, err := sqlite.NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	l := ledger.New(client)
	fake := platformtest.New()
	fake.AddMember(operator)
	return &fixture{
		ledger:       l,
		fake:         fake,
		enforcer:     NewEnforcer(l, fake),
		follow:       NewFollowCoordinator(l, fake),
		restrictions: NewRestrictions(l, fake),
	}
}

func voice(userID, from, to string) bot.VoicePresenceChanged {
	return bot.VoicePresenceChanged{Base: bot.Base{Guild: guild}, UserID: userID, Old: from, New: to}
}

func (f *fixture) voiceEvent(t *testing.T, ev bot.VoicePresenceChanged) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.enforcer.Handle(ctx, ev); err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	if _, err := f.follow.Handle(ctx, ev); err != nil {
		t.Fatalf("follow: %v", err)
	}
}

func TestMutedMemberIsDisconnectedOnEveryReconnect(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})

	if _, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m"); err != nil {
		t.Fatalf("add: %v", err)
	}
	restricted, err := f.ledger.IsRestricted(ctx, db.ListMuted, "m")
	if err != nil || !restricted {
		t.Fatalf("expected muted, got %v err=%v", restricted, err)
	}

	for i := 0; i < 3; i++ {
		f.fake.SetVoice("m", "v1")
		f.voiceEvent(t, voice("m", "", "v1"))
		if got := f.fake.VoiceOf("m"); got != "" {
			t.Fatalf("reconnect %d not corrected, member in %q", i, got)
		}
	}
	if got := len(f.fake.CallsOf("disconnect")); got != 3 {
		t.Fatalf("expected 3 disconnects, got %d", got)
	}
}

func TestMutedAddDisconnectsMemberAlreadyInVoice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory", VoiceChannelID: "v1"})

	result, err := f.restrictions.Add(context.Background(), guild, db.ListMuted, operator, "m")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !result.Relocated || f.fake.VoiceOf("m") != "" {
		t.Fatalf("expected immediate disconnect")
	}
	if got := f.fake.NickOf("m"); got != "🔇 mallory (👑 boss)" {
		t.Fatalf("unexpected decorated nick %q", got)
	}
}

func TestRemoveRestoresCapturedName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory", Nick: "Mal"})

	if _, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m"); err != nil {
		t.Fatalf("add: %v", err)
	}
	restored, err := f.restrictions.Remove(ctx, guild, db.ListMuted, "m")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !restored {
		t.Fatalf("expected nickname restore to succeed")
	}
	if got := f.fake.NickOf("m"); got != "Mal" {
		t.Fatalf("expected captured nick restored, got %q", got)
	}
	restricted, err := f.ledger.IsRestricted(ctx, db.ListMuted, "m")
	if err != nil || restricted {
		t.Fatalf("expected unmuted, got %v err=%v", restricted, err)
	}
}

func TestRemoveWithoutRecordIsNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})

	_, err := f.restrictions.Remove(context.Background(), guild, db.ListTethered, "m")
	if !errors.Is(err, vcerrors.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if !errors.Is(err, vcerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if calls := f.fake.CallsOf("nick"); len(calls) != 0 {
		t.Fatalf("no rename expected, got %v", calls)
	}
}

func TestRenameFailureDoesNotUndoAdd(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})
	f.fake.Fail("nick", "m", errors.New("missing permissions"))

	result, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if result.Renamed {
		t.Fatalf("rename reported as done")
	}
	restricted, err := f.ledger.IsRestricted(ctx, db.ListMuted, "m")
	if err != nil || !restricted {
		t.Fatalf("record must govern enforcement after failed rename")
	}
}

func TestTetherTwiceKeepsOneRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	other := platform.Member{ID: "op2", Username: "second"}
	f.fake.AddMember(other)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})

	if _, err := f.restrictions.Add(ctx, guild, db.ListTethered, operator, "m"); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := f.restrictions.Add(ctx, guild, db.ListTethered, other, "m"); err != nil {
		t.Fatalf("second add: %v", err)
	}

	records, err := f.restrictions.List(ctx, db.ListTethered)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].AppliedBy != "op2" {
		t.Fatalf("second add must win, applied_by=%q", records[0].AppliedBy)
	}
	if records[0].OriginalNameOr("") != "mallory" {
		t.Fatalf("original name replaced by %q", records[0].OriginalNameOr(""))
	}
}

func TestTetheredMembersFollowOperator(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "a", Username: "alice"})
	f.fake.AddMember(platform.Member{ID: "b", Username: "bob"})

	for _, id := range []string{"a", "b"} {
		if _, err := f.restrictions.Add(ctx, guild, db.ListTethered, operator, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	f.fake.SetVoice("op", "X")
	f.voiceEvent(t, voice("op", "", "X"))
	if moves := f.fake.CallsOf("move"); len(moves) != 0 {
		t.Fatalf("absent members must not be pulled in: %v", moves)
	}

	f.fake.SetVoice("a", "Y")
	f.voiceEvent(t, voice("a", "", "Y"))
	if got := f.fake.VoiceOf("a"); got != "Y" {
		t.Fatalf("member moving alone must not be touched, in %q", got)
	}

	f.fake.SetVoice("op", "Z")
	f.voiceEvent(t, voice("op", "X", "Z"))
	if got := f.fake.VoiceOf("a"); got != "Z" {
		t.Fatalf("expected a to follow into Z, in %q", got)
	}
	if got := f.fake.VoiceOf("b"); got != "" {
		t.Fatalf("expected b to stay out of voice, in %q", got)
	}
}

func TestOperatorLeavingVoiceMovesNobody(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "a", Username: "alice", VoiceChannelID: "X"})
	f.fake.SetVoice("op", "X")
	if _, err := f.restrictions.Add(ctx, guild, db.ListTethered, operator, "a"); err != nil {
		t.Fatalf("add: %v", err)
	}

	f.fake.SetVoice("op", "")
	f.voiceEvent(t, voice("op", "X", ""))
	if got := f.fake.VoiceOf("a"); got != "X" {
		t.Fatalf("tethered member must stay, in %q", got)
	}
}

func TestRelocationFailureIsIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "a", Username: "alice"})
	f.fake.AddMember(platform.Member{ID: "b", Username: "bob"})
	for _, id := range []string{"a", "b"} {
		if _, err := f.restrictions.Add(ctx, guild, db.ListTethered, operator, id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	f.fake.SetVoice("a", "Y")
	f.fake.SetVoice("b", "Y")
	f.fake.Fail("move", "a", errors.New("missing access"))

	f.voiceEvent(t, voice("op", "", "Z"))

	if got := f.fake.VoiceOf("b"); got != "Z" {
		t.Fatalf("b must be relocated despite a failing, in %q", got)
	}
	if got := f.fake.VoiceOf("a"); got != "Y" {
		t.Fatalf("a should not have moved, in %q", got)
	}
}

func TestMutedContentIsDeletedSilently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})
	f.fake.AddMember(platform.Member{ID: "n", Username: "nice"})
	if _, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m"); err != nil {
		t.Fatalf("add: %v", err)
	}
	before := len(f.fake.Calls())

	for _, ev := range []bot.ContentPosted{
		{Base: bot.Base{Guild: guild}, ChannelID: "c", MessageID: "1", AuthorID: "m"},
		{Base: bot.Base{Guild: guild}, ChannelID: "c", MessageID: "2", AuthorID: "n"},
	} {
		if _, err := f.enforcer.Handle(ctx, ev); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	calls := f.fake.Calls()[before:]
	if len(calls) != 1 || calls[0].Op != "delete_message" || calls[0].Target != "1" {
		t.Fatalf("expected only message 1 deleted, got %v", calls)
	}
}

func TestMutedReactionIsRevoked(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})
	if _, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m"); err != nil {
		t.Fatalf("add: %v", err)
	}

	ev := bot.ReactionAttempted{Base: bot.Base{Guild: guild}, ChannelID: "c", MessageID: "1", UserID: "m", Emoji: "👍"}
	if _, err := f.enforcer.Handle(ctx, ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	calls := f.fake.CallsOf("remove_reaction")
	if len(calls) != 1 || calls[0].Target != "m" || calls[0].Arg != "1:👍" {
		t.Fatalf("expected exactly m's reaction removed, got %v", calls)
	}
}

func TestCorrectiveFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory"})
	if _, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m"); err != nil {
		t.Fatalf("add: %v", err)
	}
	f.fake.Fail("delete_message", "", errors.New("unknown message"))

	proceed, err := f.enforcer.Handle(ctx, bot.ContentPosted{Base: bot.Base{Guild: guild}, ChannelID: "c", MessageID: "1", AuthorID: "m"})
	if err != nil || !proceed {
		t.Fatalf("enforcement failure must not propagate: proceed=%v err=%v", proceed, err)
	}
}

type failingReader struct{}

func (failingReader) IsRestricted(context.Context, db.List, string) (bool, error) {
	return false, &vcerrors.StorageError{Op: "lookup", Err: errors.New("database is locked")}
}

func (failingReader) ListByApplier(context.Context, db.List, string) ([]string, error) {
	return nil, &vcerrors.StorageError{Op: "list_by_applier", Err: errors.New("database is locked")}
}

func TestStorageErrorFailsOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := platformtest.New()
	enforcer := NewEnforcer(failingReader{}, fake)
	follow := NewFollowCoordinator(failingReader{}, fake)

	ev := voice("m", "", "v1")
	for _, h := range []bot.Handler{enforcer, follow} {
		proceed, err := h.Handle(ctx, ev)
		if err != nil || !proceed {
			t.Fatalf("storage error must not propagate: proceed=%v err=%v", proceed, err)
		}
	}
	if n := fake.Mutations(); n != 0 {
		t.Fatalf("no corrective action expected on indeterminate state, got %d calls", n)
	}
}

func TestDecoratedNickIsTruncated(t *testing.T) {
	t.Parallel()

	got := DecoratedNick(db.ListTethered, "a-very-long-display-name-indeed", "operator")
	if n := len([]rune(got)); n > platform.NickLimit {
		t.Fatalf("nick has %d runes", n)
	}
	if []rune(got)[0] != '🐕' {
		t.Fatalf("expected tether emoji prefix, got %q", got)
	}
}

func TestSecondListCapturesPlainName(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	f.fake.AddMember(platform.Member{ID: "m", Username: "mallory", Nick: "Mal"})

	if _, err := f.restrictions.Add(ctx, guild, db.ListMuted, operator, "m"); err != nil {
		t.Fatalf("mute: %v", err)
	}
	if _, err := f.restrictions.Add(ctx, guild, db.ListTethered, operator, "m"); err != nil {
		t.Fatalf("tether: %v", err)
	}
	if got := f.fake.NickOf("m"); got != "🐕 Mal (👑 boss)" {
		t.Fatalf("expected single decoration, got %q", got)
	}

	records, err := f.ledger.ListAll(ctx, db.ListTethered)
	if err != nil || len(records) != 1 {
		t.Fatalf("expected one tether record, got %v err=%v", records, err)
	}
	if got := records[0].OriginalNameOr(""); got != "Mal" {
		t.Fatalf("tether captured %q", got)
	}

	if _, err := f.restrictions.Remove(ctx, guild, db.ListMuted, "m"); err != nil {
		t.Fatalf("unmute: %v", err)
	}
	if _, err := f.restrictions.Remove(ctx, guild, db.ListTethered, "m"); err != nil {
		t.Fatalf("untether: %v", err)
	}
	if got := f.fake.NickOf("m"); got != "Mal" {
		t.Fatalf("expected plain nick restored, got %q", got)
	}
}

func TestUndecoratedHandlesTruncatedNick(t *testing.T) {
	t.Parallel()

	long := "abcdefghijklmnopqrstuvwxyz"
	decorated := DecoratedNick(db.ListMuted, long, "boss")
	if got := undecorated(decorated); got != long {
		t.Fatalf("expected %q, got %q from %q", long, got, decorated)
	}
	if got := undecorated("plain (name)"); got != "plain (name)" {
		t.Fatalf("undecorated name changed: %q", got)
	}
}
