package voting

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stake-plus/link-curator/src/bot/components/render"
	shareddiscord "github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

type grant struct{ userID, roleID string }

type fakeGateway struct {
	mu       sync.Mutex
	edits    int
	deleted  []string
	unpinned []string
	grants   []grant
	grantErr error
}

func (g *fakeGateway) SendMessage(string, shareddiscord.OutgoingMessage) (string, error) {
	return "msg", nil
}

func (g *fakeGateway) EditMessage(_, _ string, _ shareddiscord.OutgoingMessage) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits++
	return nil
}

func (g *fakeGateway) DeleteMessage(_, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, messageID)
	return nil
}

func (g *fakeGateway) PinMessage(string, string) error { return nil }

func (g *fakeGateway) UnpinMessage(_, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unpinned = append(g.unpinned, messageID)
	return nil
}

func (g *fakeGateway) MemberRoles(string, string) ([]string, error) { return nil, nil }

func (g *fakeGateway) GrantRole(_, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.grantErr != nil {
		return g.grantErr
	}
	g.grants = append(g.grants, grant{userID: userID, roleID: roleID})
	return nil
}

type fixture struct {
	handler  *Handler
	gateway  *fakeGateway
	channels *store.MemoryChannels
	subs     *store.MemorySubmissions
	ledger   *store.MemoryLedger
	settings *types.ChannelSettings
}

func newFixture(t *testing.T, cfg types.ChannelConfig) *fixture {
	t.Helper()
	ctx := context.Background()

	channels := store.NewMemoryChannels()
	if cfg.AwardedRoleID == "" {
		cfg.AwardedRoleID = "role-hall-of-fame"
	}
	if err := channels.Upsert(ctx, "chan-1", "guild-1", cfg); err != nil {
		t.Fatalf("upsert channel: %v", err)
	}
	settings, err := channels.Get(ctx, "chan-1")
	if err != nil {
		t.Fatalf("get channel: %v", err)
	}

	gateway := &fakeGateway{}
	subs := store.NewMemorySubmissions()
	ledger := store.NewMemoryLedger()

	return &fixture{
		handler: NewHandler(Config{
			Channels:    channels,
			Submissions: subs,
			Ledger:      ledger,
			Gateway:     gateway,
			GuildID:     "guild-1",
		}),
		gateway:  gateway,
		channels: channels,
		subs:     subs,
		ledger:   ledger,
		settings: settings,
	}
}

func (f *fixture) addCandidate(t *testing.T, link, messageID, userID string) *types.Submission {
	t.Helper()
	sub := &types.Submission{
		Link:              link,
		ChannelSettingsID: f.settings.ID,
		Type:              types.TypeGoogleDoc,
		UserID:            userID,
		IsCandidate:       true,
		BotMessageID:      messageID,
	}
	if _, err := f.subs.Upsert(context.Background(), sub); err != nil {
		t.Fatalf("upsert submission: %v", err)
	}
	return sub
}

func (f *fixture) cast(t *testing.T, messageID, userID, customID string, roles ...string) {
	t.Helper()
	err := f.handler.Process(context.Background(), Cast{
		ChannelID: "chan-1",
		MessageID: messageID,
		UserID:    userID,
		Roles:     roles,
		CustomID:  customID,
	})
	if err != nil {
		t.Fatalf("process %s: %v", customID, err)
	}
}

func TestBallotToggleLaw(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 3})
	f.addCandidate(t, "https://docs.google.com/document/d/A/edit", "m1", "author")
	ctx := context.Background()

	f.cast(t, "m1", "voter", render.CustomIDVoteUp)
	tally, _ := f.ledger.Tally(ctx, "m1", store.KindVote)
	if tally.InFavor != 1 || tally.Against != 0 {
		t.Fatalf("after first cast: %+v", tally)
	}

	// Same choice again removes the ballot.
	f.cast(t, "m1", "voter", render.CustomIDVoteUp)
	tally, _ = f.ledger.Tally(ctx, "m1", store.KindVote)
	if tally.InFavor != 0 || tally.Against != 0 {
		t.Fatalf("toggle-off should restore pre-cast state: %+v", tally)
	}

	// Opposite choice flips without changing participant count.
	f.cast(t, "m1", "voter", render.CustomIDVoteUp)
	f.cast(t, "m1", "voter", render.CustomIDVoteDown)
	tally, _ = f.ledger.Tally(ctx, "m1", store.KindVote)
	if tally.InFavor != 0 || tally.Against != 1 {
		t.Fatalf("flip should move the single ballot: %+v", tally)
	}
	if got := len(tally.InFavorUsers) + len(tally.AgainstUsers); got != 1 {
		t.Fatalf("participant count changed on flip: %d", got)
	}
}

func TestSingleVoteAccepts(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 1})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")

	f.cast(t, "m1", "voter", render.CustomIDVoteUp)

	sub, err := f.subs.ByMessageID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("submission gone: %v", err)
	}
	if sub.IsCandidate {
		t.Fatal("acceptance should clear is_candidate")
	}
	if len(f.gateway.unpinned) != 1 || f.gateway.unpinned[0] != "m1" {
		t.Fatalf("message should be unpinned: %v", f.gateway.unpinned)
	}
	if len(f.gateway.grants) != 1 || f.gateway.grants[0].userID != "author" {
		t.Fatalf("role should be granted to submitter: %v", f.gateway.grants)
	}
}

func TestThresholdTwoNeedsTwoVotes(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 2})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")

	f.cast(t, "m1", "voter1", render.CustomIDVoteUp)
	sub, _ := f.subs.ByMessageID(context.Background(), "m1")
	if !sub.IsCandidate {
		t.Fatal("one vote should not accept at threshold 2")
	}
	if len(f.gateway.grants) != 0 {
		t.Fatal("no role grant before threshold")
	}

	f.cast(t, "m1", "voter2", render.CustomIDVoteUp)
	sub, _ = f.subs.ByMessageID(context.Background(), "m1")
	if sub.IsCandidate {
		t.Fatal("second vote should accept")
	}
	if len(f.gateway.grants) != 1 {
		t.Fatalf("grants = %v", f.gateway.grants)
	}
}

func TestAcceptanceGrantsOnlyOnce(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 1})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")

	f.cast(t, "m1", "voter", render.CustomIDVoteUp)
	// A stale click after acceptance must not re-grant or error.
	f.cast(t, "m1", "voter2", render.CustomIDVoteUp)

	if len(f.gateway.grants) != 1 {
		t.Fatalf("repeat interactions re-granted: %v", f.gateway.grants)
	}
	if len(f.gateway.unpinned) != 1 {
		t.Fatalf("repeat interactions re-unpinned: %v", f.gateway.unpinned)
	}
}

func TestDownvoteRejection(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 5, VotingAgainstThreshold: 1})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")
	ctx := context.Background()

	f.cast(t, "m1", "hater", render.CustomIDVoteDown)

	if _, err := f.subs.ByMessageID(ctx, "m1"); err != store.ErrNotFound {
		t.Fatal("rejection should delete the submission row")
	}
	if len(f.gateway.deleted) != 1 || f.gateway.deleted[0] != "m1" {
		t.Fatalf("rejection should delete the message: %v", f.gateway.deleted)
	}
	tally, _ := f.ledger.Tally(ctx, "m1", store.KindVote)
	if tally.InFavor != 0 || tally.Against != 0 {
		t.Fatalf("ballots should be purged: %+v", tally)
	}
}

func TestOffsetDownvoteDoesNotReject(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 5, VotingAgainstThreshold: 1})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")

	f.cast(t, "m1", "fan", render.CustomIDVoteUp)
	f.cast(t, "m1", "hater", render.CustomIDVoteDown)

	if _, err := f.subs.ByMessageID(context.Background(), "m1"); err != nil {
		t.Fatal("net against 0 must not reject")
	}
	if len(f.gateway.deleted) != 0 {
		t.Fatalf("nothing should be deleted: %v", f.gateway.deleted)
	}
}

func TestApprovalGatesAcceptance(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{
		VotingThreshold:   1,
		ApprovalThreshold: 1,
		ApproverRoles:     []string{"approver"},
	})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")

	f.cast(t, "m1", "voter", render.CustomIDVoteUp)
	sub, _ := f.subs.ByMessageID(context.Background(), "m1")
	if !sub.IsCandidate {
		t.Fatal("vote threshold alone should not accept while approval gates")
	}

	// Approval from a non-approver is silently ignored.
	f.cast(t, "m1", "rando", render.CustomIDApprove)
	sub, _ = f.subs.ByMessageID(context.Background(), "m1")
	if !sub.IsCandidate {
		t.Fatal("unauthorized approval must not count")
	}

	f.cast(t, "m1", "boss", render.CustomIDApprove, "approver")
	sub, _ = f.subs.ByMessageID(context.Background(), "m1")
	if sub.IsCandidate {
		t.Fatal("vote AND approval thresholds met should accept")
	}
}

func TestVotePermissionDeniedIsSilent(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{
		VotingThreshold:    1,
		AllowedToVoteRoles: []string{"voters"},
	})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")

	f.cast(t, "m1", "outsider", render.CustomIDVoteUp)
	tally, _ := f.ledger.Tally(context.Background(), "m1", store.KindVote)
	if tally.InFavor != 0 {
		t.Fatalf("denied vote must not land: %+v", tally)
	}
	if f.gateway.edits != 0 {
		t.Fatal("denied vote must not touch the message")
	}
}

func TestDismiss(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{
		VotingThreshold: 2,
		ApproverUsers:   []string{"boss"},
	})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")
	ctx := context.Background()

	// Non-approver dismiss is a silent no-op.
	f.cast(t, "m1", "rando", render.CustomIDDismiss)
	if _, err := f.subs.ByMessageID(ctx, "m1"); err != nil {
		t.Fatal("unauthorized dismiss must not delete")
	}

	// Approver dismiss before any approval removes everything.
	f.cast(t, "m1", "boss", render.CustomIDDismiss)
	if _, err := f.subs.ByMessageID(ctx, "m1"); err != store.ErrNotFound {
		t.Fatal("dismiss should delete the submission")
	}
	if len(f.gateway.deleted) != 1 {
		t.Fatalf("dismiss should delete the message: %v", f.gateway.deleted)
	}
}

func TestDismissBlockedByRecordedApproval(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{
		VotingThreshold:   2,
		ApprovalThreshold: 2,
		ApproverUsers:     []string{"boss", "boss2"},
	})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")
	ctx := context.Background()

	f.cast(t, "m1", "boss2", render.CustomIDApprove)
	f.cast(t, "m1", "boss", render.CustomIDDismiss)
	if _, err := f.subs.ByMessageID(ctx, "m1"); err != nil {
		t.Fatal("dismiss must be blocked while an approval is on record")
	}

	// Toggling the approval off re-enables dismissal.
	f.cast(t, "m1", "boss2", render.CustomIDApprove)
	f.cast(t, "m1", "boss", render.CustomIDDismiss)
	if _, err := f.subs.ByMessageID(ctx, "m1"); err != store.ErrNotFound {
		t.Fatal("dismiss should work again once approvals drop to zero")
	}
}

func TestSubmissionQuotaWithholdsRole(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 1, SubmissionThreshold: 2})
	f.addCandidate(t, "https://docs.google.com/document/d/ONE/edit", "m1", "author")

	f.cast(t, "m1", "voter", render.CustomIDVoteUp)
	sub, _ := f.subs.ByMessageID(context.Background(), "m1")
	if sub.IsCandidate {
		t.Fatal("first submission should still be accepted")
	}
	if len(f.gateway.grants) != 0 {
		t.Fatalf("role must be withheld below quota: %v", f.gateway.grants)
	}

	f.addCandidate(t, "https://docs.google.com/document/d/TWO/edit", "m2", "author")
	f.cast(t, "m2", "voter", render.CustomIDVoteUp)
	if len(f.gateway.grants) != 1 {
		t.Fatalf("second accepted submission should grant: %v", f.gateway.grants)
	}

	// The first submission is not re-processed.
	first, _ := f.subs.ByMessageID(context.Background(), "m1")
	if first.IsCandidate {
		t.Fatal("prior submission's candidate flag must stay false")
	}
}

func TestFailedRoleGrantLeavesAcceptanceRetryable(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 1})
	f.addCandidate(t, "https://docs.google.com/document/d/XYZ/edit", "m1", "author")
	ctx := context.Background()

	f.gateway.grantErr = errors.New("gateway down")
	err := f.handler.Process(ctx, Cast{
		ChannelID: "chan-1",
		MessageID: "m1",
		UserID:    "voter1",
		CustomID:  render.CustomIDVoteUp,
	})
	if err == nil {
		t.Fatal("failed grant should surface an error")
	}

	// Nothing is committed: candidacy, pin state and grants are untouched.
	sub, _ := f.subs.ByMessageID(ctx, "m1")
	if !sub.IsCandidate {
		t.Fatal("failed grant must not flip candidacy")
	}
	if len(f.gateway.unpinned) != 0 || len(f.gateway.grants) != 0 {
		t.Fatalf("partial side effects: unpinned=%v grants=%v", f.gateway.unpinned, f.gateway.grants)
	}

	// Once the gateway recovers, the next threshold-meeting cast retries.
	f.gateway.grantErr = nil
	f.cast(t, "m1", "voter2", render.CustomIDVoteUp)

	sub, _ = f.subs.ByMessageID(ctx, "m1")
	if sub.IsCandidate {
		t.Fatal("retry should accept")
	}
	if len(f.gateway.grants) != 1 || f.gateway.grants[0].userID != "author" {
		t.Fatalf("grants = %v", f.gateway.grants)
	}
	if len(f.gateway.unpinned) != 1 {
		t.Fatalf("unpinned = %v", f.gateway.unpinned)
	}
}

func TestUnknownMessageIgnored(t *testing.T) {
	f := newFixture(t, types.ChannelConfig{VotingThreshold: 1})
	f.cast(t, "no-such-message", "voter", render.CustomIDVoteUp)
	if f.gateway.edits != 0 || len(f.gateway.deleted) != 0 {
		t.Fatal("unknown message should be a no-op")
	}
}
