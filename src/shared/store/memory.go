package store

import (
	"context"
	"sync"
	"time"

	"github.com/stake-plus/link-curator/src/shared/errs"
	"github.com/stake-plus/link-curator/src/shared/types"
)

// MemoryLedger implements Ledger with an in-memory map. It mirrors the
// MySQL implementation's toggle semantics exactly.
type MemoryLedger struct {
	mu      sync.Mutex
	ballots []types.Ballot
	nextID  uint64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) CastBallot(_ context.Context, messageID, userID string, kind Kind, inFavor bool) (CastResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, b := range m.ballots {
		if b.MessageID != messageID || b.UserID != userID || b.IsApproval != kind.IsApproval() {
			continue
		}
		if b.InFavor == inFavor {
			m.ballots = append(m.ballots[:i], m.ballots[i+1:]...)
			return BallotRemoved, nil
		}
		m.ballots[i].InFavor = inFavor
		return BallotFlipped, nil
	}

	m.nextID++
	m.ballots = append(m.ballots, types.Ballot{
		ID:         m.nextID,
		MessageID:  messageID,
		UserID:     userID,
		IsApproval: kind.IsApproval(),
		InFavor:    inFavor,
		CreatedAt:  time.Now(),
	})
	return BallotAdded, nil
}

func (m *MemoryLedger) Tally(_ context.Context, messageID string, kind Kind) (Tally, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var rows []types.Ballot
	for _, b := range m.ballots {
		if b.MessageID == messageID && b.IsApproval == kind.IsApproval() {
			rows = append(rows, b)
		}
	}
	return tallyRows(rows), nil
}

func (m *MemoryLedger) DeleteForMessage(_ context.Context, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.ballots[:0]
	for _, b := range m.ballots {
		if b.MessageID != messageID {
			kept = append(kept, b)
		}
	}
	m.ballots = kept
	return nil
}

// MemorySubmissions implements Submissions with an in-memory map keyed
// by link.
type MemorySubmissions struct {
	mu     sync.Mutex
	byLink map[string]types.Submission
	nextID uint64
}

func NewMemorySubmissions() *MemorySubmissions {
	return &MemorySubmissions{byLink: make(map[string]types.Submission)}
}

func (m *MemorySubmissions) Upsert(_ context.Context, sub *types.Submission) (*types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byLink[sub.Link]; ok {
		prior := existing
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		m.byLink[sub.Link] = *sub
		return &prior, nil
	}

	m.nextID++
	sub.ID = m.nextID
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	m.byLink[sub.Link] = *sub
	return nil, nil
}

func (m *MemorySubmissions) Find(_ context.Context, f SubmissionFilter) ([]types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.Submission
	for _, sub := range m.byLink {
		if matchFilter(sub, f) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (m *MemorySubmissions) ByMessageID(_ context.Context, messageID string) (*types.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.byLink {
		if sub.BotMessageID == messageID {
			copy := sub
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemorySubmissions) Delete(_ context.Context, f SubmissionFilter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for link, sub := range m.byLink {
		if matchFilter(sub, f) {
			delete(m.byLink, link)
		}
	}
	return nil
}

func (m *MemorySubmissions) CountByUser(_ context.Context, userID string, isCandidate bool) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, sub := range m.byLink {
		if sub.UserID == userID && sub.IsCandidate == isCandidate {
			n++
		}
	}
	return n, nil
}

func (m *MemorySubmissions) MarkAccepted(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for link, sub := range m.byLink {
		if sub.ID == id {
			if !sub.IsCandidate {
				return false, nil
			}
			sub.IsCandidate = false
			m.byLink[link] = sub
			return true, nil
		}
	}
	return false, ErrNotFound
}

func matchFilter(sub types.Submission, f SubmissionFilter) bool {
	if f.ID != 0 && sub.ID != f.ID {
		return false
	}
	if f.Link != "" && sub.Link != f.Link {
		return false
	}
	if f.ChannelSettingsID != 0 && sub.ChannelSettingsID != f.ChannelSettingsID {
		return false
	}
	if f.UserID != "" && sub.UserID != f.UserID {
		return false
	}
	if f.Type != "" && sub.Type != f.Type {
		return false
	}
	if f.IsCandidate != nil && sub.IsCandidate != *f.IsCandidate {
		return false
	}
	if f.OlderThan != nil && !sub.CreatedAt.Before(*f.OlderThan) {
		return false
	}
	return true
}

// MemoryChannels implements Channels with an in-memory map.
type MemoryChannels struct {
	mu        sync.Mutex
	byChannel map[string]types.ChannelSettings
	nextID    uint64
}

func NewMemoryChannels() *MemoryChannels {
	return &MemoryChannels{byChannel: make(map[string]types.ChannelSettings)}
}

func (m *MemoryChannels) Get(_ context.Context, channelID string) (*types.ChannelSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byChannel[channelID]
	if !ok || row.Disabled {
		return nil, ErrNotFound
	}
	copy := row
	return &copy, nil
}

func (m *MemoryChannels) GetByID(_ context.Context, id uint64) (*types.ChannelSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.byChannel {
		if row.ID == id && !row.Disabled {
			copy := row
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryChannels) List(_ context.Context) ([]types.ChannelSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.ChannelSettings
	for _, row := range m.byChannel {
		if !row.Disabled {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *MemoryChannels) Upsert(_ context.Context, channelID, guildID string, cfg types.ChannelConfig) error {
	if cfg.AwardedRoleID == "" {
		return errs.NewUserFacing("An awarded role is required to enable a channel.", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byChannel[channelID]; ok {
		existing.GuildID = guildID
		existing.Disabled = false
		existing.Data = cfg
		m.byChannel[channelID] = existing
		return nil
	}

	m.nextID++
	m.byChannel[channelID] = types.ChannelSettings{
		ID:        m.nextID,
		ChannelID: channelID,
		GuildID:   guildID,
		Data:      cfg,
	}
	return nil
}

func (m *MemoryChannels) PatchMerge(_ context.Context, channelID string, patch ConfigPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byChannel[channelID]
	if !ok || row.Disabled {
		return errs.NewUserFacing("This channel is not enabled for submissions.", nil)
	}
	if err := ApplyPatch(&row.Data, patch); err != nil {
		return errs.NewUserFacing("Invalid settings update.", err)
	}
	if row.Data.AwardedRoleID == "" {
		return errs.NewUserFacing("The awarded role cannot be unset.", nil)
	}
	m.byChannel[channelID] = row
	return nil
}

func (m *MemoryChannels) Remove(_ context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byChannel[channelID]
	if !ok || row.Disabled {
		return errs.NewUserFacing("This channel is not enabled for submissions.", nil)
	}
	row.Disabled = true
	m.byChannel[channelID] = row
	return nil
}

func (m *MemoryChannels) Migrate(_ context.Context, fromChannelID, toChannelID string) error {
	if fromChannelID == toChannelID {
		return errs.NewUserFacing("Source and target channels are the same.", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, ok := m.byChannel[fromChannelID]
	if !ok {
		return errs.NewUserFacing("No settings found for the source channel.", nil)
	}
	if target, ok := m.byChannel[toChannelID]; ok && !target.Disabled {
		return errs.NewUserFacing("The target channel already has settings.", nil)
	}

	delete(m.byChannel, fromChannelID)
	from.ChannelID = toChannelID
	from.Disabled = false
	m.byChannel[toChannelID] = from
	return nil
}
