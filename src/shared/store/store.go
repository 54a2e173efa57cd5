// Package store holds the durable-state contracts of the curation
// system: channel settings, submissions and the ballot ledger. The
// voting and admission logic owns no persistent state of its own; it
// works on snapshots fetched through these interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/stake-plus/link-curator/src/shared/types"
)

var ErrNotFound = errors.New("store: not found")

// Kind selects the ballot ledger a cast lands in.
type Kind int

const (
	KindVote Kind = iota
	KindApproval
)

func (k Kind) IsApproval() bool { return k == KindApproval }

// CastResult describes what a ballot cast did to the ledger.
type CastResult int

const (
	BallotAdded CastResult = iota
	BallotFlipped
	BallotRemoved
)

// Tally is the aggregate over ballots for one message and kind. It is
// recomputed from rows on every interaction, never cached.
type Tally struct {
	InFavor      int
	Against      int
	InFavorUsers []string
	AgainstUsers []string
}

// Net is the in-favor surplus used against voting_threshold.
func (t Tally) Net() int { return t.InFavor - t.Against }

// Ledger stores one row per (message, user, kind). Casting the same
// choice twice removes the row; casting the opposite choice flips it.
type Ledger interface {
	CastBallot(ctx context.Context, messageID, userID string, kind Kind, inFavor bool) (CastResult, error)
	Tally(ctx context.Context, messageID string, kind Kind) (Tally, error)
	DeleteForMessage(ctx context.Context, messageID string) error
}

// SubmissionFilter narrows Find/Delete queries. Zero values mean "any".
type SubmissionFilter struct {
	ID                uint64
	Link              string
	ChannelSettingsID uint64
	UserID            string
	Type              types.SubmissionType
	IsCandidate       *bool
	OlderThan         *time.Time
}

// Submissions is the durable store of submissions keyed by canonical link.
type Submissions interface {
	// Upsert writes sub, replacing any live row at the same link. The
	// prior row, if any, is returned so the caller can unpin its message.
	Upsert(ctx context.Context, sub *types.Submission) (old *types.Submission, err error)
	Find(ctx context.Context, f SubmissionFilter) ([]types.Submission, error)
	ByMessageID(ctx context.Context, messageID string) (*types.Submission, error)
	Delete(ctx context.Context, f SubmissionFilter) error
	CountByUser(ctx context.Context, userID string, isCandidate bool) (int64, error)
	// MarkAccepted flips is_candidate exactly once; it reports false when
	// the submission already left candidacy.
	MarkAccepted(ctx context.Context, id uint64) (bool, error)
}

// Channels is the channel configuration store. Removal is a
// soft-disable; every read path except Migrate filters disabled rows.
type Channels interface {
	Get(ctx context.Context, channelID string) (*types.ChannelSettings, error)
	GetByID(ctx context.Context, id uint64) (*types.ChannelSettings, error)
	List(ctx context.Context) ([]types.ChannelSettings, error)
	Upsert(ctx context.Context, channelID, guildID string, cfg types.ChannelConfig) error
	PatchMerge(ctx context.Context, channelID string, patch ConfigPatch) error
	Remove(ctx context.Context, channelID string) error
	Migrate(ctx context.Context, fromChannelID, toChannelID string) error
}
