package store

import (
	"context"
	"errors"

	"github.com/stake-plus/link-curator/src/shared/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedger implements Ledger on MySQL.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

// CastBallot serializes concurrent casts for the same (message, user,
// kind) through a row lock spanning read, decide and write. Same choice
// twice removes the ballot; the opposite choice flips it.
func (l *GormLedger) CastBallot(ctx context.Context, messageID, userID string, kind Kind, inFavor bool) (CastResult, error) {
	var result CastResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing types.Ballot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("message_id = ? AND user_id = ? AND is_approval = ?",
				messageID, userID, kind.IsApproval()).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result = BallotAdded
			return tx.Create(&types.Ballot{
				MessageID:  messageID,
				UserID:     userID,
				IsApproval: kind.IsApproval(),
				InFavor:    inFavor,
			}).Error
		case err != nil:
			return err
		case existing.InFavor == inFavor:
			result = BallotRemoved
			return tx.Delete(&existing).Error
		default:
			result = BallotFlipped
			return tx.Model(&existing).Update("in_favor", inFavor).Error
		}
	})
	if err != nil {
		return 0, err
	}
	return result, nil
}

func (l *GormLedger) Tally(ctx context.Context, messageID string, kind Kind) (Tally, error) {
	var rows []types.Ballot
	err := l.db.WithContext(ctx).
		Where("message_id = ? AND is_approval = ?", messageID, kind.IsApproval()).
		Order("created_at asc, id asc").
		Find(&rows).Error
	if err != nil {
		return Tally{}, err
	}
	return tallyRows(rows), nil
}

func (l *GormLedger) DeleteForMessage(ctx context.Context, messageID string) error {
	return l.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Delete(&types.Ballot{}).Error
}

func tallyRows(rows []types.Ballot) Tally {
	var t Tally
	for _, b := range rows {
		if b.InFavor {
			t.InFavor++
			t.InFavorUsers = append(t.InFavorUsers, b.UserID)
		} else {
			t.Against++
			t.AgainstUsers = append(t.AgainstUsers, b.UserID)
		}
	}
	return t
}
