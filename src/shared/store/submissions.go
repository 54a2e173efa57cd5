package store

import (
	"context"
	"errors"

	"github.com/stake-plus/link-curator/src/shared/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSubmissions implements Submissions on MySQL.
type GormSubmissions struct {
	db *gorm.DB
}

func NewGormSubmissions(db *gorm.DB) *GormSubmissions {
	return &GormSubmissions{db: db}
}

// Upsert holds a row lock on the link for the whole read-then-write so
// two concurrent submissions of the same link cannot both create rows.
func (s *GormSubmissions) Upsert(ctx context.Context, sub *types.Submission) (*types.Submission, error) {
	var old *types.Submission
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing types.Submission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("link = ?", sub.Link).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(sub).Error
		case err != nil:
			return err
		default:
			prior := existing
			old = &prior
			sub.ID = existing.ID
			sub.CreatedAt = existing.CreatedAt
			return tx.Save(sub).Error
		}
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

func (s *GormSubmissions) Find(ctx context.Context, f SubmissionFilter) ([]types.Submission, error) {
	var rows []types.Submission
	err := applyFilter(s.db.WithContext(ctx), f).Order("created_at asc, id asc").Find(&rows).Error
	return rows, err
}

func (s *GormSubmissions) ByMessageID(ctx context.Context, messageID string) (*types.Submission, error) {
	var row types.Submission
	err := s.db.WithContext(ctx).Where("bot_message_id = ?", messageID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *GormSubmissions) Delete(ctx context.Context, f SubmissionFilter) error {
	if f == (SubmissionFilter{}) {
		return errors.New("submissions: refusing unfiltered delete")
	}
	return applyFilter(s.db.WithContext(ctx), f).Delete(&types.Submission{}).Error
}

func (s *GormSubmissions) CountByUser(ctx context.Context, userID string, isCandidate bool) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&types.Submission{}).
		Where("user_id = ? AND is_candidate = ?", userID, isCandidate).
		Count(&n).Error
	return n, err
}

// MarkAccepted flips is_candidate false at most once; the rows-affected
// count is the re-grant guard.
func (s *GormSubmissions) MarkAccepted(ctx context.Context, id uint64) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&types.Submission{}).
		Where("id = ? AND is_candidate = ?", id, true).
		Update("is_candidate", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func applyFilter(db *gorm.DB, f SubmissionFilter) *gorm.DB {
	if f.ID != 0 {
		db = db.Where("id = ?", f.ID)
	}
	if f.Link != "" {
		db = db.Where("link = ?", f.Link)
	}
	if f.ChannelSettingsID != 0 {
		db = db.Where("channel_settings_id = ?", f.ChannelSettingsID)
	}
	if f.UserID != "" {
		db = db.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	if f.IsCandidate != nil {
		db = db.Where("is_candidate = ?", *f.IsCandidate)
	}
	if f.OlderThan != nil {
		db = db.Where("created_at < ?", *f.OlderThan)
	}
	return db
}
