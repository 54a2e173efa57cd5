package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/stake-plus/link-curator/src/shared/errs"
	"github.com/stake-plus/link-curator/src/shared/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormChannels implements Channels on MySQL.
type GormChannels struct {
	db *gorm.DB
}

func NewGormChannels(db *gorm.DB) *GormChannels {
	return &GormChannels{db: db}
}

func (c *GormChannels) Get(ctx context.Context, channelID string) (*types.ChannelSettings, error) {
	var row types.ChannelSettings
	err := c.db.WithContext(ctx).
		Where("channel_id = ? AND disabled = ?", channelID, false).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *GormChannels) GetByID(ctx context.Context, id uint64) (*types.ChannelSettings, error) {
	var row types.ChannelSettings
	err := c.db.WithContext(ctx).
		Where("id = ? AND disabled = ?", id, false).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (c *GormChannels) List(ctx context.Context) ([]types.ChannelSettings, error) {
	var rows []types.ChannelSettings
	err := c.db.WithContext(ctx).
		Where("disabled = ?", false).
		Order("id asc").
		Find(&rows).Error
	return rows, err
}

func (c *GormChannels) Upsert(ctx context.Context, channelID, guildID string, cfg types.ChannelConfig) error {
	if cfg.AwardedRoleID == "" {
		return errs.NewUserFacing("An awarded role is required to enable a channel.", nil)
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing types.ChannelSettings
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("channel_id = ?", channelID).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := types.ChannelSettings{
				ChannelID: channelID,
				GuildID:   guildID,
				Data:      cfg,
			}
			return tx.Create(&row).Error
		case err != nil:
			return err
		default:
			existing.GuildID = guildID
			existing.Disabled = false
			existing.Data = cfg
			return tx.Save(&existing).Error
		}
	})
}

// PatchMerge applies a typed patch under a row lock so concurrent
// /update calls cannot lose each other's list edits.
func (c *GormChannels) PatchMerge(ctx context.Context, channelID string, patch ConfigPatch) error {
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row types.ChannelSettings
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("channel_id = ? AND disabled = ?", channelID, false).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewUserFacing("This channel is not enabled for submissions.", nil)
		}
		if err != nil {
			return err
		}
		if err := ApplyPatch(&row.Data, patch); err != nil {
			return errs.NewUserFacing("Invalid settings update.", err)
		}
		if row.Data.AwardedRoleID == "" {
			return errs.NewUserFacing("The awarded role cannot be unset.", nil)
		}
		return tx.Save(&row).Error
	})
}

func (c *GormChannels) Remove(ctx context.Context, channelID string) error {
	res := c.db.WithContext(ctx).
		Model(&types.ChannelSettings{}).
		Where("channel_id = ? AND disabled = ?", channelID, false).
		Update("disabled", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.NewUserFacing("This channel is not enabled for submissions.", nil)
	}
	return nil
}

// Migrate moves a configuration to another channel. The source row may
// be disabled; migration is the one read path allowed to revive it.
func (c *GormChannels) Migrate(ctx context.Context, fromChannelID, toChannelID string) error {
	if fromChannelID == toChannelID {
		return errs.NewUserFacing("Source and target channels are the same.", nil)
	}
	return c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var from types.ChannelSettings
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("channel_id = ?", fromChannelID).
			First(&from).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NewUserFacing("No settings found for the source channel.", nil)
		}
		if err != nil {
			return err
		}

		var clash int64
		if err := tx.Model(&types.ChannelSettings{}).
			Where("channel_id = ? AND disabled = ?", toChannelID, false).
			Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return errs.NewUserFacing("The target channel already has settings.", nil)
		}

		from.ChannelID = toChannelID
		from.Disabled = false
		if err := tx.Save(&from).Error; err != nil {
			return fmt.Errorf("migrate settings: %w", err)
		}
		return nil
	})
}
