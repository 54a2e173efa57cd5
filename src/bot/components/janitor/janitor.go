// Package janitor expires stale candidates. Submissions that sit in
// candidacy past the configured age are unpinned, their voting message
// deleted and their rows purged, so channels do not accumulate dead
// votes.
package janitor

import (
	"context"
	"log"
	"time"

	"github.com/stake-plus/link-curator/src/shared/data"
	"github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

const (
	defaultMaxAgeDays = 30
	sweepInterval     = time.Hour
)

type Janitor struct {
	submissions store.Submissions
	channels    store.Channels
	ledger      store.Ledger
	gateway     discord.Gateway
}

func New(submissions store.Submissions, channels store.Channels, ledger store.Ledger, gateway discord.Gateway) *Janitor {
	return &Janitor{
		submissions: submissions,
		channels:    channels,
		ledger:      ledger,
		gateway:     gateway,
	}
}

// Start sweeps once immediately and then hourly until ctx is done.
func (j *Janitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		j.sweep(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.sweep(ctx)
			}
		}
	}()
}

func (j *Janitor) sweep(ctx context.Context) {
	maxAge := data.GetSettingInt("janitor_max_age_days", defaultMaxAgeDays)
	if maxAge <= 0 {
		maxAge = defaultMaxAgeDays
	}
	cutoff := time.Now().AddDate(0, 0, -maxAge)
	candidate := true
	stale, err := j.submissions.Find(ctx, store.SubmissionFilter{
		IsCandidate: &candidate,
		OlderThan:   &cutoff,
	})
	if err != nil {
		log.Printf("janitor: find stale candidates: %v", err)
		return
	}
	for i := range stale {
		j.expire(ctx, &stale[i])
	}
	if len(stale) > 0 {
		log.Printf("janitor: expired %d stale candidates", len(stale))
	}
}

func (j *Janitor) expire(ctx context.Context, sub *types.Submission) {
	settings, err := j.channels.GetByID(ctx, sub.ChannelSettingsID)
	if err != nil && err != store.ErrNotFound {
		log.Printf("janitor: channel for submission %d: %v", sub.ID, err)
		return
	}
	if err := j.ledger.DeleteForMessage(ctx, sub.BotMessageID); err != nil {
		log.Printf("janitor: delete ballots for %s: %v", sub.BotMessageID, err)
	}
	if err := j.submissions.Delete(ctx, store.SubmissionFilter{Link: sub.Link}); err != nil {
		log.Printf("janitor: delete submission %s: %v", sub.Link, err)
		return
	}
	if settings != nil {
		if err := j.gateway.UnpinMessage(settings.ChannelID, sub.BotMessageID); err != nil {
			log.Printf("janitor: unpin %s: %v", sub.BotMessageID, err)
		}
		if err := j.gateway.DeleteMessage(settings.ChannelID, sub.BotMessageID); err != nil {
			log.Printf("janitor: delete message %s: %v", sub.BotMessageID, err)
		}
	}
}
