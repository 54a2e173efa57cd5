package webserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/link-curator/src/shared/errs"
	"github.com/stake-plus/link-curator/src/shared/store"
)

type Admin struct {
	channels    store.Channels
	submissions store.Submissions
	ledger      store.Ledger
}

func NewAdmin(channels store.Channels, submissions store.Submissions, ledger store.Ledger) Admin {
	return Admin{channels: channels, submissions: submissions, ledger: ledger}
}

// DeleteSubmission removes a submission row and its ballots. The voting
// message in Discord is left to the janitor; a deleted row makes its
// buttons inert immediately.
func (a Admin) DeleteSubmission(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid submission id"})
		return
	}
	ctx := c.Request.Context()

	rows, err := a.submissions.Find(ctx, store.SubmissionFilter{ID: id})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "submission not found"})
		return
	}
	sub := rows[0]

	if sub.BotMessageID != "" {
		if err := a.ledger.DeleteForMessage(ctx, sub.BotMessageID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
	}
	if err := a.submissions.Delete(ctx, store.SubmissionFilter{ID: id}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	log.Printf("admin: deleted submission %d (%s)", id, sub.Link)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DisableChannel soft-disables curation for a channel.
func (a Admin) DisableChannel(c *gin.Context) {
	channelID := c.Param("channel")
	if err := a.channels.Remove(c.Request.Context(), channelID); err != nil {
		var uf *errs.UserFacing
		if errors.As(err, &uf) {
			c.JSON(http.StatusNotFound, gin.H{"err": uf.Msg})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	log.Printf("admin: disabled channel %s", channelID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
