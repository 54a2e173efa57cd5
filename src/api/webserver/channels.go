package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

type Channels struct {
	channels    store.Channels
	submissions store.Submissions
}

func NewChannels(channels store.Channels, submissions store.Submissions) Channels {
	return Channels{channels: channels, submissions: submissions}
}

type channelView struct {
	ChannelID string              `json:"channelId"`
	GuildID   string              `json:"guildId"`
	Config    types.ChannelConfig `json:"config"`
}

func (h Channels) List(c *gin.Context) {
	rows, err := h.channels.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	out := make([]channelView, 0, len(rows))
	for _, row := range rows {
		out = append(out, channelView{
			ChannelID: row.ChannelID,
			GuildID:   row.GuildID,
			Config:    row.Data,
		})
	}
	c.JSON(http.StatusOK, gin.H{"channels": out})
}

type submissionView struct {
	ID          uint64 `json:"id"`
	Link        string `json:"link"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"userId"`
	UserTag     string `json:"userTag"`
	IsCandidate bool   `json:"isCandidate"`
	CreatedAt   string `json:"createdAt"`
}

// Submissions lists a channel's submissions, optionally filtered by
// ?candidate=true|false and ?type=.
func (h Channels) Submissions(c *gin.Context) {
	ctx := c.Request.Context()
	settings, err := h.channels.Get(ctx, c.Param("channel"))
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"err": "channel not configured"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	filter := store.SubmissionFilter{ChannelSettingsID: settings.ID}
	if raw := c.Query("candidate"); raw != "" {
		candidate, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "candidate must be true or false"})
			return
		}
		filter.IsCandidate = &candidate
	}
	if raw := c.Query("type"); raw != "" {
		filter.Type = types.SubmissionType(raw)
	}

	rows, err := h.submissions.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	out := make([]submissionView, 0, len(rows))
	for _, row := range rows {
		out = append(out, submissionView{
			ID:          row.ID,
			Link:        row.Link,
			Type:        string(row.Type),
			Title:       row.Title,
			Description: row.Description,
			UserID:      row.UserID,
			UserTag:     row.UserTag,
			IsCandidate: row.IsCandidate,
			CreatedAt:   row.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"submissions": out})
}
