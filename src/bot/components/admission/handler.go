package admission

import (
	"context"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/OneOfOne/xxhash"
	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/link-curator/src/bot/components/classifier"
	"github.com/stake-plus/link-curator/src/bot/components/imagehash"
	"github.com/stake-plus/link-curator/src/bot/components/ratelimit"
	"github.com/stake-plus/link-curator/src/bot/components/render"
	"github.com/stake-plus/link-curator/src/bot/components/titlefetch"
	shareddiscord "github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/store"
	"github.com/stake-plus/link-curator/src/shared/types"
)

const (
	linkLockStripes = 64
	maxImageBytes   = 8 << 20
)

// Config wires the admission handler.
type Config struct {
	Channels    store.Channels
	Submissions store.Submissions
	Gateway     shareddiscord.Gateway
	Classifier  *classifier.Classifier
	Titles      *titlefetch.Fetcher
	Limiter     *ratelimit.Limiter
	GuildID     string
}

// Handler processes MessageCreate events for configured channels.
type Handler struct {
	config      Config
	imageClient *http.Client
	// linkLocks serializes concurrent submissions of the same canonical
	// link within this process; the Upsert row lock covers the rest.
	linkLocks [linkLockStripes]sync.Mutex
}

func NewHandler(config Config) *Handler {
	return &Handler{
		config:      config,
		imageClient: &http.Client{Timeout: 3 * time.Second},
	}
}

// HandleMessage classifies an inbound message and, when admitted, posts
// and pins the voting message. Rejections are silent.
func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	ctx := context.Background()

	settings, err := h.config.Channels.Get(ctx, m.ChannelID)
	if err == store.ErrNotFound {
		return
	}
	if err != nil {
		log.Printf("admission: load channel settings: %v", err)
		return
	}
	cfg := settings.Data

	req := Request{AuthorIsBot: m.Author.Bot}
	if m.Member != nil {
		req.SubmitterRoles = m.Member.Roles
	}
	req.HoldsAwardedRole = shareddiscord.HasRole(req.SubmitterRoles, cfg.AwardedRoleID) &&
		cfg.AwardedRoleID != ""

	cls := h.classify(ctx, m, cfg, &req)

	if cls != nil && h.config.Limiter != nil && !h.config.Limiter.Allow(ctx, m.Author.ID) {
		log.Printf("admission: rate limited user %s", m.Author.ID)
		return
	}

	if cls != nil {
		lock := &h.linkLocks[xxhash.ChecksumString64(cls.Canonical)%linkLockStripes]
		lock.Lock()
		defer lock.Unlock()

		existing, err := h.config.Submissions.Find(ctx, store.SubmissionFilter{Link: cls.Canonical})
		if err != nil {
			log.Printf("admission: duplicate lookup: %v", err)
			return
		}
		req.AlreadyStored = len(existing) > 0
	}

	verdict := Decide(cfg, req)
	switch verdict {
	case AcceptArchived:
		h.acceptArchived(ctx, settings, m, cls)
	case AcceptCandidate:
		h.acceptCandidate(ctx, settings, m, cls)
	default:
		// Silent by policy; nothing is revealed about configuration.
		log.Printf("admission: %s channel=%s user=%s", verdict, m.ChannelID, m.Author.ID)
	}
}

// classify scans message text first, then attachments, honoring the
// channel's allowed kinds. First allowed match in source order wins.
func (h *Handler) classify(ctx context.Context, m *discordgo.MessageCreate, cfg types.ChannelConfig, req *Request) *classifier.Classification {
	res := h.config.Classifier.ScanMessage(ctx, m.Content, cfg)
	if res.Match != nil {
		req.Classified = true
		return res.Match
	}
	req.DisallowedType = res.Disallowed

	for _, att := range m.Attachments {
		cls := classifier.ClassifyAttachment(att.ContentType, att.URL)
		if cls == nil {
			continue
		}
		if !cfg.TypeAllowed(cls.Type) {
			req.DisallowedType = true
			continue
		}
		req.Classified = true
		req.DisallowedType = false
		return cls
	}
	return nil
}

func (h *Handler) acceptArchived(ctx context.Context, settings *types.ChannelSettings, m *discordgo.MessageCreate, cls *classifier.Classification) {
	title := h.title(ctx, cls)

	ackID, err := h.config.Gateway.SendMessage(m.ChannelID, shareddiscord.OutgoingMessage{
		Content: "Archived " + cls.Canonical,
	})
	if err != nil {
		log.Printf("admission: send archive ack: %v", err)
		return
	}

	sub := &types.Submission{
		Link:              cls.Canonical,
		ChannelSettingsID: settings.ID,
		Type:              cls.Type,
		Title:             title,
		Description:       description(m.Content, cls.Canonical),
		UserID:            m.Author.ID,
		UserTag:           m.Author.Username,
		IsCandidate:       false,
		BotMessageID:      ackID,
		UserMessageID:     m.ID,
		Hash:              h.hash(ctx, cls),
	}
	h.persist(ctx, sub, m.ChannelID)
}

func (h *Handler) acceptCandidate(ctx context.Context, settings *types.ChannelSettings, m *discordgo.MessageCreate, cls *classifier.Classification) {
	cfg := settings.Data
	title := h.title(ctx, cls)
	hash := h.hash(ctx, cls)
	similar := h.similarLinks(ctx, settings.ID, cls, hash)

	sub := types.Submission{
		Link:              cls.Canonical,
		ChannelSettingsID: settings.ID,
		Type:              cls.Type,
		Title:             title,
		Description:       description(m.Content, cls.Canonical),
		UserID:            m.Author.ID,
		UserTag:           m.Author.Username,
		IsCandidate:       true,
		UserMessageID:     m.ID,
		Hash:              hash,
	}

	model := render.Project(render.Input{
		Submission: sub,
		Config:     cfg,
		State:      render.StateCandidate,
		Similar:    similar,
	})
	msgID, err := h.config.Gateway.SendMessage(m.ChannelID, render.ToMessage(model))
	if err != nil {
		log.Printf("admission: send voting message: %v", err)
		return
	}
	sub.BotMessageID = msgID

	if !h.persist(ctx, &sub, m.ChannelID) {
		return
	}

	if err := h.config.Gateway.PinMessage(m.ChannelID, msgID); err != nil {
		log.Printf("admission: pin voting message %s: %v", msgID, err)
	}
}

// persist upserts the row, then unpins the previous bot message when the
// link was already stored under another message. Persisting before the
// unpin keeps the link from ever existing twice.
func (h *Handler) persist(ctx context.Context, sub *types.Submission, channelID string) bool {
	old, err := h.config.Submissions.Upsert(ctx, sub)
	if err != nil {
		log.Printf("admission: persist submission %s: %v", sub.Link, err)
		if delErr := h.config.Gateway.DeleteMessage(channelID, sub.BotMessageID); delErr != nil {
			log.Printf("admission: clean up message %s: %v", sub.BotMessageID, delErr)
		}
		return false
	}
	if old != nil && old.BotMessageID != "" && old.BotMessageID != sub.BotMessageID {
		if err := h.config.Gateway.UnpinMessage(channelID, old.BotMessageID); err != nil {
			log.Printf("admission: unpin replaced message %s: %v", old.BotMessageID, err)
		}
	}
	return true
}

func (h *Handler) title(ctx context.Context, cls *classifier.Classification) string {
	if cls.Type == types.TypeImage || h.config.Titles == nil {
		return ""
	}
	return h.config.Titles.Fetch(ctx, cls.Canonical)
}

// hash downloads and hashes image submissions; everything else is 0.
func (h *Handler) hash(ctx context.Context, cls *classifier.Classification) uint64 {
	if cls.Type != types.TypeImage {
		return 0
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cls.Canonical, nil)
	if err != nil {
		return 0
	}
	resp, err := h.imageClient.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()

	hash, err := imagehash.DecodeAndHash(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return 0
	}
	return hash
}

// similarLinks surfaces stored image submissions within hash range. The
// match never blocks the new submission.
func (h *Handler) similarLinks(ctx context.Context, settingsID uint64, cls *classifier.Classification, hash uint64) []string {
	if cls.Type != types.TypeImage || hash == 0 {
		return nil
	}
	stored, err := h.config.Submissions.Find(ctx, store.SubmissionFilter{
		ChannelSettingsID: settingsID,
		Type:              types.TypeImage,
	})
	if err != nil {
		log.Printf("admission: similar lookup: %v", err)
		return nil
	}
	var similar []string
	for _, s := range stored {
		if s.Hash != 0 && s.Link != cls.Canonical && imagehash.Similar(s.Hash, hash) {
			similar = append(similar, s.Link)
		}
	}
	return similar
}

var anyURL = regexp.MustCompile(`https?://[^\s<>|]+`)

// description keeps the submitter's accompanying text, minus the links.
// The cap lands on a rune boundary so the stored text stays valid UTF-8.
func description(content, canonical string) string {
	desc := strings.ReplaceAll(content, canonical, "")
	desc = anyURL.ReplaceAllString(desc, "")
	desc = strings.TrimSpace(desc)
	if len(desc) > 1024 {
		cut := 1024
		for cut > 0 && !utf8.RuneStart(desc[cut]) {
			cut--
		}
		desc = desc[:cut]
	}
	return desc
}
