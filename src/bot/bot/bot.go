// Package bot assembles the Discord side of the curation system: the
// session, the admission and voting handlers, the slash commands and the
// janitor sweep.
package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	"github.com/stake-plus/link-curator/src/bot/components/admission"
	"github.com/stake-plus/link-curator/src/bot/components/classifier"
	"github.com/stake-plus/link-curator/src/bot/components/commands"
	"github.com/stake-plus/link-curator/src/bot/components/janitor"
	"github.com/stake-plus/link-curator/src/bot/components/ratelimit"
	"github.com/stake-plus/link-curator/src/bot/components/titlefetch"
	"github.com/stake-plus/link-curator/src/bot/components/voting"
	"github.com/stake-plus/link-curator/src/bot/config"
	"github.com/stake-plus/link-curator/src/shared/data"
	shareddiscord "github.com/stake-plus/link-curator/src/shared/discord"
	"github.com/stake-plus/link-curator/src/shared/store"
	"gorm.io/gorm"
)

type Bot struct {
	config     *config.Config
	session    *discordgo.Session
	janitor    *janitor.Janitor
	cancelFunc context.CancelFunc
}

func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	channels := store.NewGormChannels(db)
	submissions := store.NewGormSubmissions(db)
	ledger := store.NewGormLedger(db)
	gateway := shareddiscord.NewSessionGateway(session)

	admissionHandler := admission.NewHandler(admission.Config{
		Channels:    channels,
		Submissions: submissions,
		Gateway:     gateway,
		Classifier:  classifier.New(classifier.NewHTTPResolver(time.Second)),
		Titles:      titlefetch.New(rdb, time.Duration(data.GetSettingInt("title_fetch_timeout_seconds", 5))*time.Second),
		Limiter:     ratelimit.New(rdb, time.Duration(data.GetSettingInt("ratelimit_window_seconds", 30))*time.Second),
		GuildID:     cfg.GuildID,
	})
	votingHandler := voting.NewHandler(voting.Config{
		Channels:    channels,
		Submissions: submissions,
		Ledger:      ledger,
		Gateway:     gateway,
		GuildID:     cfg.GuildID,
	})
	commandHandler := commands.NewHandler(channels)

	b := &Bot{
		config:  cfg,
		session: session,
		janitor: janitor.New(submissions, channels, ledger, gateway),
	}

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as: %v#%v", s.State.User.Username, s.State.User.Discriminator)
	})
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.ID == s.State.User.ID {
			return
		}
		admissionHandler.HandleMessage(s, m)
	})
	session.AddHandler(votingHandler.HandleInteraction)
	session.AddHandler(commandHandler.HandleInteraction)

	return b, nil
}

func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open Discord connection: %w", err)
	}

	appID := b.config.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}
	if err := commands.Register(b.session, appID, b.config.GuildID); err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancelFunc = cancel
	b.janitor.Start(ctx)

	return nil
}

func (b *Bot) Stop() {
	if b.cancelFunc != nil {
		b.cancelFunc()
	}
	if b.session != nil {
		b.session.Close()
	}
}
