// Package telegram is the chat gateway: it turns bot updates into
// session state machine calls and renders the replies.
package telegram

import (
	"context"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/saferunner/saferunner/internal/alert"
	"github.com/saferunner/saferunner/internal/config"
	"github.com/saferunner/saferunner/internal/directory"
	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/session"
	"github.com/saferunner/saferunner/internal/store"
)

// Gateway wires the transport to the session tracker, the contact
// directory, and the durable store. Updates for one chat arrive
// serialized from the update loop; the deadline fan-out runs
// concurrently with it, which the tracker and directory tolerate.
type Gateway struct {
	cfg      *config.Config
	bot      *tgbotapi.BotAPI // nil in tests; used for the update feed only
	api      apiClient
	sender   *Sender
	tracker  *session.Tracker
	dir      *directory.Directory
	prefs    *store.Prefs
	st       *store.Store
	username string

	// chats that pressed "Custom HH:MM" and owe us a time string
	mu             sync.Mutex
	awaitingCustom map[int64]bool
}

// New connects to the bot API and assembles the gateway.
func New(cfg *config.Config) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	g := newGateway(cfg, bot, bot.Self.UserName)
	g.bot = bot
	logging.Infof("Authorized as @%s", g.username)
	return g, nil
}

// newGateway assembles a gateway around an API client. Split from New
// so tests can inject a fake client.
func newGateway(cfg *config.Config, api apiClient, username string) *Gateway {
	g := &Gateway{
		cfg:            cfg,
		api:            api,
		sender:         NewSender(api),
		dir:            directory.New(),
		prefs:          store.NewPrefs(cfg.DefaultTimezone),
		st:             store.New(cfg.StateFile),
		username:       username,
		awaitingCustom: make(map[int64]bool),
	}

	notifier := alert.NewNotifier(g.sender, g.sender, g.dir)
	g.tracker = session.NewTracker(notifier, session.WithOnChange(g.persist))

	snap, err := g.st.Load()
	if err != nil {
		logging.Warn("state snapshot unreadable, starting empty", logging.Err(err))
		snap = &store.Snapshot{}
	}
	g.dir.Restore(snap.Contacts, snap.Blacklist)
	g.prefs.Restore(snap.Timezones)
	g.tracker.Restore(snap.Sessions)

	return g
}

// Run consumes updates over long polling until ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := g.bot.GetUpdatesChan(u)

	logging.Info("update loop started")
	for {
		select {
		case <-ctx.Done():
			g.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.HandleUpdate(update)
		}
	}
}

// WebhookHandler serves Telegram webhook POSTs. When a webhook secret
// is configured the standard secret-token header must match.
func (g *Gateway) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s := g.cfg.WebhookSecret; s != "" &&
			r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != s {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		update, err := g.bot.HandleUpdate(r)
		if err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		g.HandleUpdate(*update)
		w.WriteHeader(http.StatusOK)
	})
}

// RegisterWebhook tells Telegram to deliver updates to the configured
// public endpoint.
func (g *Gateway) RegisterWebhook() error {
	wh, err := tgbotapi.NewWebhook(g.cfg.WebhookEndpoint())
	if err != nil {
		return err
	}
	if _, err := g.bot.Request(wh); err != nil {
		return err
	}
	logging.Infof("Webhook registered at %s", g.cfg.WebhookEndpoint())
	return nil
}

// Close stops the deadline timers and flushes a final snapshot.
func (g *Gateway) Close() {
	g.tracker.Stop()
	g.persist()
}

// ActiveSessions returns the number of live sessions, for status output.
func (g *Gateway) ActiveSessions() int {
	return g.tracker.ActiveCount()
}

// HandleUpdate dispatches one update. A panic in a handler is logged
// and answered with a generic apology; processing of later updates
// continues.
func (g *Gateway) HandleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("update handler panicked: %v", r)
			if chat := updateChatID(update); chat != 0 {
				g.reply(chat, "Something went wrong. The admins have been notified.")
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		g.handleCallback(update.CallbackQuery)
	case update.Message != nil:
		g.handleMessage(update.Message)
	}
}

func (g *Gateway) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch {
	case msg.IsCommand():
		g.handleCommand(chatID, msg)
	case msg.Location != nil:
		g.handleIncomingCoordinates(chatID, msg.Location)
	default:
		g.handleIncomingText(chatID, msg.Text)
	}
}

// persist writes the whole state after a mutation. Best effort: a save
// failure must not fail the user's command.
func (g *Gateway) persist() {
	contacts, blacklist := g.dir.Export()
	g.st.SaveBestEffort(&store.Snapshot{
		Contacts:  contacts,
		Blacklist: blacklist,
		Timezones: g.prefs.Export(),
		Sessions:  g.tracker.Export(),
	})
}

// reply sends a best-effort plain text to a chat.
func (g *Gateway) reply(chatID int64, text string) {
	if err := g.sender.SendText(context.Background(), chatID, text); err != nil {
		logging.Warn("reply failed", logging.Int64("chat", chatID), logging.Err(err))
	}
}

// replyWith sends a best-effort message with custom options applied.
func (g *Gateway) replyWith(chatID int64, text string, modify func(*tgbotapi.MessageConfig)) {
	msg := tgbotapi.NewMessage(chatID, text)
	if modify != nil {
		modify(&msg)
	}
	if err := g.sender.Deliver(context.Background(), msg); err != nil {
		logging.Warn("reply failed", logging.Int64("chat", chatID), logging.Err(err))
	}
}

func (g *Gateway) setAwaitingCustom(chatID int64, v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v {
		g.awaitingCustom[chatID] = true
	} else {
		delete(g.awaitingCustom, chatID)
	}
}

func (g *Gateway) isAwaitingCustom(chatID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.awaitingCustom[chatID]
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}
