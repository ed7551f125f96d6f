package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
	"github.com/Alex-cat-ui/Reminder-bot/internal/reminder"
	"github.com/Alex-cat-ui/Reminder-bot/internal/store"
)

// Router wires Telegram updates to handlers and holds the in-memory
// conversational state (wizard drafts, timezone prompts).
type Router struct {
	bot       *tgbotapi.BotAPI
	log       *zap.Logger
	repo      store.Repo
	svc       *reminder.Service
	defaultTZ string

	mu     sync.Mutex
	wiz    map[int64]*wizardState // chatID → active wizard draft
	tzWait map[int64]bool         // chatID → awaiting timezone input
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, svc *reminder.Service, defaultTZ string) *Router {
	return &Router{
		bot:       bot,
		log:       log,
		repo:      repo,
		svc:       svc,
		defaultTZ: defaultTZ,
		wiz:       make(map[int64]*wizardState),
		tzWait:    make(map[int64]bool),
	}
}

func (r *Router) wizard(chatID int64) *wizardState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wiz[chatID]
}

func (r *Router) setWizard(chatID int64, w *wizardState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w == nil {
		delete(r.wiz, chatID)
		return
	}
	r.wiz[chatID] = w
}

func (r *Router) setTZWait(chatID int64, waiting bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if waiting {
		r.tzWait[chatID] = true
	} else {
		delete(r.tzWait, chatID)
	}
}

func (r *Router) isTZWait(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tzWait[chatID]
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/tz"):
			r.askTimezone(chatID)
		case r.isTZWait(chatID):
			r.processTimezone(ctx, chatID, text)
		case text == btnRemind:
			r.startWizard(ctx, chatID)
		case text == btnWeek:
			r.handleWeek(ctx, chatID)
		case r.wizard(chatID) != nil:
			r.handleWizardInput(ctx, chatID, text)
		default:
			// No active flow: ignore free-form message.
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		chatID := cb.Message.Chat.ID

		action, idStr, found := strings.Cut(cb.Data, ":")
		if !found {
			return
		}
		eventID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return
		}

		switch action {
		case "snooze":
			r.handleSnooze(ctx, chatID, eventID, cb)
		case "done":
			r.handleDone(ctx, chatID, eventID, cb)
		case "delete":
			r.handleDelete(ctx, chatID, eventID, cb)
		default:
			// Unknown callback — ignore silently.
		}
	}
}

// SendReminder delivers a fired job to the owning chat. This makes
// Router satisfy reminder.Notifier.
func (r *Router) SendReminder(ev *domain.Event, jobType domain.JobType) error {
	loc := time.UTC
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if user, err := r.repo.GetUser(ctx, ev.UserID); err == nil {
		loc = user.Location()
	}
	cancel()

	text := eventText(
		reminderPrefix(jobType),
		domain.FormatEventTime(ev.At, loc),
		ev.Activity,
		ev.Notes,
	)
	msg := tgbotapi.NewMessage(ev.UserID, text)
	msg.ReplyMarkup = reminderKeyboard(ev.ID, ev.SnoozeCount)
	_, err := r.bot.Send(msg)
	return err
}

// ── Generic helpers ──────────────────────────────────────────────────

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) sendWithKeyboard(chatID int64, text string, kb any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	_, _ = r.bot.Send(msg)
}

func (r *Router) answerCallback(id, text string) {
	_, _ = r.bot.Request(tgbotapi.NewCallback(id, text))
}
