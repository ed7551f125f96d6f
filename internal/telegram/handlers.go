package telegram

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

// handleStart greets the user; first contact goes straight to the
// timezone prompt.
func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.repo.GetUser(ctx, chatID); err != nil {
		r.askTimezone(chatID)
		return
	}
	r.sendWithKeyboard(chatID, msgMainMenu, mainMenuKeyboard())
}

// ── Timezone flow ────────────────────────────────────────────────────

func (r *Router) askTimezone(chatID int64) {
	r.setTZWait(chatID, true)
	r.sendWithKeyboard(chatID, msgAskTZ, tzKeyboard())
}

func (r *Router) processTimezone(ctx context.Context, chatID int64, text string) {
	loc, err := time.LoadLocation(text)
	if err != nil {
		r.sendText(chatID, msgTZInvalid)
		return
	}
	u := &domain.User{ID: chatID, TZ: loc.String()}
	if err := r.repo.UpsertUser(ctx, u); err != nil {
		r.log.Error("save timezone failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, msgTransientFail)
		return
	}
	r.setTZWait(chatID, false)
	r.sendWithKeyboard(chatID, "Timezone установлен: "+loc.String(), mainMenuKeyboard())
}

// ── Weekly listing ───────────────────────────────────────────────────

func (r *Router) handleWeek(ctx context.Context, chatID int64) {
	user, err := r.repo.GetUser(ctx, chatID)
	if err != nil {
		r.sendText(chatID, msgNeedTZ)
		return
	}
	events, err := r.svc.WeekEvents(ctx, chatID)
	if err != nil {
		r.log.Error("week events failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, msgTransientFail)
		return
	}
	if len(events) == 0 {
		r.sendText(chatID, msgWeekEmpty)
		return
	}

	loc := user.Location()
	for _, ev := range events {
		text := eventText("", domain.FormatEventTime(ev.At, loc), ev.Activity, ev.Notes)
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ReplyMarkup = deleteKeyboard(ev.ID)
		_, _ = r.bot.Send(msg)
	}
}

// ── Inline callbacks ─────────────────────────────────────────────────

func (r *Router) handleSnooze(ctx context.Context, chatID, eventID int64, cb *tgbotapi.CallbackQuery) {
	_, err := r.svc.Snooze(ctx, eventID)
	switch {
	case err == nil:
		r.answerCallback(cb.ID, msgSnoozed)
	case errors.Is(err, domain.ErrSnoozeLimitExceeded):
		r.answerCallback(cb.ID, msgSnoozeLimit)
		// Rebuild the keyboard without the snooze button.
		if ev, gerr := r.repo.GetEvent(ctx, eventID); gerr == nil {
			kb := reminderKeyboard(eventID, ev.SnoozeCount)
			edit := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID, kb)
			_, _ = r.bot.Request(edit)
		}
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrEventNotFound):
		r.answerCallback(cb.ID, "")
	default:
		r.log.Error("snooze failed", zap.Int64("eventID", eventID), zap.Error(err))
		r.answerCallback(cb.ID, msgTransientFail)
	}
}

func (r *Router) handleDone(ctx context.Context, chatID, eventID int64, cb *tgbotapi.CallbackQuery) {
	if err := r.svc.Done(ctx, eventID); err != nil && !errors.Is(err, domain.ErrEventNotFound) {
		r.log.Error("done failed", zap.Int64("eventID", eventID), zap.Error(err))
		r.answerCallback(cb.ID, msgTransientFail)
		return
	}
	clear := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = r.bot.Request(clear)
	r.sendText(chatID, msgDone)
	r.answerCallback(cb.ID, "")
}

func (r *Router) handleDelete(ctx context.Context, chatID, eventID int64, cb *tgbotapi.CallbackQuery) {
	if err := r.svc.Delete(ctx, eventID); err != nil && !errors.Is(err, domain.ErrEventNotFound) {
		r.log.Error("delete failed", zap.Int64("eventID", eventID), zap.Error(err))
		r.answerCallback(cb.ID, msgTransientFail)
		return
	}
	clear := tgbotapi.NewEditMessageReplyMarkup(chatID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	_, _ = r.bot.Request(clear)
	r.answerCallback(cb.ID, msgDeleted)
}
