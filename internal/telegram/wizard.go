package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

type wizardStep int

const (
	stepDate wizardStep = iota
	stepTimeOnly
	stepDateOnly
	stepActivity
	stepNotes
	stepConfirm
	stepEdit
)

const maxActivityLen = 200

// wizardState is the draft of one reminder being created.
type wizardState struct {
	step wizardStep
	loc  *time.Location

	at    time.Time // complete event instant, once known
	hasAt bool

	partialDate time.Time // date half while the time is pending
	timeH       int       // time half while the date is pending
	timeM       int

	activity string
	notes    string
}

// startWizard begins the reminder flow; a timezone must exist first.
func (r *Router) startWizard(ctx context.Context, chatID int64) {
	user, err := r.repo.GetUser(ctx, chatID)
	if err != nil {
		r.sendText(chatID, msgNeedTZ)
		return
	}
	r.setWizard(chatID, &wizardState{step: stepDate, loc: user.Location()})
	r.sendWithKeyboard(chatID, msgAskDate, cancelKeyboard())
}

func (r *Router) cancelWizard(chatID int64) {
	r.setWizard(chatID, nil)
	r.sendWithKeyboard(chatID, msgCancelled, mainMenuKeyboard())
}

// handleWizardInput advances the active wizard with one text message.
func (r *Router) handleWizardInput(ctx context.Context, chatID int64, text string) {
	w := r.wizard(chatID)
	if w == nil {
		return
	}
	if text == btnCancel {
		r.cancelWizard(chatID)
		return
	}

	switch w.step {
	case stepDate:
		r.stepDate(chatID, w, text)
	case stepTimeOnly:
		r.stepTimeOnly(chatID, w, text)
	case stepDateOnly:
		r.stepDateOnly(chatID, w, text)
	case stepActivity:
		r.stepActivity(chatID, w, text)
	case stepNotes:
		r.stepNotes(chatID, w, text)
	case stepConfirm:
		r.stepConfirm(ctx, chatID, w, text)
	case stepEdit:
		r.stepEdit(chatID, w, text)
	}
}

func (r *Router) stepDate(chatID int64, w *wizardState, text string) {
	now := time.Now().In(w.loc)
	res, err := domain.Parse(text, now, w.loc)
	if err != nil {
		r.sendText(chatID, parseErrText(err))
		return
	}

	switch {
	case res.HasDate && !res.HasTime:
		w.partialDate = res.At
		w.step = stepTimeOnly
		r.sendText(chatID, msgAskTimeOnly)
	case res.HasTime && !res.HasDate:
		w.timeH, w.timeM = res.At.Hour(), res.At.Minute()
		w.step = stepDateOnly
		r.sendText(chatID, msgAskDateOnly)
	default:
		w.at, w.hasAt = res.At, true
		w.step = stepActivity
		r.sendText(chatID, msgAskActivity)
	}
}

func (r *Router) stepTimeOnly(chatID int64, w *wizardState, text string) {
	h, mi, ok := domain.ParseTimeOfDay(text)
	if !ok {
		r.sendText(chatID, msgBadTime)
		return
	}
	now := time.Now().In(w.loc)
	d := w.partialDate
	at := time.Date(d.Year(), d.Month(), d.Day(), h, mi, 0, 0, w.loc)
	if err := domain.ValidateFuture(at, now); err != nil {
		r.sendText(chatID, parseErrText(err))
		return
	}
	w.at, w.hasAt = at, true
	w.step = stepActivity
	r.sendText(chatID, msgAskActivity)
}

func (r *Router) stepDateOnly(chatID int64, w *wizardState, text string) {
	now := time.Now().In(w.loc)
	res, err := domain.Parse(text, now, w.loc)
	if err != nil || !res.HasDate {
		r.sendText(chatID, msgBadDateOnly)
		return
	}
	d := res.At
	at := time.Date(d.Year(), d.Month(), d.Day(), w.timeH, w.timeM, 0, 0, w.loc)
	if err := domain.ValidateFuture(at, now); err != nil {
		r.sendText(chatID, parseErrText(err))
		return
	}
	w.at, w.hasAt = at, true
	w.step = stepActivity
	r.sendText(chatID, msgAskActivity)
}

func (r *Router) stepActivity(chatID int64, w *wizardState, text string) {
	if text == "" || len([]rune(text)) > maxActivityLen {
		r.sendText(chatID, msgBadActivity)
		return
	}
	w.activity = text
	w.step = stepNotes
	r.sendText(chatID, msgAskNotes)
}

func (r *Router) stepNotes(chatID int64, w *wizardState, text string) {
	w.notes = domain.FormatNotes(text)
	w.step = stepConfirm
	r.showConfirmation(chatID, w)
}

func (r *Router) showConfirmation(chatID int64, w *wizardState) {
	notes := w.notes
	if notes == "" {
		notes = "—"
	}
	text := eventText(
		"Подтвердите напоминание:\n",
		domain.FormatEventTime(w.at, w.loc),
		w.activity,
		notes,
	)
	r.sendWithKeyboard(chatID, text, confirmKeyboard())
}

func (r *Router) stepConfirm(ctx context.Context, chatID int64, w *wizardState, text string) {
	switch text {
	case btnConfirm:
		ev, err := r.svc.Create(ctx, chatID, w.at, w.activity, w.notes)
		if err != nil {
			if domain.IsPast(err) {
				// The instant slipped into the past while the user was
				// typing; restart the date step.
				w.step = stepDate
				r.sendWithKeyboard(chatID, parseErrText(err), cancelKeyboard())
				return
			}
			r.log.Error("create event failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.sendText(chatID, msgCreateFailed)
			return
		}
		r.setWizard(chatID, nil)
		r.log.Info("reminder created via wizard",
			zap.Int64("chatID", chatID), zap.Int64("eventID", ev.ID))
		r.sendWithKeyboard(chatID, msgCreated, mainMenuKeyboard())
	case btnEdit:
		w.step = stepEdit
		r.sendWithKeyboard(chatID, msgAskEdit, editKeyboard())
	default:
		r.sendText(chatID, msgConfirmHint)
	}
}

func (r *Router) stepEdit(chatID int64, w *wizardState, text string) {
	switch text {
	case btnEditDT:
		w.step = stepDate
		r.sendWithKeyboard(chatID, msgAskDate, cancelKeyboard())
	case btnEditAct:
		w.step = stepActivity
		r.sendWithKeyboard(chatID, msgAskActivity, cancelKeyboard())
	case btnEditNts:
		w.step = stepNotes
		r.sendWithKeyboard(chatID, msgAskNotes, cancelKeyboard())
	default:
		r.sendWithKeyboard(chatID, msgAskEdit, editKeyboard())
	}
}

// parseErrText maps a parse/validation error kind to its user-facing
// message; the core only decides the kind.
func parseErrText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidComponents):
		return msgNoSuchDate
	case errors.Is(err, domain.ErrPastDate):
		return msgPastDate
	case errors.Is(err, domain.ErrPastTime):
		return msgPastTime
	case errors.Is(err, domain.ErrUnrecognized):
		return msgBadDate
	}
	return msgBadDate
}
