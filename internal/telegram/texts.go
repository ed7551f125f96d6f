package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alex-cat-ui/Reminder-bot/internal/domain"
)

// UI texts in Russian.
const (
	msgMainMenu     = "Главное меню:"
	msgAskTZ        = "Выберите часовой пояс или введите IANA timezone (например Europe/Moscow):"
	msgTZInvalid    = "Некорректный timezone. Попробуйте снова."
	msgNeedTZ       = "Сначала установите часовой пояс: /tz"
	msgAskDate      = "Введите дату и время (например: завтра 18:00, 25.12 15:30, через 2 часа):"
	msgAskTimeOnly  = "Понял дату. Теперь введите время (например: 18:00, вечером):"
	msgAskDateOnly  = "Понял время. Теперь введите дату (например: завтра, 25.12, в субботу):"
	msgAskActivity  = "Введите активность (1-200 символов):"
	msgBadActivity  = "Активность должна быть от 1 до 200 символов."
	msgAskNotes     = "Введите заметки (или '-' если без заметок). Перечисление через запятую станет списком:"
	msgAskEdit      = "Что изменить?"
	msgConfirmHint  = "Нажмите 'Подтвердить', 'Изменить' или 'Отмена'."
	msgCancelled    = "Создание напоминания отменено."
	msgCreated      = "Напоминание создано!"
	msgCreateFailed = "Не удалось сохранить напоминание. Попробуйте позже."
	msgWeekEmpty    = "На этой неделе нет активных напоминаний."
	msgSnoozed      = "Отложено на 1 час."
	msgSnoozeLimit  = "Лимит откладываний достигнут (25)."
	msgDone         = "✅ Завершено"
	msgDeleted      = "Удалено."

	msgBadDate       = "Не понял дату/время. Попробуй иначе."
	msgBadTime       = "Не понял время. Попробуй иначе (например: 18:00, вечером)."
	msgBadDateOnly   = "Не понял дату. Попробуй иначе (например: завтра, 25.12)."
	msgNoSuchDate    = "Такой даты не существует. Проверь день и месяц."
	msgPastDate      = "Введи корректную дату"
	msgPastTime      = "Введи корректное время"
	msgTransientFail = "Что-то пошло не так. Попробуйте ещё раз."
)

// Main menu and wizard button labels; dispatch matches on them.
const (
	btnRemind  = "Напомнить"
	btnWeek    = "Мои активности на неделю"
	btnCancel  = "Отмена"
	btnConfirm = "Подтвердить"
	btnEdit    = "Изменить"
	btnEditDT  = "Дата/время"
	btnEditAct = "Активность"
	btnEditNts = "Заметки"
)

var popularTZ = []string{
	"Europe/Moscow",
	"Europe/Kaliningrad",
	"Asia/Yekaterinburg",
	"Asia/Novosibirsk",
	"Asia/Vladivostok",
	"Europe/Kiev",
	"Asia/Almaty",
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRemind),
			tgbotapi.NewKeyboardButton(btnWeek),
		),
	)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnConfirm)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnEdit)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
}

func editKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnEditDT)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnEditAct)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnEditNts)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancel)),
	)
}

func tzKeyboard() tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(popularTZ))
	for _, tz := range popularTZ {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(tz)))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// reminderKeyboard offers snooze (hidden at the cap) and done.
func reminderKeyboard(eventID int64, snoozeCount int) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(eventID, 10)
	var row []tgbotapi.InlineKeyboardButton
	if snoozeCount < domain.MaxSnoozeCount {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Отложить на 1 час", "snooze:"+id))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData("Завершить", "done:"+id))
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func deleteKeyboard(eventID int64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatInt(eventID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Удалить", "delete:"+id),
		),
	)
}

func reminderPrefix(jobType domain.JobType) string {
	switch jobType {
	case domain.JobDayBefore:
		return "Напоминание: завтра"
	case domain.JobHourBefore:
		return "Напоминание: через час"
	case domain.JobSoon:
		return "Напоминание: событие скоро"
	case domain.JobAtTime:
		return "Напоминание: время события наступило"
	}
	return "Напоминание"
}

func eventText(prefix, when, activity, notes string) string {
	text := fmt.Sprintf("%s\nКогда: %s\nАктивность: %s", prefix, when, activity)
	if notes != "" {
		text += "\nЗаметки:\n" + notes
	}
	return text
}
