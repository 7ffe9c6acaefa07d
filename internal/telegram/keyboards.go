package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// Callback data values for the inline keyboards.
const (
	cbComplete = "complete"
	cbCancel   = "cancel"
	cbCustom   = "custom"
	cbMins     = "mins:"   // followed by a preset minute count
	cbExtend   = "extend:" // followed by a preset minute count
)

// locationKeyboard offers a one-tap GPS share while a session is
// collecting its location.
func locationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation("Send current location"),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

// deadlineKeyboard offers relative presets plus a custom HH:MM entry.
func deadlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+1 min", cbMins+"1"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+15 min", cbMins+"15"),
			tgbotapi.NewInlineKeyboardButtonData("+30 min", cbMins+"30"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("+45 min", cbMins+"45"),
			tgbotapi.NewInlineKeyboardButtonData("+60 min", cbMins+"60"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Custom HH:MM", cbCustom),
		),
	)
}

// sessionKeyboard is attached to the armed-session message.
func sessionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Complete", cbComplete),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Extend +15 min", cbExtend+"15"),
			tgbotapi.NewInlineKeyboardButtonData("Extend +30 min", cbExtend+"30"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Cancel session", cbCancel),
		),
	)
}
