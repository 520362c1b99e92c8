package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

func createAdminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/mark_student"),
			tgbotapi.NewKeyboardButton("/mark_coach"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/payments"),
			tgbotapi.NewKeyboardButton("/help"),
		),
	)
}
