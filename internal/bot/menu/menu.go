package menu

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// GetRoleMenu возвращает меню в зависимости от роли пользователя
func GetRoleMenu(role string) tgbotapi.ReplyKeyboardMarkup {
	switch role {
	case "student":
		return studentMenu()
	case "teacher":
		return teacherMenu()
	case "admin":
		return teacherMenu() // админ видит всё то же, что преподаватель
	default:
		return tgbotapi.NewReplyKeyboard() // пустое меню
	}
}

func studentMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("📊 Мои оценки"),
			tgbotapi.NewKeyboardButton("💰 Мои жетоны"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🎁 Магазин наград"),
			tgbotapi.NewKeyboardButton("📥 Выгрузка оценок"),
		),
	)
}

func teacherMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("✏️ Выставить оценку"),
			tgbotapi.NewKeyboardButton("📚 Дисциплины и КТП"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🎁 Награды"),
			tgbotapi.NewKeyboardButton("💎 Жетоны за посещение"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("✅ Проверить сдачу практик"),
			tgbotapi.NewKeyboardButton("➕ Студент в группу"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("💸 Зарезервировать жетоны"),
			tgbotapi.NewKeyboardButton("📥 Выгрузка журнала"),
		),
	)
}
