package core

import "errors"

// Ошибки ядра. Валидационные возвращаются синхронно и не оставляют
// частичных изменений; гонки на уникальных ключах, где это оговорено,
// гасятся внутри операций.
var (
	ErrInvalidIdentity    = errors.New("некорректные данные студента")
	ErrIdentityConflict   = errors.New("аккаунт уже привязан к другому студенту")
	ErrInvalidGrade       = errors.New("недопустимая оценка")
	ErrRewardNotFound     = errors.New("награда не найдена или отключена")
	ErrInsufficientTokens = errors.New("недостаточно жетонов")
	ErrNotFound           = errors.New("запись не найдена")
)
