package models

import "errors"

var (
	// ErrUnauthenticated: учётные данные отсутствуют или недействительны.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound: профиль, водитель, груз или подписка не найдены.
	ErrNotFound = errors.New("not found")
	// ErrLimitExceeded: месячная квота просмотров контактов исчерпана.
	ErrLimitExceeded = errors.New("contact view limit exceeded")
	// ErrLookupFailed: ошибка хранилища или каталога планов.
	ErrLookupFailed = errors.New("lookup failed")
)
