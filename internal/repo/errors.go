package repo

import "errors"

// Ошибки хранилища. Нарушения ограничений PostgreSQL переводятся в них
// в самих репозиториях, чтобы вызывающий код не зависел от pgconn.
var (
	// ErrNotFound — записи нет, либо ссылка указывает на удалённую команду.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists — нарушен уникальный индекс (имя команды, участник, ресурс, имя спецификации).
	ErrAlreadyExists = errors.New("already exists")
)
