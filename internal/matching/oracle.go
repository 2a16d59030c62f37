package matching

import (
	"context"
	"errors"
)

// ErrOracleNotConfigured возвращает оракул, у которого нет ключа API.
var ErrOracleNotConfigured = errors.New("matching oracle is not configured")

// Oracle: внешняя генеративная модель. Получает готовый промпт и возвращает
// текст, который должен быть JSON-массивом кандидатов.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OracleFunc позволяет использовать функцию как Oracle.
type OracleFunc func(ctx context.Context, prompt string) (string, error)

func (f OracleFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
