package handlers

import (
	"strings"

	"redeploy/internal/apperr"

	"github.com/google/uuid"
)

const (
	agentIDPrefix    = "A-"
	positionIDPrefix = "B-"
	generatedIDTries = 3
)

// newID: префикс плюс 6 случайных шестнадцатеричных символов в верхнем регистре
func newID(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// createWithID вызывает create с пользовательским id или с сгенерированным.
// Для сгенерированного id конфликт означает коллизию, пробуем ещё раз.
func createWithID(id *string, prefix string, create func() error) error {
	if *id != "" {
		return create()
	}
	var err error
	for i := 0; i < generatedIDTries; i++ {
		*id = newID(prefix)
		if err = create(); !apperr.Is(err, apperr.KindConflict) {
			return err
		}
	}
	return err
}
