package validation

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/iudanet/carestore/internal/models"
)

// MaxIdentifierLen максимальная длина идентификатора в байтах
const MaxIdentifierLen = 256

// ValidateIdentifier проверяет идентификатор сущности:
// непустой, валидный UTF-8, без управляющих символов, не длиннее MaxIdentifierLen
func ValidateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}

	if len(id) > MaxIdentifierLen {
		return fmt.Errorf("identifier must not exceed %d bytes", MaxIdentifierLen)
	}

	if !utf8.ValidString(id) {
		return fmt.Errorf("identifier must be valid UTF-8")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("identifier cannot contain control characters")
		}
	}

	return nil
}

// ValidateQuery проверяет параметры выборки
func ValidateQuery(q models.Query) error {
	if q.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	if q.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}

	if q.DateInterval != nil && q.DateInterval.End.Before(q.DateInterval.Start) {
		return fmt.Errorf("date interval end %s is before start %s",
			q.DateInterval.End.Format("2006-01-02T15:04:05Z07:00"),
			q.DateInterval.Start.Format("2006-01-02T15:04:05Z07:00"))
	}

	return nil
}
