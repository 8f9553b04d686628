package common

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationDetails converts validator errors into a field→tag map suitable
// for error envelope details. Returns nil for non-validator errors.
func ValidationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fe.Tag()
	}
	return map[string]any{"fields": fields}
}
