package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	structValidate *validator.Validate
	structTrans    ut.Translator
)

func init() {
	structValidate = validator.New(validator.WithRequiredStructEnabled())
	english := en.New()
	uni := ut.New(english, english)
	structTrans, _ = uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(structValidate, structTrans); err != nil {
		panic(fmt.Sprintf("failed to register validator translations: %v", err))
	}
}

// translateProblems validates a struct and returns one English message per failing field
func translateProblems(s any) ([]string, error) {
	err := structValidate.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil, err
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		problems = append(problems, fe.Translate(structTrans))
	}
	return problems, nil
}

// Validate checks the preferences are within range
func (p Preferences) Validate() error {
	problems, err := translateProblems(p)
	if err != nil {
		return fmt.Errorf("failed to validate preferences: %w", err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid preferences: %s", strings.Join(problems, "; "))
	}
	return nil
}
