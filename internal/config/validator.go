package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	stagehanderrors "github.com/alexisbeaulieu97/stagehand/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern     = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	targetNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// validatorInstance configures and returns the shared validator instance used
// across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("target_name", func(fl validator.FieldLevel) bool {
			return targetNamePattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
			_, err := zerolog.ParseLevel(strings.ToLower(fl.Field().String()))
			return err == nil
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// configuration.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return stagehanderrors.NewConfigValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	seen := make(map[string]struct{}, len(cfg.Targets))
	for i, target := range cfg.Targets {
		if _, exists := seen[target]; exists {
			field := fmt.Sprintf("targets[%d]", i)
			return stagehanderrors.NewConfigValidationError(field, fmt.Sprintf("duplicate target %q", target), nil)
		}
		seen[target] = struct{}{}
	}

	return nil
}

func convertValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		message := fmt.Sprintf("failed on %q rule", fe.Tag())
		return stagehanderrors.NewConfigValidationError(strings.ToLower(fe.Field()), message, err)
	}
	return stagehanderrors.NewConfigValidationError("config", err.Error(), err)
}
