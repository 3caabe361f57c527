package setup

import "fmt"

type ConfigMissingError struct {
	Field string
}

func (e ConfigMissingError) Error() string {
	return fmt.Sprintf("config field %q not set", e.Field)
}

func NewConfigMissingError(field string) *ConfigMissingError {
	return &ConfigMissingError{
		Field: field,
	}
}
