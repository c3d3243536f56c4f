package channels

import (
	"fmt"
	"regexp"
	"strings"
)

// Validator checks channel definitions before they are registered.
type Validator struct {
	namePattern *regexp.Regexp
}

// NewValidator creates a new channel validator
func NewValidator() *Validator {
	// Channel names are PascalCase identifiers: AddMessage, MessageAdded.
	return &Validator{
		namePattern: regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`),
	}
}

// ValidateDefinition validates a channel definition
func (v *Validator) ValidateDefinition(ch Channel) error {
	if ch == nil {
		return fmt.Errorf("channel cannot be nil")
	}

	if err := v.ValidateName(ch.Name()); err != nil {
		return fmt.Errorf("invalid channel name: %w", err)
	}

	if strings.TrimSpace(ch.Description()) == "" {
		return fmt.Errorf("channel description cannot be empty")
	}

	switch ch.Direction() {
	case Inbound, Outbound:
	default:
		return fmt.Errorf("invalid channel direction: %q", ch.Direction())
	}

	return nil
}

// ValidateName checks that a channel name follows the naming convention
func (v *Validator) ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if len(name) > 64 {
		return fmt.Errorf("name too long (max 64 characters)")
	}

	if !v.namePattern.MatchString(name) {
		return fmt.Errorf("name must be PascalCase alphanumeric, got %q", name)
	}

	return nil
}
