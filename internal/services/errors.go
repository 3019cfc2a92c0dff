package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrUnknownIdentity = errors.New("unknown identity")
	ErrPersistence     = errors.New("persistence failure")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
)

// Wrap builds an error message that includes collaborator context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsDenial reports whether an error represents a quota denial. Unknown
// identities deny rather than fail so an unresolved id never consumes quota.
func IsDenial(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrUnknownIdentity)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
