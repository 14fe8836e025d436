package shared

import "errors"

var (
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage hides infrastructure details from rendered pages.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}
