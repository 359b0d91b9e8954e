package services

import "errors"

// Kind klassifiziert Fehler für die Aufrufer (HTTP-Status, CLI-Ausgabe).
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindInternal   Kind = "INTERNAL"
)

// Error ist ein fachlicher Fehler mit einer Meldung, die an Nutzer weitergegeben werden darf.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func notFoundError(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func conflictError(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }

var (
	ErrMissingInput     = validationError("email and paper ID are required")
	ErrInvalidEmail     = validationError("invalid email address")
	ErrInvalidDateToken = validationError("invalid date")
	ErrQueryTooShort    = validationError("search query must be at least 3 characters")
	ErrInvalidFilter    = validationError("invalid filter value")
	ErrPaperNoDate      = validationError("paper does not have a publication date")

	ErrPaperNotFound = notFoundError("paper not found")
	ErrNoPapers      = notFoundError("no papers found")
	ErrInvalidToken  = notFoundError("invalid token")

	ErrAlreadySubscribed   = conflictError("you are already subscribed to this paper")
	ErrPendingVerification = conflictError("a verification email has already been sent, please check your inbox")
	ErrAlreadyVerified     = conflictError("email already verified")
	ErrAlreadyUnsubscribed = conflictError("already unsubscribed")
	ErrLimitExceeded       = conflictError("maximum 5 subscriptions per email address")

	// Kollaborateur-Fehler: Details landen im Log, nicht beim Aufrufer.
	ErrEmailDelivery = &Error{Kind: KindInternal, Message: "failed to send email, please try again later"}
	ErrInternal      = &Error{Kind: KindInternal, Message: "internal server error"}
)

// KindOf liefert die Klasse eines Fehlers; unbekannte Fehler gelten als intern.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage liefert die für Nutzer bestimmte Meldung.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}
