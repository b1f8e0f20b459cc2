package apperror

// Error is a domain error carrying the HTTP status it should surface as.
// Messages are user-facing and written in Portuguese.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}
