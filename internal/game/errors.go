package game

// Stable reason codes for client-precondition errors. These are the
// only errors surfaced to the player; capability-port failures are
// absorbed with conservative defaults instead.
const (
	CodeEmptyMessage = "empty_message"
	CodeGameWon      = "game_won"
	CodeGameOver     = "game_over"
	CodeHintLimit    = "hint_limit"
)

// ClientError is a precondition violation by the caller. No session
// state has been mutated when one is returned.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

func clientErr(code, message string) *ClientError {
	return &ClientError{Code: code, Message: message}
}
