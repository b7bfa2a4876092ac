package session

// SessionError is returned for registry construction problems
type SessionError string

// Error implements the error interface
func (e SessionError) Error() string {
	return string(e)
}

const (
	ErrNilConfig        SessionError = "config cannot be nil"
	ErrNilEngine        SessionError = "engine cannot be nil"
	ErrNilClock         SessionError = "clock cannot be nil"
	ErrNilUUIDGenerator SessionError = "UUID generator cannot be nil"
	ErrCodeExhausted    SessionError = "could not allocate a unique game code"
	ErrRegistryClosed   SessionError = "registry is closed"
)
