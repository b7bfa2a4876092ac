package engine

// EngineError is returned for engine construction problems
type EngineError string

// Error implements the error interface
func (e EngineError) Error() string {
	return string(e)
}

const (
	ErrNilConfig        EngineError = "config cannot be nil"
	ErrNilCatalog       EngineError = "catalog cannot be nil"
	ErrNilDiceRoller    EngineError = "dice roller cannot be nil"
	ErrNilClock         EngineError = "clock cannot be nil"
	ErrNilUUIDGenerator EngineError = "UUID generator cannot be nil"
)
