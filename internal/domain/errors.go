package domain

import "errors"

var (
	// ErrInvalidArgument is returned for non-positive prices or share counts and empty symbols.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInsufficientShares is returned when a sell exceeds the current holding.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrInsufficientFunds is returned by the session when a buy costs more than the cash balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateSymbol is returned when an instrument is registered twice.
	ErrDuplicateSymbol = errors.New("duplicate symbol")

	// ErrNotFound is returned when a symbol is not listed on the market.
	ErrNotFound = errors.New("symbol not found")

	// ErrAlreadyStarted and ErrNotStarted describe simulation lifecycle misuse.
	// They are logged only; Start and Stop are no-ops in those states.
	ErrAlreadyStarted = errors.New("simulation already started")
	ErrNotStarted     = errors.New("simulation not started")
)

// RecoverableError defines an interface for errors the caller can present and retry
type RecoverableError interface {
	error
	IsRecoverable() bool
}

// IsRecoverable checks if an error is recoverable.
// Plain validation sentinels count as recoverable too.
func IsRecoverable(err error) bool {
	var re RecoverableError
	if errors.As(err, &re) {
		return re.IsRecoverable()
	}
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrInsufficientShares) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNotFound)
}

// TradeError represents a rejected order
type TradeError struct {
	Op     string // "buy" or "sell"
	Symbol string
	Err    error
}

func (e *TradeError) Error() string {
	return e.Op + " " + e.Symbol + ": " + e.Err.Error()
}

// IsRecoverable always holds: trade rejections never leave partial state behind.
func (e *TradeError) IsRecoverable() bool {
	return true
}

func (e *TradeError) Unwrap() error {
	return e.Err
}

// NewTradeError wraps err for the given order side and symbol
func NewTradeError(op, symbol string, err error) *TradeError {
	return &TradeError{Op: op, Symbol: symbol, Err: err}
}

// ConfigError represents a configuration error (never recoverable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRecoverable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
