package crud

// Operation names one of the accessor's four calls.
type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Outcome classifies how a call ended.
// Callers of the accessor only ever see the neutral return value,
// the outcome is how an Observer can tell "nothing matched" from a failure.
type Outcome string

const (
	OutcomeOK             Outcome = "ok"
	OutcomeInvalid        Outcome = "invalid"
	OutcomeError          Outcome = "error"
	OutcomeUnacknowledged Outcome = "unacknowledged"
)

// Observer is notified once per accessor call.
// The count is documents inserted, returned, modified or deleted.
type Observer interface {
	Observe(op Operation, outcome Outcome, count int64)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(op Operation, outcome Outcome, count int64)

func (fn ObserverFunc) Observe(op Operation, outcome Outcome, count int64) {
	fn(op, outcome, count)
}

type nopObserver struct{}

func (nopObserver) Observe(Operation, Outcome, int64) {}
