package itms

import "errors"

var (
	ErrOutOfRange     = errors.New("payload out of range")
	ErrInvalidCommand = errors.New("invalid command")
)

// Fault вид ошибки разбора полезной нагрузки
type Fault uint8

const (
	FaultInvalidCommand Fault = iota + 1
	FaultOutOfRange
)

func (f Fault) String() string {
	switch f {
	case FaultInvalidCommand:
		return "InvalidCommand"
	case FaultOutOfRange:
		return "OutOfRange"
	default:
		return "Unknown"
	}
}

// FaultOf определяет вид ошибки, которую вернул Decode
func FaultOf(err error) (Fault, bool) {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return FaultOutOfRange, true
	case errors.Is(err, ErrInvalidCommand):
		return FaultInvalidCommand, true
	default:
		return 0, false
	}
}

// IsFatal сообщает, что показания по ошибке не получены
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}
