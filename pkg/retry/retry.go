// Package retry runs actions repeatedly under a list of strategies. Each
// strategy sees the attempt number and the last error, and may sleep before
// allowing another attempt.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry runs action until it succeeds or a strategy declines another attempt,
// returning the number of attempts made.
//
// Strategies run in order and stop at the first that declines, so strategies
// that sleep belong at the end.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}
		if !allow(strategies, attempts, err) {
			return attempts, err
		}
	}
}

// Loop runs action forever. A successful run resets the attempt count, so
// strategies only ever see consecutive failures. Loop returns the error of
// the first failure a strategy declines to retry.
func Loop(action Action, strategies ...Strategy) error {
	var failures uint
	for {
		err := action()
		if err == nil {
			failures = 0
			continue
		}

		failures++
		if !allow(strategies, failures, err) {
			return err
		}
	}
}

func allow(strategies []Strategy, attempts uint, err error) bool {
	for _, s := range strategies {
		if !s(attempts, err) {
			return false
		}
	}
	return true
}
