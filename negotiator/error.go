package negotiator

import (
	"fmt"
	"strings"
)

// AttemptError is the failure of one transport attempt.
type AttemptError struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// NegotiationError is returned when both the modern and the legacy attempt failed.
type NegotiationError struct {
	URL    string
	Modern *AttemptError
	Legacy *AttemptError
}

func (e *NegotiationError) Error() string {
	var reasons []string
	for _, attempt := range []*AttemptError{e.Modern, e.Legacy} {
		if attempt != nil {
			reasons = append(reasons, attempt.Error())
		}
	}
	return fmt.Sprintf("failed to connect to %s: %s", e.URL, strings.Join(reasons, "; "))
}

func (e *NegotiationError) Unwrap() []error {
	var ret []error
	if e.Modern != nil {
		ret = append(ret, e.Modern)
	}
	if e.Legacy != nil {
		ret = append(ret, e.Legacy)
	}
	return ret
}
