package dispatch

import "fmt"

// ValidationError reports a malformed send request. It is surfaced to the
// caller and never produces a store mutation.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid email request: %s", e.Reason)
}

// DeliveryError reports a transport-level failure from the SMTP relay on the
// synchronous submission path. The caller may resubmit; nothing was queued or
// archived.
type DeliveryError struct {
	Err error
}

func (e DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e DeliveryError) Unwrap() error {
	return e.Err
}
