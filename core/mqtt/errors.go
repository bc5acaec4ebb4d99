package mqtt

import "errors"

// ErrPublish is returned when a plan could not be delivered after all retries.
var ErrPublish = errors.New("plan publish failed")
