package validation

import (
	"github.com/kbukum/pushhub/sse"
)

const (
	maxEventIDLength   = 256
	maxEventTypeLength = 128
	maxTargetIDLength  = 256
)

// ValidateMessage checks a targeted-send request before it reaches the
// hub. A missing target id is left to the hub, which records it.
func ValidateMessage(msg *sse.Message) error {
	if err := Validate(msg); err != nil {
		return err
	}
	v := New().
		MaxLength("event.id", msg.Event.ID, maxEventIDLength).
		NoLineBreaks("event.id", msg.Event.ID).
		MaxLength("event.type", msg.Event.Type, maxEventTypeLength).
		NoLineBreaks("event.type", msg.Event.Type).
		MaxLength("target_id", msg.TargetID, maxTargetIDLength)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
