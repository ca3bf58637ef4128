package sse

// Disconnect reasons reported to a Recorder.
const (
	ReasonExplicit    = "explicit"
	ReasonTransport   = "transport_closed"
	ReasonSendFailure = "send_failure"
	ReasonTimeout     = "timeout"
	ReasonShutdown    = "shutdown"
)

// Recorder receives hub activity for metrics export.
type Recorder interface {
	ClientConnected()
	ClientDisconnected(reason string)
	EventSent(eventType string)
	Error(code string)
}

type nopRecorder struct{}

func (nopRecorder) ClientConnected()          {}
func (nopRecorder) ClientDisconnected(string) {}
func (nopRecorder) EventSent(string)          {}
func (nopRecorder) Error(string)              {}
