// Package ipc provides the unix-socket control protocol between segno
// processes: one line-delimited JSON request per connection, one JSON
// response back.
package ipc

// Command names accepted by the owner process.
const (
	CommandStart      = "start"
	CommandStop       = "stop"
	CommandToggle     = "toggle"
	CommandStatus     = "status"
	CommandTranscript = "transcript"
	CommandClear      = "clear"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK         bool   `json:"ok"`
	State      string `json:"state,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}
