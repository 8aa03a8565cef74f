package sse

type Event struct {
	Topic string `json:"topic"`
	Name  string `json:"name"`
	Data  any    `json:"data,omitempty"`
}

const SYSSessionTopic = "$SYS/session"

const (
	SYSSessionCreated = "Created"
)
