package realtime

import "github.com/tracknet-io/tracknet/pkg/topic"

// Notifier is the only surface the CRUD handlers see: declare that a
// topic changed, with an optional payload. The gateway implements it.
type Notifier interface {
	Notify(t topic.Name, event string, data any)
}
