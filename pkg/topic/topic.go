// Package topic defines validated topic names and one constructor per
// topic family, so room addressing is never built from ad hoc strings.
package topic

import (
	"fmt"
	"regexp"
)

var topicNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Name is a topic identifier accepted by the real-time layer.
type Name struct {
	value string
}

func NewName(value string) (Name, error) {
	if value == "" {
		return Name{}, fmt.Errorf("topic name cannot be empty")
	}

	if len(value) > 255 {
		return Name{}, fmt.Errorf("topic name: %s cannot have more than 255 bytes", value)
	}

	if !topicNameRegex.MatchString(value) {
		return Name{}, fmt.Errorf("topic name: %s format is invalid", value)
	}

	return Name{value}, nil
}

func (n Name) String() string {
	return n.value
}

// Tracking is the public topic for one tracking number.
func Tracking(trackingNumber string) (Name, error) {
	return NewName(trackingNumber)
}

// ShipmentsRoom is the staff room invalidated when the shipment list changes.
func ShipmentsRoom() Name {
	return Name{"shipments_room"}
}

func UsersRoom() Name {
	return Name{"users_room"}
}

func BranchesRoom() Name {
	return Name{"branches_room"}
}

func RatesRoom() Name {
	return Name{"rates_room"}
}

// Client is the topic scoped to one account's own shipments.
func Client(accountID string) Name {
	return Name{"client_" + accountID}
}

// Session is the topic used exclusively for eviction signaling.
func Session(sessionID string) Name {
	return Name{"session_" + sessionID}
}
