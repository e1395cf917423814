package events

import "fmt"

type Type string

const (
	InterfaceAdded   Type = "InterfaceAdded"
	InterfaceDeleted Type = "InterfaceDeleted"
	AddressSet       Type = "AddressSet"
	AddressCleared   Type = "AddressCleared"
	RouteAdded       Type = "RouteAdded"
	RouteDeleted     Type = "RouteDeleted"
	LinkUp           Type = "LinkUp"
	LinkDown         Type = "LinkDown"
	RouterAdded      Type = "RouterAdded"
	RouterRemoved    Type = "RouterRemoved"
	RouterRenamed    Type = "RouterRenamed"
)

type Event struct {
	Type      Type
	Router    string
	Interface string
	Detail    string
}

func (e Event) String() string {
	s := fmt.Sprintf("%s %s", e.Type, e.Router)
	if e.Interface != "" {
		s += " " + e.Interface
	}
	if e.Detail != "" {
		s += " " + e.Detail
	}
	return s
}

type Publisher interface {
	Publish(e Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
