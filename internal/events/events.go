package events

// Room names clients can join for live UI refresh
const (
	RoomSuppliers    = "suppliers"
	RoomCatalog      = "catalog"
	RoomInventory    = "inventory"
	RoomPatients     = "patients"
	RoomCheckups     = "checkups"
	RoomOrders       = "orders"
	RoomTransactions = "transactions"
)

// Change types carried in event payloads
const (
	ChangeAdded   = "added"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Event is a single notification pushed to subscribers of a room
type Event struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// Change builds the standard {type, <entity>} payload
func Change(event, changeType, entityKey string, entity interface{}) Event {
	return Event{
		Event: event,
		Data: map[string]interface{}{
			"type":    changeType,
			entityKey: entity,
		},
	}
}

// Publisher is the outbound port services push notifications through after a
// successful commit. Publishing is fire-and-forget and never required for
// correctness; a dropped event only delays a UI refresh.
type Publisher interface {
	Publish(room string, event Event)
}

// Noop discards all events. Used in tests and when no hub is running.
type Noop struct{}

func (Noop) Publish(string, Event) {}
