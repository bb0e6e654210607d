package model

// LocationUpdate is one decoded position report for a tracked order.
// Values are immutable once constructed; pass them by value.
type LocationUpdate struct {
	VehicleID string  `json:"vehicleId"`
	SourceLat float64 `json:"srcLat"`
	SourceLon float64 `json:"srcLon"`
	// Current position may equal the source until movement begins.
	CurrentLat float64 `json:"curLat"`
	CurrentLon float64 `json:"curLon"`
	DestLat    float64 `json:"desLat"`
	DestLon    float64 `json:"desLon"`
	Status     string  `json:"status"`
	// Timestamp is sender assigned and passed through unchecked.
	Timestamp uint64 `json:"timestamp"`
}

// Delivery status tokens emitted by the location producer.
const (
	StatusShipped   = "Shipped"
	StatusInTransit = "In Transit"
	StatusDelivered = "Delivered"
)
