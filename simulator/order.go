package simulator

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/livetrack/core/model"
)

// arrivalTolerance is the distance in degrees under which an order counts as
// delivered on each axis.
const arrivalTolerance = 0.0001

// Order is the moving state of one simulated delivery. Coordinates are stored
// as X=latitude, Y=longitude.
type Order struct {
	ID     string
	Source r2.Vec
	Dest   r2.Vec
	Cur    r2.Vec
	Status string
}

// NewOrder places the order at its source with status Shipped.
func NewOrder(c OrderConfig) *Order {
	src := r2.Vec{X: DefaultSourceLat, Y: DefaultSourceLon}
	if c.SrcLat != nil {
		src.X = *c.SrcLat
	}
	if c.SrcLon != nil {
		src.Y = *c.SrcLon
	}
	return &Order{
		ID:     c.ID,
		Source: src,
		Dest:   r2.Vec{X: c.DesLat, Y: c.DesLon},
		Cur:    src,
		Status: model.StatusShipped,
	}
}

// Delivered reports whether the current position is within tolerance of
// the destination.
func (o *Order) Delivered() bool {
	return math.Abs(o.Cur.X-o.Dest.X) < arrivalTolerance && math.Abs(o.Cur.Y-o.Dest.Y) < arrivalTolerance
}

// Step moves the order by speed toward its destination plus lateral noise
// drawn from jitter. The last step lands exactly on the destination.
func (o *Order) Step(speed float64, jitter distuv.Normal) {
	if o.Status == model.StatusDelivered {
		return
	}
	remaining := r2.Sub(o.Dest, o.Cur)
	dist := r2.Norm(remaining)
	if dist <= speed {
		o.Cur = o.Dest
	} else {
		dir := r2.Unit(remaining)
		o.Cur = r2.Add(o.Cur, r2.Scale(speed, dir))
		if jitter.Sigma > 0 {
			normal := r2.Vec{X: -dir.Y, Y: dir.X}
			o.Cur = r2.Add(o.Cur, r2.Scale(jitter.Rand(), normal))
		}
	}
	if o.Delivered() {
		o.Status = model.StatusDelivered
		return
	}
	o.Status = model.StatusInTransit
}

// Update returns the location frame for the current state.
func (o *Order) Update(ts uint64) model.LocationUpdate {
	return model.LocationUpdate{
		VehicleID:  o.ID,
		SourceLat:  o.Source.X,
		SourceLon:  o.Source.Y,
		CurrentLat: o.Cur.X,
		CurrentLon: o.Cur.Y,
		DestLat:    o.Dest.X,
		DestLon:    o.Dest.Y,
		Status:     o.Status,
		Timestamp:  ts,
	}
}
