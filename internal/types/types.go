// README: Common value objects shared across modules.
package types

import "github.com/google/uuid"

// ID identifies shifts, proposals, workers, visits, and clients.
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}
