package model

// Station is an immutable fuel-station catalog entry, read-only after seed.
type Station struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	DistanceKm  float64 `json:"distance_km"`
	ETA         string  `json:"eta"`
	PetrolPrice float64 `json:"petrol_price"`
	DieselPrice float64 `json:"diesel_price"`
	Offer       string  `json:"offer"`
	Rating      float64 `json:"rating"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// PriceFor returns the per-liter price for the given fuel type.
// Returns false if the fuel type is unknown.
func (s Station) PriceFor(fuelType string) (float64, bool) {
	switch fuelType {
	case FuelPetrol:
		return s.PetrolPrice, true
	case FuelDiesel:
		return s.DieselPrice, true
	}
	return 0, false
}

const (
	FuelPetrol = "petrol"
	FuelDiesel = "diesel"
)
