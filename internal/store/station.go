package store

import (
	"database/sql"
	"fmt"

	"github.com/apexfuel/apex/internal/model"
)

// StationStore reads the fuel-station catalog. The catalog is seeded at
// startup and never mutated.
type StationStore struct {
	db *sql.DB
}

func NewStationStore(db *sql.DB) *StationStore {
	return &StationStore{db: db}
}

const stationCols = `id, name, brand, distance_km, eta, petrol_price, diesel_price, offer, rating, latitude, longitude`

func scanStation(scanner interface{ Scan(...any) error }) (*model.Station, error) {
	var s model.Station
	err := scanner.Scan(
		&s.ID, &s.Name, &s.Brand, &s.DistanceKm, &s.ETA,
		&s.PetrolPrice, &s.DieselPrice, &s.Offer, &s.Rating,
		&s.Latitude, &s.Longitude,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID returns the station or nil when no such station exists.
func (s *StationStore) GetByID(id int64) (*model.Station, error) {
	row := s.db.QueryRow(`SELECT `+stationCols+` FROM stations WHERE id = ?`, id)
	station, err := scanStation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get station: %w", err)
	}
	return station, nil
}

// Sort orders accepted by List.
const (
	SortDistance = "distance"
	SortPrice    = "price"
	SortRating   = "rating"
)

// Filter narrows and orders the station listing.
type Filter struct {
	FuelType      string  // price sorting uses this fuel's column; petrol by default
	MaxDistanceKm float64 // 0 means no limit
	Sort          string  // distance (default), price, or rating
}

// List returns catalog stations matching the filter.
func (s *StationStore) List(f Filter) ([]model.Station, error) {
	query := `SELECT ` + stationCols + ` FROM stations`
	var args []any

	if f.MaxDistanceKm > 0 {
		query += ` WHERE distance_km <= ?`
		args = append(args, f.MaxDistanceKm)
	}

	priceCol := "petrol_price"
	if f.FuelType == model.FuelDiesel {
		priceCol = "diesel_price"
	}

	switch f.Sort {
	case SortPrice:
		query += ` ORDER BY ` + priceCol + ` ASC, distance_km ASC`
	case SortRating:
		query += ` ORDER BY rating DESC, distance_km ASC`
	default:
		query += ` ORDER BY distance_km ASC`
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []model.Station
	for rows.Next() {
		st, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, *st)
	}
	return stations, rows.Err()
}
