// Package allocation picks which physical units back a booking. Selection is
// greedy first-fit over units in ascending id order, so identical requests
// against an identical store pick identical units.
package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
)

type Kind string

const (
	KindCamera    Kind = "camera"
	KindAccessory Kind = "accessory"
)

// InsufficientUnitsError reports a shortfall. No units are reserved when it
// is returned.
type InsufficientUnitsError struct {
	Kind   Kind  `json:"kind"`
	ID     int64 `json:"id"`
	Needed int   `json:"needed"`
	Found  int   `json:"found"`
}

func (e *InsufficientUnitsError) Error() string {
	return fmt.Sprintf("insufficient %s units for id %d: needed %d, found %d", e.Kind, e.ID, e.Needed, e.Found)
}

type CatalogReader interface {
	ListCamerasByProduct(ctx context.Context, productID int64) ([]model.Camera, error)
	ListAccessoryInstances(ctx context.Context, accessoryID int64, onlyInRotation bool) ([]model.AccessoryInstance, error)
}

type BookingReader interface {
	ListForCameras(ctx context.Context, cameraIDs []int64, activeOnly bool) ([]model.Booking, error)
	ListForAccessoryInstances(ctx context.Context, instanceIDs []int64, activeOnly bool) ([]model.Booking, error)
}

type Service interface {
	// Allocate selects quantity unit ids for the window, or fails with
	// *InsufficientUnitsError without reserving anything. bufferDays extends
	// every existing booking's end date before the overlap test.
	Allocate(ctx context.Context, kind Kind, id int64, quantity int, w model.DateWindow, bufferDays int) ([]int64, error)
}

type service struct {
	catalog  CatalogReader
	bookings BookingReader
}

func New(catalog CatalogReader, bookings BookingReader) Service {
	return &service{catalog: catalog, bookings: bookings}
}

func (s *service) Allocate(ctx context.Context, kind Kind, id int64, quantity int, w model.DateWindow, bufferDays int) ([]int64, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("allocate: quantity must be positive, got %d", quantity)
	}

	unitIDs, err := s.unitIDs(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	occupied, err := s.occupiedUnits(ctx, kind, unitIDs, w, bufferDays)
	if err != nil {
		return nil, err
	}

	// unitIDs come back ordered by id; first-fit keeps allocation deterministic.
	picked := make([]int64, 0, quantity)
	for _, uid := range unitIDs {
		if occupied[uid] {
			continue
		}
		picked = append(picked, uid)
		if len(picked) == quantity {
			return picked, nil
		}
	}

	return nil, &InsufficientUnitsError{Kind: kind, ID: id, Needed: quantity, Found: len(picked)}
}

func (s *service) unitIDs(ctx context.Context, kind Kind, id int64) ([]int64, error) {
	switch kind {
	case KindCamera:
		cams, err := s.catalog.ListCamerasByProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list cameras: %w", err)
		}
		ids := make([]int64, len(cams))
		for i, c := range cams {
			ids[i] = c.ID
		}
		return ids, nil
	case KindAccessory:
		instances, err := s.catalog.ListAccessoryInstances(ctx, id, true)
		if err != nil {
			return nil, fmt.Errorf("list accessory instances: %w", err)
		}
		ids := make([]int64, len(instances))
		for i, ai := range instances {
			ids[i] = ai.ID
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("allocate: unknown kind %q", kind)
	}
}

func (s *service) occupiedUnits(ctx context.Context, kind Kind, unitIDs []int64, w model.DateWindow, bufferDays int) (map[int64]bool, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}

	var (
		bookings []model.Booking
		err      error
	)
	if kind == KindCamera {
		bookings, err = s.bookings.ListForCameras(ctx, unitIDs, true)
	} else {
		bookings, err = s.bookings.ListForAccessoryInstances(ctx, unitIDs, true)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	buffer := time.Duration(bufferDays) * 24 * time.Hour
	inSet := make(map[int64]bool, len(unitIDs))
	for _, uid := range unitIDs {
		inSet[uid] = true
	}

	occupied := make(map[int64]bool)
	for _, b := range bookings {
		if !w.Overlaps(b.StartDate, b.EndDate, buffer) {
			continue
		}
		if kind == KindCamera {
			if b.CameraID != nil && inSet[*b.CameraID] {
				occupied[*b.CameraID] = true
			}
			continue
		}
		for _, aid := range b.AccessoryInstanceIDs {
			if inSet[aid] {
				occupied[aid] = true
			}
		}
	}
	return occupied, nil
}
