// Package availability computes free-unit counts for a date window and keeps
// a short-lived cache of the answers in front of the store.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/cache"
)

// KeyPrefix is the cache namespace cleared after every booking mutation.
const KeyPrefix = "availability:"

type Result struct {
	ProductID           *int64          `json:"product_id,omitempty"`
	AccessoryID         *int64          `json:"accessory_id,omitempty"`
	TotalQuantity       int             `json:"total_quantity"`
	AvailableQuantity   int             `json:"available_quantity"`
	IsAvailable         bool            `json:"is_available"`
	ConflictingBookings []model.Booking `json:"conflicting_bookings,omitempty"`
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
	// Compute is the uncached calculation. bufferDays = 0 tests raw date
	// overlap; > 0 keeps each unit occupied that many days past its booking's
	// end date.
	Compute(ctx context.Context, w model.DateWindow, productIDs, accessoryIDs []int64, bufferDays int) ([]Result, error)

	// ComputeCached serves from the result cache, collapsing concurrent
	// misses for the same key into one store round trip.
	ComputeCached(ctx context.Context, w model.DateWindow, productIDs, accessoryIDs []int64, bufferDays int) ([]Result, error)

	// InvalidateAvailability drops every cached availability result.
	InvalidateAvailability()
}

type service struct {
	catalog  CatalogReader
	bookings BookingReader
	cache    *cache.Cache
	ttl      time.Duration
	group    singleflight.Group
}

func New(catalog CatalogReader, bookings BookingReader, c *cache.Cache, ttl time.Duration) Service {
	return &service{catalog: catalog, bookings: bookings, cache: c, ttl: ttl}
}

func (s *service) Compute(ctx context.Context, w model.DateWindow, productIDs, accessoryIDs []int64, bufferDays int) ([]Result, error) {
	buffer := time.Duration(bufferDays) * 24 * time.Hour
	results := make([]Result, 0, len(productIDs)+len(accessoryIDs))

	for _, pid := range productIDs {
		r, err := s.productAvailability(ctx, w, pid, buffer)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	for _, aid := range accessoryIDs {
		r, err := s.accessoryAvailability(ctx, w, aid, buffer)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *service) productAvailability(ctx context.Context, w model.DateWindow, productID int64, buffer time.Duration) (Result, error) {
	pid := productID
	res := Result{ProductID: &pid}

	cameras, err := s.catalog.ListCamerasByProduct(ctx, productID)
	if err != nil {
		return res, fmt.Errorf("product %d: list cameras: %w", productID, err)
	}
	res.TotalQuantity = len(cameras)
	if len(cameras) == 0 {
		return res, nil
	}

	ids := make([]int64, len(cameras))
	for i, c := range cameras {
		ids[i] = c.ID
	}
	bookings, err := s.bookings.ListForCameras(ctx, ids, true)
	if err != nil {
		return res, fmt.Errorf("product %d: list bookings: %w", productID, err)
	}

	busy := make(map[int64]bool)
	for _, b := range bookings {
		if b.CameraID == nil || !w.Overlaps(b.StartDate, b.EndDate, buffer) {
			continue
		}
		if !busy[*b.CameraID] {
			busy[*b.CameraID] = true
		}
		res.ConflictingBookings = append(res.ConflictingBookings, b)
	}

	res.AvailableQuantity = res.TotalQuantity - len(busy)
	if res.AvailableQuantity < 0 {
		res.AvailableQuantity = 0
	}
	res.IsAvailable = res.AvailableQuantity > 0
	return res, nil
}

func (s *service) accessoryAvailability(ctx context.Context, w model.DateWindow, accessoryID int64, buffer time.Duration) (Result, error) {
	aid := accessoryID
	res := Result{AccessoryID: &aid}

	instances, err := s.catalog.ListAccessoryInstances(ctx, accessoryID, true)
	if err != nil {
		return res, fmt.Errorf("accessory %d: list instances: %w", accessoryID, err)
	}
	res.TotalQuantity = len(instances)
	if len(instances) == 0 {
		return res, nil
	}

	inSet := make(map[int64]bool, len(instances))
	ids := make([]int64, len(instances))
	for i, ai := range instances {
		ids[i] = ai.ID
		inSet[ai.ID] = true
	}
	bookings, err := s.bookings.ListForAccessoryInstances(ctx, ids, true)
	if err != nil {
		return res, fmt.Errorf("accessory %d: list bookings: %w", accessoryID, err)
	}

	busy := make(map[int64]bool)
	for _, b := range bookings {
		if !w.Overlaps(b.StartDate, b.EndDate, buffer) {
			continue
		}
		conflicting := false
		for _, id := range b.AccessoryInstanceIDs {
			if inSet[id] {
				busy[id] = true
				conflicting = true
			}
		}
		if conflicting {
			res.ConflictingBookings = append(res.ConflictingBookings, b)
		}
	}

	res.AvailableQuantity = res.TotalQuantity - len(busy)
	if res.AvailableQuantity < 0 {
		res.AvailableQuantity = 0
	}
	res.IsAvailable = res.AvailableQuantity > 0
	return res, nil
}

func (s *service) ComputeCached(ctx context.Context, w model.DateWindow, productIDs, accessoryIDs []int64, bufferDays int) ([]Result, error) {
	key := Key(w, productIDs, accessoryIDs, bufferDays)

	if raw, ok := s.cache.Get(key); ok {
		var cached []Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// undecodable entry: fall through and recompute
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if raw, ok := s.cache.Get(key); ok {
			var cached []Result
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
		fresh, err := s.Compute(ctx, w, productIDs, accessoryIDs, bufferDays)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(fresh); err == nil {
			s.cache.Set(key, raw, s.ttl)
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Result), nil
}

func (s *service) InvalidateAvailability() {
	s.cache.ClearByPrefix(KeyPrefix)
}
