package allocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
)

type catalogMock struct {
	cameras   map[int64][]model.Camera
	instances map[int64][]model.AccessoryInstance
	err       error
}

func (m *catalogMock) ListCamerasByProduct(ctx context.Context, productID int64) ([]model.Camera, error) {
	return m.cameras[productID], m.err
}

func (m *catalogMock) ListAccessoryInstances(ctx context.Context, accessoryID int64, onlyInRotation bool) ([]model.AccessoryInstance, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := m.instances[accessoryID]
	if onlyInRotation {
		var kept []model.AccessoryInstance
		for _, ai := range out {
			if ai.IsAvailable {
				kept = append(kept, ai)
			}
		}
		return kept, nil
	}
	return out, nil
}

type bookingMock struct {
	bookings []model.Booking
	err      error
}

func (m *bookingMock) ListForCameras(ctx context.Context, cameraIDs []int64, activeOnly bool) ([]model.Booking, error) {
	return m.filtered(activeOnly), m.err
}

func (m *bookingMock) ListForAccessoryInstances(ctx context.Context, instanceIDs []int64, activeOnly bool) ([]model.Booking, error) {
	return m.filtered(activeOnly), m.err
}

func (m *bookingMock) filtered(activeOnly bool) []model.Booking {
	if !activeOnly {
		return m.bookings
	}
	var out []model.Booking
	for _, b := range m.bookings {
		if b.Active() {
			out = append(out, b)
		}
	}
	return out
}

func date(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}

func window(s, e int) model.DateWindow {
	return model.DateWindow{Start: date(s), End: date(e)}
}

func camID(id int64) *int64 { return &id }

func cameras(ids ...int64) []model.Camera {
	out := make([]model.Camera, len(ids))
	for i, id := range ids {
		out[i] = model.Camera{ID: id, ProductID: 1}
	}
	return out
}

func TestAllocateFirstFitAscending(t *testing.T) {
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10, 11, 12)}},
		&bookingMock{},
	)

	got, err := svc.Allocate(context.Background(), KindCamera, 1, 2, window(1, 5), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{10, 11}, got)
}

func TestAllocateDeterministic(t *testing.T) {
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10, 11, 12)}},
		&bookingMock{bookings: []model.Booking{
			{CameraID: camID(10), StartDate: date(1), EndDate: date(5), PaymentStatus: model.PaymentPaid},
		}},
	)

	first, err := svc.Allocate(context.Background(), KindCamera, 1, 2, window(3, 6), 0)
	require.NoError(t, err)
	second, err := svc.Allocate(context.Background(), KindCamera, 1, 2, window(3, 6), 0)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, []int64{11, 12}, first)
}

func TestAllocateSkipsOverlappingUnits(t *testing.T) {
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10, 11)}},
		&bookingMock{bookings: []model.Booking{
			{CameraID: camID(10), StartDate: date(1), EndDate: date(5), PaymentStatus: model.PaymentPaid},
		}},
	)

	got, err := svc.Allocate(context.Background(), KindCamera, 1, 1, window(5, 7), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{11}, got)
}

func TestAllocateCancelledBookingsDoNotBlock(t *testing.T) {
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10)}},
		&bookingMock{bookings: []model.Booking{
			{CameraID: camID(10), StartDate: date(1), EndDate: date(5), PaymentStatus: model.PaymentCancelled},
		}},
	)

	got, err := svc.Allocate(context.Background(), KindCamera, 1, 1, window(2, 4), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{10}, got)
}

func TestAllocateBufferExtendsOccupancy(t *testing.T) {
	// booking ends Oct 5; with a 3-day buffer the unit is busy through Oct 8
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10, 11)}},
		&bookingMock{bookings: []model.Booking{
			{CameraID: camID(10), StartDate: date(1), EndDate: date(5), PaymentStatus: model.PaymentPaid},
		}},
	)

	got, err := svc.Allocate(context.Background(), KindCamera, 1, 1, window(6, 7), 3)
	require.NoError(t, err)
	require.Equal(t, []int64{11}, got)

	got, err = svc.Allocate(context.Background(), KindCamera, 1, 1, window(6, 7), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{10}, got)
}

func TestAllocateBufferExtendsRequestedWindow(t *testing.T) {
	// the requested window ends 2 days before an existing booking starts; the
	// turnaround buffer makes both sides collide, same as the store constraint
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10)}},
		&bookingMock{bookings: []model.Booking{
			{CameraID: camID(10), StartDate: date(10), EndDate: date(12), PaymentStatus: model.PaymentPaid},
		}},
	)

	_, err := svc.Allocate(context.Background(), KindCamera, 1, 1, window(5, 8), 3)
	var ins *InsufficientUnitsError
	require.True(t, errors.As(err, &ins))
	require.Equal(t, 1, ins.Needed)
	require.Equal(t, 0, ins.Found)

	got, err := svc.Allocate(context.Background(), KindCamera, 1, 1, window(5, 8), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{10}, got)
}

func TestAllocateShortfall(t *testing.T) {
	svc := New(
		&catalogMock{cameras: map[int64][]model.Camera{1: cameras(10, 11)}},
		&bookingMock{},
	)

	_, err := svc.Allocate(context.Background(), KindCamera, 1, 3, window(1, 5), 0)

	var ins *InsufficientUnitsError
	require.True(t, errors.As(err, &ins))
	require.Equal(t, 3, ins.Needed)
	require.Equal(t, 2, ins.Found)
}

func TestAllocateAccessoriesSkipRetiredInstances(t *testing.T) {
	svc := New(
		&catalogMock{instances: map[int64][]model.AccessoryInstance{
			5: {
				{ID: 50, AccessoryID: 5, IsAvailable: true},
				{ID: 51, AccessoryID: 5, IsAvailable: false},
				{ID: 52, AccessoryID: 5, IsAvailable: true},
			},
		}},
		&bookingMock{},
	)

	got, err := svc.Allocate(context.Background(), KindAccessory, 5, 2, window(1, 3), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{50, 52}, got)
}

func TestAllocateAccessoryMembershipInSet(t *testing.T) {
	svc := New(
		&catalogMock{instances: map[int64][]model.AccessoryInstance{
			5: {
				{ID: 50, AccessoryID: 5, IsAvailable: true},
				{ID: 51, AccessoryID: 5, IsAvailable: true},
			},
		}},
		&bookingMock{bookings: []model.Booking{
			{AccessoryInstanceIDs: []int64{50}, StartDate: date(1), EndDate: date(5), PaymentStatus: model.PaymentPaid},
		}},
	)

	got, err := svc.Allocate(context.Background(), KindAccessory, 5, 1, window(3, 6), 0)
	require.NoError(t, err)
	require.Equal(t, []int64{51}, got)
}

func TestAllocateStoreErrorPropagates(t *testing.T) {
	svc := New(&catalogMock{err: errors.New("store down")}, &bookingMock{})

	_, err := svc.Allocate(context.Background(), KindCamera, 1, 1, window(1, 2), 0)
	require.Error(t, err)

	var ins *InsufficientUnitsError
	require.False(t, errors.As(err, &ins))
}
