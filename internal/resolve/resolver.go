// Package resolve finds or lazily creates the destination records a
// write needs: the device a reading attaches to and the crop cycle a
// harvest attaches to. Callers never handle a "no destination" case for
// normal writes.
//
// Resolution is check-then-act over a store with no multi-statement
// transactions. Two concurrent resolutions of the same new device or
// cycle can both pass the lookup and both insert, leaving a duplicate.
// Given manual-entry write rates this is accepted rather than masked;
// do not hide it behind a process-local mutex the store cannot honor.
package resolve

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/khetsense/khetsense-api/pkg/types"
)

// Store is the slice of the record store the resolver needs.
type Store interface {
	GetDevice(farmID uuid.UUID, deviceType types.DeviceType, deviceName string) (*types.Device, error)
	InsertDevice(d *types.Device) error

	GetActiveCycle(farmID uuid.UUID) (*types.CropCycle, error)
	GetNewestCycle(farmID uuid.UUID) (*types.CropCycle, error)
	InsertCycle(c *types.CropCycle) error
}

// CycleCreationError means no cycle existed and creating the default
// one failed; the dependent harvest write must not proceed.
type CycleCreationError struct {
	FarmID uuid.UUID
	Err    error
}

func (e *CycleCreationError) Error() string {
	return fmt.Sprintf("failed to create tracking cycle for farm %s: %v", e.FarmID, e.Err)
}

func (e *CycleCreationError) Unwrap() error { return e.Err }

func (e *CycleCreationError) Is(target error) bool {
	_, ok := target.(*CycleCreationError)
	return ok
}

// DeviceCreationError means the device lookup missed and the insert
// failed; the dependent reading write must not proceed.
type DeviceCreationError struct {
	DeviceName string
	Err        error
}

func (e *DeviceCreationError) Error() string {
	return fmt.Sprintf("failed to create device %q: %v", e.DeviceName, e.Err)
}

func (e *DeviceCreationError) Unwrap() error { return e.Err }

func (e *DeviceCreationError) Is(target error) bool {
	_, ok := target.(*DeviceCreationError)
	return ok
}

type Resolver struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Device returns the id of the device matching (farmID, deviceType,
// deviceName), creating it active on first use.
func (r *Resolver) Device(farmID uuid.UUID, deviceType types.DeviceType, deviceName string) (uuid.UUID, error) {
	device, err := r.store.GetDevice(farmID, deviceType, deviceName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("device lookup: %w", err)
	}
	if device != nil {
		return device.ID, nil
	}

	created := &types.Device{
		FarmID:     farmID,
		DeviceName: deviceName,
		DeviceType: deviceType,
		IsActive:   true,
	}
	if err := r.store.InsertDevice(created); err != nil {
		return uuid.Nil, &DeviceCreationError{DeviceName: deviceName, Err: err}
	}
	return created.ID, nil
}

// CropCycleForHarvest returns the cycle a new harvest attaches to:
// the farm's active cycle if one exists, otherwise the most recently
// created cycle of any status, otherwise a freshly created default
// cycle.
func (r *Resolver) CropCycleForHarvest(farmID uuid.UUID) (uuid.UUID, error) {
	active, err := r.store.GetActiveCycle(farmID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("active cycle lookup: %w", err)
	}
	if active != nil {
		return active.ID, nil
	}

	// No active cycle: reuse ANY existing cycle before creating one,
	// so repeated harvests against an idle farm don't spam cycles.
	newest, err := r.store.GetNewestCycle(farmID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("newest cycle lookup: %w", err)
	}
	if newest != nil {
		return newest.ID, nil
	}

	created := &types.CropCycle{
		FarmID:    farmID,
		CropName:  "Initial Crop",
		CropType:  types.CropTypeVegetable,
		Status:    types.CycleStatusActive,
		StartDate: r.now().UTC(),
	}
	if err := r.store.InsertCycle(created); err != nil {
		return uuid.Nil, &CycleCreationError{FarmID: farmID, Err: err}
	}
	return created.ID, nil
}
