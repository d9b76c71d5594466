package db

import (
	"context"
	"errors"

	"github.com/urmzd/homai-tivo/pkg/device"
)

// RegistryStore persists device registry changes into one profile.
type RegistryStore struct {
	devices   DeviceStore
	profileID int64
}

// RegistryStore returns a device.Store writing to profileID.
func (db *DB) RegistryStore(profileID int64) *RegistryStore {
	return &RegistryStore{devices: db.Devices(), profileID: profileID}
}

// SaveDevice inserts or updates d.
func (s *RegistryStore) SaveDevice(ctx context.Context, d device.Device) error {
	row := FromDevice(d)
	row.ProfileID = s.profileID
	return s.devices.Upsert(ctx, row)
}

// DeleteDevice removes the row. A missing row is not an error.
func (s *RegistryStore) DeleteDevice(ctx context.Context, id string) error {
	if err := s.devices.Delete(ctx, id); err != nil && !errors.Is(err, ErrDeviceNotFound) {
		return err
	}
	return nil
}

// FromDevice converts a registry device to a row.
func FromDevice(d device.Device) *Device {
	return &Device{
		ID:           d.ID,
		Name:         d.Name,
		Protocol:     d.Protocol,
		Host:         d.Host,
		Port:         d.Port,
		SerialPort:   d.SerialPort,
		DeviceIndex:  d.DeviceIndex,
		UsesListings: d.UsesListings,
		PollInterval: d.PollInterval,
		Debug:        d.Debug,
	}
}

// ToDevice converts a row to a registry device.
func (d *Device) ToDevice() device.Device {
	return device.Device{
		ID:           d.ID,
		Name:         d.Name,
		Protocol:     d.Protocol,
		Host:         d.Host,
		Port:         d.Port,
		SerialPort:   d.SerialPort,
		DeviceIndex:  d.DeviceIndex,
		UsesListings: d.UsesListings,
		PollInterval: d.PollInterval,
		Debug:        d.Debug,
	}
}
