// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// DeviceIdentity describes this installation. It is created on first run and
// never regenerated; the id stays stable for the device's lifetime.
type DeviceIdentity struct {
	// DeviceID is a 128-bit random identifier in UUID text form.
	DeviceID string `json:"device_id"`

	// DeviceName is a human label, typically the hostname.
	DeviceName string `json:"device_name"`
}
