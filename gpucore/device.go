// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// DeviceProvider supplies a GPU device from the host application.
//
// This is the integration point between the batching engine and GPU
// frameworks like gogpu. The host (e.g., a gogpu.App) implements
// DeviceProvider and passes it to an adapter constructor, so the adapter
// shares the host's device instead of creating its own.
//
// DeviceProvider is an alias for gpucontext.DeviceProvider, keeping full
// compatibility with the gpucontext ecosystem. Providers that additionally
// expose HalDevice() any / HalQueue() any grant adapters direct HAL access
// (see backend/native).
type DeviceProvider = gpucontext.DeviceProvider

// NullDeviceProvider is a DeviceProvider with nil implementations, for
// adapters that manage their own device or need none at all.
type NullDeviceProvider struct{}

// Device returns nil for the null provider.
func (NullDeviceProvider) Device() gpucontext.Device { return nil }

// Queue returns nil for the null provider.
func (NullDeviceProvider) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null provider.
func (NullDeviceProvider) Adapter() gpucontext.Adapter { return nil }

// SurfaceFormat returns the undefined format for the null provider.
func (NullDeviceProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// AdapterInfo returns zero metadata for the null provider.
func (NullDeviceProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// Ensure NullDeviceProvider implements DeviceProvider.
var _ DeviceProvider = NullDeviceProvider{}
