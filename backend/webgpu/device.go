// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Device bundles the WebGPU objects an adapter needs. Callers with an
// existing device (e.g. one driving a surface) can fill this directly;
// NewHeadlessDevice creates one without a surface for offscreen use.
type Device struct {
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
}

// NewHeadlessDevice creates an instance, requests a high-performance
// adapter without a compatible surface, and opens a device on it.
func NewHeadlessDevice() (*Device, error) {
	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "batch-device",
	})
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	return &Device{
		Instance: instance,
		Adapter:  adapter,
		Device:   device,
		Queue:    device.GetQueue(),
	}, nil
}

// Release frees the device chain in reverse creation order.
func (d *Device) Release() {
	if d.Device != nil {
		d.Device.Release()
		d.Device = nil
	}
	if d.Adapter != nil {
		d.Adapter.Release()
		d.Adapter = nil
	}
	if d.Instance != nil {
		d.Instance.Release()
		d.Instance = nil
	}
	d.Queue = nil
}
