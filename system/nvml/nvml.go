// This file is part of Playcap.
//
// Playcap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Playcap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Playcap.  If not, see <https://www.gnu.org/licenses/>.

// Package nvml implements GPU telemetry for NVIDIA hardware through the
// NVML management library. Machines without the NVIDIA driver fail at
// Init(); the system producer then falls through to the next candidate.
package nvml

import (
	"errors"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// Backend implements system.GpuBackend over NVML. Only the first GPU is
// sampled.
type Backend struct {
	dev nvml.Device
}

// New is the preferred method of initialisation for the nvml Backend
// type. Initialises the NVML library and binds to device 0.
func New() (*Backend, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, errors.New(nvml.ErrorString(ret))
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return nil, errors.New(nvml.ErrorString(ret))
	}
	if count == 0 {
		nvml.Shutdown()
		return nil, errors.New("no NVIDIA devices")
	}

	dev, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return nil, errors.New(nvml.ErrorString(ret))
	}

	return &Backend{dev: dev}, nil
}

// Name implements the system.GpuBackend interface.
func (b *Backend) Name() string {
	return "nvml"
}

// Describe implements the system.GpuBackend interface.
func (b *Backend) Describe() (map[string]any, error) {
	name, ret := b.dev.GetName()
	if ret != nvml.SUCCESS {
		return nil, errors.New(nvml.ErrorString(ret))
	}

	detail := map[string]any{"name": name}

	if mem, ret := b.dev.GetMemoryInfo(); ret == nvml.SUCCESS {
		detail["memory_total"] = mem.Total
	}
	if ver, ret := nvml.SystemGetDriverVersion(); ret == nvml.SUCCESS {
		detail["driver"] = ver
	}

	return detail, nil
}

// Sample implements the system.GpuBackend interface.
func (b *Backend) Sample() (map[string]any, error) {
	util, ret := b.dev.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return nil, errors.New(nvml.ErrorString(ret))
	}

	detail := map[string]any{
		"utilization": util.Gpu,
		"memory_util": util.Memory,
	}

	if mem, ret := b.dev.GetMemoryInfo(); ret == nvml.SUCCESS {
		detail["memory_used"] = mem.Used
	}
	if temp, ret := b.dev.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		detail["temperature"] = temp
	}
	if power, ret := b.dev.GetPowerUsage(); ret == nvml.SUCCESS {
		// milliwatts
		detail["power_mw"] = power
	}

	return detail, nil
}

// Close implements the system.GpuBackend interface.
func (b *Backend) Close() {
	nvml.Shutdown()
}
