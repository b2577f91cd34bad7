//go:build !nogpu

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/rotoshake/imagecanvas-sub004/backend"
)

// Name is the identifier of the wgpu backend.
const Name = "wgpu"

func init() {
	backend.Register(&Backend{})
}

// DeviceHandle provides GPU device access from the host application.
// It is an alias for gpucontext.DeviceProvider so hosts built on the
// gogpu stack can pass their context directly.
type DeviceHandle = gpucontext.DeviceProvider

// Backend creates cache textures on a wgpu HAL device.
//
// The device is either created on Init (Vulkan adapter selection, the
// first discrete or integrated GPU) or shared from the host application
// via UseDeviceProvider.
type Backend struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// externalDevice is true when the device is owned by the host;
	// shared resources are not destroyed on Close.
	externalDevice bool
	initialized    bool
}

// Name returns "wgpu".
func (b *Backend) Name() string { return Name }

// Init creates a GPU instance, selects an adapter, and opens a device.
// It is a no-op when a shared device was already installed via
// UseDeviceProvider.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not compiled in", backend.ErrBackendNotAvailable)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("%w: no GPU adapters found", backend.ErrBackendNotAvailable)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("wgpu: open device: %w", err)
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.initialized = true
	return nil
}

// UseDeviceProvider switches the backend to a shared GPU device from the
// host application. The provider must also expose HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func (b *Backend) UseDeviceProvider(provider DeviceHandle) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Destroy own resources if we created them.
	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}

	b.device = device
	b.queue = queue
	b.externalDevice = true
	b.initialized = true
	return nil
}

// UseDeviceProvider installs a shared GPU device on the registered wgpu
// backend. Convenience for hosts that registered via blank import.
func UseDeviceProvider(provider DeviceHandle) error {
	tb, err := backend.Get(Name)
	if err != nil {
		return err
	}
	b, ok := tb.(*Backend)
	if !ok {
		return fmt.Errorf("wgpu: registered backend %q is not *wgpu.Backend", Name)
	}
	return b.UseDeviceProvider(provider)
}

// Close releases the device and instance unless they are shared from the
// host application.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.externalDevice && b.device != nil {
		b.device.Destroy()
	}
	b.device = nil
	b.queue = nil
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.initialized = false
	b.externalDevice = false
}
