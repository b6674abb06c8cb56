package vm

// devices.go declares the interfaces a memory-mapped device or its driver must implement and a
// small generic wrapper, DeviceHandle, that owns a device and initializes it during machine
// startup.

// Device is anything the MMIO controller can map into the I/O page. It exists only so Map can log
// and validate what's being wired up.
type Device interface {
	device() string
}

// RegisterDevice is a device whose state is a single machine word, read and written directly by
// the CPU without going through a driver's address decoding. ProcessorStatus and ControlRegister
// are mapped this way.
type RegisterDevice interface {
	Device
	Get() Register
	Put(val Register)
}

// ReadDriver performs reads on behalf of a device that decodes more than one address, such as a
// device with separate status and data registers.
type ReadDriver interface {
	Device
	Read(addr Word) (Word, error)
}

// WriteDriver performs writes on behalf of a multi-register device.
type WriteDriver interface {
	Device
	Write(addr Word, val Register) error
}

// Driver is a device that may request service from the interrupt controller.
type Driver interface {
	Device
	InterruptRequested() bool
	String() string
}

// Initializer prepares a device for use once it knows the addresses it has been mapped to.
type Initializer interface {
	Init(vm *LC3, addrs []Word)
}

// DeviceHandle owns a device and mediates its initialization. P is the pointer-receiver type that
// satisfies Initializer; D is named separately so callers can refer to the underlying value type,
// e.g. DeviceHandle[*Display, Display].
type DeviceHandle[P Initializer, D any] struct {
	device P
}

// NewDeviceHandle wraps a device in a handle. The device is not initialized until Init is called.
func NewDeviceHandle[P Initializer, D any](device P) DeviceHandle[P, D] {
	return DeviceHandle[P, D]{device: device}
}

// Init configures the underlying device.
func (h *DeviceHandle[P, D]) Init(vm *LC3, addrs []Word) {
	h.device.Init(vm, addrs)
}
