package freenect

/*
#include <libfreenect/libfreenect.h>

extern void goDepthCallback(freenect_device *dev, void *depth, uint32_t timestamp);

static void set_depth_callback(freenect_device *dev) {
	freenect_set_depth_callback(dev, goDepthCallback);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// DepthFunc receives a depth frame. The slice points into libfreenect's
// buffer and must not be retained after the call returns.
type DepthFunc func(device *Device, depth []uint16, timestamp uint32)

type Device struct {
	ptr *C.freenect_device

	mu        sync.RWMutex
	depthFunc DepthFunc
	depthLen  int
}

func (d *Device) SetLED(color LEDColor) error {
	return check("freenect_set_led", C.freenect_set_led(d.ptr, C.freenect_led_options(color)))
}

func (d *Device) SetTiltDegrees(degrees float64) error {
	return check("freenect_set_tilt_degs", C.freenect_set_tilt_degs(d.ptr, C.double(degrees)))
}

func (d *Device) SetDepthCallback(f DepthFunc) {
	d.mu.Lock()
	d.depthFunc = f
	d.mu.Unlock()

	C.set_depth_callback(d.ptr)
}

func (d *Device) StartDepthStream(res Resolution, format DepthFormat) error {
	mode := C.freenect_find_depth_mode(C.freenect_resolution(res), C.freenect_depth_format(format))
	if mode.is_valid == 0 {
		return ErrInvalidMode
	}

	if err := check("freenect_set_depth_mode", C.freenect_set_depth_mode(d.ptr, mode)); err != nil {
		return err
	}

	d.mu.Lock()
	d.depthLen = int(mode.bytes) / 2
	d.mu.Unlock()

	return check("freenect_start_depth", C.freenect_start_depth(d.ptr))
}

func (d *Device) StopDepthStream() error {
	return check("freenect_stop_depth", C.freenect_stop_depth(d.ptr))
}

func (d *Device) Destroy() error {
	registryMu.Lock()
	delete(devices, d.ptr)
	registryMu.Unlock()

	return check("freenect_close_device", C.freenect_close_device(d.ptr))
}

func (d *Device) handleDepth(depth unsafe.Pointer, timestamp uint32) {
	d.mu.RLock()
	f, n := d.depthFunc, d.depthLen
	d.mu.RUnlock()

	if f == nil || n == 0 || depth == nil {
		return
	}

	f(d, unsafe.Slice((*uint16)(depth), n), timestamp)
}
