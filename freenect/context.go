package freenect

/*
#include <sys/time.h>
#include <libfreenect/libfreenect.h>

extern void goLogCallback(freenect_context *ctx, freenect_loglevel level, char *msg);

static int process_events_ms(freenect_context *ctx, int ms) {
	struct timeval tv;
	tv.tv_sec = ms / 1000;
	tv.tv_usec = (ms % 1000) * 1000;
	return freenect_process_events_timeout(ctx, &tv);
}

static void set_log_callback(freenect_context *ctx) {
	freenect_set_log_callback(ctx, (freenect_log_cb)goLogCallback);
}
*/
import "C"

import (
	"sync"
	"time"
)

type LogFunc func(level LogLevel, msg string)

type Context struct {
	ptr *C.freenect_context

	logMu   sync.RWMutex
	logFunc LogFunc
}

// NewContext initializes libfreenect with the motor and camera subdevices.
func NewContext() (*Context, error) {
	var ptr *C.freenect_context
	if err := check("freenect_init", C.freenect_init(&ptr, nil)); err != nil {
		return nil, err
	}

	C.freenect_select_subdevices(ptr, (C.freenect_device_flags)(C.FREENECT_DEVICE_MOTOR|C.FREENECT_DEVICE_CAMERA))

	c := &Context{ptr: ptr}

	registryMu.Lock()
	contexts[ptr] = c
	registryMu.Unlock()

	return c, nil
}

func (c *Context) NumDevices() int {
	return int(C.freenect_num_devices(c.ptr))
}

func (c *Context) OpenDevice(index int) (*Device, error) {
	if index < 0 || index >= c.NumDevices() {
		return nil, ErrNoDevice
	}

	var ptr *C.freenect_device
	if err := check("freenect_open_device", C.freenect_open_device(c.ptr, &ptr, C.int(index))); err != nil {
		return nil, err
	}

	d := &Device{ptr: ptr}

	registryMu.Lock()
	devices[ptr] = d
	registryMu.Unlock()

	return d, nil
}

// ProcessEvents handles pending USB events, running stream callbacks on the
// calling goroutine. A zero timeout blocks until libfreenect returns.
func (c *Context) ProcessEvents(timeout time.Duration) error {
	if timeout <= 0 {
		return check("freenect_process_events", C.freenect_process_events(c.ptr))
	}

	return check("freenect_process_events_timeout", C.process_events_ms(c.ptr, C.int(timeout.Milliseconds())))
}

func (c *Context) SetLogLevel(level LogLevel) {
	C.freenect_set_log_level(c.ptr, C.freenect_loglevel(level))
}

// SetLogFunc routes libfreenect log messages to f.
func (c *Context) SetLogFunc(f LogFunc) {
	c.logMu.Lock()
	c.logFunc = f
	c.logMu.Unlock()

	C.set_log_callback(c.ptr)
}

func (c *Context) log(level LogLevel, msg string) {
	c.logMu.RLock()
	f := c.logFunc
	c.logMu.RUnlock()

	if f != nil {
		f(level, msg)
	}
}

func (c *Context) Destroy() error {
	registryMu.Lock()
	delete(contexts, c.ptr)
	registryMu.Unlock()

	return check("freenect_shutdown", C.freenect_shutdown(c.ptr))
}
