// Package freenect implements a Go binding for the libfreenect library.
package freenect

/*
#cgo CFLAGS: -I/opt/homebrew/include -I/usr/local/include
#cgo LDFLAGS: -L/opt/homebrew/lib -L/usr/local/lib -lfreenect
#include <libfreenect/libfreenect.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
)

type LEDColor int

const (
	LEDColorOff            = LEDColor(C.LED_OFF)
	LEDColorGreen          = LEDColor(C.LED_GREEN)
	LEDColorRed            = LEDColor(C.LED_RED)
	LEDColorYellow         = LEDColor(C.LED_YELLOW)
	LEDColorBlinkGreen     = LEDColor(C.LED_BLINK_GREEN)
	LEDColorBlinkRedYellow = LEDColor(C.LED_BLINK_RED_YELLOW)
)

type Resolution int

const (
	ResolutionLow    = Resolution(C.FREENECT_RESOLUTION_LOW)
	ResolutionMedium = Resolution(C.FREENECT_RESOLUTION_MEDIUM)
	ResolutionHigh   = Resolution(C.FREENECT_RESOLUTION_HIGH)
)

// DepthFormat lists the unpacked depth formats, which deliver one uint16
// per pixel.
type DepthFormat int

const (
	DepthFormat11Bit      = DepthFormat(C.FREENECT_DEPTH_11BIT)
	DepthFormat10Bit      = DepthFormat(C.FREENECT_DEPTH_10BIT)
	DepthFormatRegistered = DepthFormat(C.FREENECT_DEPTH_REGISTERED)
	DepthFormatMM         = DepthFormat(C.FREENECT_DEPTH_MM)
)

type LogLevel int

const (
	LogFatal   = LogLevel(C.FREENECT_LOG_FATAL)
	LogError   = LogLevel(C.FREENECT_LOG_ERROR)
	LogWarning = LogLevel(C.FREENECT_LOG_WARNING)
	LogNotice  = LogLevel(C.FREENECT_LOG_NOTICE)
	LogInfo    = LogLevel(C.FREENECT_LOG_INFO)
	LogDebug   = LogLevel(C.FREENECT_LOG_DEBUG)
	LogSpew    = LogLevel(C.FREENECT_LOG_SPEW)
	LogFlood   = LogLevel(C.FREENECT_LOG_FLOOD)
)

var (
	ErrNoDevice    = errors.New("no kinect device found")
	ErrInvalidMode = errors.New("unsupported depth mode")
)

// Error is a negative return code from libfreenect.
type Error struct {
	Op   string
	Code int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed with code %d", e.Op, e.Code)
}

func check(op string, rc C.int) error {
	if rc < 0 {
		return &Error{Op: op, Code: int(rc)}
	}
	return nil
}

// C callbacks only carry C pointers, so the Go values they belong to are
// looked up here.
var (
	registryMu sync.RWMutex
	contexts   map[*C.freenect_context]*Context
	devices    map[*C.freenect_device]*Device
)

func init() {
	contexts = make(map[*C.freenect_context]*Context)
	devices = make(map[*C.freenect_device]*Device)
}

func lookupContext(ptr *C.freenect_context) *Context {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return contexts[ptr]
}

func lookupDevice(ptr *C.freenect_device) *Device {
	registryMu.RLock()
	defer registryMu.RUnlock()

	return devices[ptr]
}
