package freenect

/*
#include <libfreenect/libfreenect.h>
*/
import "C"

import (
	"unsafe"
)

//export goDepthCallback
func goDepthCallback(dev *C.freenect_device, depth unsafe.Pointer, timestamp C.uint32_t) {
	if d := lookupDevice(dev); d != nil {
		d.handleDepth(depth, uint32(timestamp))
	}
}

//export goLogCallback
func goLogCallback(ctx *C.freenect_context, level C.freenect_loglevel, msg *C.char) {
	if c := lookupContext(ctx); c != nil {
		c.log(LogLevel(level), C.GoString(msg))
	}
}
