// Command libapicore builds the client core as a C shared library:
//
//	go build -buildmode=c-shared -o libapicore.so ./cmd/libapicore
//
// The exported surface mirrors package boundary one-to-one. Strings returned
// by apicore_fetch and apicore_send are owned by the caller and must be
// released with apicore_free exactly once; NULL signals failure and is safe
// to pass to apicore_free.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/easierlabs/apicore/boundary"
)

var (
	registry = boundary.NewRegistry()
	owned    = boundary.NewReleaseTracker()
)

// result copies s into C-owned memory and records the pointer so apicore_free
// can verify ownership before handing it to free(3).
func result(s string) *C.char {
	p := C.CString(s)
	owned.Track(unsafe.Pointer(p))

	return p
}

//export apicore_new
func apicore_new(baseURL *C.char) C.uintptr_t {
	if baseURL == nil {
		return 0
	}

	return C.uintptr_t(registry.Create(C.GoString(baseURL)))
}

//export apicore_destroy
func apicore_destroy(handle C.uintptr_t) {
	registry.Destroy(boundary.Handle(handle))
}

//export apicore_fetch
func apicore_fetch(handle C.uintptr_t, path *C.char) *C.char {
	if path == nil {
		return nil
	}

	out, ok := registry.Fetch(boundary.Handle(handle), C.GoString(path))
	if !ok {
		return nil
	}

	return result(out)
}

//export apicore_send
func apicore_send(handle C.uintptr_t, path, method, body *C.char) *C.char {
	if path == nil || method == nil || body == nil {
		return nil
	}

	out, ok := registry.Send(boundary.Handle(handle), C.GoString(path), C.GoString(method), C.GoString(body))
	if !ok {
		return nil
	}

	return result(out)
}

//export apicore_free
func apicore_free(p *C.char) {
	if owned.Release(unsafe.Pointer(p)) {
		C.free(unsafe.Pointer(p))
	}
}

//export apicore_set_auth
func apicore_set_auth(handle C.uintptr_t, scheme, key, value *C.char) {
	if scheme == nil || key == nil || value == nil {
		return
	}

	registry.SetAuth(boundary.Handle(handle), C.GoString(scheme), C.GoString(key), C.GoString(value))
}

func main() {}
