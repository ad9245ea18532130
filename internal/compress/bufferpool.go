package compress

import (
	"bytes"
	"sync"
)

// encodeBuffers holds reusable encode output buffers to cut GC
// pressure when a single request encodes up to eleven times.
var encodeBuffers = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512*1024))
	},
}

const maxPooledBufferCap = 8 * 1024 * 1024

func getEncodeBuffer() *bytes.Buffer {
	return encodeBuffers.Get().(*bytes.Buffer)
}

func putEncodeBuffer(buf *bytes.Buffer) {
	// Oversized buffers from huge encodes go to GC instead of
	// pinning memory in the pool.
	if buf.Cap() > maxPooledBufferCap {
		return
	}
	buf.Reset()
	encodeBuffers.Put(buf)
}
