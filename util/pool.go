package util

import "sync"

// DefaultBufSize is the buffer size used when relaying a TLS stream
// to local I/O (32 KiB, two full TLS records).
const DefaultBufSize = 32 * 1024

// BufPool provides reusable byte buffers for the relay copy loops.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, DefaultBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
