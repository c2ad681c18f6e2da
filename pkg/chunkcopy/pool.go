package chunkcopy

import "sync"

// bufferPool hands out fixed-size scratch buffers for chunk I/O, sized
// per chunk size in use. Grounded on the teacher's
// pkg/helper/util/buffer_pool_enhanced.go ZeroCopyBufferPool, trimmed
// to the one thing the copier needs: avoid a fresh allocation per chunk
// per worker under heavy concurrency.
type bufferPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

func newBufferPool() *bufferPool {
	return &bufferPool{pools: make(map[int]*sync.Pool)}
}

func (p *bufferPool) get(size int) []byte {
	p.mu.Lock()
	pool, ok := p.pools[size]
	if !ok {
		pool = &sync.Pool{New: func() interface{} {
			buf := make([]byte, size)
			return &buf
		}}
		p.pools[size] = pool
	}
	p.mu.Unlock()

	buf := pool.Get().(*[]byte)
	return (*buf)[:size]
}

func (p *bufferPool) put(buf []byte) {
	size := cap(buf)
	p.mu.Lock()
	pool, ok := p.pools[size]
	p.mu.Unlock()
	if !ok {
		return
	}
	full := buf[:size]
	pool.Put(&full)
}
