// queue.go: Sequential background writer for log files
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hemera

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// SafeBufferPool implements a thread-safe buffer pool using channels
// This approach guarantees that buffers are only reused after they're completely done being used
type SafeBufferPool struct {
	bufferChan chan []byte
	bufferSize int
	maxCap     int
}

// newSafeBufferPool creates a new safe buffer pool
func newSafeBufferPool(poolSize, bufferSize int) *SafeBufferPool {
	pool := &SafeBufferPool{
		bufferChan: make(chan []byte, poolSize),
		bufferSize: bufferSize,
		maxCap:     bufferSize * 64,
	}

	// Pre-populate the pool with buffers
	for i := 0; i < poolSize; i++ {
		pool.bufferChan <- make([]byte, 0, bufferSize)
	}

	return pool
}

// Get returns an empty buffer from the pool, or a new one if the pool is empty
func (p *SafeBufferPool) Get() []byte {
	select {
	case buf := <-p.bufferChan:
		return buf[:0]
	default:
		return make([]byte, 0, p.bufferSize)
	}
}

// Put returns a buffer to the pool (non-blocking)
func (p *SafeBufferPool) Put(buf []byte) {
	if cap(buf) == 0 || cap(buf) > p.maxCap {
		// Oversized buffers would pin memory, let GC handle them
		return
	}

	select {
	case p.bufferChan <- buf[:0]:
	default:
		// Pool full, let GC handle this buffer
	}
}

// Global safe buffer pool instance
var safeBufferPool = newSafeBufferPool(100, 256) // 100 line buffers of 256 bytes each

// writeJob is one unit of work for the writer goroutine: either write
// data to file, or close file once everything queued before it is written.
type writeJob struct {
	file    *os.File
	data    []byte
	release bool
}

// writeQueue is a multi-producer single-consumer FIFO of write jobs. The
// single consumer keeps writes ordered and never interleaved.
type writeQueue struct {
	jobs    chan writeJob
	wg      sync.WaitGroup
	stopped atomic.Bool

	report func(operation string, err error)

	linesWritten atomic.Uint64
	bytesWritten atomic.Uint64
	writeErrors  atomic.Uint64
}

// newWriteQueue starts the consumer goroutine
func newWriteQueue(size int, report func(operation string, err error)) *writeQueue {
	if size <= 0 {
		size = DefaultBufferSize
	}
	q := &writeQueue{
		jobs:   make(chan writeJob, size),
		report: report,
	}

	q.wg.Add(1)
	go q.run()

	return q
}

// run consumes jobs until the channel is closed and drained
func (q *writeQueue) run() {
	defer q.wg.Done()

	for job := range q.jobs {
		q.handle(job)
	}
}

func (q *writeQueue) handle(job writeJob) {
	if job.release {
		if err := job.file.Close(); err != nil {
			q.report("file_close", fmt.Errorf("failed to close log file %q: %v", job.file.Name(), err))
		}
		return
	}

	n, err := writeFull(job.file, job.data)
	q.bytesWritten.Add(uint64(n)) // #nosec G115 -- writeFull never returns a negative count
	if err != nil {
		q.writeErrors.Add(1)
		q.report("write", fmt.Errorf("%w: %q after %d of %d bytes: %v", ErrWrite, job.file.Name(), n, len(job.data), err))
	} else {
		q.linesWritten.Add(1)
	}

	// Return buffer to safe pool after file write completes
	safeBufferPool.Put(job.data)
}

// writeFull writes data until all of it is written or the file reports an
// error. A failed write abandons the remainder.
func writeFull(w io.Writer, data []byte) (int, error) {
	total := 0
	for total < len(data) {
		n, err := w.Write(data[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			return total, err
		}
		if n <= 0 {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

// submit enqueues job, waiting for room in the queue.
// Callers must serialize submit with stop.
func (q *writeQueue) submit(job writeJob) {
	q.jobs <- job
}

// trySubmit enqueues job only if the queue has room.
func (q *writeQueue) trySubmit(job writeJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		return false
	}
}

// stop closes the queue and waits for every pending job to be handled.
// Calling stop again is a no-op.
func (q *writeQueue) stop() {
	if q.stopped.Swap(true) {
		q.wg.Wait()
		return
	}
	close(q.jobs)
	q.wg.Wait()
}

// pending reports the number of jobs waiting for the consumer.
func (q *writeQueue) pending() int {
	return len(q.jobs)
}

// capacity reports the queue capacity.
func (q *writeQueue) capacity() int {
	return cap(q.jobs)
}
