// Package ring implements a lock-free single-producer single-consumer
// sample ring buffer for the audio streaming engine.
//
// The layout is Lamport's ring buffer with cached-index optimization,
// adapted from code.hybscloud.com/atomix-based queues (see
// hayabusa-cloud-lfq's SPSC[T]): the producer caches the consumer's
// position and vice versa, so the hot path only crosses cache lines
// when the cache proves stale. Unlike a generic queue, Write/Read/Peek
// move whole slices of samples at once and never fail — a request that
// cannot be fully satisfied is serviced partially, and the caller is
// told how many samples actually moved.
package ring

import "code.hybscloud.com/atomix"

type pad [64]byte

// Buffer is a fixed-capacity, power-of-two-sized ring of float32 audio
// samples. A Buffer has exactly one producer goroutine (Write) and one
// consumer goroutine (Read/Peek); both may call the read-only accessors
// concurrently with each other and with the producer/consumer.
type Buffer struct {
	_        pad
	writePos atomix.Uint64 // owned by the producer
	_        pad
	cachedRead uint64 // producer's cached view of readPos
	_          pad
	readPos    atomix.Uint64 // owned by the consumer
	_          pad
	cachedWrite uint64 // consumer's cached view of writePos
	_           pad
	buf  []float32
	mask uint64
}

// New creates a Buffer whose capacity is the next power of two of
// minCapacity (minimum 2).
func New(minCapacity int) *Buffer {
	n := uint64(roundToPow2(minCapacity))
	return &Buffer{
		buf:  make([]float32, n),
		mask: n - 1,
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Capacity returns the buffer's fixed capacity in samples.
func (b *Buffer) Capacity() int {
	return int(b.mask + 1)
}

// Write copies as many samples from src into the buffer as fit and
// returns the count actually written. It never blocks and never
// allocates. Call only from the producer goroutine.
func (b *Buffer) Write(src []float32) int {
	write := b.writePos.LoadRelaxed()
	read := b.cachedRead
	free := b.Capacity() - int(write-read)
	if free < len(src) {
		b.cachedRead = b.readPos.LoadAcquire()
		free = b.Capacity() - int(write-b.cachedRead)
	}
	if free <= 0 {
		return 0
	}
	n := len(src)
	if n > free {
		n = free
	}
	for i := 0; i < n; i++ {
		b.buf[(write+uint64(i))&b.mask] = src[i]
	}
	b.writePos.StoreRelease(write + uint64(n))
	return n
}

// Read copies as many samples as fit into dst from the buffer,
// advancing the read position, and returns the count actually read.
// Call only from the consumer goroutine.
func (b *Buffer) Read(dst []float32) int {
	n := b.copyOut(dst)
	if n > 0 {
		read := b.readPos.LoadRelaxed()
		b.readPos.StoreRelease(read + uint64(n))
	}
	return n
}

// Peek copies as many samples as fit into dst without consuming them —
// a subsequent Read or Peek observes the same samples again.
func (b *Buffer) Peek(dst []float32) int {
	return b.copyOut(dst)
}

func (b *Buffer) copyOut(dst []float32) int {
	read := b.readPos.LoadRelaxed()
	write := b.cachedWrite
	avail := int(write - read)
	if avail < len(dst) {
		b.cachedWrite = b.writePos.LoadAcquire()
		avail = int(b.cachedWrite - read)
	}
	if avail <= 0 {
		return 0
	}
	n := len(dst)
	if n > avail {
		n = avail
	}
	for i := 0; i < n; i++ {
		dst[i] = b.buf[(read+uint64(i))&b.mask]
	}
	return n
}

// AvailableRead returns the number of samples currently readable.
func (b *Buffer) AvailableRead() int {
	write := b.writePos.LoadAcquire()
	read := b.readPos.LoadAcquire()
	return int(write - read)
}

// AvailableWrite returns the number of samples that can be written
// without blocking.
func (b *Buffer) AvailableWrite() int {
	return b.Capacity() - b.AvailableRead()
}

// FillPercent returns the current fill level as a fraction in [0,1].
func (b *Buffer) FillPercent() float64 {
	return float64(b.AvailableRead()) / float64(b.Capacity())
}

// IsEmpty reports whether there are no samples available to read.
func (b *Buffer) IsEmpty() bool {
	return b.AvailableRead() == 0
}

// IsFull reports whether there is no room left to write.
func (b *Buffer) IsFull() bool {
	return b.AvailableRead() == b.Capacity()
}

// Clear resets both positions to zero, discarding any buffered samples.
// Must only be called when neither the producer nor the consumer is
// concurrently active.
func (b *Buffer) Clear() {
	b.writePos.StoreRelease(0)
	b.readPos.StoreRelease(0)
	b.cachedRead = 0
	b.cachedWrite = 0
}
