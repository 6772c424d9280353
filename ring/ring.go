package ring

/*
A fixed-capacity FIFO of opaque values.

This is the storage half of a flume and nothing more: it does no
locking of its own.  The owning flume holds its core mutex across
every touch of the buffer, and checks fullness/emptiness before
pushing or popping, so the preconditions here are panics rather
than errors -- hitting one means the caller's locking is broken,
not that the world handed us something unfortunate.

A capacity of zero is a valid buffer; it is simply always full
and always empty at the same time.
*/
type Buffer struct {
	slots []interface{}
	head  int // index of the oldest value
	count int
}

func New(capacity int) *Buffer {
	return &Buffer{
		slots: make([]interface{}, capacity),
	}
}

func (b *Buffer) Cap() int {
	return len(b.slots)
}

func (b *Buffer) Len() int {
	return b.count
}

// Push appends a value.  The caller must have checked `Len() < Cap()`.
func (b *Buffer) Push(v interface{}) {
	if b.count == len(b.slots) {
		panic("ring: push on full buffer")
	}
	b.slots[(b.head+b.count)%len(b.slots)] = v
	b.count++
}

// Pop removes and returns the oldest value.  The caller must have checked `Len() > 0`.
func (b *Buffer) Pop() interface{} {
	if b.count == 0 {
		panic("ring: pop on empty buffer")
	}
	v := b.slots[b.head]
	b.slots[b.head] = nil // drop the reference; the value is the caller's now
	b.head = (b.head + 1) % len(b.slots)
	b.count--
	return v
}

// Reset discards all buffered values.
func (b *Buffer) Reset() {
	for i := range b.slots {
		b.slots[i] = nil
	}
	b.head = 0
	b.count = 0
}
