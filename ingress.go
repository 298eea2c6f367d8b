package r

import "sync"

// ingressTask is one unit of foreign-thread-submitted work: a thunk that
// runs on the main fiber the next time it drains the ingress. Used to
// implement the thread-safe entry points spec.md §4.6 requires
// (allocEvent, startEvent, spawnFiber, resumeFiber, signal) without
// letting a foreign thread touch the event heap, fiber scheduler, or
// watch registry directly.
type ingressTask func(rt *Runtime)

// ingress is a mutex-protected chunked queue that foreign OS threads post
// work into, paired with a wakeup write so the main fiber's poll() call
// returns immediately to drain it. Grounded directly on the teacher's
// ChunkedIngress (eventloop/ingress.go): fixed-size chunks linked in a
// list, so steady submission doesn't repeatedly reallocate a growing
// slice, with chunks recycled through a sync.Pool.
type ingress struct {
	mu     sync.Mutex
	head   *ingressChunk
	tail   *ingressChunk
	length int

	wake *wakeup
}

const ingressChunkSize = 128

type ingressChunk struct {
	tasks   [ingressChunkSize]ingressTask
	next    *ingressChunk
	readPos int
	pos     int
}

var ingressChunkPool = sync.Pool{New: func() any { return &ingressChunk{} }}

func newIngressChunk() *ingressChunk {
	c := ingressChunkPool.Get().(*ingressChunk)
	c.pos, c.readPos, c.next = 0, 0, nil
	return c
}

func releaseIngressChunk(c *ingressChunk) {
	for i := 0; i < c.pos; i++ {
		c.tasks[i] = nil
	}
	c.pos, c.readPos, c.next = 0, 0, nil
	ingressChunkPool.Put(c)
}

func newIngress(wake *wakeup) *ingress {
	return &ingress{wake: wake}
}

// post appends a task and wakes the main fiber's poll() call. Safe to
// call from any goroutine.
func (q *ingress) post(task ingressTask) {
	q.mu.Lock()
	if q.tail == nil {
		q.tail = newIngressChunk()
		q.head = q.tail
	}
	if q.tail.pos == ingressChunkSize {
		next := newIngressChunk()
		q.tail.next = next
		q.tail = next
	}
	q.tail.tasks[q.tail.pos] = task
	q.tail.pos++
	q.length++
	q.mu.Unlock()

	if q.wake != nil {
		q.wake.signal()
	}
}

// drain runs every currently-queued task against rt, in submission order.
// Called once per loop iteration from the main fiber only.
func (q *ingress) drain(rt *Runtime) {
	for {
		task, ok := q.pop()
		if !ok {
			return
		}
		task(rt)
	}
}

func (q *ingress) pop() (ingressTask, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == nil {
		return nil, false
	}
	if q.head.readPos >= q.head.pos {
		if q.head == q.tail {
			q.head.pos, q.head.readPos = 0, 0
			return nil, false
		}
		old := q.head
		q.head = q.head.next
		releaseIngressChunk(old)
	}
	if q.head.readPos >= q.head.pos {
		return nil, false
	}

	task := q.head.tasks[q.head.readPos]
	q.head.tasks[q.head.readPos] = nil
	q.head.readPos++
	q.length--

	if q.head.readPos >= q.head.pos && q.head != q.tail {
		old := q.head
		q.head = q.head.next
		releaseIngressChunk(old)
	}
	return task, true
}

// Length reports the number of tasks currently queued (diagnostic only).
func (q *ingress) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}
