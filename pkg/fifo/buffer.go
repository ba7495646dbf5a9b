package fifo

import "sync"

// BufferEntries is the number of word slots in the shared staging arena.
const BufferEntries = 256

// terminate marks the end of a slot chain.
const terminate = 0xFFFF

type slot struct {
	word uint32
	next uint16
}

// Pool is a fixed arena of word slots shared by all 16 channels. Each channel
// owns one linked queue of slots; unclaimed slots sit on a single free list.
// Every slot is on exactly one of those lists at all times.
//
// The receive loop enqueues and the application dequeues concurrently, so all
// linkage updates run under one lock. This is the software rendition of the
// interrupt-masked critical section the hardware driver would use.
type Pool struct {
	mu    sync.Mutex
	slots [BufferEntries]slot
	free  uint16
	nfree int
	head  [NumChannels]uint16
	tail  [NumChannels]uint16
	count [NumChannels]int
}

// NewPool creates an initialized arena with every slot on the free list.
func NewPool() *Pool {
	p := &Pool{free: 0, nfree: BufferEntries}
	for i := range p.slots {
		p.slots[i].next = uint16(i + 1)
	}
	p.slots[BufferEntries-1].next = terminate
	for ch := range p.head {
		p.head[ch] = terminate
		p.tail[ch] = terminate
	}
	return p
}

// Enqueue claims one slot for a word on the channel's queue. It fails with
// ErrBufferFull when the arena is exhausted.
func (p *Pool) Enqueue(ch Channel, word uint32) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enqueue(ch, word)
}

// EnqueueAll stages a word sequence as a unit: either every word is queued or
// none is. A multi-word message never half-stages.
func (p *Pool) EnqueueAll(ch Channel, words []uint32) error {
	if !ch.IsValid() {
		return &ChannelError{Channel: ch}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(words) > p.nfree {
		return ErrBufferFull
	}
	for _, w := range words {
		p.enqueue(ch, w)
	}
	return nil
}

func (p *Pool) enqueue(ch Channel, word uint32) error {
	if p.free == terminate {
		return ErrBufferFull
	}
	idx := p.free
	p.free = p.slots[idx].next
	p.nfree--

	p.slots[idx].word = word
	p.slots[idx].next = terminate
	if p.tail[ch] == terminate {
		p.head[ch] = idx
	} else {
		p.slots[p.tail[ch]].next = idx
	}
	p.tail[ch] = idx
	p.count[ch]++
	return nil
}

// Dequeue pops the oldest staged word off the channel's queue. The slot goes
// back on the free list immediately. It fails with ErrEmpty when nothing is
// staged.
func (p *Pool) Dequeue(ch Channel) (uint32, error) {
	if !ch.IsValid() {
		return 0, &ChannelError{Channel: ch}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.head[ch]
	if idx == terminate {
		return 0, ErrEmpty
	}
	word := p.slots[idx].word
	p.head[ch] = p.slots[idx].next
	if p.head[ch] == terminate {
		p.tail[ch] = terminate
	}
	p.slots[idx].next = p.free
	p.free = idx
	p.nfree++
	p.count[ch]--
	return word, nil
}

// Len returns the number of words staged on the channel, or 0 for an invalid
// channel. The count is kept incrementally; no traversal.
func (p *Pool) Len(ch Channel) int {
	if !ch.IsValid() {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count[ch]
}

// Free returns the arena headroom in slots.
func (p *Pool) Free() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nfree
}
