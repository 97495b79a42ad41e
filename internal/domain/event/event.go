package event

import (
	"sort"
	"sync"

	"github.com/andrescamacho/colonysim/internal/domain/shared"
)

// Type classifies simulation events
type Type string

const (
	TypeTaskStarted       Type = "TASK_STARTED"
	TypeTaskEnded         Type = "TASK_ENDED"
	TypeMissionPhase      Type = "MISSION_PHASE"
	TypeMissionEnded      Type = "MISSION_ENDED"
	TypeAccident          Type = "ACCIDENT"
	TypeMealCooked        Type = "MEAL_COOKED"
	TypeResupplyDelivered Type = "RESUPPLY_DELIVERED"
	TypeGovernanceChanged Type = "GOVERNANCE_CHANGED"
	TypeSkillGained       Type = "SKILL_GAINED"
)

// Event is one thing that happened during a tick
type Event struct {
	Seq        uint64
	Producer   string
	Type       Type
	Time       shared.MarsTime
	Settlement string
	Actor      string
	Message    string
	Data       map[string]interface{}
}

// DefaultQueueCapacity bounds each producer's queue between drains
const DefaultQueueCapacity = 256

// Queue is a bounded single-producer event buffer. When full the oldest event is
// overwritten and counted as dropped.
type Queue struct {
	mu      sync.Mutex
	name    string
	buf     []Event
	head    int
	size    int
	dropped uint64
	seq     *sequence
}

type sequence struct {
	mu   sync.Mutex
	next uint64
}

func (s *sequence) take() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

func newQueue(name string, capacity int, seq *sequence) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{name: name, buf: make([]Event, capacity), seq: seq}
}

func (q *Queue) Name() string { return q.name }

// Publish appends an event, stamping the producer name and a hub-wide sequence number
func (q *Queue) Publish(e Event) {
	e.Producer = q.name
	e.Seq = q.seq.take()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size == len(q.buf) {
		q.buf[q.head] = e
		q.head = (q.head + 1) % len(q.buf)
		q.dropped++
		return
	}
	q.buf[(q.head+q.size)%len(q.buf)] = e
	q.size++
}

// Dropped returns how many events were overwritten since creation
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.head = 0
	q.size = 0
	return out
}

// Hub owns the producer queues. Producers publish during a tick and the single
// consumer drains all queues once at the end of the tick.
type Hub struct {
	mu       sync.Mutex
	capacity int
	queues   map[string]*Queue
	seq      *sequence
}

func NewHub(capacity int) *Hub {
	return &Hub{capacity: capacity, queues: make(map[string]*Queue), seq: &sequence{}}
}

// Producer returns the queue for a producer name, creating it on first use
func (h *Hub) Producer(name string) *Queue {
	h.mu.Lock()
	defer h.mu.Unlock()
	q, ok := h.queues[name]
	if !ok {
		q = newQueue(name, h.capacity, h.seq)
		h.queues[name] = q
	}
	return q
}

// DrainAll empties every queue and returns the events in publish order
func (h *Hub) DrainAll() []Event {
	h.mu.Lock()
	queues := make([]*Queue, 0, len(h.queues))
	for _, q := range h.queues {
		queues = append(queues, q)
	}
	h.mu.Unlock()

	var all []Event
	for _, q := range queues {
		all = append(all, q.drain()...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Seq < all[j].Seq })
	return all
}

// Dropped sums dropped events over all producers
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	var total uint64
	for _, q := range h.queues {
		total += q.Dropped()
	}
	return total
}
