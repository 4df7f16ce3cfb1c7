package race

import (
	"fmt"

	"github.com/sarchlab/calyxgo/ir"
)

// Race describes one detected violation: two accesses to the same
// location with no happens-before relationship between them.
type Race struct {
	Location ir.CanonicalKey
	Kind     Kind
	Thread   ThreadID
}

// Kind classifies the violation, mirroring check_read/check_write's
// three error cases in the source this package is ported from.
type Kind int

const (
	// ReadAfterWrite: a thread read a location without having
	// observed its most recent writer.
	ReadAfterWrite Kind = iota
	// WriteAfterWrite: two threads wrote the same location with
	// neither observing the other's write.
	WriteAfterWrite
	// WriteAfterRead: a thread wrote a location without having
	// observed a read some other, unordered thread performed on it.
	WriteAfterRead
)

func (k Kind) String() string {
	switch k {
	case ReadAfterWrite:
		return "read/write race"
	case WriteAfterWrite:
		return "write/write race"
	case WriteAfterRead:
		return "write/read race"
	default:
		return "race"
	}
}

// Error renders a fallback message for callers with no name table to
// render Location against (Location's fields are interned IDs, not
// strings); interp renders a human-readable cell/port name itself
// before surfacing a race as a diagnostic.
func (r *Race) Error() string {
	return fmt.Sprintf("%s on %v (thread %q)", r.Kind, r.Location, r.Thread)
}

// clockPair is the per-location state: writeClock is the full vector
// clock of whichever thread wrote most recently; readClock aggregates,
// per reading thread, the highest clock value that thread has read
// the location at (so a later write can tell whether it has observed
// every read since the prior write).
type clockPair struct {
	readClock  VectorClock
	writeClock VectorClock
}

func newClockPair() *clockPair {
	return &clockPair{readClock: NewVectorClock(), writeClock: NewVectorClock()}
}

// Detector tracks one vector clock per thread and one clockPair per
// stateful location, flagging races as they are recorded. Nil-safe
// zero value is not usable; construct with NewDetector.
type Detector struct {
	threads map[ThreadID]VectorClock
	pairs   map[ir.CanonicalKey]*clockPair
}

// NewDetector creates an empty Detector.
func NewDetector() *Detector {
	return &Detector{
		threads: make(map[ThreadID]VectorClock),
		pairs:   make(map[ir.CanonicalKey]*clockPair),
	}
}

func (d *Detector) clock(t ThreadID) VectorClock {
	vc, ok := d.threads[t]
	if !ok {
		vc = NewVectorClock()
		d.threads[t] = vc
	}
	return vc
}

func (d *Detector) pair(loc ir.CanonicalKey) *clockPair {
	p, ok := d.pairs[loc]
	if !ok {
		p = newClockPair()
		d.pairs[loc] = p
	}
	return p
}

// Tick advances thread t's own logical time by one, performed once per
// cycle for every thread the control walk found active — the
// synchronization granularity a cycle-accurate simulator has in place
// of a real scheduler's preemption points.
func (d *Detector) Tick(t ThreadID) {
	d.clock(t).Increment(t)
}

// Fork seeds child's clock from parent's at the moment a Par node
// spawns concurrently-active branches, so every branch's first access
// already happens-after everything the Par itself happens-after.
func (d *Detector) Fork(parent, child ThreadID) {
	d.threads[child] = d.clock(parent).Clone()
}

// Join merges every child thread's clock into parent's at the moment a
// Par node completes, so code sequenced after the Par happens-after
// everything every branch did.
func (d *Detector) Join(parent ThreadID, children ...ThreadID) {
	merged := d.clock(parent)
	for _, c := range children {
		merged = merged.Join(d.clock(c))
	}
	d.threads[parent] = merged
}

// RecordRead checks a read of loc by thread t against the location's
// last writer, returning a *Race if t has not observed that write.
func (d *Detector) RecordRead(t ThreadID, loc ir.CanonicalKey) *Race {
	p := d.pair(loc)
	readingClock := d.clock(t)

	if !readingClock.GreaterOrEqual(p.writeClock) {
		return &Race{Location: loc, Kind: ReadAfterWrite, Thread: t}
	}
	p.readClock[t] = readingClock.Get(t)
	return nil
}

// RecordWrite checks a write of loc by thread t against both the
// location's last writer and every thread that has read it since,
// returning a *Race if t has not observed one of them.
func (d *Detector) RecordWrite(t ThreadID, loc ir.CanonicalKey) *Race {
	p := d.pair(loc)
	writingClock := d.clock(t)

	if writingClock.GreaterOrEqual(p.writeClock) && writingClock.GreaterOrEqual(p.readClock) {
		p.writeClock = writingClock.Clone()
		return nil
	}
	if !writingClock.GreaterOrEqual(p.readClock) {
		return &Race{Location: loc, Kind: WriteAfterRead, Thread: t}
	}
	return &Race{Location: loc, Kind: WriteAfterWrite, Thread: t}
}
