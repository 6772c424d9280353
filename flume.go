/*
Package flume is a bounded, closable, selectable conveyance for
opaque values, shared freely between any number of producing and
consuming goroutines.

A flume is close kin to a native channel, with three deliberate
differences: sending and receiving each come in a non-blocking
flavor that reports instead of suspending; closing is a first-class state which
rejects *both* directions (residual buffered values included); and
the Select function can wait across any mix of send and receive
positions on any set of flumes without code-generating a select
statement per arity.

The machinery is one mutex and two condition variables per flume
for the dedicated senders and receivers, plus a pair of rosters of
wakeup bells for the generalized Select waiters.  Dedicated waiters
are signalled first and selectors rung after the core mutex is
dropped (under the roster's own mutex, since a ring never blocks);
a woken selector re-enters through the ordinary non-blocking paths
and never contends with the thread that woke it.
*/
package flume

import (
	"sync"

	"go.polydawn.net/meep"

	"go.polydawn.net/go-flume/bell"
	"go.polydawn.net/go-flume/ring"
)

type Flume struct {
	mu     sync.Mutex // guards buf and closed; never held while taking a roster mutex
	buf    *ring.Buffer
	closed bool
	freed  bool

	sendCv *sync.Cond // with mu; waited by blocked senders, signalled per pop
	recvCv *sync.Cond // with mu; waited by blocked receivers, signalled per push

	sendRosterMu sync.Mutex
	sendRoster   *bell.Roster

	recvRosterMu sync.Mutex
	recvRoster   *bell.Roster

	doneFuse *bell.Fuse // burnt on close

	logFn LogFn
}

/*
New builds a flume with room for `capacity` values in flight.

Capacity zero is accepted, but note this flume has no rendezvous
path: with nowhere to set a value down, every send (and receive)
on a zero-capacity flume parks until someone closes it.  Useful
as a pure close-broadcast, and not much else.
*/
func New(capacity int) *Flume {
	f := &Flume{
		buf:        ring.New(capacity),
		sendRoster: bell.NewRoster(),
		recvRoster: bell.NewRoster(),
		doneFuse:   bell.NewFuse(),
	}
	f.sendCv = sync.NewCond(&f.mu)
	f.recvCv = sync.NewCond(&f.mu)
	return f
}

func (f *Flume) Cap() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	n := f.buf.Cap()
	f.mu.Unlock()
	return n
}

func (f *Flume) Len() int {
	if f == nil {
		return 0
	}
	f.mu.Lock()
	n := f.buf.Len()
	f.mu.Unlock()
	return n
}

// Done yields a channel which is closed once the flume is.  Use it to
// watch for closure from a native select; everything else about a
// closed flume is reported through ErrClosed returns.
func (f *Flume) Done() <-chan struct{} {
	return f.doneFuse.Selectable()
}

/*
Send places a value into the flume.

In blocking mode, Send parks while the flume is full and returns
nil once the value is aboard, or ErrClosed if the flume closes
before space turns up.  In non-blocking mode a full flume (or a
momentarily contended one) yields ErrWouldBlock and the flume is
left exactly as found.

Values travel strictly first-in-first-out across all senders.
*/
func (f *Flume) Send(v interface{}, blocking bool) error {
	if f == nil {
		return meep.Meep(&ErrBadFlume{})
	}
	if blocking {
		f.mu.Lock()
	} else if !f.mu.TryLock() {
		return meep.Meep(&ErrWouldBlock{})
	}
	if f.freed {
		f.mu.Unlock()
		return meep.Meep(&ErrBadFlume{})
	}
	if f.closed {
		f.mu.Unlock()
		return meep.Meep(&ErrClosed{})
	}
	for f.buf.Len() == f.buf.Cap() {
		if !blocking {
			f.mu.Unlock()
			return meep.Meep(&ErrWouldBlock{})
		}
		f.sendCv.Wait()
		// Wakes are hints, not contracts: re-check the world entirely.
		if f.closed {
			f.mu.Unlock()
			return meep.Meep(&ErrClosed{})
		}
	}
	f.buf.Push(v)
	f.recvCv.Signal()
	f.mu.Unlock()

	// Ring the selectors parked on the receive side, strictly after the
	// core mutex is dropped, so a woken Select re-probes unopposed.
	f.recvRosterMu.Lock()
	f.recvRoster.RingAll()
	f.recvRosterMu.Unlock()
	return nil
}

/*
Recv takes the oldest value out of the flume.

In blocking mode, Recv parks while the flume is empty and returns
the value once one arrives, or ErrClosed if the flume closes first.
In non-blocking mode an empty flume (or a momentarily contended one)
yields ErrWouldBlock.

Closing trumps draining: a closed flume refuses Recv even if
values are still buffered.
*/
func (f *Flume) Recv(blocking bool) (interface{}, error) {
	if f == nil {
		return nil, meep.Meep(&ErrBadFlume{})
	}
	if blocking {
		f.mu.Lock()
	} else if !f.mu.TryLock() {
		return nil, meep.Meep(&ErrWouldBlock{})
	}
	if f.freed {
		f.mu.Unlock()
		return nil, meep.Meep(&ErrBadFlume{})
	}
	if f.closed {
		f.mu.Unlock()
		return nil, meep.Meep(&ErrClosed{})
	}
	for f.buf.Len() == 0 {
		if !blocking {
			f.mu.Unlock()
			return nil, meep.Meep(&ErrWouldBlock{})
		}
		f.recvCv.Wait()
		if f.closed {
			f.mu.Unlock()
			return nil, meep.Meep(&ErrClosed{})
		}
	}
	v := f.buf.Pop()
	f.sendCv.Signal()
	f.mu.Unlock()

	f.sendRosterMu.Lock()
	f.sendRoster.RingAll()
	f.sendRosterMu.Unlock()
	return v, nil
}

/*
Close shuts the flume: the closed flag flips (once, forever), every
parked sender and receiver is woken to collect its ErrClosed, and
every selector watching either side is rung.  Buffered values are
stranded -- see Recv.

Closing an already-closed flume reports ErrClosed and changes
nothing.
*/
func (f *Flume) Close() error {
	if f == nil {
		return meep.Meep(&ErrBadFlume{})
	}
	f.mu.Lock()
	if f.freed {
		f.mu.Unlock()
		return meep.Meep(&ErrBadFlume{})
	}
	if f.closed {
		f.mu.Unlock()
		return meep.Meep(&ErrClosed{})
	}
	f.closed = true
	f.sendCv.Broadcast()
	f.recvCv.Broadcast()
	f.mu.Unlock()

	// Two disjoint waiter populations, two wakeup mechanisms: the
	// broadcasts above reach the dedicated senders/receivers parked on
	// the condvars, and the rings below reach the Select calls parked
	// on their bells.
	f.doneFuse.Burn()
	f.sendRosterMu.Lock()
	f.sendRoster.RingAll()
	f.sendRosterMu.Unlock()
	f.recvRosterMu.Lock()
	f.recvRoster.RingAll()
	f.recvRosterMu.Unlock()

	f.log("closed", "")
	return nil
}

/*
Free retires a flume for good: the buffer's residue is dropped and
every subsequent Send, Recv, Close or Free reports ErrBadFlume.

A flume must be closed before it can be freed (ErrStillOpen
otherwise), and the caller is responsible for having collected all
of its goroutines first -- Free does not referee stragglers.
*/
func (f *Flume) Free() error {
	if f == nil {
		return meep.Meep(&ErrBadFlume{})
	}
	f.mu.Lock()
	if f.freed {
		f.mu.Unlock()
		return meep.Meep(&ErrBadFlume{})
	}
	if !f.closed {
		f.mu.Unlock()
		return meep.Meep(&ErrStillOpen{})
	}
	f.freed = true
	f.buf.Reset()
	f.mu.Unlock()

	f.log("freed", "")
	return nil
}

// roster picks the registry (and its guard) for one side of the flume.
func (f *Flume) roster(dir Dir) (*bell.Roster, *sync.Mutex) {
	if dir == DirSend {
		return f.sendRoster, &f.sendRosterMu
	}
	return f.recvRoster, &f.recvRosterMu
}
