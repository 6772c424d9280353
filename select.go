package flume

import (
	"go.polydawn.net/meep"

	"go.polydawn.net/go-flume/bell"
)

// Dir names which side of a flume a select op addresses.
type Dir int

const (
	DirSend Dir = iota
	DirRecv
)

/*
Op is one entry in a Select: a flume, a direction, and the payload
slot.  For DirSend, Value is the value to transmit; for DirRecv,
Value is overwritten with the received value when that op is the
one that completes.
*/
type Op struct {
	Flume *Flume
	Dir   Dir
	Value interface{}
}

/*
Select waits until any one of the given ops can complete, completes
exactly that one, and returns its index along with the op's result
(nil on success, or e.g. ErrClosed if the flume it touched is
closed).  Earlier ops win ties: the list is probed in order, every
time, so an op's index is its priority -- predictable under load,
and no pretense of fairness between competing Select calls.

An empty list, a nil op, or a nil flume is a caller bug and reports
ErrBadOp/ErrBadFlume without touching anything.

The shape inside is register-probe-park: hang a private bell on the
relevant roster of every flume involved, then loop attempting each
op non-blocking, and park on the bell whenever a full pass comes up
dry.  Registration strictly precedes the first probe -- probing
first would leave a window where an op turns feasible unwatched,
and that wake would be missed forever.  Every wake is followed by a
full re-probe, since a ring only ever means "something changed",
and another goroutine may have raced in and consumed the change.

The bell lives on this call's stack, so deregistration on the way
out is exhaustive and unconditional: a bell left on a roster after
Select returns would be rung long after its owner stopped
listening.  The same (flume, direction) appearing in several ops is
tolerated -- the rosters hold the bell once regardless.
*/
func Select(ops []*Op) (int, error) {
	if len(ops) == 0 {
		return -1, meep.Meep(&ErrBadOp{})
	}
	for i, op := range ops {
		if op == nil {
			return i, meep.Meep(&ErrBadOp{})
		}
		if op.Flume == nil {
			return i, meep.Meep(&ErrBadFlume{})
		}
		if op.Dir != DirSend && op.Dir != DirRecv {
			return i, meep.Meep(&ErrBadOp{})
		}
	}

	b := bell.New()
	for _, op := range ops {
		roster, mu := op.Flume.roster(op.Dir)
		mu.Lock()
		roster.Insert(b)
		mu.Unlock()
	}
	defer func() {
		for _, op := range ops {
			roster, mu := op.Flume.roster(op.Dir)
			mu.Lock()
			roster.Remove(b)
			mu.Unlock()
		}
	}()

	for {
		for i, op := range ops {
			var err error
			switch op.Dir {
			case DirSend:
				err = op.Flume.Send(op.Value, false)
			case DirRecv:
				var v interface{}
				v, err = op.Flume.Recv(false)
				if err == nil {
					op.Value = v
				}
			}
			if !IsWouldBlock(err) {
				return i, err
			}
		}
		b.Wait()
	}
}
