package flume

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// rosterSizes peeks at both registries; used to prove Select never
// leaves its bell behind.
func rosterSizes(fl *Flume) (sends, recvs int) {
	fl.sendRosterMu.Lock()
	sends = fl.sendRoster.Len()
	fl.sendRosterMu.Unlock()
	fl.recvRosterMu.Lock()
	recvs = fl.recvRoster.Len()
	fl.recvRosterMu.Unlock()
	return
}

func soRostersEmpty(fls ...*Flume) {
	for _, fl := range fls {
		sends, recvs := rosterSizes(fl)
		So(sends, ShouldEqual, 0)
		So(recvs, ShouldEqual, 0)
	}
}

func TestSelectValidation(t *testing.T) {
	Convey("Select rejects malformed input", t, func() {
		Convey("empty op list", func() {
			idx, err := Select(nil)
			So(idx, ShouldEqual, -1)
			So(err, ShouldHaveSameTypeAs, &ErrBadOp{})
		})

		Convey("nil op", func() {
			idx, err := Select([]*Op{nil})
			So(idx, ShouldEqual, 0)
			So(err, ShouldHaveSameTypeAs, &ErrBadOp{})
		})

		Convey("nil flume", func() {
			idx, err := Select([]*Op{{Flume: nil, Dir: DirRecv}})
			So(idx, ShouldEqual, 0)
			So(err, ShouldHaveSameTypeAs, &ErrBadFlume{})
		})

		Convey("junk direction", func() {
			fl := New(1)
			idx, err := Select([]*Op{{Flume: fl, Dir: Dir(7)}})
			So(idx, ShouldEqual, 0)
			So(err, ShouldHaveSameTypeAs, &ErrBadOp{})
		})
	})
}

func TestSelectImmediate(t *testing.T) {
	Convey("Select picks the first feasible op", t, func() {
		x := New(1)
		y := New(1)
		So(x.Send(7, true), ShouldBeNil)

		ops := []*Op{
			{Flume: x, Dir: DirRecv},
			{Flume: y, Dir: DirRecv},
		}
		idx, err := Select(ops)
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 0)
		So(ops[0].Value, ShouldEqual, 7)
		soRostersEmpty(x, y)
	})

	Convey("Select can complete a send just as well", t, func() {
		x := New(1)
		ops := []*Op{{Flume: x, Dir: DirSend, Value: 42}}
		idx, err := Select(ops)
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 0)
		v, err := x.Recv(false)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 42)
		soRostersEmpty(x)
	})

	Convey("Earlier ops shadow later ones when both are ready", t, func() {
		x := New(1)
		y := New(1)
		So(x.Send("first", true), ShouldBeNil)
		So(y.Send("second", true), ShouldBeNil)
		ops := []*Op{
			{Flume: x, Dir: DirRecv},
			{Flume: y, Dir: DirRecv},
		}
		idx, err := Select(ops)
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 0)
		So(ops[0].Value, ShouldEqual, "first")
		soRostersEmpty(x, y)
	})
}

func TestSelectBlocking(t *testing.T) {
	Convey("Select parks until some op turns feasible", t, func() {
		x := New(1)
		y := New(1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(settle)
			y.Send(9, true)
		}()

		ops := []*Op{
			{Flume: x, Dir: DirRecv},
			{Flume: y, Dir: DirRecv},
		}
		idx, err := Select(ops)
		wg.Wait()
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 1)
		So(ops[1].Value, ShouldEqual, 9)
		soRostersEmpty(x, y)
	})

	Convey("Select parked on a full send side wakes when a receiver drains it", t, func() {
		x := New(1)
		So(x.Send("plug", true), ShouldBeNil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(settle)
			x.Recv(true)
		}()

		ops := []*Op{{Flume: x, Dir: DirSend, Value: "follow-up"}}
		idx, err := Select(ops)
		wg.Wait()
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 0)
		v, err := x.Recv(false)
		So(err, ShouldBeNil)
		So(v, ShouldEqual, "follow-up")
		soRostersEmpty(x)
	})

	Convey("Select parked across flumes wakes on close", t, func() {
		x := New(1)
		y := New(1)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(settle)
			y.Close()
		}()

		ops := []*Op{
			{Flume: x, Dir: DirRecv},
			{Flume: y, Dir: DirRecv},
		}
		idx, err := Select(ops)
		wg.Wait()
		So(IsClosed(err), ShouldBeTrue)
		So(idx, ShouldEqual, 1)
		soRostersEmpty(x, y)
	})
}

func TestSelectClosed(t *testing.T) {
	Convey("Select on a closed flume reports closed with the culprit's index", t, func() {
		x := New(1)
		So(x.Close(), ShouldBeNil)

		ops := []*Op{{Flume: x, Dir: DirSend, Value: 1}}
		idx, err := Select(ops)
		So(IsClosed(err), ShouldBeTrue)
		So(idx, ShouldEqual, 0)
		soRostersEmpty(x)
	})

	Convey("All ops closed: the first one wins the blame", t, func() {
		x := New(1)
		y := New(1)
		So(x.Close(), ShouldBeNil)
		So(y.Close(), ShouldBeNil)

		ops := []*Op{
			{Flume: x, Dir: DirRecv},
			{Flume: y, Dir: DirRecv},
		}
		idx, err := Select(ops)
		So(IsClosed(err), ShouldBeTrue)
		So(idx, ShouldEqual, 0)
		soRostersEmpty(x, y)
	})
}

func TestSelectDuplicates(t *testing.T) {
	Convey("Duplicate (flume, direction) ops are tolerated", t, func() {
		x := New(1)
		So(x.Send("once", true), ShouldBeNil)

		ops := []*Op{
			{Flume: x, Dir: DirRecv},
			{Flume: x, Dir: DirRecv},
		}
		// registration dedups by bell identity: despite two ops, the
		// roster holds one bell, and deregistration still clears it.
		idx, err := Select(ops)
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 0)
		So(ops[0].Value, ShouldEqual, "once")
		soRostersEmpty(x)
	})
}

func TestSelectMixedDirections(t *testing.T) {
	Convey("A mixed send/recv set completes whichever side opens first", t, func() {
		x := New(1)
		y := New(1)
		So(x.Send("plug", true), ShouldBeNil) // x is full: its send op can't go

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(settle)
			y.Send("incoming", true)
		}()

		ops := []*Op{
			{Flume: x, Dir: DirSend, Value: "wedged"},
			{Flume: y, Dir: DirRecv},
		}
		idx, err := Select(ops)
		wg.Wait()
		So(err, ShouldBeNil)
		So(idx, ShouldEqual, 1)
		So(ops[1].Value, ShouldEqual, "incoming")
		soRostersEmpty(x, y)
	})
}
