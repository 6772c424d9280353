package millrace

import (
	"bufio"
	"fmt"
	"io"

	"go.polydawn.net/go-flume"
)

/*
A millrace is the channel that carries water to the wheel, which is
roughly the job description of every flume in this file.

The shape of the line:

	reader --> intake --> grader --> longs  --> packer
	                             \-> shorts /

The grader pulls words off the intake and routes them by length;
the packer fans both grades back in with a single Select, packing
whichever flume has something ready.  A nil value is the "river's
dry" marker: the reader pushes one when its input runs out, the
grader forwards one down each grade, and the packer retires after
collecting both.  Only once everyone has retired do we close and
free the flumes -- closing earlier would strand whatever was still
buffered, since a closed flume refuses receivers too.
*/
func Main(stdin io.Reader, stderr io.Writer) {
	intake := flume.New(4)
	longs := flume.New(2)
	shorts := flume.New(2)
	for _, fl := range []*flume.Flume{intake, longs, shorts} {
		fl.SetLogFn(func(evt string, param string) {
			fmt.Fprintf(stderr, "flume lifecycle: %s\n", evt)
		})
	}

	graderDone := make(chan struct{})
	packerDone := make(chan struct{})

	go grader(intake, longs, shorts, graderDone)
	go packer(longs, shorts, stderr, packerDone)

	scanner := bufio.NewScanner(stdin)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		intake.Send(scanner.Text(), true)
	}
	intake.Send(nil, true) // the river's dry

	<-graderDone
	<-packerDone
	for _, fl := range []*flume.Flume{intake, longs, shorts} {
		fl.Close()
		fl.Free()
	}
	fmt.Fprintf(stderr, "millrace: dry\n")
}

func grader(intake, longs, shorts *flume.Flume, done chan<- struct{}) {
	defer close(done)
	for {
		v, err := intake.Recv(true)
		if err != nil {
			return
		}
		if v == nil {
			longs.Send(nil, true)
			shorts.Send(nil, true)
			return
		}
		// route by grade; Select-with-one-send so a jammed grade could
		// in principle be handled, though here we just wait our turn.
		target := shorts
		if len(v.(string)) > 4 {
			target = longs
		}
		flume.Select([]*flume.Op{{Flume: target, Dir: flume.DirSend, Value: v}})
	}
}

func packer(longs, shorts *flume.Flume, stderr io.Writer, done chan<- struct{}) {
	defer close(done)
	dry := 0
	ops := []*flume.Op{
		{Flume: longs, Dir: flume.DirRecv},
		{Flume: shorts, Dir: flume.DirRecv},
	}
	for dry < 2 {
		idx, err := flume.Select(ops)
		if err != nil {
			return
		}
		v := ops[idx].Value
		if v == nil {
			dry++
			continue
		}
		grade := "short"
		if idx == 0 {
			grade = "long"
		}
		fmt.Fprintf(stderr, "packed: %s (%s)\n", v, grade)
	}
}
