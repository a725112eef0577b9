package transmit

// Window is the unsent range of a circular buffer: samples [Read, Write)
// modulo Capacity.
type Window struct {
	Read     int
	Write    int
	Capacity int
}

// Segment is a contiguous run of Count samples starting at Start.
type Segment struct {
	Start int
	Count int
}

// Pending returns the number of unsent samples.
func (w Window) Pending() int {
	if w.Capacity <= 0 {
		return 0
	}

	n := (w.Write - w.Read) % w.Capacity
	if n < 0 {
		n += w.Capacity
	}

	return n
}

// Segments splits the window into at most two contiguous runs.
//
// The window is contiguous when Write > Read, or when Write == 0 which means
// writing wrapped exactly to the start; otherwise it is split into
// [Read, Capacity) and [0, Write).
func (w Window) Segments() ([2]Segment, int) {
	var segs [2]Segment

	if w.Read == w.Write || w.Capacity <= 0 {
		return segs, 0
	}

	if w.Write > w.Read {
		segs[0] = Segment{Start: w.Read, Count: w.Write - w.Read}
		return segs, 1
	}

	segs[0] = Segment{Start: w.Read, Count: w.Capacity - w.Read}
	if w.Write == 0 {
		return segs, 1
	}

	segs[1] = Segment{Start: 0, Count: w.Write}

	return segs, 2
}

// Trim returns the window shortened to its first n samples.
func (w Window) Trim(n int) Window {
	if n >= w.Pending() {
		return w
	}
	if n <= 0 {
		w.Write = w.Read
		return w
	}

	w.Write = (w.Read + n) % w.Capacity

	return w
}
