// Package history implements the selective sample store at the heart of the
// background estimator. Every region of the frame owns a bounded buffer of
// the samples least affected by motion seen so far; once full, a new sample
// displaces the worst retained one only when its motion score is strictly
// lower. Memory is bounded by regions × capacity regardless of sequence
// length.
package history

import (
	"runtime"
	"sync"

	"github.com/backgen/backgen/images"
	"github.com/backgen/backgen/regions"
	"github.com/pkg/errors"
)

// entry is one retained sample: the region's pixel bytes at admission time
// plus the motion score and arrival order that rank it.
type entry struct {
	score  int64
	seq    uint64
	sample []uint8
}

// buffer is a fixed-capacity max-heap ordered by (score, arrival): the root
// is always the most motion-affected retained sample, so eviction is O(1)
// lookup and O(log S) restore. Among equal scores the later arrival is
// considered worse, which makes earliest-retained win ties.
type buffer struct {
	entries []entry
}

// worse reports whether a should be evicted before b.
func worse(a, b entry) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.seq > b.seq
}

func (b *buffer) push(e entry) {
	b.entries = append(b.entries, e)
	i := len(b.entries) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !worse(b.entries[i], b.entries[parent]) {
			break
		}
		b.entries[i], b.entries[parent] = b.entries[parent], b.entries[i]
		i = parent
	}
}

// replaceRoot overwrites the worst entry and restores heap order.
func (b *buffer) replaceRoot(e entry) {
	b.entries[0] = e
	i := 0
	n := len(b.entries)
	for {
		l, r := 2*i+1, 2*i+2
		w := i
		if l < n && worse(b.entries[l], b.entries[w]) {
			w = l
		}
		if r < n && worse(b.entries[r], b.entries[w]) {
			w = r
		}
		if w == i {
			return
		}
		b.entries[i], b.entries[w] = b.entries[w], b.entries[i]
		i = w
	}
}

// Aggregator owns one history buffer per region and resolves them into a
// background image. Insert is the only mutator; Median is read-only and
// idempotent. Not safe for concurrent callers, matching the sequential
// frame-at-a-time pipeline; internally it shards independent regions across
// goroutines, which cannot change observable results.
type Aggregator struct {
	regs     []regions.Region
	capacity int
	height   int
	width    int
	channels int
	bufs     []buffer
	seq      uint64

	// Parallel shards per-region work across goroutines.
	Parallel bool
}

// NewAggregator builds one empty buffer per region for frames of the given
// shape. capacity is the S parameter: the maximum number of samples any
// region retains.
func NewAggregator(regs []regions.Region, height, width, channels, capacity int) (*Aggregator, error) {
	if capacity < 1 {
		return nil, errors.Errorf("history: capacity must be positive, got %d", capacity)
	}
	if len(regs) == 0 {
		return nil, errors.New("history: no regions")
	}
	if height < 1 || width < 1 || channels < 1 {
		return nil, errors.Errorf("history: invalid frame shape %dx%dx%d", height, width, channels)
	}
	return &Aggregator{
		regs:     regs,
		capacity: capacity,
		height:   height,
		width:    width,
		channels: channels,
		bufs:     make([]buffer, len(regs)),
	}, nil
}

// Capacity returns the per-region sample bound (the S parameter).
func (a *Aggregator) Capacity() int {
	return a.capacity
}

// Retained returns how many samples the region at the given index currently
// holds.
func (a *Aggregator) Retained(region int) int {
	return len(a.bufs[region].entries)
}

// Insert offers every region its sample from the current frame, scored by
// the filtered probability map. A region below capacity admits
// unconditionally; a full region admits only when the candidate scores
// strictly lower than its worst retained sample, evicting that sample.
// Samples are copied on admission, so the caller may reuse frame buffers.
func (a *Aggregator) Insert(filtered *images.ProbabilityMap, frame *images.Frame) error {
	if err := a.check(filtered, frame); err != nil {
		return err
	}
	a.seq++
	seq := a.seq

	task := func(i int) {
		reg := &a.regs[i]
		buf := &a.bufs[i]
		score := regionScore(filtered, reg)

		if len(buf.entries) < a.capacity {
			buf.push(entry{score: score, seq: seq, sample: extractSample(frame, reg)})
			return
		}
		if score < buf.entries[0].score {
			buf.replaceRoot(entry{score: score, seq: seq, sample: extractSample(frame, reg)})
		}
	}

	a.forEachRegion(task)
	return nil
}

// Median resolves every region to the per-channel median of its retained
// samples and writes the result into dst. Even sample counts take the lower
// of the two middle values. Regions that have never admitted a sample (only
// possible before the first insertion) are written as zero. The buffers are
// left untouched, so repeated calls with no intervening Insert produce
// byte-identical output.
func (a *Aggregator) Median(dst *images.Frame) error {
	if dst.Height != a.height || dst.Width != a.width || dst.Channels != a.channels {
		return errors.Errorf("history: output shape %dx%dx%d does not match %dx%dx%d",
			dst.Height, dst.Width, dst.Channels, a.height, a.width, a.channels)
	}

	task := func(i int) {
		reg := &a.regs[i]
		buf := &a.bufs[i]
		n := len(buf.entries)

		if n == 0 {
			zeroRegion(dst, reg)
			return
		}

		// One value per retained sample, sorted per pixel channel.
		// Insertion sort: n is at most S, which is small.
		values := make([]uint8, n)
		sampleOff := 0
		b := reg.Bounds
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				off := dst.PixOffset(x, y)
				for c := 0; c < a.channels; c++ {
					for s := 0; s < n; s++ {
						v := buf.entries[s].sample[sampleOff]
						j := s
						for j > 0 && values[j-1] > v {
							values[j] = values[j-1]
							j--
						}
						values[j] = v
					}
					dst.Pix[off+c] = values[(n-1)/2]
					sampleOff++
				}
			}
		}
	}

	a.forEachRegion(task)
	return nil
}

func (a *Aggregator) check(filtered *images.ProbabilityMap, frame *images.Frame) error {
	if frame.Height != a.height || frame.Width != a.width || frame.Channels != a.channels {
		return errors.Errorf("history: frame shape %dx%dx%d does not match %dx%dx%d",
			frame.Height, frame.Width, frame.Channels, a.height, a.width, a.channels)
	}
	if !filtered.MatchesFrame(frame) {
		return errors.Errorf("history: map shape %dx%d does not match frame %dx%d",
			filtered.Height, filtered.Width, frame.Height, frame.Width)
	}
	return nil
}

func (a *Aggregator) forEachRegion(task func(int)) {
	n := len(a.regs)
	if !a.Parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	chunk := n / (4 * runtime.NumCPU())
	if chunk < 64 {
		chunk = 64
	}
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// regionScore derives the candidate's motion score: the filtered value at
// the pixel for single-pixel regions, the sum over the patch otherwise.
func regionScore(filtered *images.ProbabilityMap, reg *regions.Region) int64 {
	b := reg.Bounds
	if b.Dx() == 1 && b.Dy() == 1 {
		return filtered.Pix[filtered.Offset(b.Min.X, b.Min.Y)]
	}
	var sum int64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := filtered.Pix[y*filtered.Width:]
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += row[x]
		}
	}
	return sum
}

// extractSample copies the region's pixel bytes out of the frame, channel
// order preserved, rows concatenated.
func extractSample(frame *images.Frame, reg *regions.Region) []uint8 {
	b := reg.Bounds
	ch := frame.Channels
	sample := make([]uint8, 0, b.Dx()*b.Dy()*ch)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := frame.PixOffset(b.Min.X, y)
		sample = append(sample, frame.Pix[start:start+b.Dx()*ch]...)
	}
	return sample
}

func zeroRegion(dst *images.Frame, reg *regions.Region) {
	b := reg.Bounds
	ch := dst.Channels
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := dst.PixOffset(b.Min.X, y)
		for i := start; i < start+b.Dx()*ch; i++ {
			dst.Pix[i] = 0
		}
	}
}
