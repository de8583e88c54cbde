// Package kernels implements the spatial smoothing step of the pipeline: a
// square counting kernel convolved over a raw motion probability map. The
// filter aggregates local motion evidence, so a pixel surrounded by other
// high-motion pixels scores higher than an isolated noisy one.
package kernels

import (
	"sync"

	"github.com/backgen/backgen/images"
	"github.com/pkg/errors"
)

// Size returns the kernel side length for a height×width frame and a
// granularity parameter n: min(height, width) divided by n, with the least
// significant bit set so the result is always odd and at least 1.
func Size(height, width, n int) int {
	m := height
	if width < m {
		m = width
	}
	return (m / n) | 1
}

// Counter sums raw scores over a centered K×K window for every pixel.
// Border pixels replicate the nearest edge sample. Stateless apart from a
// reusable intermediate buffer, and deterministic for a given kernel size.
type Counter struct {
	size int
	tmp  []int64

	// Parallel splits rows/columns across goroutines. The output is
	// byte-identical either way; pixels never share accumulators.
	Parallel bool
}

// NewCounter builds a filter with the given odd kernel side length.
func NewCounter(size int) (*Counter, error) {
	if size < 1 || size%2 == 0 {
		return nil, errors.Errorf("kernels: kernel size must be odd and positive, got %d", size)
	}
	return &Counter{size: size}, nil
}

// Size returns the kernel side length.
func (c *Counter) Size() int {
	return c.size
}

// Compute convolves src with the counting kernel and writes the result to
// dst. src and dst must share dimensions and may not alias. The two
// separable passes use a sliding window, so cost is O(W*H) independent of
// the kernel size.
func (c *Counter) Compute(src, dst *images.ProbabilityMap) error {
	if !src.SameShape(dst) {
		return errors.Errorf("kernels: map shape mismatch %dx%d vs %dx%d",
			src.Height, src.Width, dst.Height, dst.Width)
	}
	if &src.Pix[0] == &dst.Pix[0] {
		return errors.New("kernels: src and dst must not alias")
	}
	if len(c.tmp) != len(src.Pix) {
		c.tmp = make([]int64, len(src.Pix))
	}

	r := c.size / 2
	c.horizontal(src.Pix, c.tmp, src.Width, src.Height, r)
	c.vertical(c.tmp, dst.Pix, src.Width, src.Height, r)
	return nil
}

// horizontal sums each row over a sliding [x-r, x+r] window with clamped
// edges: initialize the sum for x=0, then add the entering sample and
// subtract the leaving one per step.
func (c *Counter) horizontal(src, dst []int64, w, h, r int) {
	rowTask := func(y int) {
		row := src[y*w : (y+1)*w]
		out := dst[y*w : (y+1)*w]
		load := func(x int) int64 {
			return row[clamp(x, w)]
		}

		var sum int64
		for dx := -r; dx <= r; dx++ {
			sum += load(dx)
		}
		for x := 0; x < w; x++ {
			out[x] = sum
			sum += load(x+r+1) - load(x-r)
		}
	}

	if !c.Parallel || h < 4 {
		for y := 0; y < h; y++ {
			rowTask(y)
		}
		return
	}
	parallelFor(h, rowTask)
}

// vertical mirrors the horizontal pass along columns.
func (c *Counter) vertical(src, dst []int64, w, h, r int) {
	colTask := func(x int) {
		load := func(y int) int64 {
			return src[clamp(y, h)*w+x]
		}

		var sum int64
		for dy := -r; dy <= r; dy++ {
			sum += load(dy)
		}
		for y := 0; y < h; y++ {
			dst[y*w+x] = sum
			sum += load(y+r+1) - load(y-r)
		}
	}

	if !c.Parallel || w < 4 {
		for x := 0; x < w; x++ {
			colTask(x)
		}
		return
	}
	parallelFor(w, colTask)
}

// clamp maps i into [0, n) by replicating the nearest edge.
func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// parallelFor runs task(i) for i in [0, n) across chunked goroutines.
// Chunk sizes balance scheduling overhead against cache locality.
func parallelFor(n int, task func(int)) {
	chunk := chooseChunk(n)
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

func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
