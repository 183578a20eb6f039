package vegetation

import "math"

// Noise is seeded 2D gradient noise with a fractal sum on top.
// The permutation table is duplicated so lookups never wrap.
type Noise struct {
	perm [512]int
}

// NewNoise builds the permutation table by shuffling the identity
// permutation with a generator seeded from seed.
func NewNoise(seed uint32) *Noise {
	rng := NewRand(seed)

	var p [256]int
	for i := range p {
		p[i] = i
	}
	rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })

	n := &Noise{}
	for i := 0; i < 256; i++ {
		n.perm[i] = p[i]
		n.perm[256+i] = p[i]
	}
	return n
}

// Noise2D evaluates gradient noise at (x, y). The result lies roughly in
// [-1, 1] and is exactly zero on integer lattice points.
func (n *Noise) Noise2D(x, y float32) float32 {
	fx := float32(math.Floor(float64(x)))
	fy := float32(math.Floor(float64(y)))

	xi := int(fx) & 255
	yi := int(fy) & 255

	x -= fx
	y -= fy

	u := fade(x)
	v := fade(y)

	a := n.perm[xi] + yi
	aa := n.perm[a]
	ab := n.perm[a+1]
	b := n.perm[xi+1] + yi
	ba := n.perm[b]
	bb := n.perm[b+1]

	return lerp(v,
		lerp(u, grad(n.perm[aa], x, y), grad(n.perm[ba], x-1, y)),
		lerp(u, grad(n.perm[ab], x, y-1), grad(n.perm[bb], x-1, y-1)),
	)
}

// FBM sums octaves of Noise2D at doubling frequency and amplitude scaled by
// persistence, normalized by the total amplitude.
func (n *Noise) FBM(x, y float32, octaves int, persistence float32) float32 {
	if octaves <= 0 {
		return 0
	}

	var total, maxValue float32
	amplitude := float32(1)
	frequency := float32(1)

	for i := 0; i < octaves; i++ {
		total += n.Noise2D(x*frequency, y*frequency) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	if maxValue == 0 {
		return 0
	}
	return total / maxValue
}

// fade is the quintic 6t^5 - 15t^4 + 10t^3.
func fade(t float32) float32 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(t, a, b float32) float32 {
	return a + t*(b-a)
}

// grad picks one of four gradient directions from the low two bits of hash.
func grad(hash int, x, y float32) float32 {
	h := hash & 3
	u, v := x, y
	if h >= 2 {
		u, v = y, x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		return u - 2*v
	}
	return u + 2*v
}
