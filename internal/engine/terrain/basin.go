package terrain

import "math"

const rimSamples = 32

// CarveBasin lowers the terrain inside a circle into a bowl that is depth
// units deep at its center and returns the rim level, the lowest height
// found on the circle. Samples already below the bowl are left alone.
func (h *Heightmap) CarveBasin(cx, cz, radius, depth float32) float32 {
	level := float32(math.Inf(1))
	for i := 0; i < rimSamples; i++ {
		a := 2 * math.Pi * float64(i) / rimSamples
		x := cx + radius*float32(math.Cos(a))
		z := cz + radius*float32(math.Sin(a))
		level = min(level, h.SampleHeightWorld(x, z))
	}
	if radius <= 0 {
		return level
	}

	dx := h.SizeX / float32(h.Width-1)
	dz := h.SizeZ / float32(h.Depth-1)
	r2 := radius * radius
	for z := 0; z < h.Depth; z++ {
		wz := float32(z)*dz - h.SizeZ*0.5 - cz
		for x := 0; x < h.Width; x++ {
			wx := float32(x)*dx - h.SizeX*0.5 - cx
			d2 := wx*wx + wz*wz
			if d2 >= r2 {
				continue
			}
			bowl := level - depth*(1-d2/r2)
			i := z*h.Width + x
			if h.Heights[i] > bowl {
				h.Heights[i] = bowl
			}
		}
	}

	h.MinHeight = float32(math.Inf(1))
	h.MaxHeight = float32(math.Inf(-1))
	for _, v := range h.Heights {
		h.MinHeight = min(h.MinHeight, v)
		h.MaxHeight = max(h.MaxHeight, v)
	}
	return level
}
