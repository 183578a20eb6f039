package vegetation

// ExclusionZone is a circular area in world XZ where nothing may be placed.
type ExclusionZone struct {
	X      float32 `yaml:"x"`
	Z      float32 `yaml:"z"`
	Radius float32 `yaml:"radius"`
}

// Contains reports whether (x, z) lies strictly inside the zone.
func (e ExclusionZone) Contains(x, z float32) bool {
	dx := x - e.X
	dz := z - e.Z
	return dx*dx+dz*dz < e.Radius*e.Radius
}

// Exclusions is a read-only set of zones. A nil set excludes nothing.
type Exclusions []ExclusionZone

// Contains reports whether any zone contains (x, z).
func (ex Exclusions) Contains(x, z float32) bool {
	for _, e := range ex {
		if e.Contains(x, z) {
			return true
		}
	}
	return false
}
