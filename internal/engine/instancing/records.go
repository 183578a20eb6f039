package instancing

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GrassRecord is the per-instance GPU record for grass.
type GrassRecord struct {
	Position  mgl32.Vec3
	RotationY float32
	Scale     float32
	WindPhase float32
}

// RockRecord is the per-instance GPU record for rocks.
type RockRecord struct {
	Position  mgl32.Vec3
	RotationY float32
	Scale     float32
}

// AppendTo packs r as six little-endian float32 values.
func (r GrassRecord) AppendTo(dst []byte) []byte {
	dst = appendVec3(dst, r.Position)
	dst = appendFloat(dst, r.RotationY)
	dst = appendFloat(dst, r.Scale)
	return appendFloat(dst, r.WindPhase)
}

// AppendTo packs r as five little-endian float32 values.
func (r RockRecord) AppendTo(dst []byte) []byte {
	dst = appendVec3(dst, r.Position)
	dst = appendFloat(dst, r.RotationY)
	return appendFloat(dst, r.Scale)
}

func appendVec3(dst []byte, v mgl32.Vec3) []byte {
	dst = appendFloat(dst, v[0])
	dst = appendFloat(dst, v[1])
	return appendFloat(dst, v[2])
}

func appendFloat(dst []byte, f float32) []byte {
	return binary.LittleEndian.AppendUint32(dst, math.Float32bits(f))
}
