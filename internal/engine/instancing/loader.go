package instancing

import (
	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/texture"
)

// Loader resolves palette asset references to CPU-side mesh and image data.
type Loader interface {
	LoadMesh(ref string) (*mesh.Data, error)
	LoadTexture(ref string) (*texture.Image, error)
}
