package render

import (
	"sync"

	"github.com/Faultbox/brushwork/internal/mesh"
)

// MeshHandle identifies a mesh in a Registry. Zero is never issued.
type MeshHandle uint32

// Drawable makes a node render a registered mesh with a material.
type Drawable struct {
	Mesh     MeshHandle
	Material MaterialHandle
}

// Registry stores mesh assets and the materials they are drawn with.
type Registry struct {
	mu        sync.RWMutex
	meshes    map[MeshHandle]*mesh.Mesh
	materials map[MaterialHandle]*Material
	next      MeshHandle
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		meshes:    make(map[MeshHandle]*mesh.Mesh),
		materials: make(map[MaterialHandle]*Material),
		next:      1,
	}
}

// AddMesh stores a mesh and returns its handle. The registry takes ownership.
func (r *Registry) AddMesh(m *mesh.Mesh) MeshHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.next
	r.next++
	r.meshes[h] = m
	return h
}

// Mesh returns a registered mesh.
func (r *Registry) Mesh(h MeshHandle) (*mesh.Mesh, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.meshes[h]
	return m, ok
}

// RemoveMesh drops a mesh.
func (r *Registry) RemoveMesh(h MeshHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meshes, h)
}

// MeshCount returns the number of stored meshes.
func (r *Registry) MeshCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meshes)
}

// SetMaterial stores a material under a handle, replacing any previous one.
func (r *Registry) SetMaterial(h MaterialHandle, m *Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[h] = m
}

// Material returns a stored material.
func (r *Registry) Material(h MaterialHandle) (*Material, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.materials[h]
	return m, ok
}
