package scene

import (
	"fmt"
	"reflect"
	"slices"
)

// Insert attaches components to a node, replacing any existing component of
// the same type. Components must be structs or pointers to structs; a pointer
// is stored as-is, a value is copied.
func Insert(w *World, id NodeID, components ...any) {
	n, ok := w.nodes[id]
	if !ok {
		return
	}
	for _, c := range components {
		t, ptr := componentType(c)
		n.components[t] = ptr
	}
}

// Get returns the node's component of type T.
func Get[T any](w *World, id NodeID) (*T, bool) {
	n, ok := w.nodes[id]
	if !ok {
		return nil, false
	}
	c, ok := n.components[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}
	return c.(*T), true
}

// Has reports whether the node carries a component of type T.
func Has[T any](w *World, id NodeID) bool {
	_, ok := Get[T](w, id)
	return ok
}

// Remove detaches the component of type T, if present.
func Remove[T any](w *World, id NodeID) {
	if n, ok := w.nodes[id]; ok {
		delete(n.components, reflect.TypeFor[T]())
	}
}

// Each calls fn for every node carrying T, in ascending node id order.
func Each[T any](w *World, fn func(NodeID, *T)) {
	t := reflect.TypeFor[T]()
	ids := make([]NodeID, 0)
	for id, n := range w.nodes {
		if _, ok := n.components[t]; ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		// fn may despawn nodes visited later
		if n, ok := w.nodes[id]; ok {
			if c, ok := n.components[t]; ok {
				fn(id, c.(*T))
			}
		}
	}
}

// Query returns the ids of nodes carrying T, in ascending order.
func Query[T any](w *World) []NodeID {
	var ids []NodeID
	Each(w, func(id NodeID, _ *T) { ids = append(ids, id) })
	return ids
}

func componentType(c any) (reflect.Type, any) {
	v := reflect.ValueOf(c)
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		if t.Elem().Kind() != reflect.Struct {
			panic(fmt.Errorf("scene: component must be a struct or pointer to struct, got %s", t))
		}
		return t.Elem(), c
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Errorf("scene: component must be a struct or pointer to struct, got %s", t))
	}
	ptr := reflect.New(t)
	ptr.Elem().Set(v)
	return t, ptr.Interface()
}
