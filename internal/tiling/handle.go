package tiling

import "fmt"

// Handle addresses an entity in an arena. A handle whose generation no longer
// matches its slot refers to a destroyed entity and resolves to nothing.
type Handle struct {
	Index uint32
	Gen   uint32
}

// Valid reports whether h was ever issued. The zero Handle is never issued.
func (h Handle) Valid() bool {
	return h.Gen != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d.%d", h.Index, h.Gen)
}

// TileID, ColumnID and WorkspaceID are typed handles into the engine arenas.
type (
	TileID      Handle
	ColumnID    Handle
	WorkspaceID Handle
)

type slot[T any] struct {
	gen uint32
	val *T
}

// arena stores entities behind generation-checked handles. Freed slots are
// reused with a bumped generation so stale handles never alias new entities.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func (a *arena[T]) insert(v *T) Handle {
	a.live++
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[idx]
		s.gen++
		s.val = v
		return Handle{Index: idx, Gen: s.gen}
	}
	a.slots = append(a.slots, slot[T]{gen: 1, val: v})
	return Handle{Index: uint32(len(a.slots) - 1), Gen: 1}
}

func (a *arena[T]) get(h Handle) *T {
	if int(h.Index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.Index]
	if s.gen != h.Gen || s.val == nil {
		return nil
	}
	return s.val
}

func (a *arena[T]) remove(h Handle) bool {
	if a.get(h) == nil {
		return false
	}
	a.slots[h.Index].val = nil
	a.free = append(a.free, h.Index)
	a.live--
	return true
}

func (a *arena[T]) len() int {
	return a.live
}

// each visits live entities in slot order.
func (a *arena[T]) each(fn func(Handle, *T)) {
	for i, s := range a.slots {
		if s.val != nil {
			fn(Handle{Index: uint32(i), Gen: s.gen}, s.val)
		}
	}
}

func (id TileID) Valid() bool      { return Handle(id).Valid() }
func (id ColumnID) Valid() bool    { return Handle(id).Valid() }
func (id WorkspaceID) Valid() bool { return Handle(id).Valid() }
