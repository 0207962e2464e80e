package jvm

import (
	"fmt"
	"sync"
)

// upcasts is the trusted assertion table: binary class name to the names of
// classes it may be treated as. Entries are never verified on the call
// path; see binding.Table.Verify for an opt-in audit.
var upcasts = struct {
	sync.RWMutex
	to map[string]map[string]struct{}
}{to: make(map[string]map[string]struct{})}

// DeclareUpcast asserts that every From is a To in the managed class
// hierarchy. Declaring an upcast the runtime disagrees with is undefined
// behaviour.
func DeclareUpcast[From, To JavaType]() {
	DeclareUpcastNames(DescriptorOf[From]().Name(), DescriptorOf[To]().Name())
}

// DeclareUpcastNames is DeclareUpcast for binary class names, used when
// loading binding tables.
func DeclareUpcastNames(from, to string) {
	upcasts.Lock()
	defer upcasts.Unlock()
	set := upcasts.to[from]
	if set == nil {
		set = make(map[string]struct{})
		upcasts.to[from] = set
	}
	set[to] = struct{}{}
}

// IsUpcast reports whether from may be treated as to: reflexively, to
// java/lang/Object, or through a chain of declarations.
func IsUpcast(from, to *Descriptor) bool {
	if from.Name() == to.Name() || to == objectDesc || to.Name() == objectDesc.Name() {
		return true
	}
	upcasts.RLock()
	defer upcasts.RUnlock()

	seen := map[string]bool{from.Name(): true}
	queue := []string{from.Name()}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for next := range upcasts.to[current] {
			if next == to.Name() {
				return true
			}
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func mustUpcast[From, To JavaType]() {
	from, to := DescriptorOf[From](), DescriptorOf[To]()
	if !IsUpcast(from, to) {
		panic(fmt.Sprintf("jvm: no upcast declared from %s to %s", from, to))
	}
}

// Widen reinterprets a local as an ancestor type. No foreign call is made.
// It panics if the upcast was never declared.
func Widen[To, From JavaType](l Local[From]) Local[To] {
	mustUpcast[From, To]()
	return Local[To]{h: l.h, scope: l.scope}
}

// Upcast reinterprets an operation's result as an ancestor type.
func Upcast[To, From JavaType](op ObjectOp[From]) ObjectOp[To] {
	mustUpcast[From, To]()
	return upcastOp[To, From]{op: op}
}

type upcastOp[To, From JavaType] struct {
	op ObjectOp[From]
}

func (u upcastOp[To, From]) Do(env *Env) (Local[To], error) { return doRef[To](env, u) }
func (u upcastOp[To, From]) javaType() To { return *new(To) }
func (u upcastOp[To, From]) reference(env *Env) (ref, error) {
	return u.op.reference(env)
}
func (u upcastOp[To, From]) argument(env *Env) (arg, error) { return refArgument(env, u) }
