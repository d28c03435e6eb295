package codegen

import "github.com/wippyai/nio/wasm"

const noParent = -1

// scopes is an arena of lexical frames. A frame names its parent by
// index, so frames never own each other.
type scopes struct {
	frames []frame
}

type frame struct {
	names  map[string]wasm.LocalIdx
	parent int
}

// push opens a frame nested in parent and returns its index.
func (s *scopes) push(parent int) int {
	s.frames = append(s.frames, frame{names: make(map[string]wasm.LocalIdx), parent: parent})
	return len(s.frames) - 1
}

// declare binds name in frame at. A second declaration of the same name
// in one frame shadows the first.
func (s *scopes) declare(at int, name string, idx wasm.LocalIdx) {
	s.frames[at].names[name] = idx
}

// lookup resolves name starting at frame at and walking outward.
func (s *scopes) lookup(at int, name string) (wasm.LocalIdx, bool) {
	for at != noParent {
		f := &s.frames[at]
		if idx, ok := f.names[name]; ok {
			return idx, true
		}
		at = f.parent
	}
	return 0, false
}
