package eye

// Snapshot takes a single frame with its descriptor without opening a session.
// It needs the optional frame entry point.
func Snapshot(lib Library) ([]byte, Descriptor, error) {
	s, ok := lib.(Snapshotter)
	if !ok || !supports(lib, SymFrame) {
		return nil, Descriptor{}, ErrNotSupported
	}
	return frame(lib, s)
}
