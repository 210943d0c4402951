package gpu

// releaser is implemented by every wgpu object.
type releaser interface {
	Release()
}

// scope collects GPU objects created during one call and releases them in
// reverse creation order. Use it with defer so that every exit path,
// including errors, frees what was created.
type scope struct {
	objects []releaser
}

// track registers obj for release and returns it.
func track[T releaser](s *scope, obj T) T {
	s.objects = append(s.objects, obj)
	return obj
}

// release frees all tracked objects, newest first. It is idempotent.
func (s *scope) release() {
	for i := len(s.objects) - 1; i >= 0; i-- {
		s.objects[i].Release()
	}
	s.objects = nil
}
