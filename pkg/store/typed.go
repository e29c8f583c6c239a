package store

// Codec converts a Go value to and from the bytes held in the content
// store. Store[K, V] is deliberately generic over these rather than over
// any particular serialisation library, so a module can plug in JSON,
// a hand-rolled binary format, or anything else.
type Codec[T any] interface {
	Encode(T) ([]byte, error)
	Decode([]byte) (T, error)
}

// Store is a typed, named view over the content-addressed map. Two Store
// instances with different Name() values never collide, even if their
// encoded keys happen to be byte-identical, because the name participates
// in the storage digest.
type Store[K any, V any] struct {
	name      string
	keyCodec  Codec[K]
	valCodec  Codec[V]
}

// New builds a typed Store bound to a name and a pair of codecs. The name
// should be unique within a module, conventionally "<module_name>.<thing>".
func New[K any, V any](name string, keyCodec Codec[K], valCodec Codec[V]) *Store[K, V] {
	return &Store[K, V]{name: name, keyCodec: keyCodec, valCodec: valCodec}
}

// Name returns the store's namespace.
func (s *Store[K, V]) Name() string {
	return s.name
}

func (s *Store[K, V]) digest(key K) ([32]byte, error) {
	raw, err := s.keyCodec.Encode(key)
	if err != nil {
		var zero [32]byte
		return zero, err
	}
	return Digest(s.name, raw), nil
}

// Put stages a write under key in the given View.
func (s *Store[K, V]) Put(v *View, key K, value V) error {
	digest, err := s.digest(key)
	if err != nil {
		return err
	}
	encoded, err := s.valCodec.Encode(value)
	if err != nil {
		return err
	}
	v.Put(digest, encoded)
	return nil
}

// Get reads key, checking the View's cache before falling through to
// committed state. ok is false when the key has no value, was removed, or
// the stored bytes fail to decode: a corrupt value is indistinguishable
// from an absent one to callers.
func (s *Store[K, V]) Get(v *View, key K) (value V, ok bool, err error) {
	digest, err := s.digest(key)
	if err != nil {
		return value, false, err
	}
	raw, found := v.Get(digest)
	if !found {
		return value, false, nil
	}
	value, err = s.valCodec.Decode(raw)
	if err != nil {
		var zero V
		return zero, false, nil
	}
	return value, true, nil
}

// Query reads key bypassing the View's cache entirely, only ever observing
// committed state. This is what query handlers should use. As with Get, a
// decode failure reads as "not present" rather than as an error.
func (s *Store[K, V]) Query(v *View, key K) (value V, ok bool, err error) {
	digest, err := s.digest(key)
	if err != nil {
		return value, false, err
	}
	raw, found := v.GetFromStore(digest)
	if !found {
		return value, false, nil
	}
	value, err = s.valCodec.Decode(raw)
	if err != nil {
		var zero V
		return zero, false, nil
	}
	return value, true, nil
}

// Remove stages a deletion of key.
func (s *Store[K, V]) Remove(v *View, key K) error {
	digest, err := s.digest(key)
	if err != nil {
		return err
	}
	v.Remove(digest)
	return nil
}

// ContainsKey reports whether key has a value visible through the View.
func (s *Store[K, V]) ContainsKey(v *View, key K) (bool, error) {
	digest, err := s.digest(key)
	if err != nil {
		return false, err
	}
	return v.Exists(digest), nil
}
