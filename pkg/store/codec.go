package store

// BytesCodec is the identity codec for []byte keys or values.
type BytesCodec struct{}

func (BytesCodec) Encode(v []byte) ([]byte, error) { return v, nil }
func (BytesCodec) Decode(b []byte) ([]byte, error) { return b, nil }

// StringCodec encodes/decodes plain strings as UTF-8 bytes.
type StringCodec struct{}

func (StringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }
