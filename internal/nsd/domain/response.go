package domain

// Field is a single key/value pair from a control-channel reply.
type Field struct {
	Key   string
	Value string
}

// Response represents the parsed result of one control command: whether the
// server reported success, an optional human-readable message, and the
// structured key/value fields in the order the server emitted them (some
// callers display ordered statistics). A Response is a pure value; it is
// never mutated after the parser builds it.
type Response struct {
	Success bool
	Message string
	Fields  []Field
}

// IsSuccess reports whether the server's status line indicated success.
func (r Response) IsSuccess() bool {
	return r.Success
}

// Get returns the value for key and whether the key was present.
func (r Response) Get(key string) (string, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value for key, or the empty string when absent.
func (r Response) Value(key string) string {
	v, _ := r.Get(key)
	return v
}

// Len returns the number of structured fields in the reply.
func (r Response) Len() int {
	return len(r.Fields)
}

// Map returns the fields as a plain map. Ordering is lost; callers that
// need the server's emission order should range over Fields directly.
func (r Response) Map() map[string]string {
	m := make(map[string]string, len(r.Fields))
	for _, f := range r.Fields {
		m[f.Key] = f.Value
	}
	return m
}
