package query

import "net/url"

// Key identifies a cached fetch: a resource name plus the canonical
// serialization of its parameters. Two keys are equal iff both parts match,
// so Key is usable as a map key directly.
type Key struct {
	Resource string
	Params   string
}

// NewKey canonicalizes params into a sorted query string. url.Values.Encode
// sorts by key, so parameter order at the call site never produces a distinct
// key.
func NewKey(resource string, params url.Values) Key {
	return Key{Resource: resource, Params: params.Encode()}
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}
