package permission

import (
	"regexp"
	"sort"
	"strings"

	"github.com/frahmantamala/workforce-authz/internal"
)

// Key is an atomic capability such as "candidates.read" or "deals.close".
type Key string

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if !keyPattern.MatchString(s) {
		return "", internal.ErrInvalidPermissionKey
	}
	return Key(s), nil
}

// NewKey joins a resource and an action, e.g. NewKey("jobs", "read").
func NewKey(resource, action string) Key {
	return Key(resource + "." + action)
}

func (k Key) String() string {
	return string(k)
}

// Resource is everything before the last dot.
func (k Key) Resource() string {
	s := string(k)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}

func (k Key) Action() string {
	s := string(k)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// Set is an unordered collection of keys. Sets only ever grow: there is no
// deny entry and no way to subtract a grant.
type Set map[Key]struct{}

func NewSet(keys ...Key) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func FromStrings(keys []string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s[Key(k)] = struct{}{}
	}
	return s
}

func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

func (s Set) Add(keys ...Key) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

// Union returns a new set; neither operand is modified.
func (s Set) Union(other Set) Set {
	out := make(Set, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func (s Set) Contains(other Set) bool {
	for k := range other {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

func (s Set) Len() int {
	return len(s)
}

func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s Set) Strings() []string {
	keys := s.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
