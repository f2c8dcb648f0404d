package format

import (
	"errors"
	"strings"
)

// ErrEmptySelection is returned by [ParseSet] when no format is named.
var ErrEmptySelection = errors.New("no audio formats selected")

// Set is a fixed-size set over the closed [Format] enumeration. The zero
// value is the empty set. Membership and union are constant time.
type Set struct {
	bits uint8
}

// All returns the set holding every supported format.
func All() Set {
	return Set{bits: 1<<numFormats - 1}
}

// SetOf returns a set holding exactly the given formats. Unknown values
// are ignored.
func SetOf(formats ...Format) Set {
	var s Set
	for _, f := range formats {
		s = s.Add(f)
	}
	return s
}

// ParseSet parses a comma-separated selection such as "ogg,mp3" or "all".
// Names are case-insensitive and surrounding whitespace is ignored; empty
// items are skipped. An unknown name or an empty result is an error.
func ParseSet(spec string) (Set, error) {
	var s Set
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.EqualFold(item, "all") {
			s = s.Union(All())
			continue
		}
		f, err := ParseFormat(item)
		if err != nil {
			return Set{}, err
		}
		s = s.Add(f)
	}
	if s.IsEmpty() {
		return Set{}, ErrEmptySelection
	}
	return s, nil
}

// Add returns s with f included.
func (s Set) Add(f Format) Set {
	if !f.Valid() {
		return s
	}
	return Set{bits: s.bits | 1<<f}
}

// Union returns the formats present in s or o.
func (s Set) Union(o Set) Set {
	return Set{bits: s.bits | o.bits}
}

// Contains reports whether f is in s.
func (s Set) Contains(f Format) bool {
	return f.Valid() && s.bits&(1<<f) != 0
}

// IsEmpty reports whether s holds no formats.
func (s Set) IsEmpty() bool { return s.bits == 0 }

// IsAll reports whether s holds every supported format.
func (s Set) IsAll() bool { return s == All() }

// Len returns the number of formats in s.
func (s Set) Len() int {
	n := 0
	for f := Format(0); f < numFormats; f++ {
		if s.Contains(f) {
			n++
		}
	}
	return n
}

// Formats returns the members of s in identifier order.
func (s Set) Formats() []Format {
	out := make([]Format, 0, numFormats)
	for f := Format(0); f < numFormats; f++ {
		if s.Contains(f) {
			out = append(out, f)
		}
	}
	return out
}

// String renders s the way ParseSet accepts it ("all" or "ogg,mp3").
func (s Set) String() string {
	if s.IsAll() {
		return "all"
	}
	parts := make([]string, 0, numFormats)
	for _, f := range s.Formats() {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, ",")
}
