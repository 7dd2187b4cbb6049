package fglog

// typeFilter is the include/exclude set built from the type options.
type typeFilter struct {
	include map[EventType]struct{}
	exclude map[EventType]struct{}
}

func typeSet(types []EventType) map[EventType]struct{} {
	if len(types) == 0 {
		return nil
	}
	m := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}

// Allows returns true if the given event type passes the filter.
// If include is non-empty, only types in include are allowed.
// Types in exclude are always rejected.
func (f *typeFilter) Allows(t EventType) bool {
	if f == nil {
		return true
	}
	if len(f.include) > 0 {
		if _, ok := f.include[t]; !ok {
			return false
		}
	}
	_, excluded := f.exclude[t]
	return !excluded
}
