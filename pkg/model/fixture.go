package model

import "sort"

// FixtureSet maps database names to the records to store in them
type FixtureSet map[string][]Record

// Databases returns the database names of the fixture, sorted
func (f FixtureSet) Databases() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len is the total number of records in the fixture
func (f FixtureSet) Len() int {
	var n int
	for _, records := range f {
		n += len(records)
	}
	return n
}

// ConfigParameter is a setting of the database server
type ConfigParameter struct {
	Section string
	Key     string
	Value   string
}

func (p ConfigParameter) String() string {
	return p.Section + "/" + p.Key
}
