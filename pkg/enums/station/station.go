package station

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Station struct {
	Name string
}

func (s Station) Code() string {
	return s.Name
}

func (s Station) Label() string {
	return cases.Title(language.Und).String(s.Name)
}

type Enum struct {
	Kitchen Station
	Tea     Station
}

// Stations lists the work areas tickets are routed to. Tea covers drinks
// and desserts.
var Stations = Enum{
	Kitchen: Station{Name: "kitchen"},
	Tea:     Station{Name: "tea"},
}

var All = []Station{
	Stations.Kitchen,
	Stations.Tea,
}

// ByName returns the station for a given name, or nil if not found
func ByName(name string) *Station {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
