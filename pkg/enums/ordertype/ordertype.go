package ordertype

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type OrderType struct {
	Name string
}

func (t OrderType) Code() string {
	return t.Name
}

func (t OrderType) Label() string {
	return cases.Title(language.Und).String(strings.ReplaceAll(t.Name, "_", " "))
}

type Enum struct {
	DineIn   OrderType
	Takeaway OrderType
	Delivery OrderType
}

var Types = Enum{
	DineIn:   OrderType{Name: "dine_in"},
	Takeaway: OrderType{Name: "takeaway"},
	Delivery: OrderType{Name: "delivery"},
}

var All = []OrderType{
	Types.DineIn,
	Types.Takeaway,
	Types.Delivery,
}

// ByName returns the order type for a given name, or nil if not found
func ByName(name string) *OrderType {
	for _, t := range All {
		if t.Name == name {
			return &t
		}
	}
	return nil
}
