package paymentmethod

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Method struct {
	Name string
}

func (m Method) Code() string {
	return m.Name
}

func (m Method) Label() string {
	if m.Name == Methods.QR.Name {
		return strings.ToUpper(m.Name)
	}
	return cases.Title(language.Und).String(m.Name)
}

// MakesChange reports whether tendering more than the balance is allowed.
func (m Method) MakesChange() bool {
	return m.Name == Methods.Cash.Name
}

type Enum struct {
	Cash     Method
	Card     Method
	Transfer Method
	QR       Method
}

var Methods = Enum{
	Cash:     Method{Name: "cash"},
	Card:     Method{Name: "card"},
	Transfer: Method{Name: "transfer"},
	QR:       Method{Name: "qr"},
}

var All = []Method{
	Methods.Cash,
	Methods.Card,
	Methods.Transfer,
	Methods.QR,
}

// ByName returns the payment method for a given name, or nil if not found
func ByName(name string) *Method {
	for _, m := range All {
		if m.Name == name {
			return &m
		}
	}
	return nil
}
