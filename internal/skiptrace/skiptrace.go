// Package skiptrace maps skip-trace people-search payloads into typed
// person records.
//
// The provider renames fields between versions ("PeopleDetails" vs
// "people", "Person_name" vs "Name"), so every field is looked up under all
// known aliases and a record is only produced when its name is present.
package skiptrace

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the payload is not a JSON object.
var ErrMalformed = errors.New("malformed skip-trace payload")

// Person is one people-search record.
type Person struct {
	Name      string    `json:"name"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Location  string    `json:"location,omitempty"`
	Link      string    `json:"link,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
	Phones    []Phone   `json:"phones,omitempty"`
	Emails    []string  `json:"emails,omitempty"`
}

// Address is a postal address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	County     string `json:"county,omitempty"`
}

// Phone is a phone number with its line type.
type Phone struct {
	Number string `json:"number"`
	Type   string `json:"type,omitempty"`
}

// Problem reports a record that could not be mapped.
type Problem struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Field aliases, newest first.
var (
	searchListKeys  = []string{"PeopleDetails", "people", "results"}
	detailsKeys     = []string{"Person Details", "person_details", "person"}
	nameKeys        = []string{"Name", "name", "Person_name", "full_name"}
	firstNameKeys   = []string{"first_name", "firstName", "First Name"}
	lastNameKeys    = []string{"last_name", "lastName", "Last Name"}
	ageKeys         = []string{"Age", "age"}
	locationKeys    = []string{"Lives in", "lives_in", "location"}
	linkKeys        = []string{"Person_link", "link", "url"}
	addressListKeys = []string{"Current Address Details List", "addresses", "Previous Address Details"}
	phoneListKeys   = []string{"All Phone Details", "phones", "phone_numbers"}
	emailListKeys   = []string{"Email Addresses", "emails"}
	streetKeys      = []string{"street_address", "street", "address"}
	cityKeys        = []string{"address_locality", "city"}
	stateKeys       = []string{"address_region", "state"}
	postalKeys      = []string{"postal_code", "zip", "zip_code"}
	countyKeys      = []string{"county"}
	phoneKeys       = []string{"phone_number", "number", "phone"}
	phoneTypeKeys   = []string{"phone_type", "type"}
)

// Parse maps a search result list or a single details payload.
func Parse(raw []byte) ([]Person, []Problem, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, nil, err
	}
	if list, ok := obj.objects(searchListKeys...); ok {
		return mapList(list)
	}
	p, err := mapDetails(obj)
	if err != nil {
		return nil, []Problem{{Index: 0, Reason: err.Error()}}, nil
	}
	return []Person{p}, nil, nil
}

func mapList(list []object) ([]Person, []Problem, error) {
	people := make([]Person, 0, len(list))
	var problems []Problem
	for i, o := range list {
		p, err := mapPerson(o)
		if err != nil {
			problems = append(problems, Problem{Index: i, Reason: err.Error()})
			continue
		}
		people = append(people, p)
	}
	return people, problems, nil
}

// mapDetails handles the details shape, where the person sits in a one
// element list and addresses, phones and emails are siblings of it.
func mapDetails(obj object) (Person, error) {
	base := obj
	if list, ok := obj.objects(detailsKeys...); ok && len(list) > 0 {
		base = list[0]
	}
	p, err := mapPerson(base)
	if err != nil {
		return Person{}, err
	}

	if list, ok := obj.objects(addressListKeys...); ok {
		for _, a := range list {
			street, ok := a.str(streetKeys...)
			if !ok {
				continue
			}
			addr := Address{Street: street}
			addr.City, _ = a.str(cityKeys...)
			addr.State, _ = a.str(stateKeys...)
			addr.PostalCode, _ = a.str(postalKeys...)
			addr.County, _ = a.str(countyKeys...)
			p.Addresses = append(p.Addresses, addr)
		}
	}
	if list, ok := obj.objects(phoneListKeys...); ok {
		for _, ph := range list {
			num, ok := ph.str(phoneKeys...)
			if !ok {
				continue
			}
			phone := Phone{Number: num}
			phone.Type, _ = ph.str(phoneTypeKeys...)
			p.Phones = append(p.Phones, phone)
		}
	}
	if emails, ok := obj.stringList(emailListKeys...); ok {
		p.Emails = emails
	}
	return p, nil
}

func mapPerson(o object) (Person, error) {
	name, ok := o.str(nameKeys...)
	first, hasFirst := o.str(firstNameKeys...)
	last, hasLast := o.str(lastNameKeys...)
	if !ok {
		if !hasFirst && !hasLast {
			return Person{}, fmt.Errorf("missing name")
		}
		name = strings.TrimSpace(first + " " + last)
	}

	p := Person{Name: name, FirstName: first, LastName: last}
	if !hasFirst && !hasLast {
		p.FirstName, p.LastName = splitName(name)
	}
	p.Age, _ = o.integer(ageKeys...)
	p.Location, _ = o.str(locationKeys...)
	p.Link, _ = o.str(linkKeys...)
	return p, nil
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], parts[len(parts)-1]
}

type object map[string]json.RawMessage

func decodeObject(raw []byte) (object, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if o == nil {
		return nil, fmt.Errorf("%w: null", ErrMalformed)
	}
	return o, nil
}

// raw returns the first alias present with a non-null value.
func (o object) raw(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := o[k]
		if ok && len(v) > 0 && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// str returns a non-empty string value. Numbers are accepted as strings.
func (o object) str(keys ...string) (string, bool) {
	v, ok := o.raw(keys...)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return "", false
		}
		s = n.String()
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// int accepts a JSON number or a numeric string.
func (o object) integer(keys ...string) (*int, bool) {
	s, ok := o.str(keys...)
	if !ok {
		return nil, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func (o object) objects(keys ...string) ([]object, bool) {
	v, ok := o.raw(keys...)
	if !ok {
		return nil, false
	}
	var list []object
	if err := json.Unmarshal(v, &list); err != nil {
		return nil, false
	}
	return list, true
}

func (o object) stringList(keys ...string) ([]string, bool) {
	v, ok := o.raw(keys...)
	if !ok {
		return nil, false
	}
	var list []string
	if err := json.Unmarshal(v, &list); err != nil {
		return nil, false
	}
	return list, true
}
