package skiptrace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearch(t *testing.T) {
	raw := []byte(`{
		"PeopleDetails": [
			{"Name": "Jane Q Public", "Age": "52", "Lives in": "Minneapolis, MN", "Person_link": "/details?id=1"},
			{"name": "John Roe", "age": 41, "location": "St Paul, MN"},
			{"Age": "30"},
			{"first_name": "Ann", "last_name": "Lee"}
		]
	}`)

	people, problems, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, people, 3)

	assert.Equal(t, "Jane Q Public", people[0].Name)
	assert.Equal(t, "Jane", people[0].FirstName)
	assert.Equal(t, "Public", people[0].LastName)
	require.NotNil(t, people[0].Age)
	assert.Equal(t, 52, *people[0].Age)
	assert.Equal(t, "Minneapolis, MN", people[0].Location)
	assert.Equal(t, "/details?id=1", people[0].Link)

	require.NotNil(t, people[1].Age)
	assert.Equal(t, 41, *people[1].Age)
	assert.Equal(t, "St Paul, MN", people[1].Location)

	assert.Equal(t, "Ann Lee", people[2].Name)
	assert.Nil(t, people[2].Age)

	require.Len(t, problems, 1)
	assert.Equal(t, 2, problems[0].Index)
}

func TestParseDetails(t *testing.T) {
	raw := []byte(`{
		"Person Details": [{"Person_name": "Jane Public", "Age": "52"}],
		"Current Address Details List": [
			{"street_address": "100 Main St", "address_locality": "Minneapolis", "address_region": "MN", "postal_code": 55401},
			{"address_locality": "Nowhere"}
		],
		"All Phone Details": [{"phone_number": "(612) 555-0100", "phone_type": "Wireless"}],
		"Email Addresses": ["jane@example.com"]
	}`)

	people, problems, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, people, 1)

	p := people[0]
	assert.Equal(t, "Jane Public", p.Name)
	require.Len(t, p.Addresses, 1)
	assert.Equal(t, Address{Street: "100 Main St", City: "Minneapolis", State: "MN", PostalCode: "55401"}, p.Addresses[0])
	assert.Equal(t, []Phone{{Number: "(612) 555-0100", Type: "Wireless"}}, p.Phones)
	assert.Equal(t, []string{"jane@example.com"}, p.Emails)
}

func TestParseNullAndRenamedFields(t *testing.T) {
	raw := []byte(`{"people": [{"Name": null, "full_name": "Sam Doe", "Age": "unknown"}]}`)
	people, problems, err := Parse(raw)
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, people, 1)
	assert.Equal(t, "Sam Doe", people[0].Name)
	assert.Nil(t, people[0].Age)
}

func TestParseDetailsWithoutName(t *testing.T) {
	people, problems, err := Parse([]byte(`{"Email Addresses": ["x@example.com"]}`))
	require.NoError(t, err)
	assert.Empty(t, people)
	require.Len(t, problems, 1)
	assert.Contains(t, problems[0].Reason, "missing name")
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `null`, `not json`} {
		_, _, err := Parse([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}
