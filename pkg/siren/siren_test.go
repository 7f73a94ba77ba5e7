package siren

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"552120222", false},
		{"552 120 222", false},
		{"55212022200013", false},
		{"552120223", true},
		{"12345", true},
		{"", true},
	}
	for _, tc := range cases {
		err := Validate(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
		} else {
			assert.NoError(t, err, tc.in)
		}
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "552120222", Normalize("552 120 222"))
}
