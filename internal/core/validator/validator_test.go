package validator

import (
	"strings"
	"testing"

	"github.com/rbroggi/clients/internal/core/model"
	"github.com/stretchr/testify/require"
)

func validClient() model.Client {
	return model.Client{
		FirstName: "Ana",
		LastName:  "Ruiz",
		NIT:       "1234567",
		Email:     "ana@test.com",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *model.Client)
		expected FieldErrors
	}{
		{
			name:     "valid client",
			mutate:   func(c *model.Client) {},
			expected: FieldErrors{},
		},
		{
			name:     "accented names are accepted",
			mutate:   func(c *model.Client) { c.FirstName = "José Ñandú"; c.LastName = "Güemes Ávila" },
			expected: FieldErrors{},
		},
		{
			name:     "email is optional",
			mutate:   func(c *model.Client) { c.Email = "" },
			expected: FieldErrors{},
		},
		{
			name:     "blank email is treated as absent",
			mutate:   func(c *model.Client) { c.Email = "   " },
			expected: FieldErrors{},
		},
		{
			name:     "nit with check digit",
			mutate:   func(c *model.Client) { c.NIT = "123456789-0" },
			expected: FieldErrors{},
		},
		{
			name:     "nit with twelve digits",
			mutate:   func(c *model.Client) { c.NIT = "123456789012" },
			expected: FieldErrors{},
		},
		{
			name:   "missing first name",
			mutate: func(c *model.Client) { c.FirstName = "  " },
			expected: FieldErrors{
				FieldFirstName: "first name is required",
			},
		},
		{
			name:   "single letter digit name fails both length and charset",
			mutate: func(c *model.Client) { c.LastName = "1" },
			expected: FieldErrors{
				FieldLastName: "last name must be between 2 and 50 characters; last name must only contain letters and spaces",
			},
		},
		{
			name:   "name too long",
			mutate: func(c *model.Client) { c.FirstName = strings.Repeat("a", 51) },
			expected: FieldErrors{
				FieldFirstName: "first name must be between 2 and 50 characters",
			},
		},
		{
			name:     "name with fifty accented letters",
			mutate:   func(c *model.Client) { c.FirstName = strings.Repeat("á", 50) },
			expected: FieldErrors{},
		},
		{
			name:   "email too long and malformed",
			mutate: func(c *model.Client) { c.Email = strings.Repeat("a", 101) },
			expected: FieldErrors{
				FieldEmail: "email must not exceed 100 characters; email format is invalid",
			},
		},
		{
			name:   "email with a non-breaking space",
			mutate: func(c *model.Client) { c.Email = "ana\u00a0ruiz@test.com" },
			expected: FieldErrors{
				FieldEmail: "email format is invalid",
			},
		},
		{
			name:   "email with a vertical tab",
			mutate: func(c *model.Client) { c.Email = "ana\vruiz@test.com" },
			expected: FieldErrors{
				FieldEmail: "email format is invalid",
			},
		},
		{
			name:   "email with an em space in the domain",
			mutate: func(c *model.Client) { c.Email = "ana@te\u2003st.com" },
			expected: FieldErrors{
				FieldEmail: "email format is invalid",
			},
		},
		{
			name:   "email with two ats",
			mutate: func(c *model.Client) { c.Email = "a@b@c.com" },
			expected: FieldErrors{
				FieldEmail: "email format is invalid",
			},
		},
		{
			name:   "email without dot after at",
			mutate: func(c *model.Client) { c.Email = "ana@test" },
			expected: FieldErrors{
				FieldEmail: "email format is invalid",
			},
		},
		{
			name:   "missing nit",
			mutate: func(c *model.Client) { c.NIT = "" },
			expected: FieldErrors{
				FieldNIT: "nit is required",
			},
		},
		{
			name:   "nit with letters",
			mutate: func(c *model.Client) { c.NIT = "12345AB" },
			expected: FieldErrors{
				FieldNIT: "nit must have 7 to 12 digits, without letters or special characters (optionally followed by a hyphen and a check digit)",
			},
		},
		{
			name:   "nit too short",
			mutate: func(c *model.Client) { c.NIT = "123456" },
			expected: FieldErrors{
				FieldNIT: "nit must have 7 to 12 digits, without letters or special characters (optionally followed by a hyphen and a check digit)",
			},
		},
		{
			name:   "nit with multiple hyphens",
			mutate: func(c *model.Client) { c.NIT = "1234567-1-2" },
			expected: FieldErrors{
				FieldNIT: "nit must have 7 to 12 digits, without letters or special characters (optionally followed by a hyphen and a check digit)",
			},
		},
		{
			name: "every field fails",
			mutate: func(c *model.Client) {
				*c = model.Client{Email: "nope"}
			},
			expected: FieldErrors{
				FieldFirstName: "first name is required",
				FieldLastName:  "last name is required",
				FieldEmail:     "email format is invalid",
				FieldNIT:       "nit is required",
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := validClient()
			test.mutate(&c)
			got := Validate(c)
			require.Equal(t, test.expected, got)
			require.Equal(t, len(test.expected) == 0, got.Valid())
		})
	}
}

func TestFieldErrors_Add(t *testing.T) {
	errs := FieldErrors{}
	errs.Add("", "general failure")
	errs.Add(FieldNIT, "first")
	errs.Add(FieldNIT, "second")

	require.Equal(t, FieldErrors{"": "general failure", FieldNIT: "first; second"}, errs)
	require.False(t, errs.Valid())
}

func FuzzValidate(f *testing.F) {
	seeds := [][4]string{
		{"Ana", "Ruiz", "1234567", "ana@test.com"},
		{"", "", "", ""},
		{"\xff\xfe", "Ru\xc3", "12345\x80", "a@\xffb.c"},
		{"Ana María", "Ruiz\vDíaz", "1234567-8", "ana @test.com"},
		{strings.Repeat("ñ", 60), "A", "1234567890123", strings.Repeat("a", 101)},
	}
	for _, seed := range seeds {
		f.Add(seed[0], seed[1], seed[2], seed[3])
	}

	known := map[string]bool{FieldFirstName: true, FieldLastName: true, FieldEmail: true, FieldNIT: true}
	f.Fuzz(func(t *testing.T, firstName, lastName, nit, email string) {
		errs := Validate(model.Client{FirstName: firstName, LastName: lastName, NIT: nit, Email: email})
		for field, msg := range errs {
			require.True(t, known[field], "unexpected field %q", field)
			require.NotEmpty(t, msg)
		}
		if strings.TrimSpace(nit) == "" {
			require.Equal(t, "nit is required", errs[FieldNIT])
		}
	})
}
