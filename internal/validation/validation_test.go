package validation

import (
	"net/http"
	"testing"

	"github.com/carbrainiac/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerPayload struct {
	Name     string `validate:"required,min=2,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,password"`
	Phone    string `validate:"required,phone"`
	UserType string `validate:"required,oneof=buyer seller"`
}

func validRegisterPayload() registerPayload {
	return registerPayload{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "Sup3rSecret!",
		Phone:    "+1 555-000-1234",
		UserType: "buyer",
	}
}

func TestStructAcceptsValidPayload(t *testing.T) {
	require.Nil(t, Struct(validRegisterPayload()))
}

func TestStructRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *registerPayload)
		message string
	}{
		{
			name:    "missing name",
			mutate:  func(p *registerPayload) { p.Name = "" },
			message: "Name is required",
		},
		{
			name:    "name too short",
			mutate:  func(p *registerPayload) { p.Name = "A" },
			message: "Name must be at least 2 characters long",
		},
		{
			name:    "bad email",
			mutate:  func(p *registerPayload) { p.Email = "not-an-email" },
			message: "Please provide a valid email address",
		},
		{
			name:    "short password",
			mutate:  func(p *registerPayload) { p.Password = "Ab1!" },
			message: "Password must be at least 8 characters long",
		},
		{
			name:   "weak password",
			mutate: func(p *registerPayload) { p.Password = "alllowercase1" },
			message: "Password must contain at least one uppercase letter, " +
				"one lowercase letter, one number, and one special character",
		},
		{
			name:    "bad phone",
			mutate:  func(p *registerPayload) { p.Phone = "12345" },
			message: "Please provide a valid phone number",
		},
		{
			name:    "unknown role",
			mutate:  func(p *registerPayload) { p.UserType = "admin" },
			message: "UserType must be one of [buyer seller]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := validRegisterPayload()
			tt.mutate(&payload)

			err := Struct(payload)
			require.NotNil(t, err)
			assert.Equal(t, http.StatusBadRequest, err.StatusCode)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, isStrongPassword("Sup3rSecret!"))
	assert.False(t, isStrongPassword("noupper1!"))
	assert.False(t, isStrongPassword("NOLOWER1!"))
	assert.False(t, isStrongPassword("NoDigits!"))
	assert.False(t, isStrongPassword("NoSpecial1"))
	assert.False(t, isStrongPassword("Ab1!"))
}

func floatPtr(v float64) *float64 { return &v }

func defaultFilter() types.CarFilter {
	return types.CarFilter{Limit: 10, Offset: 0}
}

func TestCarFilterAcceptsDefaults(t *testing.T) {
	require.Nil(t, CarFilter(defaultFilter()))
}

func TestCarFilterRejectsInvertedRange(t *testing.T) {
	filter := defaultFilter()
	filter.Price = &types.Range{Min: floatPtr(100), Max: floatPtr(10)}

	err := CarFilter(filter)
	require.NotNil(t, err)
	assert.Equal(t, "Minimum price cannot be greater than maximum price", err.Message)
}

func TestCarFilterRejectsYearBelowFloor(t *testing.T) {
	filter := defaultFilter()
	filter.Year = &types.Range{Min: floatPtr(1500)}

	err := CarFilter(filter)
	require.NotNil(t, err)
	assert.Equal(t, "Minimum year cannot be less than 1886", err.Message)
}

func TestCarFilterRejectsNegativeMileage(t *testing.T) {
	filter := defaultFilter()
	filter.Mileage = &types.Range{Max: floatPtr(-1)}

	err := CarFilter(filter)
	require.NotNil(t, err)
	assert.Equal(t, "Maximum mileage cannot be less than 0", err.Message)
}

func TestCarFilterRejectsBadPagination(t *testing.T) {
	filter := defaultFilter()
	filter.Limit = 0
	require.NotNil(t, CarFilter(filter))

	filter = defaultFilter()
	filter.Offset = -1
	require.NotNil(t, CarFilter(filter))
}

func TestCarFilterChecksSortVocabulary(t *testing.T) {
	filter := defaultFilter()
	filter.SortBy = "color"
	require.NotNil(t, CarFilter(filter))

	filter = defaultFilter()
	filter.SortBy = types.SortByPrice
	filter.Order = "sideways"
	require.NotNil(t, CarFilter(filter))

	filter.Order = types.OrderDesc
	require.Nil(t, CarFilter(filter))
}
