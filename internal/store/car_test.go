package store

import (
	"testing"

	"github.com/carbrainiac/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func TestBuildCarFilterEmpty(t *testing.T) {
	where, args := buildCarFilter(types.CarFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildCarFilterEquality(t *testing.T) {
	where, args := buildCarFilter(types.CarFilter{
		Make:         "Toyota",
		CarModel:     "Corolla",
		Availability: boolPtr(true),
	})

	assert.Equal(t, " WHERE make = $1 AND model = $2 AND availability = $3", where)
	assert.Equal(t, []any{"toyota", "corolla", true}, args)
}

func TestBuildCarFilterRanges(t *testing.T) {
	where, args := buildCarFilter(types.CarFilter{
		Year:  &types.Range{Min: floatPtr(2010), Max: floatPtr(2020)},
		Price: &types.Range{Max: floatPtr(25000)},
	})

	assert.Equal(t, " WHERE year >= $1 AND year <= $2 AND price <= $3", where)
	assert.Equal(t, []any{2010.0, 2020.0, 25000.0}, args)
}

func TestBuildCarFilterMixed(t *testing.T) {
	where, args := buildCarFilter(types.CarFilter{
		Make:    "Honda",
		Mileage: &types.Range{Max: floatPtr(60000)},
	})

	assert.Equal(t, " WHERE make = $1 AND mileage <= $2", where)
	assert.Len(t, args, 2)
}

func TestDecodePictures(t *testing.T) {
	pictures, err := decodePictures([]byte(`["http://localhost:9000/listings/a.jpg","http://localhost:9000/listings/b.jpg"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"http://localhost:9000/listings/a.jpg",
		"http://localhost:9000/listings/b.jpg",
	}, pictures)
}

func TestDecodePicturesEmptyColumn(t *testing.T) {
	pictures, err := decodePictures(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, pictures)

	pictures, err = decodePictures([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, pictures)
}

func TestDecodePicturesCorruptedColumn(t *testing.T) {
	_, err := decodePictures([]byte(`{"not":"a list"`))
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode pictures column")
}

func TestBuildCarOrder(t *testing.T) {
	assert.Empty(t, buildCarOrder(types.CarFilter{}))
	assert.Empty(t, buildCarOrder(types.CarFilter{SortBy: "color"}))

	assert.Equal(t, " ORDER BY price ASC", buildCarOrder(types.CarFilter{SortBy: types.SortByPrice}))
	assert.Equal(t, " ORDER BY year DESC", buildCarOrder(types.CarFilter{
		SortBy: types.SortByYear,
		Order:  types.OrderDesc,
	}))
	assert.Equal(t, " ORDER BY mileage ASC", buildCarOrder(types.CarFilter{
		SortBy: types.SortByMileage,
		Order:  types.OrderAsc,
	}))
}
