package coupon

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) UpsertCoupons(ctx context.Context, coupons []model.Coupon) (int, error) {
	args := m.Called(ctx, coupons)
	return args.Int(0), args.Error(1)
}

func catalogueLoader(files map[string][]model.Coupon) *mockLoader {
	return &mockLoader{
		loadFunc: func(_ context.Context, path string) ([]model.Coupon, error) {
			coupons, ok := files[path]
			if !ok {
				return nil, errors.New("missing " + path)
			}
			return coupons, nil
		},
	}
}

func TestImporter_Import_LaterFileWins(t *testing.T) {
	loader := catalogueLoader(map[string][]model.Coupon{
		"a.csv.gz": {
			{Code: "SAVE10", DiscountType: model.DiscountPercentage, Value: dec("10")},
			{Code: "FLAT5", DiscountType: model.DiscountFlat, Value: dec("5")},
		},
		"b.csv.gz": {
			{Code: "SAVE10", DiscountType: model.DiscountPercentage, Value: dec("12")},
			{Code: "NEW1", DiscountType: model.DiscountFlat, Value: dec("1")},
		},
	})

	store := new(mockStore)
	store.On("UpsertCoupons", mock.Anything, mock.MatchedBy(func(coupons []model.Coupon) bool {
		if len(coupons) != 3 {
			return false
		}
		return coupons[0].Code == "SAVE10" && coupons[0].Value.Equal(dec("12")) &&
			coupons[1].Code == "FLAT5" &&
			coupons[2].Code == "NEW1"
	})).Return(3, nil)

	importer := NewImporter(loader, store, zerolog.Nop())
	result, err := importer.Import(context.Background(), "a.csv.gz", "b.csv.gz")

	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Files: 2, Parsed: 4, Written: 3}, result)
	store.AssertExpectations(t)
}

func TestImporter_Import_LoadErrorSkipsStore(t *testing.T) {
	loader := catalogueLoader(map[string][]model.Coupon{
		"a.csv.gz": {{Code: "SAVE10"}},
	})
	store := new(mockStore)

	importer := NewImporter(loader, store, zerolog.Nop())
	result, err := importer.Import(context.Background(), "a.csv.gz", "missing.csv.gz")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv.gz")
	store.AssertNotCalled(t, "UpsertCoupons", mock.Anything, mock.Anything)
}

func TestImporter_Import_StoreError(t *testing.T) {
	loader := catalogueLoader(map[string][]model.Coupon{"a.csv.gz": {{Code: "SAVE10"}}})
	store := new(mockStore)
	store.On("UpsertCoupons", mock.Anything, mock.Anything).Return(0, errors.New("db down"))

	importer := NewImporter(loader, store, zerolog.Nop())
	_, err := importer.Import(context.Background(), "a.csv.gz")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store coupons")
}

func TestImporter_Import_NoPaths(t *testing.T) {
	importer := NewImporter(&mockLoader{}, new(mockStore), zerolog.Nop())

	_, err := importer.Import(context.Background())

	assert.Error(t, err)
}
