package coupon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/klauspost/pgzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestCatalogue writes a gzipped CSV catalogue and returns its path.
func createTestCatalogue(t *testing.T, filename string, lines []string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), filename)

	file, err := os.Create(filePath)
	require.NoError(t, err)
	defer file.Close()

	gzipWriter := pgzip.NewWriter(file)
	_, err = gzipWriter.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gzipWriter.Close())

	return filePath
}

func TestFileLoader_Load_Success(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createTestCatalogue(t, "coupons.csv.gz", []string{
		"code,discount_type,value,max_discount,minimum_amount,usage_limit,expires_at,is_active,description",
		"SAVE10,percentage,10,,,,,,Ten percent off",
		"FLAT50,flat,50,,200,100,2030-01-01T00:00:00Z,true,",
		"OLD5,FLAT,5,,,,,false,retired",
	})

	coupons, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	require.Len(t, coupons, 3)

	assert.Equal(t, "SAVE10", coupons[0].Code)
	assert.Equal(t, model.DiscountPercentage, coupons[0].DiscountType)
	assert.True(t, dec("10").Equal(coupons[0].Value))
	assert.False(t, coupons[0].MaxDiscount.Valid)
	assert.True(t, coupons[0].IsActive)
	assert.Equal(t, "Ten percent off", coupons[0].Description)

	assert.Equal(t, 100, coupons[1].UsageLimit)
	assert.True(t, dec("200").Equal(coupons[1].MinimumAmount))
	require.NotNil(t, coupons[1].ExpiresAt)
	assert.Equal(t, 2030, coupons[1].ExpiresAt.Year())

	assert.Equal(t, model.DiscountFlat, coupons[2].DiscountType)
	assert.False(t, coupons[2].IsActive)
}

func TestFileLoader_Load_SkipsBlankAndCommentLines(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := createTestCatalogue(t, "sparse.csv.gz", []string{
		"# seasonal codes",
		"",
		"WINTER,percentage,15",
		",,",
		"SUMMER,flat,20",
	})

	coupons, err := loader.Load(context.Background(), filePath)

	require.NoError(t, err)
	require.Len(t, coupons, 2)
	assert.Equal(t, "WINTER", coupons[0].Code)
	assert.Equal(t, "SUMMER", coupons[1].Code)
}

func TestFileLoader_Load_InvalidRecords(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		contains string
	}{
		{"unknown type", "BAD,bogus,10", "invalid discount type"},
		{"negative value", "BAD,flat,-1", "invalid value"},
		{"malformed code", "BAD CODE,flat,1", "invalid code"},
		{"bad expiry", "BAD,flat,1,,,,tomorrow", "invalid expires_at"},
		{"too few fields", "BAD,flat", "expected 3"},
	}

	loader := NewFileLoader(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := createTestCatalogue(t, "bad.csv.gz", []string{"GOOD,flat,1", tt.line})

			_, err := loader.Load(context.Background(), filePath)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, 2, parseErr.Line)
		})
	}
}

func TestFileLoader_Load_FileNotFound(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	coupons, err := loader.Load(context.Background(), "/nonexistent/coupons.csv.gz")

	assert.Error(t, err)
	assert.Nil(t, coupons)
	assert.Contains(t, err.Error(), "failed to open coupon catalogue")
}

func TestFileLoader_Load_NotGzipped(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())

	filePath := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, os.WriteFile(filePath, []byte("SAVE10,percentage,10\n"), 0o600))

	_, err := loader.Load(context.Background(), filePath)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create gzip reader")
}

func TestFileLoader_Load_ContextCancelled(t *testing.T) {
	loader := NewFileLoader(zerolog.Nop())
	filePath := createTestCatalogue(t, "coupons.csv.gz", []string{"SAVE10,percentage,10"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, filePath)

	assert.ErrorIs(t, err, context.Canceled)
}
