package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/testdb"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsRepository_Reports(t *testing.T) {
	pool := testdb.New(t)
	f := seedOrderFixture(t, pool)
	second := testdb.SeedUser(t, pool, "second@example.com")
	secondAddress := testdb.SeedAddress(t, pool, second)

	ctx := context.Background()
	orders := NewOrderRepository(pool, zerolog.Nop())
	payments := NewPaymentRepository(pool, zerolog.Nop())
	repo := NewAnalyticsRepository(pool, zerolog.Nop())

	place := func(userID, addressID uuid.UUID, total string, items []model.OrderItem, provider model.Provider) {
		order := newOrder(f)
		order.UserID, order.ShippingAddressID = userID, addressID
		order.Total = decimal.RequireFromString(total)
		tx, err := orders.BeginTx(ctx)
		require.NoError(t, err)
		require.NoError(t, orders.CreateOrder(ctx, tx, order))
		for i := range items {
			items[i].ID, items[i].OrderID, items[i].Position = uuid.New(), order.ID, i
		}
		require.NoError(t, orders.CreateOrderItems(ctx, tx, items))
		require.NoError(t, payments.Upsert(ctx, tx, &model.Payment{OrderID: order.ID, Provider: provider,
			Amount: order.Total, Currency: "INR", Status: model.PaymentPending, TransactionID: order.ID.String()}))
		require.NoError(t, tx.Commit(ctx))
	}

	place(f.userID, f.addressID, "100", []model.OrderItem{
		{ProductID: "P001", ProductTitle: "Wireless Headphones", Quantity: 1, UnitPrice: decimal.NewFromInt(100)},
	}, model.ProviderCOD)
	place(f.userID, f.addressID, "50", []model.OrderItem{
		{ProductID: "P002", ProductTitle: "Bluetooth Speaker", Quantity: 5, UnitPrice: decimal.NewFromInt(10)},
	}, model.ProviderStripe)
	place(second, secondAddress, "30", []model.OrderItem{
		{ProductID: "P002", ProductTitle: "Bluetooth Speaker", Quantity: 3, UnitPrice: decimal.NewFromInt(10)},
	}, model.ProviderCOD)

	now := time.Now()
	since := now.Add(-24 * time.Hour)

	t.Run("SalesTotals", func(t *testing.T) {
		total, count, err := repo.SalesTotals(ctx, since, now.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(180).Equal(total))
		assert.Equal(t, 3, count)

		total, count, err = repo.SalesTotals(ctx, since.Add(-48*time.Hour), since)
		require.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.Zero(t, count)
	})

	t.Run("DailySales", func(t *testing.T) {
		days, err := repo.DailySales(ctx, since)
		require.NoError(t, err)
		require.NotEmpty(t, days)
		var orders int
		for _, d := range days {
			orders += d.Orders
		}
		assert.Equal(t, 3, orders)
	})

	t.Run("CategorySales", func(t *testing.T) {
		sales, err := repo.CategorySales(ctx, since, 10)
		require.NoError(t, err)
		require.Len(t, sales, 1)
		assert.Equal(t, "Audio", sales[0].Category)
		assert.True(t, decimal.NewFromInt(180).Equal(sales[0].Sales))
		assert.Equal(t, 9, sales[0].Quantity)
	})

	t.Run("TopProducts by quantity", func(t *testing.T) {
		top, err := repo.TopProducts(ctx, since, 10)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, "P002", top[0].ProductID)
		assert.Equal(t, 8, top[0].Quantity)
		assert.Equal(t, 2, top[0].Orders)
		assert.True(t, decimal.NewFromInt(80).Equal(top[0].Revenue))
	})

	t.Run("PaymentMethods", func(t *testing.T) {
		stats, err := repo.PaymentMethods(ctx, since)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "cod", stats[0].Provider)
		assert.Equal(t, 2, stats[0].Count)
		assert.True(t, decimal.NewFromInt(130).Equal(stats[0].Total))
	})

	t.Run("CustomerMetrics", func(t *testing.T) {
		m, err := repo.CustomerMetrics(ctx, since)
		require.NoError(t, err)
		assert.Equal(t, 2, m.NewCustomers)
		assert.Equal(t, 1, m.RepeatCustomers)
		assert.Equal(t, 2, m.TotalCustomers)
		assert.True(t, decimal.RequireFromString("1.5").Equal(m.AvgOrdersPerCustomer))
	})

	t.Run("RecentOrders", func(t *testing.T) {
		recent, err := repo.RecentOrders(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "second@example.com", recent[0].Email)
		assert.Equal(t, 1, recent[0].ItemCount)
		assert.Equal(t, "Test Customer", recent[0].Customer)
	})
}
