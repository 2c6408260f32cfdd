package coupon

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Catalogue columns, in file order. Only code, discount_type and value are required.
var columns = []string{
	"code", "discount_type", "value", "max_discount", "minimum_amount",
	"usage_limit", "expires_at", "is_active", "description",
}

// ParseError points at the offending catalogue line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseCatalogue reads CSV coupon definitions. A leading header row is skipped.
func parseCatalogue(ctx context.Context, r io.Reader) ([]model.Coupon, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var coupons []model.Coupon
	for {
		if len(coupons)%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed catalogue: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if isBlank(record) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(record[0]), columns[0]) {
			continue
		}

		c, err := parseRecord(record)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		coupons = append(coupons, c)
	}

	return coupons, nil
}

func parseRecord(record []string) (model.Coupon, error) {
	if len(record) < 3 || len(record) > len(columns) {
		return model.Coupon{}, fmt.Errorf("expected 3 to %d fields, got %d", len(columns), len(record))
	}

	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	c := model.Coupon{
		ID:            uuid.New(),
		Code:          field(0),
		DiscountType:  model.DiscountType(strings.ToLower(field(1))),
		MinimumAmount: decimal.Zero,
		IsActive:      true,
		Description:   field(8),
	}

	if c.Code == "" {
		return c, errors.New("code is required")
	}
	if err := ValidateCode(c.Code); err != nil {
		return c, fmt.Errorf("invalid code %q", c.Code)
	}
	if !c.DiscountType.Valid() {
		return c, fmt.Errorf("invalid discount type %q", field(1))
	}

	value, err := decimal.NewFromString(field(2))
	if err != nil || value.IsNegative() {
		return c, fmt.Errorf("invalid value %q", field(2))
	}
	c.Value = value

	if s := field(3); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return c, fmt.Errorf("invalid max_discount %q", s)
		}
		c.MaxDiscount = decimal.NewNullDecimal(d)
	}

	if s := field(4); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil || d.IsNegative() {
			return c, fmt.Errorf("invalid minimum_amount %q", s)
		}
		c.MinimumAmount = d
	}

	if s := field(5); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return c, fmt.Errorf("invalid usage_limit %q", s)
		}
		c.UsageLimit = n
	}

	if s := field(6); s != "" {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return c, fmt.Errorf("invalid expires_at %q", s)
		}
		c.ExpiresAt = &ts
	}

	if s := field(7); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			return c, fmt.Errorf("invalid is_active %q", s)
		}
		c.IsActive = active
	}

	return c, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
