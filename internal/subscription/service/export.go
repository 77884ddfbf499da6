package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	subscriptiondomain "github.com/subforge/renewals/internal/subscription/domain"
	"github.com/subforge/renewals/pkg/db/option"
	"github.com/subforge/renewals/pkg/db/pagination"
)

const exportPageSize = 500

var exportHeader = []string{
	"id",
	"customer_id",
	"customer_email",
	"product_id",
	"price_id",
	"parent_order_id",
	"period",
	"frequency",
	"currency",
	"initial_amount",
	"initial_tax",
	"initial_tax_rate",
	"recurring_amount",
	"recurring_tax",
	"recurring_tax_rate",
	"signup_fee",
	"bill_times",
	"gateway",
	"profile_id",
	"transaction_id",
	"trial_period",
	"status",
	"expiration",
	"created_at",
}

// ExportCSV streams the filtered subscriptions as CSV. The same filters as
// List apply; pagination happens internally so arbitrarily large result sets
// never load into memory at once.
func (s *Service) ExportCSV(ctx context.Context, req subscriptiondomain.ListSubscriptionRequest, w io.Writer) error {
	filter, baseOptions, err := s.buildListQuery(req)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}

	pageToken := ""
	for {
		options := append([]option.QueryOption{}, baseOptions...)
		options = append(options,
			option.ApplyPagination(pagination.Pagination{
				PageToken: pageToken,
				PageSize:  exportPageSize,
			}),
			option.WithSortBy("created_at", "desc", map[string]bool{"created_at": true}),
		)

		items, err := s.store.Find(ctx, filter, options...)
		if err != nil {
			return err
		}

		hasMore := len(items) > exportPageSize
		if hasMore {
			items = items[:exportPageSize]
		}

		for _, item := range items {
			if err := writer.Write(exportRow(item)); err != nil {
				return err
			}
		}

		if !hasMore || len(items) == 0 {
			break
		}

		last := items[len(items)-1]
		pageToken, err = pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportRow(item *subscriptiondomain.Subscription) []string {
	priceID := ""
	if item.PriceID != nil {
		priceID = item.PriceID.String()
	}
	trial := ""
	if item.TrialUnit != nil && item.TrialQuantity != nil {
		trial = strconv.Itoa(*item.TrialQuantity) + " " + string(*item.TrialUnit)
	}
	return []string{
		item.ID.String(),
		item.CustomerID.String(),
		item.CustomerEmail,
		item.ProductID.String(),
		priceID,
		item.ParentOrderID.String(),
		string(item.Period),
		strconv.Itoa(item.Frequency),
		item.Currency,
		strconv.FormatInt(item.InitialAmount, 10),
		strconv.FormatInt(item.InitialTax, 10),
		strconv.FormatFloat(item.InitialTaxRate, 'f', -1, 64),
		strconv.FormatInt(item.RecurringAmount, 10),
		strconv.FormatInt(item.RecurringTax, 10),
		strconv.FormatFloat(item.RecurringTaxRate, 'f', -1, 64),
		strconv.FormatInt(item.SignupFee, 10),
		strconv.Itoa(item.BillTimes),
		item.Gateway,
		item.ProfileID,
		item.TransactionID,
		trial,
		item.Status.Label(),
		item.Expiration.UTC().Format(time.RFC3339),
		item.CreatedAt.UTC().Format(time.RFC3339),
	}
}
