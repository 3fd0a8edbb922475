package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/mgiraldodev/templaria-backend/internal/analytics/types"
	"github.com/mgiraldodev/templaria-backend/pkg/bigquery"
	pkgerrors "github.com/mgiraldodev/templaria-backend/pkg/errors"
)

const (
	ordersSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNT(DISTINCT order_id) AS value
FROM %s
WHERE event_type = 'order.created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	revenueSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(gross_revenue_cents, 0)) AS value
FROM %s
WHERE event_type = 'order.paid'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	discountsSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(discount_cents, 0)) AS value
FROM %s
WHERE event_type = 'order.created'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	aovSQL = `
SELECT SAFE_DIVIDE(SUM(COALESCE(gross_revenue_cents, 0)), NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s
WHERE event_type = 'order.paid'
  AND occurred_at BETWEEN @start AND @end
`

	couponRedemptionsSQL = `
SELECT COUNT(*) AS value
FROM %s
WHERE event_type = 'coupon.applied'
  AND occurred_at BETWEEN @start AND @end
`

	topCouponsSQL = `
SELECT coupon_code AS label, SUM(COALESCE(discount_cents, 0)) AS value
FROM %s
WHERE event_type = 'coupon.applied'
  AND coupon_code IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY coupon_code
ORDER BY value DESC
LIMIT 5
`
)

// RevenueService provides the admin dashboard KPIs from BigQuery
// store_events.
type RevenueService interface {
	Query(ctx context.Context, req types.RevenueQueryRequest) (*types.RevenueSummary, error)
}

type revenueService struct {
	client   *bigquery.Client
	tableRef string
}

// NewRevenueService builds a service backed by BigQuery.
func NewRevenueService(client *bigquery.Client, project, dataset, table string) (RevenueService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &revenueService{
		client:   client,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *revenueService) Query(ctx context.Context, req types.RevenueQueryRequest) (*types.RevenueSummary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}

	orders, err := s.querySeries(ctx, fmt.Sprintf(ordersSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	grossRevenue, err := s.querySeries(ctx, fmt.Sprintf(revenueSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	discounts, err := s.querySeries(ctx, fmt.Sprintf(discountsSeriesSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	aov, err := s.queryAOV(ctx, fmt.Sprintf(aovSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	redemptions, err := s.queryCount(ctx, fmt.Sprintf(couponRedemptionsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	topCoupons, err := s.queryTopLabels(ctx, fmt.Sprintf(topCouponsSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	return &types.RevenueSummary{
		OrdersSeries:      orders,
		GrossRevenue:      grossRevenue,
		DiscountsSeries:   discounts,
		AOV:               aov,
		CouponRedemptions: redemptions,
		TopCoupons:        topCoupons,
	}, nil
}

func validateRequest(req types.RevenueQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *revenueService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *revenueService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *revenueService) queryCount(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query count: %w", err)
	}
	var row struct {
		Value int64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading count row: %w", err)
	}
	return row.Value, nil
}

func (s *revenueService) queryAOV(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query aov: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading aov row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}
