package observability

const (
	MUsecaseRequests     MetricKey = "usecase_requests_total"
	MUsecaseDuration     MetricKey = "usecase_duration_seconds"
	MHTTPRequests        MetricKey = "http_requests_total"
	MHTTPRequestDuration MetricKey = "http_request_duration_seconds"
	MOrdersPlaced        MetricKey = "orders_placed_total"
	MOrderStatusChanges  MetricKey = "order_status_changes_total"
	MRatingsSubmitted    MetricKey = "ratings_submitted_total"
	MRatingsRemoved      MetricKey = "ratings_removed_total"
	MStockReleases       MetricKey = "stock_compensation_releases_total"
)
