package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"aadinath/api/database"
	"aadinath/api/models"
)

const (
	pageViewColumns = "event_id, session_id, current_page, previous_page, timestamp, city, region, country, " +
		"latitude, longitude, device_type, source, source_type, referrer, user_agent"
	scanColumns = "event_id, session_id, source, batch_id, product, timestamp, city, region, country, " +
		"latitude, longitude, device_type, referrer, user_agent, form_opened, whatsapp_clicked"
	engagementColumns = "event_id, session_id, action, page, timestamp, data"
)

// AnalyticsStore is the ClickHouse-backed EventStore.
type AnalyticsStore struct {
	conn clickhouse.Conn
	log  *zap.SugaredLogger
}

func NewAnalyticsStore(ch *database.ClickHouseClient, log *zap.SugaredLogger) *AnalyticsStore {
	return &AnalyticsStore{conn: ch.Conn, log: log}
}

func (s *AnalyticsStore) AppendPageViews(ctx context.Context, events []models.PageViewEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO page_views ("+pageViewColumns+")")
	if err != nil {
		return fmt.Errorf("failed to prepare page view batch: %w", err)
	}

	for _, e := range events {
		err := batch.Append(
			e.EventID, e.SessionID, e.CurrentPage, e.PreviousPage, e.Timestamp,
			e.Location.City, e.Location.Region, e.Location.Country,
			e.Location.Latitude, e.Location.Longitude,
			string(e.DeviceType), e.Source, string(e.SourceType), e.Referrer, e.UserAgent,
		)
		if err != nil {
			s.log.Errorf("Error appending page view to batch (EventID: %s): %v", e.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send page view batch: %w", err)
	}
	return nil
}

func (s *AnalyticsStore) AppendScans(ctx context.Context, events []models.ScanEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO scan_events ("+scanColumns+")")
	if err != nil {
		return fmt.Errorf("failed to prepare scan batch: %w", err)
	}

	for _, e := range events {
		err := batch.Append(
			e.EventID, e.SessionID, e.Source, e.BatchID, e.Product, e.Timestamp,
			e.Location.City, e.Location.Region, e.Location.Country,
			e.Location.Latitude, e.Location.Longitude,
			string(e.DeviceType), e.Referrer, e.UserAgent, e.FormOpened, e.WhatsAppClicked,
		)
		if err != nil {
			s.log.Errorf("Error appending scan to batch (EventID: %s): %v", e.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send scan batch: %w", err)
	}
	return nil
}

func (s *AnalyticsStore) AppendEngagements(ctx context.Context, events []models.EngagementEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO engagement_events ("+engagementColumns+")")
	if err != nil {
		return fmt.Errorf("failed to prepare engagement batch: %w", err)
	}

	for _, e := range events {
		if err := batch.Append(e.EventID, e.SessionID, string(e.Action), e.Page, e.Timestamp, string(e.Data)); err != nil {
			s.log.Errorf("Error appending engagement to batch (EventID: %s): %v", e.EventID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send engagement batch: %w", err)
	}
	return nil
}

func (s *AnalyticsStore) ListPageViews(ctx context.Context, f Filter) ([]models.PageViewEvent, error) {
	q, args := selectQuery("page_views", pageViewColumns, f, eventPredicates(f))
	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query page views: %w", err)
	}
	defer rows.Close()

	var results []models.PageViewEvent
	for rows.Next() {
		var (
			e                  models.PageViewEvent
			device, sourceType string
		)
		if err := rows.Scan(
			&e.EventID, &e.SessionID, &e.CurrentPage, &e.PreviousPage, &e.Timestamp,
			&e.Location.City, &e.Location.Region, &e.Location.Country,
			&e.Location.Latitude, &e.Location.Longitude,
			&device, &e.Source, &sourceType, &e.Referrer, &e.UserAgent,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page view row: %w", err)
		}
		e.DeviceType = models.DeviceType(device)
		e.SourceType = models.SourceType(sourceType)
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page view rows: %w", err)
	}
	return results, nil
}

func (s *AnalyticsStore) ListScans(ctx context.Context, f Filter) ([]models.ScanEvent, error) {
	preds := eventPredicates(f)
	if f.City != "" {
		preds = append(preds, predicate{"lower(city) = lower(?)", f.City})
	}
	q, args := selectQuery("scan_events", scanColumns, f, preds)
	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	var results []models.ScanEvent
	for rows.Next() {
		var (
			e      models.ScanEvent
			device string
		)
		if err := rows.Scan(
			&e.EventID, &e.SessionID, &e.Source, &e.BatchID, &e.Product, &e.Timestamp,
			&e.Location.City, &e.Location.Region, &e.Location.Country,
			&e.Location.Latitude, &e.Location.Longitude,
			&device, &e.Referrer, &e.UserAgent, &e.FormOpened, &e.WhatsAppClicked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		e.DeviceType = models.DeviceType(device)
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan rows: %w", err)
	}
	return results, nil
}

func (s *AnalyticsStore) ListEngagements(ctx context.Context, f Filter) ([]models.EngagementEvent, error) {
	preds := eventPredicates(f)
	if f.Action != "" {
		preds = append(preds, predicate{"action = ?", string(f.Action)})
	}
	q, args := selectQuery("engagement_events", engagementColumns, f, preds)
	rows, err := s.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query engagements: %w", err)
	}
	defer rows.Close()

	var results []models.EngagementEvent
	for rows.Next() {
		var (
			e            models.EngagementEvent
			action, data string
		)
		if err := rows.Scan(&e.EventID, &e.SessionID, &action, &e.Page, &e.Timestamp, &data); err != nil {
			return nil, fmt.Errorf("failed to scan engagement row: %w", err)
		}
		e.Action = models.EngagementAction(action)
		if data != "" && json.Valid([]byte(data)) {
			e.Data = json.RawMessage(data)
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating engagement rows: %w", err)
	}
	return results, nil
}

func (s *AnalyticsStore) CountPageViews(ctx context.Context, f Filter) (int, error) {
	return s.count(ctx, "page_views", eventPredicates(f))
}

func (s *AnalyticsStore) CountScans(ctx context.Context, f Filter) (int, error) {
	preds := eventPredicates(f)
	if f.City != "" {
		preds = append(preds, predicate{"lower(city) = lower(?)", f.City})
	}
	return s.count(ctx, "scan_events", preds)
}

func (s *AnalyticsStore) count(ctx context.Context, table string, preds []predicate) (int, error) {
	where, args := whereClause(preds)
	var n uint64
	if err := s.conn.QueryRow(ctx, "SELECT count() FROM "+table+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return int(n), nil
}

// predicate is one "column op ?" condition and its argument.
type predicate struct {
	cond string
	arg  any
}

func eventPredicates(f Filter) []predicate {
	var preds []predicate
	if f.Start != nil {
		preds = append(preds, predicate{"timestamp >= ?", f.Start.UTC()})
	}
	if f.End != nil {
		preds = append(preds, predicate{"timestamp <= ?", f.End.UTC()})
	}
	if f.SessionID != "" {
		preds = append(preds, predicate{"session_id = ?", f.SessionID})
	}
	return preds
}

func whereClause(preds []predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	conds := make([]string, len(preds))
	args := make([]any, len(preds))
	for i, p := range preds {
		conds[i] = p.cond
		args[i] = p.arg
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// selectQuery builds the list query for one event table. event_id breaks
// timestamp ties so results are deterministic.
func selectQuery(table, columns string, f Filter, preds []predicate) (string, []any) {
	where, args := whereClause(preds)

	dir := "ASC"
	if f.descending() {
		dir = "DESC"
	}

	q := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY timestamp %s, event_id %s", columns, table, where, dir, dir)
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, uint64(f.Limit))
	}
	return q, args
}
