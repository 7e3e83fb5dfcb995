package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"club-directory/pkg/resources"
)

const eventColumns = `e.id, e.organization_id, e.title, e.description, e.date::text, e.time, e.location,
	e.category, e.link_url, e.link_text, e.status, COALESCE(o.name, 'Unknown Organization'), o.image, e.created_at`

const eventJoin = ` LEFT JOIN organizations o ON o.id = e.organization_id`

type Repository interface {
	ListPublishedEvents(ctx context.Context) ([]Event, error)
	ListEventsByOrganization(ctx context.Context, organizationId string) ([]Event, error)
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	CreateEvents(ctx context.Context, events []Event) ([]Event, error)
	UpdateEvent(ctx context.Context, organizationId string, id string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, organizationId string, id string) error
	DeleteEvents(ctx context.Context, organizationId string, ids []string) error
	SetStatus(ctx context.Context, organizationId string, ids []string, status Status) ([]Event, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)
}

type repository struct {
	tracer  trace.Tracer
	metrics *DBMetrics
	pool    resources.DBInstance
}

func NewRepository(pool resources.DBInstance) Repository {
	return &repository{
		tracer:  otel.GetTracerProvider().Tracer("club-directory/core"),
		metrics: NewDBMetrics(),
		pool:    pool,
	}
}

type postgresBackend struct {
	Repository
	Authenticator
}

// NewBackend assembles the configured backend from its row store and its
// authenticator.
func NewBackend(repository Repository, authenticator Authenticator) Backend {
	return &postgresBackend{Repository: repository, Authenticator: authenticator}
}

func (b *postgresBackend) Configured() bool {
	return true
}

func (r *repository) ListPublishedEvents(ctx context.Context) (events []Event, err error) {
	defer r.metrics.Track(ctx, "list_published_events", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.ListPublishedEvents")
	defer span.End()

	events, err = r.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events e"+eventJoin+
			" WHERE e.status = $1 ORDER BY e.date ASC",
		string(StatusPublished))
	if err != nil {
		return nil, NewBackendError("list_published_events", err)
	}

	return events, nil
}

func (r *repository) ListEventsByOrganization(ctx context.Context, organizationId string) (events []Event, err error) {
	defer r.metrics.Track(ctx, "list_events_by_organization", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.ListEventsByOrganization")
	defer span.End()

	events, err = r.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events e"+eventJoin+
			" WHERE e.organization_id = $1 ORDER BY e.date ASC",
		organizationId)
	if err != nil {
		return nil, NewBackendError("list_events_by_organization", err)
	}

	return events, nil
}

func (r *repository) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	created, err := r.CreateEvents(ctx, []Event{*event})
	if err != nil {
		return nil, err
	}

	return &created[0], nil
}

// CreateEvents inserts every event in one transaction; nothing is kept if any
// insert fails.
func (r *repository) CreateEvents(ctx context.Context, events []Event) (created []Event, err error) {
	defer r.metrics.Track(ctx, "create_events", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.CreateEvents")
	defer span.End()

	span.SetAttributes(attribute.Int("events.count", len(events)))

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, NewBackendError("create_events", fmt.Errorf("failed to begin transaction: %w", err))
	}

	created = make([]Event, 0, len(events))

	for _, event := range events {
		date, perr := ParseDate(event.Date)
		if perr != nil {
			_ = tx.Rollback(ctx)
			err = NewValidationError("date", perr.Error())

			return nil, err
		}

		status := event.Status
		if status == "" {
			status = StatusDraft
		}

		row := tx.QueryRow(ctx,
			"WITH e AS (INSERT INTO events "+
				"(organization_id, title, description, date, time, location, category, link_url, link_text, status) "+
				"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING *) "+
				"SELECT "+eventColumns+" FROM e"+eventJoin,
			event.OrganizationId, event.Title, event.Description, date, event.Time,
			nullable(event.Location), event.Category, nullable(event.LinkURL), nullable(event.LinkText), string(status))

		saved, serr := scanEvent(row)
		if serr != nil {
			_ = tx.Rollback(ctx)
			err = NewBackendError("create_events", fmt.Errorf("failed to insert event: %w", serr))

			return nil, err
		}

		created = append(created, *saved)
	}

	err = tx.Commit(ctx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, NewBackendError("create_events", fmt.Errorf("failed to commit transaction: %w", err))
	}

	return created, nil
}

func (r *repository) UpdateEvent(ctx context.Context, organizationId string, id string, patch EventPatch) (event *Event, err error) {
	defer r.metrics.Track(ctx, "update_event", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.UpdateEvent")
	defer span.End()

	var date *time.Time

	if patch.Date != nil {
		d, perr := ParseDate(*patch.Date)
		if perr != nil {
			err = NewValidationError("date", perr.Error())
			return nil, err
		}

		date = &d
	}

	var status *string

	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	row := r.pool.QueryRow(ctx,
		"WITH e AS (UPDATE events SET "+
			"title = COALESCE($3, title), "+
			"description = COALESCE($4, description), "+
			"date = COALESCE($5, date), "+
			"time = COALESCE($6, time), "+
			"location = CASE WHEN $7::text IS NULL THEN location ELSE NULLIF($7, '') END, "+
			"category = COALESCE($8, category), "+
			"link_url = CASE WHEN $9::text IS NULL THEN link_url ELSE NULLIF($9, '') END, "+
			"link_text = CASE WHEN $10::text IS NULL THEN link_text ELSE NULLIF($10, '') END, "+
			"status = COALESCE($11, status) "+
			"WHERE organization_id = $1 AND id = $2 RETURNING *) "+
			"SELECT "+eventColumns+" FROM e"+eventJoin,
		organizationId, id, patch.Title, patch.Description, date, patch.Time,
		patch.Location, patch.Category, patch.LinkURL, patch.LinkText, status)

	event, err = scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEventNotFound
		}

		return nil, NewBackendError("update_event", fmt.Errorf("failed to update event: %w", err))
	}

	return event, nil
}

func (r *repository) DeleteEvent(ctx context.Context, organizationId string, id string) (err error) {
	defer r.metrics.Track(ctx, "delete_event", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.DeleteEvent")
	defer span.End()

	tag, err := r.pool.Exec(ctx, "DELETE FROM events WHERE organization_id = $1 AND id = $2", organizationId, id)
	if err != nil {
		return NewBackendError("delete_event", fmt.Errorf("failed to delete event: %w", err))
	}

	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}

	return nil
}

// DeleteEvents removes all ids or none of them.
func (r *repository) DeleteEvents(ctx context.Context, organizationId string, ids []string) (err error) {
	defer r.metrics.Track(ctx, "delete_events", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.DeleteEvents")
	defer span.End()

	ids = unique(ids)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return NewBackendError("delete_events", fmt.Errorf("failed to begin transaction: %w", err))
	}

	tag, err := tx.Exec(ctx, "DELETE FROM events WHERE organization_id = $1 AND id = ANY($2)", organizationId, ids)
	if err != nil {
		_ = tx.Rollback(ctx)
		return NewBackendError("delete_events", fmt.Errorf("failed to delete events: %w", err))
	}

	if tag.RowsAffected() != int64(len(ids)) {
		_ = tx.Rollback(ctx)
		err = ErrEventNotFound

		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return NewBackendError("delete_events", fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// SetStatus publishes or unpublishes all ids or none of them.
func (r *repository) SetStatus(ctx context.Context, organizationId string, ids []string, status Status) (events []Event, err error) {
	defer r.metrics.Track(ctx, "set_status", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.SetStatus")
	defer span.End()

	ids = unique(ids)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, NewBackendError("set_status", fmt.Errorf("failed to begin transaction: %w", err))
	}

	rows, err := tx.Query(ctx,
		"WITH e AS (UPDATE events SET status = $1 WHERE organization_id = $2 AND id = ANY($3) RETURNING *) "+
			"SELECT "+eventColumns+" FROM e"+eventJoin+" ORDER BY e.date ASC",
		string(status), organizationId, ids)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, NewBackendError("set_status", fmt.Errorf("failed to update status: %w", err))
	}

	events, err = collectEvents(rows)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, NewBackendError("set_status", err)
	}

	if len(events) != len(ids) {
		_ = tx.Rollback(ctx)
		err = ErrEventNotFound

		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, NewBackendError("set_status", fmt.Errorf("failed to commit transaction: %w", err))
	}

	return events, nil
}

func (r *repository) ListOrganizations(ctx context.Context) (organizations []Organization, err error) {
	defer r.metrics.Track(ctx, "list_organizations", time.Now(), &err)

	ctx, span := r.tracer.Start(ctx, "repository.ListOrganizations")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, description, website, email, image
		 FROM organizations
		 ORDER BY name ASC`)
	if err != nil {
		return nil, NewBackendError("list_organizations", err)
	}
	defer rows.Close()

	organizations = make([]Organization, 0)

	for rows.Next() {
		org, serr := scanOrganization(rows)
		if serr != nil {
			err = NewBackendError("list_organizations", serr)
			return nil, err
		}

		organizations = append(organizations, *org)
	}

	err = rows.Err()
	if err != nil {
		return nil, NewBackendError("list_organizations", err)
	}

	return organizations, nil
}

func (r *repository) queryEvents(ctx context.Context, sql string, args ...any) ([]Event, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	return collectEvents(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func collectEvents(rows pgx.Rows) ([]Event, error) {
	defer rows.Close()

	events := make([]Event, 0)

	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		events = append(events, *event)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}

func scanEvent(row scanner) (*Event, error) {
	var (
		e      Event
		status string
	)

	err := row.Scan(
		&e.Id,
		&e.OrganizationId,
		&e.Title,
		&e.Description,
		&e.Date,
		&e.Time,
		&e.Location,
		&e.Category,
		&e.LinkURL,
		&e.LinkText,
		&status,
		&e.Club,
		&e.OrganizationImage,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = Status(status)

	return &e, nil
}

func scanOrganization(row scanner) (*Organization, error) {
	var (
		o        Organization
		category []string
	)

	err := row.Scan(&o.Id, &o.Name, &category, &o.Description, &o.Website, &o.Email, &o.Image)
	if err != nil {
		return nil, err
	}

	o.Category = normalizeCategories(category)

	return &o, nil
}

// nullable maps an empty optional string to SQL NULL.
func nullable(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}

	return s
}

func unique(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}

	return out
}

/*
 Metrics
*/

type DBMetrics struct {
	qTotal   metric.Int64Counter
	qErrors  metric.Int64Counter
	qLatency metric.Float64Histogram
}

func NewDBMetrics() *DBMetrics {
	meter := otel.Meter("club-directory/db")

	qTotal, _ := meter.Int64Counter("db.query.total")
	qErrors, _ := meter.Int64Counter("db.query.errors.total")
	qLatency, _ := meter.Float64Histogram("db.query.duration.ms")

	return &DBMetrics{qTotal: qTotal, qErrors: qErrors, qLatency: qLatency}
}

// Track is meant to be deferred; it reads the operation's error at return.
func (m *DBMetrics) Track(ctx context.Context, op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}

	m.Observe(ctx, op, start, err)
}

func (m *DBMetrics) Observe(ctx context.Context, op string, start time.Time, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgres"),
		attribute.String("db.operation", op),
	}

	m.qTotal.Add(ctx, 1, metric.WithAttributes(attrs...))

	ms := float64(time.Since(start).Milliseconds())
	m.qLatency.Record(ctx, ms, metric.WithAttributes(attrs...))

	if err != nil {
		m.qErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
