package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists appointments in the appointments table.
type PostgresStore struct {
	db     pgQuerier
	tracer trace.Tracer
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return newPostgresStoreWithQuerier(pool)
}

func newPostgresStoreWithQuerier(db pgQuerier) *PostgresStore {
	if db == nil {
		panic("booking: querier required")
	}
	return &PostgresStore{db: db, tracer: otel.Tracer("voicebooking.internal.booking.postgres")}
}

const appointmentColumns = `id, call_id, customer_name, service, scheduled_for, status, notes, created_at`

func (s *PostgresStore) Save(ctx context.Context, appt Appointment) error {
	ctx, span := s.tracer.Start(ctx, "booking.save_appointment")
	defer span.End()

	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query,
		appt.ID, appt.CallID, appt.CustomerName, appt.Service.String(),
		appt.Time, appt.Status, appt.Notes, appt.CreatedAt,
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("booking: insert appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentExists
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.get_appointment")
	defer span.End()

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Appointment{}, ErrAppointmentNotFound
		}
		span.RecordError(err)
		return Appointment{}, fmt.Errorf("booking: load appointment: %w", err)
	}
	return appt, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Appointment, error) {
	ctx, span := s.tracer.Start(ctx, "booking.list_appointments")
	defer span.End()

	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY scheduled_for ASC, created_at ASC`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking: list appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("booking: scan appointment: %w", err)
		}
		out = append(out, appt)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("booking: iterate appointments: %w", err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (Appointment, error) {
	var (
		appt    Appointment
		service string
	)
	if err := row.Scan(&appt.ID, &appt.CallID, &appt.CustomerName, &service, &appt.Time, &appt.Status, &appt.Notes, &appt.CreatedAt); err != nil {
		return Appointment{}, err
	}
	appt.Service, _ = conversation.ParseServiceKind(service)
	return appt, nil
}

var _ Store = (*PostgresStore)(nil)
