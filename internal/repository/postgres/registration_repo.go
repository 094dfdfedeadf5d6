package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"campusticketing/internal/domain"
)

const registrationPrimaryKey = "registrations_pkey"

type registrationRepository struct {
	DB          *sql.DB
	lockTimeout time.Duration
}

// NewRegistrationRepository returns the Postgres registration ledger. lockTimeout
// bounds the wait for an event's row lock; zero leaves the server default.
func NewRegistrationRepository(db *sql.DB, lockTimeout time.Duration) domain.RegistrationRepository {
	return &registrationRepository{
		DB:          db,
		lockTimeout: lockTimeout,
	}
}

const registrationColumns = `token, event_id, student_id, status, created_at, attended_at`

func scanRegistration(row rowScanner) (*domain.Registration, error) {
	reg := &domain.Registration{}
	var attendedAt sql.NullTime
	if err := row.Scan(&reg.Token, &reg.EventID, &reg.StudentID, &reg.Status, &reg.CreatedAt, &attendedAt); err != nil {
		return nil, err
	}
	if attendedAt.Valid {
		reg.AttendedAt = &attendedAt.Time
	}
	return reg, nil
}

// WithLockedEvent serializes registrations per event with SELECT ... FOR UPDATE on the
// event row. Attempts for different events lock different rows and never contend.
func (r *registrationRepository) WithLockedEvent(ctx context.Context, eventID string, fn func(ctx context.Context, locked domain.LockedEvent) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", translateError(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if r.lockTimeout > 0 {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set lock timeout: %w", translateError(err))
		}
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 FOR UPDATE`
	event, err := scanEvent(tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		return fmt.Errorf("lock event row: %w", translateError(err))
	}

	if err = fn(ctx, &lockedEvent{tx: tx, event: event}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", translateError(err))
	}
	return nil
}

func (r *registrationRepository) GetByToken(ctx context.Context, token string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE token = $1`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND student_id = $2`
	reg, err := scanRegistration(r.DB.QueryRowContext(ctx, query, eventID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *registrationRepository) CountLive(ctx context.Context, eventID string) (int, error) {
	return countLive(ctx, r.DB, eventID)
}

func (r *registrationRepository) MarkAttended(ctx context.Context, token, eventID string, at time.Time) error {
	query := `
		UPDATE registrations
		SET status = 'attended', attended_at = $3
		WHERE token = $1 AND event_id = $2 AND status = 'registered'
	`
	result, err := r.DB.ExecContext(ctx, query, token, eventID, at)
	if err != nil {
		return translateError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 1 {
		return nil
	}
	// Lost the race or the row changed underneath; report why.
	current, err := r.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if current.EventID != eventID {
		return domain.ErrWrongEvent
	}
	return domain.ErrAlreadyAttended
}

func (r *registrationRepository) DeleteRegistered(ctx context.Context, token, studentID string) error {
	query := `DELETE FROM registrations WHERE token = $1 AND student_id = $2 AND status = 'registered'`
	result, err := r.DB.ExecContext(ctx, query, token, studentID)
	if err != nil {
		return translateError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 1 {
		return nil
	}
	current, err := r.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if current.StudentID != studentID {
		return domain.ErrNotRegistrationOwner
	}
	return domain.ErrAlreadyAttended
}

func (r *registrationRepository) ListByStudentSince(ctx context.Context, studentID string, since time.Time) ([]*domain.RegistrationWithEvent, error) {
	query := `
		SELECT r.token, r.event_id, r.student_id, r.status, r.created_at, r.attended_at,
		       e.id, e.title, e.description, e.location, e.starts_at, e.capacity, e.owner_id, e.created_at, e.updated_at
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.student_id = $1 AND e.starts_at >= $2
		ORDER BY e.starts_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, studentID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*domain.RegistrationWithEvent, 0)
	for rows.Next() {
		reg := &domain.Registration{}
		e := &domain.Event{}
		var attendedAt sql.NullTime
		var capacity sql.NullInt64
		if err := rows.Scan(
			&reg.Token, &reg.EventID, &reg.StudentID, &reg.Status, &reg.CreatedAt, &attendedAt,
			&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &capacity, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if attendedAt.Valid {
			reg.AttendedAt = &attendedAt.Time
		}
		if capacity.Valid {
			c := int(capacity.Int64)
			e.Capacity = &c
		}
		items = append(items, &domain.RegistrationWithEvent{Registration: reg, Event: e})
	}
	return items, rows.Err()
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID string) ([]*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]*domain.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countLive(ctx context.Context, q queryer, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status IN ('registered', 'attended')`
	var n int
	if err := q.QueryRowContext(ctx, query, eventID).Scan(&n); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// lockedEvent runs ledger statements inside the transaction holding the event row lock.
type lockedEvent struct {
	tx    *sql.Tx
	event *domain.Event
}

func (l *lockedEvent) Event() *domain.Event {
	return l.event
}

func (l *lockedEvent) CountLive(ctx context.Context) (int, error) {
	return countLive(ctx, l.tx, l.event.ID)
}

func (l *lockedEvent) GetByStudent(ctx context.Context, studentID string) (*domain.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 AND student_id = $2`
	reg, err := scanRegistration(l.tx.QueryRowContext(ctx, query, l.event.ID, studentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, translateError(err)
	}
	return reg, nil
}

func (l *lockedEvent) Insert(ctx context.Context, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (token, event_id, student_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := l.tx.ExecContext(ctx, query, reg.Token, reg.EventID, reg.StudentID, reg.Status, reg.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
			if pqErr.Constraint == registrationPrimaryKey {
				return fmt.Errorf("%w: registration token collision", domain.ErrTransient)
			}
			return domain.ErrAlreadyRegistered
		}
		return translateError(err)
	}
	return nil
}
