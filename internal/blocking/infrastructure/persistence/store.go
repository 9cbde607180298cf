// Package persistence is the database-backed Block API used in local mode.
// It plays the server's part: it expands recurring rules, skips conflicting
// dates and reports how many blocks it created.
package persistence

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/migrations"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed schema/sqlite/*.sql schema/postgres/*.sql
var schemaFS embed.FS

// ErrBlockOverlap is returned when a block would overlap another block of the
// same professional and date.
var ErrBlockOverlap = &domain.BlockError{Kind: domain.KindConflict, Message: domain.MsgOverlapsBlock}

// Store implements application.BlockAPI and application.BookingsProvider on
// top of a database connection.
type Store struct {
	conn   database.Connection
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a store. Call Migrate before first use.
func NewStore(conn database.Connection, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		conn:   conn,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates the schema for the connection's driver.
func (s *Store) Migrate(ctx context.Context) error {
	return migrations.Run(ctx, s.conn, schemaFS, "schema/"+s.conn.Driver().String())
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

func (s *Store) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, s.conn)
}

func (s *Store) q(query string) string {
	return database.Rebind(s.conn.Driver(), query)
}

// ListBlocks returns every block of a professional.
func (s *Store) ListBlocks(ctx context.Context, _ application.Session, professionalID string) ([]domain.ScheduleBlock, error) {
	return s.queryBlocks(ctx, s.selectBlocks()+` WHERE b.professional_id = ? ORDER BY b.block_date, b.start_minute`, professionalID)
}

// CreateBlock stores a single block. It rejects the block when it overlaps
// another block or an active booking.
func (s *Store) CreateBlock(ctx context.Context, session application.Session, rule domain.SingleRule) (*domain.ScheduleBlock, error) {
	interval, err := domain.ParseTimeInterval(rule.StartTime, rule.EndTime)
	if err != nil {
		return nil, domain.SubmissionError(domain.MsgInvalidTime)
	}
	block := rule.Block()
	block.ID = uuid.New().String()

	err = database.InTx(ctx, s.conn, func(txCtx context.Context) error {
		if err := s.checkFree(txCtx, block.ProfessionalID, block.Date, interval, ""); err != nil {
			return err
		}
		return s.insertBlock(txCtx, session, block, interval, "")
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "local block stored", "block_id", block.ID)
	return &block, nil
}

// CreateRecurring expands rule and stores one block per free date. Dates that
// overlap an existing block or an active booking are skipped.
func (s *Store) CreateRecurring(ctx context.Context, session application.Session, rule domain.RecurringRule) (*application.RecurringSummary, error) {
	interval, err := domain.ParseTimeInterval(rule.StartTime, rule.EndTime)
	if err != nil {
		return nil, domain.SubmissionError(domain.MsgInvalidTime)
	}
	if rule.Weekdays.IsEmpty() {
		return nil, domain.SubmissionError(domain.MsgWeekdaysRequired)
	}

	summary := &application.RecurringSummary{}
	seriesID := uuid.New().String()

	err = database.InTx(ctx, s.conn, func(txCtx context.Context) error {
		var free []time.Time
		for _, date := range rule.Dates() {
			err := s.checkFree(txCtx, rule.ProfessionalID, date, interval, "")
			if err == nil {
				free = append(free, date)
				continue
			}
			var conflict *domain.BlockError
			if !errors.As(err, &conflict) {
				return err
			}
			summary.Skipped++
		}
		if len(free) == 0 {
			return nil
		}

		if err := s.insertSeries(txCtx, session, seriesID, rule); err != nil {
			return err
		}
		for _, date := range free {
			block := domain.SingleRule{RuleCommon: rule.RuleCommon, Date: date}.Block()
			block.ID = uuid.New().String()
			if err := s.insertBlock(txCtx, session, block, interval, seriesID); err != nil {
				return err
			}
			summary.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "local series stored",
		"series_id", seriesID,
		"created", summary.Created,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

// UpdateBlock changes the times and reason of a block.
func (s *Store) UpdateBlock(ctx context.Context, _ application.Session, update domain.BlockUpdate) (*domain.ScheduleBlock, error) {
	interval, err := domain.ParseTimeInterval(update.StartTime, update.EndTime)
	if err != nil {
		return nil, domain.SubmissionError(domain.MsgInvalidTime)
	}

	var updated *domain.ScheduleBlock
	err = database.InTx(ctx, s.conn, func(txCtx context.Context) error {
		current, err := s.findBlock(txCtx, update.BlockID)
		if err != nil {
			return err
		}
		if err := s.checkFree(txCtx, current.ProfessionalID, current.Date, interval, current.ID); err != nil {
			return err
		}

		_, err = s.exec(txCtx).Exec(txCtx, s.q(`
			UPDATE schedule_blocks
			SET start_time = ?, end_time = ?, start_minute = ?, end_minute = ?, reason = ?, updated_at = ?
			WHERE id = ?`),
			update.StartTime, update.EndTime, int(interval.Start), int(interval.End), update.Reason,
			s.now().Format(time.RFC3339), update.BlockID,
		)
		if err != nil {
			return fmt.Errorf("update block: %w", err)
		}

		updated, err = s.findBlock(txCtx, update.BlockID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBlock removes a block.
func (s *Store) DeleteBlock(ctx context.Context, _ application.Session, blockID string) error {
	result, err := s.exec(ctx).Exec(ctx, s.q(`DELETE FROM schedule_blocks WHERE id = ?`), blockID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return application.ErrBlockNotFound
	}
	return nil
}

// BookingsFor returns the imported bookings of a professional on one date.
func (s *Store) BookingsFor(ctx context.Context, _ application.Session, professionalID string, date time.Time) ([]domain.Booking, error) {
	return s.bookingsOn(ctx, professionalID, date)
}

func (s *Store) checkFree(ctx context.Context, professionalID string, date time.Time, interval domain.TimeInterval, excludeID string) error {
	bookings, err := s.bookingsOn(ctx, professionalID, date)
	if err != nil {
		return err
	}
	if b, found := domain.FirstConflict(interval, date, bookings); found {
		return domain.ConflictError(b)
	}

	rows, err := s.exec(ctx).Query(ctx, s.q(`
		SELECT start_minute, end_minute FROM schedule_blocks
		WHERE professional_id = ? AND block_date = ? AND id <> ?`),
		professionalID, domain.FormatDate(date), excludeID,
	)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var start, end int
		if err := rows.Scan(&start, &end); err != nil {
			return err
		}
		existing := domain.TimeInterval{Start: domain.TimeOfDay(start), End: domain.TimeOfDay(end)}
		if interval.Overlaps(existing) {
			return ErrBlockOverlap
		}
	}
	return rows.Err()
}

func (s *Store) insertBlock(ctx context.Context, session application.Session, block domain.ScheduleBlock, interval domain.TimeInterval, seriesID string) error {
	var series any
	if seriesID != "" {
		series = seriesID
	}
	now := s.now().Format(time.RFC3339)
	_, err := s.exec(ctx).Exec(ctx, s.q(`
		INSERT INTO schedule_blocks (
			id, professional_id, location_id, block_date, start_time, end_time,
			start_minute, end_minute, reason, series_id, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		block.ID, block.ProfessionalID, block.LocationID, domain.FormatDate(block.Date),
		block.StartTime, block.EndTime, int(interval.Start), int(interval.End), block.Reason,
		series, session.ActorID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (s *Store) insertSeries(ctx context.Context, session application.Session, seriesID string, rule domain.RecurringRule) error {
	_, err := s.exec(ctx).Exec(ctx, s.q(`
		INSERT INTO block_series (
			id, professional_id, location_id, weekdays, start_date, end_date,
			start_time, end_time, reason, created_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		seriesID, rule.ProfessionalID, rule.LocationID, s.weekdaysValue(rule.Weekdays),
		domain.FormatDate(rule.StartDate), domain.FormatDate(rule.EndDate),
		rule.StartTime, rule.EndTime, rule.Reason, session.ActorID, s.now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}
	return nil
}

// weekdaysValue encodes a weekday set for the series table: an INTEGER[] on
// PostgreSQL, a comma separated list on SQLite.
func (s *Store) weekdaysValue(days domain.WeekdaySet) any {
	sorted := days.Sorted()
	if s.conn.Driver() == database.DriverPostgres {
		ints := make([]int64, len(sorted))
		for i, d := range sorted {
			ints[i] = int64(d)
		}
		return pq.Array(ints)
	}
	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func (s *Store) selectBlocks() string {
	weekdays := "s.weekdays"
	if s.conn.Driver() == database.DriverPostgres {
		weekdays = "array_to_string(s.weekdays, ',')"
	}
	return `
		SELECT b.id, b.professional_id, b.location_id, b.block_date, b.start_time, b.end_time, b.reason,
			COALESCE(b.series_id, ''), COALESCE(` + weekdays + `, ''),
			COALESCE(s.start_date, ''), COALESCE(s.end_date, '')
		FROM schedule_blocks b
		LEFT JOIN block_series s ON s.id = b.series_id`
}

func (s *Store) findBlock(ctx context.Context, blockID string) (*domain.ScheduleBlock, error) {
	blocks, err := s.queryBlocks(ctx, s.selectBlocks()+` WHERE b.id = ?`, blockID)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, application.ErrBlockNotFound
	}
	return &blocks[0], nil
}

func (s *Store) queryBlocks(ctx context.Context, query string, args ...any) ([]domain.ScheduleBlock, error) {
	rows, err := s.exec(ctx).Query(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []domain.ScheduleBlock{}
	for rows.Next() {
		var (
			block                                domain.ScheduleBlock
			date, seriesID, weekdays, from, till string
		)
		if err := rows.Scan(
			&block.ID, &block.ProfessionalID, &block.LocationID, &date,
			&block.StartTime, &block.EndTime, &block.Reason,
			&seriesID, &weekdays, &from, &till,
		); err != nil {
			return nil, err
		}
		if block.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("block %s: %w", block.ID, err)
		}
		if seriesID != "" {
			series := &domain.SeriesInfo{ID: seriesID}
			series.Weekdays, _ = domain.ParseWeekdaySet(weekdays)
			series.RuleStart, _ = domain.ParseDate(from)
			series.RuleEnd, _ = domain.ParseDate(till)
			block.Series = series
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

func (s *Store) bookingsOn(ctx context.Context, professionalID string, date time.Time) ([]domain.Booking, error) {
	rows, err := s.exec(ctx).Query(ctx, s.q(`
		SELECT booking_date, start_time, end_time, status FROM bookings
		WHERE professional_id = ? AND booking_date = ?
		ORDER BY start_time`),
		professionalID, domain.FormatDate(date),
	)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(&b.Date, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
