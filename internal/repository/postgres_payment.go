package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robomakers/academy-payment-system/internal/domain"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

const paymentColumns = `
	id,
	user_id,
	order_id,
	amount,
	status,
	payment_key,
	payment_method,
	refunded_amount,
	settlement_state,
	curriculum_id,
	course_id,
	created_at,
	updated_at
`

func (p *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			user_id,
			order_id,
			amount,
			status,
			payment_key,
			payment_method,
			curriculum_id,
			course_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, refunded_amount, settlement_state, created_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		payment.UserID,
		payment.OrderID,
		payment.Amount,
		payment.Status,
		payment.PaymentKey,
		payment.PaymentMethod,
		payment.CurriculumID,
		payment.CourseID,
	).Scan(&payment.ID, &payment.RefundedAmount, &payment.Settlement, &payment.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrDuplicateOrder
		}

		return err
	}

	return nil
}

func (p *PostgresPaymentRepository) GetByID(ctx context.Context, id int) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	return p.scanPayment(p.db.QueryRow(ctx, query, id))
}

func (p *PostgresPaymentRepository) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`

	return p.scanPayment(p.db.QueryRow(ctx, query, orderID))
}

func (p *PostgresPaymentRepository) GetByOrderAndUser(
	ctx context.Context,
	orderID string,
	userID int) (*domain.Payment, error) {

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 AND user_id = $2`

	return p.scanPayment(p.db.QueryRow(ctx, query, orderID, userID))
}

func (p *PostgresPaymentRepository) RefreshPending(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = 'pending', payment_key = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING status, updated_at
	`

	err := p.db.QueryRow(ctx, query, payment.PaymentKey, payment.ID).
		Scan(&payment.Status, &payment.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}

	return err
}

func (p *PostgresPaymentRepository) MarkCompleted(
	ctx context.Context,
	orderID, paymentKey string,
	method *string) (*domain.Payment, error) {

	query := `
		UPDATE payments
		SET status = 'completed', payment_key = $1, payment_method = $2, updated_at = NOW()
		WHERE order_id = $3
		RETURNING ` + paymentColumns

	return p.scanPayment(p.db.QueryRow(ctx, query, paymentKey, method, orderID))
}

func (p *PostgresPaymentRepository) ApplyRefund(
	ctx context.Context,
	id int,
	refundedAmount int64,
	settlement domain.SettlementState) (*domain.Payment, error) {

	query := `
		UPDATE payments
		SET status = 'cancelled',
			refunded_amount = refunded_amount + $1,
			settlement_state = $2,
			updated_at = NOW()
		WHERE id = $3
		RETURNING ` + paymentColumns

	return p.scanPayment(p.db.QueryRow(ctx, query, refundedAmount, settlement, id))
}

func (p *PostgresPaymentRepository) Settle(ctx context.Context, id int) error {
	query := `
		UPDATE payments
		SET refunded_amount = amount, settlement_state = 'fully_refunded', updated_at = NOW()
		WHERE id = $1 AND settlement_state = 'partially_refunded'
	`

	result, err := p.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrEditConflict
	}

	return nil
}

func (p *PostgresPaymentRepository) GetAllByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.Payment, *domain.Metadata, error) {

	query := fmt.Sprintf(`
		SELECT COUNT(*) OVER(), `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY %s %s, id ASC
		LIMIT $2 OFFSET $3`,
		pagination.SortColumn(), pagination.SortDirection())

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	return p.collectPayments(rows, pagination)
}

func (p *PostgresPaymentRepository) GetAll(
	ctx context.Context,
	pagination domain.Pagination) ([]domain.Payment, *domain.Metadata, error) {

	query := fmt.Sprintf(`
		SELECT COUNT(*) OVER(), `+paymentColumns+`
		FROM payments
		ORDER BY %s %s, id ASC
		LIMIT $1 OFFSET $2`,
		pagination.SortColumn(), pagination.SortDirection())

	rows, err := p.db.Query(ctx, query, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	return p.collectPayments(rows, pagination)
}

func (p *PostgresPaymentRepository) collectPayments(
	rows pgx.Rows,
	pagination domain.Pagination) ([]domain.Payment, *domain.Metadata, error) {

	payments := make([]domain.Payment, 0)
	totalRecords := 0

	for rows.Next() {
		var payment domain.Payment

		err := rows.Scan(
			&totalRecords,
			&payment.ID,
			&payment.UserID,
			&payment.OrderID,
			&payment.Amount,
			&payment.Status,
			&payment.PaymentKey,
			&payment.PaymentMethod,
			&payment.RefundedAmount,
			&payment.Settlement,
			&payment.CurriculumID,
			&payment.CourseID,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return payments, metadata, nil
}

func (p *PostgresPaymentRepository) scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment

	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Status,
		&payment.PaymentKey,
		&payment.PaymentMethod,
		&payment.RefundedAmount,
		&payment.Settlement,
		&payment.CurriculumID,
		&payment.CourseID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &payment, nil
}
