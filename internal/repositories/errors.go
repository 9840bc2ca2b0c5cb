package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/circle/backend/internal/apperror"
	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// translate maps driver errors onto application error kinds. notFound is
// returned when the store reports a missing document or row.
func translate(err error, notFound *apperror.Error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, mongo.ErrNoDocuments), errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case mongo.IsDuplicateKeyError(err), isUniqueViolation(err):
		return apperror.ErrDuplicateIdentity.WithCause(err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		mongo.IsTimeout(err),
		mongo.IsNetworkError(err),
		pgconn.Timeout(err):
		return apperror.ErrTransient.WithCause(err)
	default:
		return err
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
