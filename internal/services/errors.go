package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/yungbote/shapemate-backend/internal/platform/apierr"
)

var (
	errUnauthenticated = apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid session"))
)

// isUniqueViolation recognizes duplicate-key errors from postgres and sqlite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key")
}

func parseID(raw, code string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apierr.BadRequest(code, fmt.Errorf("invalid id %q", raw))
	}
	return id, nil
}
