package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nidus/nidus/internal/platform/apperr"
)

// SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeInvalidDatetime     = "22007"
	codeDatetimeOverflow    = "22008"
)

// Classify converts a store error into an *apperr.Error. entity names the
// thing the failed statement was about and ends up in client-facing messages.
// Errors that are already classified pass through unchanged.
func Classify(err error, entity string) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, entity+" not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Wrap(apperr.Conflict, entity+" already exists", err)
		case codeForeignKeyViolation:
			return apperr.Wrap(apperr.ForeignKey, entity+" references a record that does not exist", err)
		case codeNotNullViolation, codeCheckViolation, codeInvalidText, codeInvalidDatetime, codeDatetimeOverflow:
			return apperr.Wrap(apperr.Validation, "invalid "+entity+" data", err)
		}
	}

	return apperr.InternalWrap(entity, err)
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
