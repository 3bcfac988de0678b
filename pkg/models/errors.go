package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSheetIDNotSet : aucun classeur n'est encore configuré (erreur de configuration,
	// récupérable côté interface via sheetIdError).
	ErrSheetIDNotSet = errors.New("Sheet ID not set. Please set it in Settings.")

	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrExternalStore = errors.New("external store failure")
)

// NotFoundError nomme la ressource absente (onglet, ligne...).
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFoundf construit une NotFoundError formatée.
func NotFoundf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ValidationError porte un message destiné à l'utilisateur.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid construit une ValidationError.
func Invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// NotInDomain décrit une valeur hors liste déroulante en énumérant les valeurs admises.
func NotInDomain(r Role, allowed []string) error {
	return &ValidationError{Msg: r.String() + " must be one of: " + strings.Join(allowed, ", ")}
}

// MissingColumnsError : rôles requis absents de l'en-tête. Non fatal.
type MissingColumnsError struct {
	Roles []Role
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = r.String()
	}
	return "missing columns: " + strings.Join(names, ", ")
}

// ExternalStore enveloppe une erreur du classeur qui n'a pas de classification plus précise.
func ExternalStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	if errors.As(err, &nf) || errors.Is(err, ErrSheetIDNotSet) || errors.Is(err, ErrExternalStore) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrExternalStore, err)
}

// IsConfiguration indique si l'erreur signale un classeur non configuré.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrSheetIDNotSet)
}
