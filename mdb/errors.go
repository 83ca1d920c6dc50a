package mdb

import (
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/auth"
)

var (
	// ErrConnection is wrapped by errors from Connect() when the server can't be reached.
	ErrConnection = errors.New("connection failure")

	// ErrAuthentication is wrapped by errors from Connect() when the server rejects the credentials.
	ErrAuthentication = errors.New("authentication failure")
)

// Server code for AuthenticationFailed.
const codeAuthenticationFailed = 18

// classify tags a connection-time error with ErrAuthentication or ErrConnection.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if IsAuthentication(err) {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return fmt.Errorf("%w: %w", ErrConnection, err)
}

// IsAuthentication checks to see if the specified error came from a rejected login.
// Handshake failures are often only visible as text inside a server selection error.
func IsAuthentication(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrAuthentication) {
		return true
	}

	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return true
	}

	var se mongo.ServerError
	if errors.As(err, &se) && se.HasErrorCode(codeAuthenticationFailed) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "authentication failed") || strings.Contains(msg, "auth error")
}

// IsConnection checks to see if the specified error came from an unreachable server.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsDuplicate checks to see if the specified error is for attempting to create a duplicate document.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}

	return mongo.IsDuplicateKeyError(err)
}

// IsNotFound checks an error condition to see if it matches the underlying database "not found" error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsUnacknowledged checks to see if a write was sent with a write concern that skips acknowledgement.
func IsUnacknowledged(err error) bool {
	return errors.Is(err, mongo.ErrUnacknowledgedWrite)
}

// IsValidationFailure checks to see if the specified error is for a validation failure.
func IsValidationFailure(err error) bool {
	if err == nil {
		return false
	}

	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 121 {
				return true
			}
		}
	}

	return false
}
