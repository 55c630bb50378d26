package service

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Shared service-level errors.
var (
	ErrInvalidID = errors.New("invalid id")
)

// parseObjectID converts a hex id from the transport layer, mapping parse
// failures to ErrInvalidID so handlers can answer 400 instead of 500.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
