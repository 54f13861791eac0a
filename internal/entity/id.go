package entity

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

const idLength = 24

// ParseID decodes the external 24-hex form of a document identifier.
// The format is checked before the ObjectID is built so malformed input never reaches storage.
func ParseID(s string) (bson.ObjectID, error) {
	if !isHexID(s) {
		return bson.NilObjectID, InvalidID("")
	}
	id, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.NilObjectID, InvalidID("")
	}
	return id, nil
}

// ParseRef is ParseID with the entity name in the error message ("Invalid lead ID").
func ParseRef(what, s string) (bson.ObjectID, error) {
	id, err := ParseID(s)
	if err != nil {
		return bson.NilObjectID, InvalidID(what)
	}
	return id, nil
}

// ParseOptionalRef treats the empty string as "no reference".
func ParseOptionalRef(what, s string) (*bson.ObjectID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := ParseRef(what, s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func FormatID(id bson.ObjectID) string {
	return id.Hex()
}

func isHexID(s string) bool {
	if len(s) != idLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
