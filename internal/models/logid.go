package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ParseLogID converts a logID column value into a uuid.UUID. SQL Server drivers return a
// uniqueidentifier as 16 raw bytes whose first three groups are little-endian, while pgx and
// most other drivers return the canonical text form.
func ParseLogID(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return fromMixedEndian(v), nil
		}
		return uuid.ParseBytes(v)
	case nil:
		return uuid.Nil, fmt.Errorf("logID is null")
	default:
		return uuid.Nil, fmt.Errorf("unsupported logID type %T", value)
	}
}

func fromMixedEndian(b []byte) uuid.UUID {
	var id uuid.UUID
	copy(id[:], b)
	id[0], id[1], id[2], id[3] = b[3], b[2], b[1], b[0]
	id[4], id[5] = b[5], b[4]
	id[6], id[7] = b[7], b[6]
	return id
}
