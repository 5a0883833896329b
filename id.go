package till

import "github.com/xraph/till/id"

// ID is the primary identifier type for all till entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// ParseHoldID parses a layaway hold ID such as "lay_01h455vb4pex5vsknk084sn02q".
func ParseHoldID(s string) (id.LayawayID, error) {
	return id.ParseLayawayID(s)
}
