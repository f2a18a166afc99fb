package universe

import "fmt"

var errCorruptRecord = fmt.Errorf("universe: stored location record is malformed")

type incompatibleSchemaError struct {
	have, want uint32
}

func (e incompatibleSchemaError) Error() string {
	return fmt.Sprintf("universe: on-disk schema version %d incompatible with runtime version %d", e.have, e.want)
}
