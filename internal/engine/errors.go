package engine

import (
	"errors"
	"fmt"
)

func errInvalidTransition(from, to JobState) error {
	return fmt.Errorf("invalid job transition %s -> %s", from, to)
}

var errResumeChecksumConflict = errors.New("checksum verification may not run concurrently with resume")
var errDeadLettersUnderAbort = errors.New("one or more chunks were dead-lettered while running in abort mode")

func dispatchKey(jobID string, index int64) string {
	return fmt.Sprintf("%s#%d", jobID, index)
}
