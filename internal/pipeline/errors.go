package pipeline

import (
	"errors"
	"fmt"
)

// ErrStageDisabled is returned when a stage method is called on a pipeline
// built without that stage.
var ErrStageDisabled = errors.New("stage disabled")

func errStageDisabled(stage string) error {
	return fmt.Errorf("%s: %w", stage, ErrStageDisabled)
}
