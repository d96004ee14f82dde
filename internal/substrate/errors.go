package substrate

import (
	"fmt"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// PositionError reports a geometry operation that failed at a specific
// location. Point is expressed in the frame of the code that raised it; callers
// crossing a coordinate frame wrap it with Reframe.
type PositionError struct {
	Message string
	Point   geom.Point
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s (at %.4f, %.4f mm)", e.Message, geom.ToMM(e.Point.X), geom.ToMM(e.Point.Y))
}

// Reframe returns a new error with the point mapped through undo and the
// message prefixed with context. The receiver is left untouched.
func (e *PositionError) Reframe(undo func(geom.Point) geom.Point, context string) *PositionError {
	msg := e.Message
	if context != "" {
		msg = context + ": " + msg
	}
	return &PositionError{Message: msg, Point: undo(e.Point)}
}
