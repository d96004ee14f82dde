package panel

import (
	"fmt"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// PanelError reports a panel that cannot be built as requested, such as
// boards of mismatched thickness or a frame too small for the grid.
type PanelError struct {
	Message string
}

func (e *PanelError) Error() string {
	return e.Message
}

func panelErrorf(format string, args ...any) *PanelError {
	return &PanelError{Message: fmt.Sprintf(format, args...)}
}

// VCutError reports a cut that cannot be scored as a V-cut: a curve or a line
// that is neither horizontal nor vertical.
type VCutError struct {
	Message string
	Cut     geom.Polyline
}

func (e *VCutError) Error() string {
	if len(e.Cut) == 0 {
		return e.Message
	}
	s, t := e.Cut.Start(), e.Cut.End()
	return fmt.Sprintf("%s (from %.4f, %.4f to %.4f, %.4f mm)", e.Message,
		geom.ToMM(s.X), geom.ToMM(s.Y), geom.ToMM(t.X), geom.ToMM(t.Y))
}
