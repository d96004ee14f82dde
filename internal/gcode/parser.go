package gcode

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/piwi3910/PanelCut/internal/model"
)

// MoveType represents the type of CNC toolpath movement.
type MoveType int

const (
	MoveRapid   MoveType = iota // G0: rapid positioning (no cutting)
	MoveFeed                    // G1: linear feed (cutting move in XY plane)
	MovePlunge                  // G1 with Z decreasing: plunging into material
	MoveRetract                 // G0/G1 with Z increasing: retracting from material
)

// Move is a single parsed G0/G1 movement in absolute coordinates.
type Move struct {
	Type     MoveType
	From     [3]float64
	To       [3]float64
	FeedRate float64
}

// Length is the straight distance the move travels.
func (m Move) Length() float64 {
	dx, dy, dz := m.To[0]-m.From[0], m.To[1]-m.From[1], m.To[2]-m.From[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

var coordRe = regexp.MustCompile(`([XYZF])(-?\d+\.?\d*)`)

// Parse reads the G0/G1 moves of a program. Other commands and comments
// (";" to the end of the line or parenthesised) are ignored.
func Parse(code string) []Move {
	var moves []Move
	var cur [3]float64
	feed := 0.0

	for _, line := range strings.Split(code, "\n") {
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.Index(line, "("); idx >= 0 {
			if end := strings.Index(line, ")"); end > idx {
				line = line[:idx] + line[end+1:]
			}
		}
		upper := strings.ToUpper(strings.TrimSpace(line))
		if upper == "" {
			continue
		}

		fields := strings.Fields(upper)
		var rapid bool
		switch fields[0] {
		case "G0", "G00":
			rapid = true
		case "G1", "G01":
		default:
			continue
		}

		next := cur
		for _, m := range coordRe.FindAllStringSubmatch(upper, -1) {
			val, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				continue
			}
			switch m[1] {
			case "X":
				next[0] = val
			case "Y":
				next[1] = val
			case "Z":
				next[2] = val
			case "F":
				feed = val
			}
		}

		moves = append(moves, Move{
			Type:     classifyMove(rapid, cur, next),
			From:     cur,
			To:       next,
			FeedRate: feed,
		})
		cur = next
	}
	return moves
}

// classifyMove determines the MoveType based on movement characteristics.
func classifyMove(rapid bool, from, to [3]float64) MoveType {
	zDelta := to[2] - from[2]
	hasXY := from[0] != to[0] || from[1] != to[1]

	switch {
	case rapid:
		if zDelta > 0 {
			return MoveRetract
		}
		return MoveRapid
	case zDelta < -0.001 && !hasXY:
		return MovePlunge
	case zDelta > 0.001 && !hasXY:
		return MoveRetract
	default:
		return MoveFeed
	}
}

// Stats summarizes a program.
type Stats struct {
	CutLength   float64 // mm at feed rate, plunges included
	RapidLength float64 // mm
	Plunges     int
	Duration    time.Duration
}

// Summarize totals the moves of a program and estimates its run time.
// Rapid moves run at the router's rapid rate, the rest at their programmed
// feed.
func Summarize(moves []Move, s model.RouterSettings) Stats {
	var st Stats
	var minutes float64
	for _, m := range moves {
		l := m.Length()
		switch m.Type {
		case MoveRapid, MoveRetract:
			st.RapidLength += l
			if s.RapidRate > 0 {
				minutes += l / s.RapidRate
			}
			continue
		case MovePlunge:
			st.Plunges++
		}
		st.CutLength += l
		if m.FeedRate > 0 {
			minutes += l / m.FeedRate
		}
	}
	st.Duration = time.Duration(minutes * float64(time.Minute))
	return st
}
