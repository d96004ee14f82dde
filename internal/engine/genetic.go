package engine

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/PanelCut/internal/model"
)

// GeneticConfig tunes the ordering search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
}

func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// scaled grows the search for larger board counts.
func (c GeneticConfig) scaled(boards int) GeneticConfig {
	switch {
	case boards > 50:
		c.Generations, c.PopulationSize = 200, 80
	case boards > 20:
		c.Generations = 150
	}
	return c
}

type gene struct {
	boardIndex int
	rotated    bool
}

// chromosome is the insertion order of the expanded boards, each with a
// preferred orientation.
type chromosome struct {
	genes []gene
	score score
}

func (c chromosome) clone() chromosome {
	return chromosome{genes: append([]gene(nil), c.genes...), score: c.score}
}

func (c chromosome) key() string {
	var sb strings.Builder
	for _, g := range c.genes {
		sb.WriteString(strconv.Itoa(g.boardIndex))
		if g.rotated {
			sb.WriteByte('r')
		}
		sb.WriteByte(',')
	}
	return sb.String()
}

// score ranks decoded layouts: more boards placed wins, then fewer panels,
// then the share of blank area covered by boards.
type score struct {
	placed     int
	panels     int
	efficiency float64
}

func (s score) better(o score) bool {
	if s.placed != o.placed {
		return s.placed > o.placed
	}
	if s.panels != o.panels {
		return s.panels < o.panels
	}
	return s.efficiency > o.efficiency
}

func scoreLayout(r model.LayoutResult) score {
	var used, total float64
	s := score{panels: len(r.Panels)}
	for _, p := range r.Panels {
		s.placed += len(p.Placements)
		used += p.UsedArea()
		total += p.TotalArea()
	}
	if total > 0 {
		s.efficiency = used / total
	}
	return s
}

// geneticOptimizer evolves board orderings. Each chromosome is decoded with
// the same guillotine packer the greedy path uses, so the search can only
// change the order and orientation boards are offered in.
type geneticOptimizer struct {
	opt    *Optimizer
	config GeneticConfig
	boards []model.Board
	blanks []model.Blank
	rng    *rand.Rand
	seen   map[string]score
}

func newGeneticOptimizer(opt *Optimizer, config GeneticConfig, boards []model.Board, blanks []model.Blank, seed int64) *geneticOptimizer {
	return &geneticOptimizer{
		opt:    opt,
		config: config,
		boards: boards,
		blanks: blanks,
		rng:    rand.New(rand.NewSource(seed)),
		seen:   make(map[string]score),
	}
}

func (g *geneticOptimizer) optimize() model.LayoutResult {
	if len(g.boards) == 0 || len(g.blanks) == 0 || g.config.PopulationSize <= 0 {
		return model.LayoutResult{}
	}

	pop := g.seed()
	for gen := 0; gen < g.config.Generations; gen++ {
		pop = g.step(pop)
	}
	g.rank(pop)
	return g.decode(pop[0])
}

// seed builds the first generation: the largest-first order the greedy
// packer would use, then random permutations.
func (g *geneticOptimizer) seed() []chromosome {
	n := len(g.boards)
	pop := make([]chromosome, 0, g.config.PopulationSize)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.boards[order[i]].Area() > g.boards[order[j]].Area()
	})
	largest := chromosome{genes: make([]gene, n)}
	for i, idx := range order {
		largest.genes[i] = gene{boardIndex: idx}
	}
	pop = append(pop, g.evaluate(largest))

	for len(pop) < g.config.PopulationSize {
		c := chromosome{genes: make([]gene, n)}
		for i, idx := range g.rng.Perm(n) {
			c.genes[i] = gene{boardIndex: idx, rotated: g.boards[idx].Rotatable && g.rng.Intn(2) == 0}
		}
		pop = append(pop, g.evaluate(c))
	}
	return pop
}

// step produces the next generation. The best EliteCount survive unchanged.
func (g *geneticOptimizer) step(pop []chromosome) []chromosome {
	g.rank(pop)
	next := make([]chromosome, 0, g.config.PopulationSize)
	for i := 0; i < g.config.EliteCount && i < len(pop); i++ {
		next = append(next, pop[i].clone())
	}
	for len(next) < g.config.PopulationSize {
		next = append(next, g.evaluate(g.breed(pop)))
	}
	return next
}

func (g *geneticOptimizer) breed(pop []chromosome) chromosome {
	child := g.orderCrossover(g.tournamentSelect(pop), g.tournamentSelect(pop))
	g.mutate(&child)
	return child
}

func (g *geneticOptimizer) rank(pop []chromosome) {
	sort.SliceStable(pop, func(i, j int) bool { return pop[i].score.better(pop[j].score) })
}

// evaluate scores c, reusing the score of an identical genome seen before.
func (g *geneticOptimizer) evaluate(c chromosome) chromosome {
	k := c.key()
	if s, ok := g.seen[k]; ok {
		c.score = s
		return c
	}
	c.score = scoreLayout(g.decode(c))
	g.seen[k] = c.score
	return c
}

// decode fills blanks one at a time, offering boards in chromosome order.
// A board that does not fit in its preferred orientation is tried turned.
func (g *geneticOptimizer) decode(c chromosome) model.LayoutResult {
	var result model.LayoutResult
	pool := expandBlanks(g.blanks)
	pending := c.genes

	for len(pending) > 0 && len(pool) > 0 {
		candidates := make([]model.Board, len(pending))
		for i, gn := range pending {
			candidates[i] = g.boards[gn.boardIndex]
		}
		idx := g.opt.selectBestBlank(pool, candidates)
		if idx < 0 {
			break
		}
		blank := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)

		layout := model.PanelLayout{Blank: blank}
		packer := newGuillotinePackerWithRects(g.opt.calculateFreeRects(blank), g.opt.Settings.Spacing)
		var left []gene
		for _, gn := range pending {
			if p, ok := g.place(packer, gn); ok {
				layout.Placements = append(layout.Placements, p)
			} else {
				left = append(left, gn)
			}
		}
		if len(layout.Placements) > 0 {
			result.Panels = append(result.Panels, layout)
		}
		pending = left
	}

	for _, gn := range pending {
		result.Unplaced = append(result.Unplaced, g.boards[gn.boardIndex])
	}
	return result
}

func (g *geneticOptimizer) place(packer *guillotinePacker, gn gene) (model.Placement, bool) {
	b := g.boards[gn.boardIndex]
	for _, rotated := range [2]bool{gn.rotated, !gn.rotated} {
		if rotated && !b.Rotatable {
			continue
		}
		w, h := b.Width, b.Height
		if rotated {
			w, h = h, w
		}
		if ok, x, y := packer.insert(w, h); ok {
			return model.Placement{Board: b, X: x, Y: y, Rotated: rotated}, true
		}
	}
	return model.Placement{}, false
}

func (g *geneticOptimizer) tournamentSelect(pop []chromosome) chromosome {
	best := pop[g.rng.Intn(len(pop))]
	for i := 1; i < g.config.TournamentSize; i++ {
		if c := pop[g.rng.Intn(len(pop))]; c.score.better(best.score) {
			best = c
		}
	}
	return best.clone()
}

// orderCrossover is OX1: a slice of the first parent is kept in place and
// the gaps are filled with the remaining boards in the second parent's order.
func (g *geneticOptimizer) orderCrossover(a, b chromosome) chromosome {
	n := len(a.genes)
	if n <= 2 {
		return a.clone()
	}
	lo, hi := g.rng.Intn(n), g.rng.Intn(n)
	if lo > hi {
		lo, hi = hi, lo
	}

	child := chromosome{genes: make([]gene, n)}
	taken := make(map[int]bool, hi-lo+1)
	for i := lo; i <= hi; i++ {
		child.genes[i] = a.genes[i]
		taken[a.genes[i].boardIndex] = true
	}
	pos := (hi + 1) % n
	for _, gn := range b.genes {
		if taken[gn.boardIndex] {
			continue
		}
		child.genes[pos] = gn
		pos = (pos + 1) % n
	}
	return child
}

// mutate swaps two boards, turns one, and less often reverses a run.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.genes)
	if n < 2 {
		return
	}
	rate := g.config.MutationRate

	if g.rng.Float64() < rate {
		i, j := g.rng.Intn(n), g.rng.Intn(n)
		c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
	}
	if g.rng.Float64() < rate {
		i := g.rng.Intn(n)
		if g.boards[c.genes[i].boardIndex].Rotatable {
			c.genes[i].rotated = !c.genes[i].rotated
		}
	}
	if g.rng.Float64() < rate/2 {
		i, j := g.rng.Intn(n), g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for ; i < j; i, j = i+1, j-1 {
			c.genes[i], c.genes[j] = c.genes[j], c.genes[i]
		}
	}
}

// OptimizeGenetic runs the ordering search with opt's settings and keepouts.
// The seed is fixed, so equal inputs give equal layouts.
func OptimizeGenetic(opt *Optimizer, boards []model.Board, blanks []model.Blank) model.LayoutResult {
	expanded := expandBoards(boards)
	if len(expanded) == 0 || len(blanks) == 0 {
		return model.LayoutResult{}
	}
	config := DefaultGeneticConfig().scaled(len(expanded))
	return newGeneticOptimizer(opt, config, expanded, blanks, 42).optimize()
}
