package game

import "errors"

const BoardSize = 10

// hitMarker overwrites a ship cell once it is hit, so scanning the board
// for the original ship name answers "is any segment of it still afloat".
const hitMarker = "HIT_SEGMENT"

type Ship struct {
	Name string
	Size int
}

// Fleet is the fixed ship catalog. The sizes sum to TotalShipCells.
var Fleet = []Ship{
	{"Carrier", 5},
	{"Battleship", 4},
	{"Cruiser", 3},
	{"Submarine", 3},
	{"Destroyer", 2},
}

const TotalShipCells = 17

// Board is a player's private grid. A cell holds "" (water), a ship name
// from Fleet, or hitMarker.
type Board [BoardSize][BoardSize]string

var (
	ErrUnknownShip   = errors.New("unknown ship name on board")
	ErrWrongShipSize = errors.New("ship has wrong number of cells")
	ErrShipNotInLine = errors.New("ship cells are not a straight contiguous line")
	ErrShipsTouching = errors.New("ships are adjacent or overlapping")
)

type cellPos struct {
	r, c int
}

// Validate checks that the board holds exactly the catalog fleet: every
// ship present once with its exact size, laid out as a straight horizontal
// or vertical run, and no two ships touching (including diagonally).
func (b *Board) Validate() error {
	cells := map[string][]cellPos{}
	sizes := map[string]int{}
	for _, s := range Fleet {
		sizes[s.Name] = s.Size
	}

	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			tag := b[r][c]
			if tag == "" {
				continue
			}
			if _, ok := sizes[tag]; !ok {
				return ErrUnknownShip
			}
			cells[tag] = append(cells[tag], cellPos{r, c})
		}
	}

	for _, s := range Fleet {
		placed := cells[s.Name]
		if len(placed) != s.Size {
			return ErrWrongShipSize
		}
		if !isStraightRun(placed) {
			return ErrShipNotInLine
		}
	}

	// Adjacency: every neighbour of an occupied cell must be water or the
	// same ship.
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			tag := b[r][c]
			if tag == "" {
				continue
			}
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					nr, nc := r+dr, c+dc
					if nr < 0 || nr >= BoardSize || nc < 0 || nc >= BoardSize {
						continue
					}
					if b[nr][nc] != "" && b[nr][nc] != tag {
						return ErrShipsTouching
					}
				}
			}
		}
	}

	return nil
}

func isStraightRun(cells []cellPos) bool {
	if len(cells) == 0 {
		return false
	}
	minR, maxR := cells[0].r, cells[0].r
	minC, maxC := cells[0].c, cells[0].c
	for _, p := range cells[1:] {
		minR, maxR = min(minR, p.r), max(maxR, p.r)
		minC, maxC = min(minC, p.c), max(maxC, p.c)
	}
	horizontal := minR == maxR && maxC-minC == len(cells)-1
	vertical := minC == maxC && maxR-minR == len(cells)-1
	return horizontal || vertical
}

func inBounds(row, col int) bool {
	return row >= 0 && row < BoardSize && col >= 0 && col < BoardSize
}

// Fire resolves a shot against the board. A non-empty cell is a hit: the
// cell is overwritten with the hit marker and, if no cell with the same
// ship name remains, the ship's name is returned as sunk.
//
// Re-firing at a cell that already carries the hit marker resolves as a
// miss: the original ship name is gone, so the cell reads as empty of any
// ship. This is deliberate and matches the turn-wasting behaviour clients
// rely on.
func (b *Board) Fire(row, col int) (hit bool, sunk string) {
	tag := b[row][col]
	if tag == "" || tag == hitMarker {
		return false, ""
	}
	b[row][col] = hitMarker
	if !b.contains(tag) {
		sunk = tag
	}
	return true, sunk
}

func (b *Board) contains(tag string) bool {
	for r := 0; r < BoardSize; r++ {
		for c := 0; c < BoardSize; c++ {
			if b[r][c] == tag {
				return true
			}
		}
	}
	return false
}
