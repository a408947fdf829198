package seating

// Scoring weights
const (
	podiumWeight  = 0.7
	balanceWeight = 0.3
)

// PodiumDistance is the manhattan distance from the cell to the podium corner, i.e. the last row and column.
func PodiumDistance(cell SeatCell, grid Grid) int {
	return abs(grid.rows-cell.Row) + abs(grid.columns-cell.Column)
}

// BalanceScore is the mean of the number of candidates sharing the cell's row and sharing its column.
// Crowded rows and columns score higher.
func BalanceScore(cell SeatCell, candidates []SeatCell) float64 {
	var sameRow, sameCol int
	for _, cand := range candidates {
		if cand.Row == cell.Row {
			sameRow++
		}
		if cand.Column == cell.Column {
			sameCol++
		}
	}
	return float64(sameRow+sameCol) / 2
}

// CompositeScore ranks candidate seats. Lower is better.
func CompositeScore(cell SeatCell, grid Grid, candidates []SeatCell) float64 {
	return podiumWeight*float64(PodiumDistance(cell, grid)) + balanceWeight*BalanceScore(cell, candidates)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
