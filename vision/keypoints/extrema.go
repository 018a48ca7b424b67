package keypoints

import (
	"context"
	"math"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"go.viam.com/sift/utils"
	"go.viam.com/sift/vision/scalespace"
)

// cubeOffset indexes the 3x3x3 neighborhood as [level][dy][dx].
type cubeOffset [3]int

var neighborOffsets = map[NeighborhoodType][]cubeOffset{
	NB8:  makeNeighborOffsets(NB8),
	NB10: makeNeighborOffsets(NB10),
	NB18: makeNeighborOffsets(NB18),
	NB26: makeNeighborOffsets(NB26),
}

// makeNeighborOffsets lists the cube positions compared with the center. The same positions
// are used below and above the center level.
func makeNeighborOffsets(nb NeighborhoodType) []cubeOffset {
	var offsets []cubeOffset
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			for i := 0; i < 3; i++ {
				if i == 1 && j == 1 && k == 1 {
					continue
				}
				var keep bool
				switch {
				case k == 1:
					keep = true
				case nb == NB26:
					keep = true
				case nb == NB18:
					keep = i == 1 || j == 1
				case nb == NB10:
					keep = i == 1 && j == 1
				}
				if keep {
					offsets = append(offsets, cubeOffset{k, j, i})
				}
			}
		}
	}
	return offsets
}

// isExtremum reports whether the center of nh is a strict minimum or maximum, by at least
// margin, over the given neighbors. Ties never count.
func isExtremum(nh *[3][3][3]float64, offsets []cubeOffset, margin float64) bool {
	c := nh[1][1][1]
	isMin, isMax := true, true
	for _, o := range offsets {
		n := nh[o[0]][o[1]][o[2]]
		if c+margin >= n {
			isMin = false
		}
		if c-margin <= n {
			isMax = false
		}
		if !isMin && !isMax {
			return false
		}
	}
	return true
}

// scanLevel returns the raw extremum candidates of DoG level q of octave p, in (v, u) order.
func (d *SIFTDetector) scanLevel(dog *scalespace.ScaleSpace, p, q int) []KeyPoint {
	oct := dog.Octave(p)
	below, center, above := oct.Level(q-1), oct.Level(q), oct.Level(q+1)
	offsets := neighborOffsets[d.cfg.Detector.Neighborhood]
	tMag := d.cfg.Detector.MagnitudeThreshold
	margin := d.cfg.Detector.ExtremumMargin
	var candidates []KeyPoint
	for v := 1; v < oct.Height()-1; v++ {
		row := center.Row(v)
		for u := 1; u < oct.Width()-1; u++ {
			if math.Abs(row[u]) < tMag {
				continue
			}
			nh := scalespace.Neighborhood(below, center, above, u, v)
			if !isExtremum(&nh, offsets, margin) {
				continue
			}
			candidates = append(candidates, KeyPoint{
				P: p, Q: q,
				U: u, V: v,
				X: float64(u), Y: float64(v),
			})
		}
	}
	return candidates
}

// findExtrema scans every interior DoG level of every octave concurrently and returns the
// candidates ordered by (p, q, v, u).
func (d *SIFTDetector) findExtrema(ctx context.Context, dog *scalespace.ScaleSpace) ([]KeyPoint, error) {
	type levelIndex struct{ p, q int }
	var levels []levelIndex
	for p := 0; p < dog.NumOctaves(); p++ {
		for q := dog.BotLevel() + 1; q < dog.TopLevel(); q++ {
			levels = append(levels, levelIndex{p, q})
		}
	}
	results := make([][]KeyPoint, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.ParallelFactor)
	for i, lvl := range levels {
		i, lvl := i, lvl
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = d.scanLevel(dog, lvl.p, lvl.q)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lo.Flatten(results), nil
}
