package terrain

import (
	"math"

	"github.com/lawless-m/Toberboon/internal/vec"
)

// Stats описывает «интересность» карты высот
type Stats struct {
	Min           float64
	Max           float64
	Mean          float64
	UniqueHeights int     // Число различных целых высот
	AvgVariation  float64 // Средняя разница высот с соседями
	RangeScore    float64 // Доля max_height, занятая рельефом, %
	UniqueScore   float64 // Доля возможных целых высот, %
	Interest      float64 // (RangeScore + UniqueScore + AvgVariation*10) / 3
}

// Analyze считает статистику карты высот размера width*depth
func Analyze(heightmap []float32, width, depth int, maxHeight float64) Stats {
	total := width * depth
	if total <= 0 || len(heightmap) < total {
		return Stats{}
	}

	s := Stats{Min: math.MaxFloat64, Max: -math.MaxFloat64}
	unique := make(map[int]struct{})
	sum := 0.0

	for _, v := range heightmap[:total] {
		h := float64(v)
		s.Min = math.Min(s.Min, h)
		s.Max = math.Max(s.Max, h)
		sum += h
		unique[int(h)] = struct{}{}
	}
	s.Mean = sum / float64(total)
	s.UniqueHeights = len(unique)

	variation := 0.0
	for y := 0; y < depth; y++ {
		for x := 0; x < width; x++ {
			c := vec.Vec2{X: x, Y: y}
			h := float64(heightmap[c.Index(width)])

			neighbors := 0
			diff := 0.0
			for _, n := range c.Neighbors4() {
				if !n.InBounds(width, depth) {
					continue
				}
				diff += math.Abs(h - float64(heightmap[n.Index(width)]))
				neighbors++
			}
			if neighbors > 0 {
				variation += diff / float64(neighbors)
			}
		}
	}
	s.AvgVariation = variation / float64(total)

	if maxHeight > 0 {
		s.RangeScore = (s.Max - s.Min) / maxHeight * 100
		s.UniqueScore = float64(s.UniqueHeights) / maxHeight * 100
	}
	s.Interest = (s.RangeScore + s.UniqueScore + s.AvgVariation*10) / 3

	return s
}
