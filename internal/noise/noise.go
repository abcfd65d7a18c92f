// Package noise содержит когерентные шумовые поля для генерации рельефа и пещер.
//
// Поле создаётся на каждый вызов из явных параметров и не хранит глобального
// состояния: одинаковые параметры всегда дают одинаковые значения.
package noise

import (
	"fmt"
	"math"
	"strings"
)

// Kind определяет примитив когерентного шума
type Kind string

const (
	Perlin      Kind = "perlin"
	OpenSimplex Kind = "opensimplex"
)

// ParseKind разбирает название шума; пустая строка означает Perlin
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", Perlin:
		return Perlin, nil
	case OpenSimplex:
		return OpenSimplex, nil
	default:
		return "", fmt.Errorf("неизвестный тип шума %q", s)
	}
}

// Field - детерминированное шумовое поле.
// Одна октава лежит в [-1, 1]; фрактальная сумма номинально там же, но может выходить
// за границы (до 1/persistence), ограничение выполняет вызывающая сторона.
type Field interface {
	Eval2(x, y float64) float64
	Eval3(x, y, z float64) float64
}

// NewFractal создаёт фрактальное поле (fBm) с заданным числом октав.
// persistence - затухание амплитуды на октаву, lacunarity - рост частоты.
// Октава i входит с весом persistence^i, сумма умножается на 1/Σ persistence^k для k в [1, octaves].
// При octaves <= 0 поле тождественно равно нулю.
func NewFractal(kind Kind, seed int64, octaves int, persistence, lacunarity float64) Field {
	sum := amplitudeSum(octaves, persistence)
	if octaves <= 0 || sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return zeroField{}
	}
	return newField(kind, seed, octaves, persistence, lacunarity, 1/sum)
}

// NewSingle создаёт одноктавное поле в [-1, 1] без фрактального масштаба
func NewSingle(kind Kind, seed int64) Field {
	return newField(kind, seed, 1, 1, 1, 1)
}

func newField(kind Kind, seed int64, octaves int, persistence, lacunarity, scale float64) Field {
	switch kind {
	case OpenSimplex:
		return newSimplexFractal(seed, octaves, persistence, lacunarity, scale)
	default:
		return newPerlinFractal(seed, octaves, persistence, lacunarity, scale)
	}
}

// amplitudeSum возвращает сумму |persistence|^k для k в [1, octaves]
func amplitudeSum(octaves int, persistence float64) float64 {
	sum := 0.0
	amp := 1.0
	for i := 0; i < octaves; i++ {
		amp *= math.Abs(persistence)
		sum += amp
	}
	return sum
}

type zeroField struct{}

func (zeroField) Eval2(_, _ float64) float64    { return 0 }
func (zeroField) Eval3(_, _, _ float64) float64 { return 0 }
