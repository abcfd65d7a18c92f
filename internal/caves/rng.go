package caves

import "math"

// Параметры линейного конгруэнтного генератора (модуль 2^64)
const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
)

const maxUint64 = float64(math.MaxUint64)

// LCG - детерминированный поток псевдослучайных чисел для прокладки туннелей.
// Один экземпляр принадлежит одному проходу и не должен копироваться.
type LCG struct {
	state uint64
}

// NewLCG создаёт генератор с начальным состоянием seed
func NewLCG(seed uint32) *LCG {
	return &LCG{state: uint64(seed)}
}

func (r *LCG) next() uint64 {
	r.state = r.state*lcgMultiplier + lcgIncrement
	return r.state
}

// Intn возвращает число в [0, n). Состояние продвигается всегда, даже при n <= 0 (тогда результат 0).
func (r *LCG) Intn(n int) int {
	s := r.next()
	if n <= 0 {
		return 0
	}
	return int(s % uint64(n))
}

// Float64 возвращает число в [0, 1]
func (r *LCG) Float64() float64 {
	return float64(r.next()) / maxUint64
}
