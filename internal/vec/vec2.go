package vec

// Vec2 представляет координаты колонки (x, y) на плоскости карты
type Vec2 struct {
	X, Y int
}

// Index возвращает индекс колонки в плоском массиве с построчным обходом (x меняется быстрее)
func (v Vec2) Index(width int) int {
	return v.Y*width + v.X
}

// InBounds проверяет, что колонка лежит в прямоугольнике [0,width)×[0,depth)
func (v Vec2) InBounds(width, depth int) bool {
	return v.X >= 0 && v.X < width && v.Y >= 0 && v.Y < depth
}

// Neighbors4 возвращает четыре соседние колонки (без проверки границ)
func (v Vec2) Neighbors4() [4]Vec2 {
	return [4]Vec2{
		{X: v.X + 1, Y: v.Y},
		{X: v.X - 1, Y: v.Y},
		{X: v.X, Y: v.Y + 1},
		{X: v.X, Y: v.Y - 1},
	}
}
