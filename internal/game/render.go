package game

// Surface is a fixed-size 2D drawing target in surface coordinates.
type Surface interface {
	Clear()
	FillCircle(x, y, radius float64)
	FillRect(x, y, width, height float64)
}

// Render draws the world's current ball and paddle onto s.
func Render(s Surface, w *World) {
	s.Clear()
	s.FillCircle(w.Ball.X, w.Ball.Y, w.Ball.Radius)
	s.FillRect(w.Paddle.X, w.Paddle.Y, w.Paddle.Width, w.Paddle.Height)
}
