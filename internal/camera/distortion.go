package camera

const undistortIterations = 10

// distort applies the Brown-Conrady model to normalized image coordinates.
func distort(c [5]float64, x, y float64) (float64, float64) {
	r2 := x*x + y*y
	f := 1 + c[0]*r2 + c[1]*r2*r2 + c[4]*r2*r2*r2
	xf := x * f
	yf := y * f
	dx := xf + 2*c[2]*x*y + c[3]*(r2+2*x*x)
	dy := yf + 2*c[3]*x*y + c[2]*(r2+2*y*y)
	return dx, dy
}

// undistort inverts distort by fixed point iteration.
func undistort(c [5]float64, x, y float64) (float64, float64) {
	xo, yo := x, y
	for i := 0; i < undistortIterations; i++ {
		r2 := x*x + y*y
		icdist := 1 / (1 + ((c[4]*r2+c[1])*r2+c[0])*r2)
		deltaX := 2*c[2]*x*y + c[3]*(r2+2*x*x)
		deltaY := 2*c[3]*x*y + c[2]*(r2+2*y*y)
		x = (xo - deltaX) * icdist
		y = (yo - deltaY) * icdist
	}
	return x, y
}
