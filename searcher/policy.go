package searcher

import "math"

type ucb struct {
	c    float64
	logN float64
}

func newUCB(c float64, parentVisits int) ucb {
	return ucb{c: c, logN: math.Log(float64(parentVisits) + 1)}
}

// UCB = q/n + c*sqrt(ln(N+1)/(n+1)), with q/n taken as 0 for unvisited moves
func (u ucb) evaluate(value float64, visits int) float64 {
	exploit := 0.0
	if visits > 0 {
		exploit = value / float64(visits)
	}
	return exploit + u.c*math.Sqrt(u.logN/float64(visits+1))
}
