package quad

import (
	"container/heap"
	"math"
)

// Gauss-Kronrod 21-point abscissae and weights; the odd abscissae are the
// 10-point Gauss nodes.
var (
	xgk = [11]float64{
		0.995657163025808080735527280689003,
		0.973906528517171720077964012084452,
		0.930157491355708226001207180059508,
		0.865063366688984510732096688423493,
		0.780817726586416897063717578345042,
		0.679409568299024406234327365114874,
		0.562757134668604683339000099272694,
		0.433395394129247190799265943165784,
		0.294392862701460198131126603103866,
		0.148874338981631210884826001129720,
		0.000000000000000000000000000000000,
	}
	wgk = [11]float64{
		0.011694638867371874278064396062192,
		0.032558162307964727478818972459390,
		0.054755896574351996031381300244580,
		0.075039674810919952767043140916190,
		0.093125454583697605535065465083366,
		0.109387158802297641899210590325805,
		0.123491976262065851077600525029494,
		0.134709217311473325928054001771707,
		0.142775938577060080797094273138717,
		0.147739104901338491374841515972068,
		0.149445554002916905664936468389821,
	}
	wg = [5]float64{
		0.066671344308688137593568809893332,
		0.149451349150580593145776339657697,
		0.219086362515982043995534934228163,
		0.269266719309996355091226921569469,
		0.295524224714752870173892994651338,
	}
)

type Kronrod struct {
	Limit  int
	AbsTol float64
	RelTol float64
}

func NewKronrod(limit int, absTol, relTol float64) *Kronrod {
	return &Kronrod{Limit: limit, AbsTol: absTol, RelTol: relTol}
}

type segment struct {
	a, b   float64
	value  float64
	absErr float64
}

type segmentHeap []segment

func (h segmentHeap) Len() int           { return len(h) }
func (h segmentHeap) Less(i, j int) bool { return h[i].absErr > h[j].absErr }
func (h segmentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *segmentHeap) Push(x any)        { *h = append(*h, x.(segment)) }
func (h *segmentHeap) Pop() any {
	old := *h
	n := len(old)
	s := old[n-1]
	*h = old[:n-1]
	return s
}

func (k *Kronrod) Integrate(f Func, a, b float64) (Result, error) {
	if err := checkInterval(a, b); err != nil {
		return Result{}, err
	}
	if a == b {
		return Result{}, nil
	}

	limit := k.Limit
	if limit < 1 {
		limit = 1
	}

	first, err := gk21(f, a, b)
	res := Result{Value: first.value, AbsErr: first.absErr, Evals: 21, Intervals: 1}
	if err != nil {
		return res, err
	}

	h := &segmentHeap{first}
	for res.AbsErr > tolerance(k.AbsTol, k.RelTol, res.Value) {
		if h.Len() >= limit {
			return res, ErrNotConverged
		}

		worst := heap.Pop(h).(segment)
		mid := 0.5 * (worst.a + worst.b)
		if mid <= math.Min(worst.a, worst.b) || mid >= math.Max(worst.a, worst.b) {
			heap.Push(h, worst)
			return res, ErrNotConverged
		}

		left, err := gk21(f, worst.a, mid)
		res.Evals += 21
		if err != nil {
			return res, err
		}
		right, err := gk21(f, mid, worst.b)
		res.Evals += 21
		if err != nil {
			return res, err
		}

		res.Value += left.value + right.value - worst.value
		res.AbsErr += left.absErr + right.absErr - worst.absErr
		heap.Push(h, left)
		heap.Push(h, right)
		res.Intervals = h.Len()
	}

	// Re-sum to shed the drift from repeated incremental updates.
	value, absErr := 0.0, 0.0
	for _, s := range *h {
		value += s.value
		absErr += s.absErr
	}
	res.Value, res.AbsErr = value, absErr

	return res, nil
}

func gk21(f Func, a, b float64) (segment, error) {
	center := 0.5 * (a + b)
	half := 0.5 * (b - a)

	var fv1, fv2 [10]float64

	fc, err := eval(f, center)
	if err != nil {
		return segment{}, err
	}
	resK := fc * wgk[10]
	resG := 0.0
	resAbs := math.Abs(resK)

	for j := 0; j < 10; j++ {
		dx := half * xgk[j]
		f1, err := eval(f, center-dx)
		if err != nil {
			return segment{}, err
		}
		f2, err := eval(f, center+dx)
		if err != nil {
			return segment{}, err
		}
		fv1[j], fv2[j] = f1, f2
		resK += wgk[j] * (f1 + f2)
		resAbs += wgk[j] * (math.Abs(f1) + math.Abs(f2))
		if j%2 == 1 {
			resG += wg[j/2] * (f1 + f2)
		}
	}

	mean := 0.5 * resK
	resAsc := wgk[10] * math.Abs(fc-mean)
	for j := 0; j < 10; j++ {
		resAsc += wgk[j] * (math.Abs(fv1[j]-mean) + math.Abs(fv2[j]-mean))
	}

	absHalf := math.Abs(half)
	resAsc *= absHalf
	resAbs *= absHalf
	absErr := math.Abs((resK - resG) * half)
	if resAsc != 0 && absErr != 0 {
		absErr = resAsc * math.Min(1, math.Pow(200*absErr/resAsc, 1.5))
	}
	if resAbs > math.SmallestNonzeroFloat64/(50*epsilon) {
		absErr = math.Max(epsilon*50*resAbs, absErr)
	}

	return segment{a: a, b: b, value: resK * half, absErr: absErr}, nil
}

const epsilon = 2.220446049250313e-16

func eval(f Func, x float64) (float64, error) {
	v := f(x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v, &NonFiniteError{At: x, Value: v}
	}
	return v, nil
}
