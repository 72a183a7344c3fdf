package matrix

import "vrpcore/pkg/apperror"

// CheckedAdd adds a and b, failing with an InternalError instead of
// wrapping when the sum would overflow uint64. Used exclusively in
// cost-bound computation.
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, apperror.New(apperror.CodeCostOverflow, "cost accumulation overflow").
			WithDetails("a", a).WithDetails("b", b)
	}
	return a + b, nil
}

// CheckedSum folds CheckedAdd over a slice, short-circuiting on the first
// overflow.
func CheckedSum(values ...uint64) (uint64, error) {
	var total uint64
	var err error
	for _, v := range values {
		total, err = CheckedAdd(total, v)
		if err != nil {
			return 0, err
		}
	}
	return total, nil
}

// CostBoundInput is the per-profile subset of instance state the upper-bound
// computation needs: which matrix indices are actually referenced, and by
// what role (vehicle start, job, vehicle end).
type CostBoundInput struct {
	Used          []int // U: every matrix index referenced by any job or vehicle, across all profiles
	VehicleStarts []int // start(v) for vehicles with a start location
	JobIndices    []int // every job's location index
	VehicleEnds   []int // end(v) for vehicles with an end location
}

// CostUpperBound computes a saturating upper bound on the worst-case route
// cost the solver will accumulate, as an overflow-detecting side effect: if
// any intermediate sum would exceed the cost representation's range, it
// fails with an InternalError rather than silently wrapping.
//
//	Σ row_max[start(v)] + max(Σ row_max[job], Σ col_max[job]) + Σ col_max[end(v)]
//
// row_max[i] and col_max[j] are taken over the used index set U only.
func CostUpperBound(m Matrix, in CostBoundInput) (uint64, error) {
	rowMax := make(map[int]uint64, len(in.Used))
	colMax := make(map[int]uint64, len(in.Used))
	for _, i := range in.Used {
		var rm, cm uint64
		for _, j := range in.Used {
			if v := m.Get(i, j); v > rm {
				rm = v
			}
			if v := m.Get(j, i); v > cm {
				cm = v
			}
		}
		rowMax[i] = rm
		colMax[i] = cm
	}

	var startSum uint64
	var err error
	for _, s := range in.VehicleStarts {
		startSum, err = CheckedAdd(startSum, rowMax[s])
		if err != nil {
			return 0, err
		}
	}

	var jobRowSum, jobColSum uint64
	for _, j := range in.JobIndices {
		jobRowSum, err = CheckedAdd(jobRowSum, rowMax[j])
		if err != nil {
			return 0, err
		}
		jobColSum, err = CheckedAdd(jobColSum, colMax[j])
		if err != nil {
			return 0, err
		}
	}
	jobSum := jobRowSum
	if jobColSum > jobSum {
		jobSum = jobColSum
	}

	var endSum uint64
	for _, e := range in.VehicleEnds {
		endSum, err = CheckedAdd(endSum, colMax[e])
		if err != nil {
			return 0, err
		}
	}

	total, err := CheckedAdd(startSum, jobSum)
	if err != nil {
		return 0, err
	}
	return CheckedAdd(total, endSum)
}
