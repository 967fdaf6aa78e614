package query

import "github.com/expr-lang/expr/vm"

type TrainPositions struct {
	// TrainID keeps only the train whose ritId equals it
	TrainID string

	// Filter is a compiled boolean expression over the upstream fields
	Filter *vm.Program
}

type TrainStats struct {
	TrainID string
}
