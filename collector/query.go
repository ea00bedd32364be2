package collector

import "fmt"

// globalStore is the name the instrumentation hook installs its buffer under.
const globalStore = "__REACT_PERF_DEVTOOL_GLOBAL_STORE__"

// Query is one of the four fixed expressions the panel is allowed to
// evaluate. There is no way to build an arbitrary one.
type Query uint8

const (
	QueryLength Query = iota + 1
	QueryMeasures
	QueryRawMeasures
	QueryClear
)

var queryExpressions = map[Query]string{
	QueryLength:      "JSON.stringify(" + globalStore + ".length)",
	QueryMeasures:    "JSON.stringify(" + globalStore + ".measures)",
	QueryRawMeasures: "JSON.stringify(" + globalStore + ".rawMeasures)",
	QueryClear:       globalStore + " = {length: 0, measures: [], rawMeasures: []}",
}

// Expression returns the source text evaluated in the inspected context.
// Evaluators backed by a script engine forward it verbatim.
func (q Query) Expression() string {
	return queryExpressions[q]
}

func (q Query) String() string {
	switch q {
	case QueryLength:
		return "length"
	case QueryMeasures:
		return "measures"
	case QueryRawMeasures:
		return "rawMeasures"
	case QueryClear:
		return "clear"
	}
	return fmt.Sprintf("query(%d)", uint8(q))
}

// Valid reports whether q is part of the fixed query set.
func (q Query) Valid() bool {
	_, ok := queryExpressions[q]
	return ok
}
