package filter

// Expr is one node of a filter expression. A node with Const set evaluates to
// the constant; any other node applies Operator to its evaluated Args.
type Expr struct {
	Operator string `json:"op"`
	Args     []Expr `json:"args"`
	Const    any    `json:"const,omitempty"`
}

type EvalResult struct {
	Operator string       `json:"op"`
	Args     []EvalResult `json:"args"`
	Result   any          `json:"result"`
	Error    string       `json:"error"`
}

// Decision is what a filter concludes for one object.
type Decision int

const (
	UNSET Decision = iota
	KEEP
	SKIP
)

func (d Decision) String() string {
	switch d {
	case KEEP:
		return "keep"
	case SKIP:
		return "skip"
	default:
		return "unset"
	}
}
