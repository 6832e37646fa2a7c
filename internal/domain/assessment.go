package domain

// RiskAssessment is the outcome of the pre-trade risk evaluation.
type RiskAssessment struct {
	Liquidity float64
	Slippage  float64 // |current - expected| / expected
	Passed    bool
}

// ComplianceRule tags a violated compliance clause.
type ComplianceRule string

const (
	RuleMaxTradeAmount ComplianceRule = "max_trade_amount"
	RuleMinLiquidity   ComplianceRule = "min_liquidity"
	RuleMaxGasCost     ComplianceRule = "max_gas_cost"
)

// ComplianceResult reports whether a proposed trade satisfies every
// compliance clause, with the violated rules when it does not.
type ComplianceResult struct {
	Passed  bool
	Reasons []ComplianceRule
}

// Authorization combines both gate verdicts. A trade may execute only when
// risk and compliance both passed.
type Authorization struct {
	Risk       RiskAssessment
	Compliance ComplianceResult
}

// Granted reports whether both halves of the gate passed.
func (a Authorization) Granted() bool {
	return a.Risk.Passed && a.Compliance.Passed
}
