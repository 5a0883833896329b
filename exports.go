package till

import "github.com/xraph/till/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Re-export Money constructors
var (
	USD        = types.USD
	CAD        = types.CAD
	EUR        = types.EUR
	Zero       = types.Zero
	Sum        = types.Sum
	ParseMoney = types.ParseMoney
)
