package model

import (
	"math"
	"math/big"
)

type Web3BigInt struct {
	Value   string `json:"value"`
	Decimal int    `json:"decimal"`
}

func (w *Web3BigInt) ToFloat() float64 {
	num := new(big.Int)
	num.SetString(w.Value, 10)

	floatNum := new(big.Float).SetInt(num)

	divisor := new(big.Float).SetFloat64(math.Pow(10, float64(w.Decimal)))

	floatNum.Quo(floatNum, divisor)

	result, _ := floatNum.Float64()
	return result
}

// Format renders the value divided by 10^Decimal with exactly prec
// fractional digits. A zero value renders as the literal "0", and a value
// that is not a base-10 integer is returned unchanged.
func (w *Web3BigInt) Format(prec int) string {
	num, ok := new(big.Int).SetString(w.Value, 10)
	if !ok {
		return w.Value
	}

	if num.Sign() == 0 {
		return "0"
	}

	floatNum := new(big.Float).SetInt(num)
	divisor := new(big.Float).SetFloat64(math.Pow(10, float64(w.Decimal)))
	floatNum.Quo(floatNum, divisor)

	return floatNum.Text('f', prec)
}
