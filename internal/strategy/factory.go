package strategy

import (
	"errors"
	"fmt"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

func New(kind Kind, p Params) (Strategy, error) {
	switch kind {
	case KindRetracement, "":
		if p.FiboLevelFrom > p.FiboLevelTo {
			return nil, fmt.Errorf("retracement: fibo_level_from %.3f > fibo_level_to %.3f", p.FiboLevelFrom, p.FiboLevelTo)
		}
		return NewRetracement(p), nil
	case KindSMACross:
		if p.SMAFast <= 0 || p.SMASlow <= p.SMAFast {
			return nil, fmt.Errorf("sma_cross: need 0 < fast (%d) < slow (%d)", p.SMAFast, p.SMASlow)
		}
		return NewSMACross(p), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, kind)
	}
}
