//go:build !linux

package smartplot

import "github.com/arloliu/smartplot/errs"

func setSchedPolicy(_, _ int) error {
	return errs.ErrUnsupported
}
