package nodes_test

import (
	"github.com/aretw0/catena/pkg/domain"
)

// after returns a Context whose last result is value.
func after(value any) *domain.Context {
	rc := domain.NewContext("test")
	rc.Append(domain.Result{NodeID: "prev", Value: value})
	return rc
}
