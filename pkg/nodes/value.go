package nodes

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/catena/pkg/domain"
)

// ErrNoInput is returned by nodes that need a previous result and find none.
var ErrNoInput = errors.New("no previous result")

// lastString returns the most recent result value as a string.
func lastString(rc *domain.Context) (string, error) {
	last, ok := rc.Last()
	if !ok {
		return "", ErrNoInput
	}
	return toString(last.Value)
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case []string:
		return strings.Join(t, "\n"), nil
	case fmt.Stringer:
		return t.String(), nil
	case nil:
		return "", ErrNoInput
	default:
		return fmt.Sprint(t), nil
	}
}
