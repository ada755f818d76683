package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiObserverFansOutInOrder(t *testing.T) {
	var got []string
	first := ObserverFunc(func(ctx OperationContext) { got = append(got, "first:"+ctx.Operation) })
	second := ObserverFunc(func(ctx OperationContext) { got = append(got, "second:"+ctx.Operation) })

	MultiObserver{first, nil, second}.ObserveOperation(OperationContext{Operation: "search"})

	assert.Equal(t, []string{"first:search", "second:search"}, got)
}
