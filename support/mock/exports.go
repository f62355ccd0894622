package mock

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CheckActorExports checks that the given actor's exported dispatch table
// entries have the type expected of actor methods: two parameters (runtime,
// pointer to CBOR-unmarshalable params) and a single CBOR-marshalable return.
func CheckActorExports(t *testing.T, act interface{ Exports() []interface{} }) {
	for i, m := range act.Exports() {
		if i == 0 { // method zero is the send method and is never exported
			assert.Nil(t, m, "send method should be nil")
			continue
		}
		if m == nil {
			continue
		}

		mt := reflect.TypeOf(m)
		require.Equal(t, reflect.Func, mt.Kind(), "method %d is not a function", i)
		require.Equal(t, 2, mt.NumIn(), "method %d must take two parameters", i)
		assert.Equal(t, typeOfRuntimeInterface, mt.In(0), "method %d first parameter must be runtime", i)
		assert.Equal(t, reflect.Ptr, mt.In(1).Kind(), "method %d params must be a pointer", i)
		assert.True(t, mt.In(1).Implements(typeOfCborUnmarshaler), "method %d params must unmarshal CBOR", i)
		require.Equal(t, 1, mt.NumOut(), "method %d must return a single value", i)
		assert.True(t, mt.Out(0).Implements(typeOfCborMarshaler), "method %d return must marshal CBOR", i)
	}
}
