package vm

import "github.com/cjscript/cjc/runtime"

// getIndex implements every read-style indexing opcode (OpGetField,
// OpGetTable, OpSelf's method slot) uniformly across table, string, and
// number receivers.
func getIndex(obj, key runtime.Value) runtime.Value {
	return runtime.Index(obj, key)
}

// setIndex implements OpSetField/OpSetTable: only tables are valid
// assignment targets.
func setIndex(obj, key, val runtime.Value) {
	t, ok := obj.(*runtime.Table)
	if !ok {
		panic("attempt to index a " + runtime.TypeName(obj) + " value")
	}
	t.Set(key, val)
}

// selfMethod implements OpSelf's method half: look the key up, then strip
// any BoundMethod wrapper, since OpSelf's own A+1 slot already supplies
// the receiver positionally (runtime.UnwrapBoundMethod's doc comment
// explains why double-binding would otherwise occur).
func selfMethod(obj, key runtime.Value) runtime.Value {
	return runtime.UnwrapBoundMethod(runtime.Index(obj, key))
}
