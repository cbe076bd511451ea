package vm

import (
	"testing"

	"github.com/cjscript/cjc/compiler"
	"github.com/cjscript/cjc/runtime"
)

// runSource compiles src and executes it against a fresh global
// environment, returning that environment for assertions against the
// globals the program assigned.
func runSource(t *testing.T, src string) *runtime.Table {
	t.Helper()
	chunk, err := compiler.Compile(src, "test")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	env := runtime.NewGlobalEnv()
	main := NewMainClosure(chunk.Main, env)
	if _, err := callClosure(main, nil); err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return env
}

func TestArithmeticPrecedence(t *testing.T) {
	env := runSource(t, `result = 2 + 3 * 4;`)
	got := env.RawGet("result")
	if got != int64(14) {
		t.Fatalf("result = %v (%T), want int64(14)", got, got)
	}
}

func TestIntFloatWidening(t *testing.T) {
	env := runSource(t, `result = 7 / 2;`)
	got := env.RawGet("result")
	f, ok := got.(float64)
	if !ok || f != 3.5 {
		t.Fatalf("result = %v (%T), want float64(3.5)", got, got)
	}
}

func TestFunctionCall(t *testing.T) {
	env := runSource(t, `
		func add(a, b) {
			return a + b;
		}
		result = add(2, 3);
	`)
	if got := env.RawGet("result"); got != int64(5) {
		t.Fatalf("result = %v, want int64(5)", got)
	}
}

func TestClosureCapturesUpvalue(t *testing.T) {
	env := runSource(t, `
		func makeCounter() {
			var n = 0;
			func inc() {
				n = n + 1;
				return n;
			}
			return inc;
		}
		counter = makeCounter();
		a = counter();
		b = counter();
	`)
	if got := env.RawGet("a"); got != int64(1) {
		t.Fatalf("a = %v, want int64(1)", got)
	}
	if got := env.RawGet("b"); got != int64(2) {
		t.Fatalf("b = %v, want int64(2)", got)
	}
}

func TestNumericForExclusive(t *testing.T) {
	env := runSource(t, `
		sum = 0;
		for (i in 0..5) {
			sum = sum + i;
		}
	`)
	if got := env.RawGet("sum"); got != int64(10) {
		t.Fatalf("sum = %v, want int64(10) (0+1+2+3+4)", got)
	}
}

func TestNumericForInclusiveWithBreak(t *testing.T) {
	env := runSource(t, `
		sum = 0;
		for (i in 1..=10) {
			if (i > 3) {
				break;
			}
			sum = sum + i;
		}
	`)
	if got := env.RawGet("sum"); got != int64(6) {
		t.Fatalf("sum = %v, want int64(6) (1+2+3)", got)
	}
}

func TestArrayLiteralAndIndex(t *testing.T) {
	env := runSource(t, `
		arr = [10, 20, 30];
		total = arr.size;
		first = arr[0];
		last = arr[2];
	`)
	if got := env.RawGet("total"); got != int64(3) {
		t.Fatalf("total = %v, want int64(3)", got)
	}
	if got := env.RawGet("first"); got != int64(10) {
		t.Fatalf("first = %v, want int64(10)", got)
	}
	if got := env.RawGet("last"); got != int64(30) {
		t.Fatalf("last = %v, want int64(30)", got)
	}
}

func TestStringConcat(t *testing.T) {
	env := runSource(t, `s = "foo" .. "bar";`)
	if got := env.RawGet("s"); got != "foobar" {
		t.Fatalf("s = %v, want %q", got, "foobar")
	}
}

func TestCompareAndShortCircuit(t *testing.T) {
	env := runSource(t, `
		a = (1 < 2) && (2 < 3);
		b = (1 > 2) || (3 > 2);
		c = 1 == 1;
		d = 1 != 2;
	`)
	for name, want := range map[string]bool{"a": true, "b": true, "c": true} {
		if got := env.RawGet(name); got != want {
			t.Fatalf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestTableConstructorField(t *testing.T) {
	env := runSource(t, `
		t = {x: 1, y: 2};
		result = t.x + t.y;
	`)
	if got := env.RawGet("result"); got != int64(3) {
		t.Fatalf("result = %v, want int64(3)", got)
	}
}

func TestClassInheritanceMethodDispatchEndToEnd(t *testing.T) {
	env := runSource(t, `
		class Animal {
			func speak() {
				return "...";
			}
		}
		class Dog <: Animal {
			func speak() {
				return "woof";
			}
		}
		let d = Dog();
		result = d.speak();
	`)
	if got := env.RawGet("result"); got != "woof" {
		t.Fatalf("result = %v, want woof (override should win over parent)", got)
	}
}

func TestEnumPayloadMethodAndOperatorDispatchEndToEnd(t *testing.T) {
	env := runSource(t, `
		enum Shape {
			| Circle(Int64)
			| Square(Int64)
			func area() {
				match (self) {
				case Circle(r) => return r * r;
				case Square(side) => return side * side;
				}
			}
			operator func +(other) {
				return self.area() + other.area();
			}
		}
		let c = Circle(5);
		let s = Square(3);
		areaResult = c.area();
		sumResult = c + s;
	`)
	if got := env.RawGet("areaResult"); got != int64(25) {
		t.Fatalf("Circle(5).area() = %v, want 25", got)
	}
	if got := env.RawGet("sumResult"); got != int64(34) {
		t.Fatalf("Circle(5) + Square(3) = %v, want 34 (25+9)", got)
	}
}

func TestEnumNullaryMethodDispatchEndToEnd(t *testing.T) {
	env := runSource(t, `
		enum Light {
			| Red
			| Green
			func label() {
				match (self) {
				case Red => return "stop";
				case Green => return "go";
				}
			}
		}
		let l = Red;
		result = l.label();
	`)
	if got := env.RawGet("result"); got != "stop" {
		t.Fatalf("Red.label() = %v, want stop", got)
	}
}

func TestNamedArgumentsEndToEnd(t *testing.T) {
	env := runSource(t, `
		func make(x, y) {
			return x - y;
		}
		result = make(y: 2, x: 10);
	`)
	if got := env.RawGet("result"); got != int64(8) {
		t.Fatalf("make(y: 2, x: 10) = %v, want 8", got)
	}
}

func TestIfLetTupleBindingEndToEnd(t *testing.T) {
	env := runSource(t, `
		let pair = (3, 4);
		if (let (a, b) <- pair) {
			result = a + b;
		}
	`)
	if got := env.RawGet("result"); got != int64(7) {
		t.Fatalf("result = %v, want 7", got)
	}
}

// TestMatchArmBindingSurvivesManyLocals is a regression test for pattern
// bindings landing above nactvar: a payload binding used to sit wherever
// freereg happened to be after the tag test, and the arm's own locals
// could climb back up and clobber it once there were enough of them.
func TestMatchArmBindingSurvivesManyLocals(t *testing.T) {
	env := runSource(t, `
		enum Shape {
			| Circle(Int64)
		}
		match (Circle(2)) {
		case Circle(r) => {
			let a = 1;
			let b = 2;
			let c = 3;
			let d = 4;
			let e = 5;
			result = r;
			sum = a + b + c + d + e;
		}
		}
	`)
	if got := env.RawGet("result"); got != int64(2) {
		t.Fatalf("result = %v, want 2 (payload binding should survive later locals)", got)
	}
	if got := env.RawGet("sum"); got != int64(15) {
		t.Fatalf("sum = %v, want 15", got)
	}
}
