package compiler

import (
	"strings"
	"testing"
)

func compileOK(t *testing.T, src string) {
	t.Helper()
	if _, err := Compile(src, "test"); err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
}

func compileErr(t *testing.T, src string) *SyntaxError {
	t.Helper()
	_, err := Compile(src, "test")
	if err == nil {
		t.Fatalf("expected a compile error, got none")
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	return se
}

func TestCompileEmptyChunk(t *testing.T) {
	compileOK(t, "")
}

func TestCompileLocalsAndAssignment(t *testing.T) {
	compileOK(t, `
		let a = 1;
		var b = 2;
		b = a + b;
		global = b;
	`)
}

func TestCompileFunctionDecl(t *testing.T) {
	compileOK(t, `
		func add(a, b) {
			return a + b;
		}
		result = add(1, 2);
	`)
}

func TestCompileOverloadedFunction(t *testing.T) {
	compileOK(t, `
		func greet(name) {
			return name;
		}
		func greet(first, last) {
			return first;
		}
	`)
}

func TestCompileClosureOverNestedFunction(t *testing.T) {
	compileOK(t, `
		func outer() {
			var x = 1;
			func inner() {
				return x;
			}
			return inner;
		}
	`)
}

func TestCompileIfElse(t *testing.T) {
	compileOK(t, `
		var x = 1;
		if (x < 2) {
			x = 2;
		} else {
			x = 3;
		}
	`)
}

func TestCompileNumericForBothRanges(t *testing.T) {
	compileOK(t, `
		for (i in 0..10) {
			let y = i;
		}
		for (i in 0..=10) {
			let y = i;
		}
	`)
}

func TestCompileWhileLoop(t *testing.T) {
	compileOK(t, `
		var i = 0;
		while (i < 10) {
			i = i + 1;
		}
	`)
}

func TestCompileArrayAndTableLiterals(t *testing.T) {
	compileOK(t, `
		let arr = [1, 2, 3];
		let t = {x: 1, y: 2};
		let mixed = {10, 20, key: "v"};
	`)
}

func TestCompileBraceLambda(t *testing.T) {
	compileOK(t, `
		let add = {a, b => a + b};
		result = add(1, 2);
	`)
}

func TestCompileBlockExpression(t *testing.T) {
	compileOK(t, `
		let x = {
			let a = 1;
			let b = 2;
			a + b
		};
	`)
}

func TestCompileStructDecl(t *testing.T) {
	compileOK(t, `
		struct Point {
			let x: Int64
			let y: Int64
		}
	`)
}

func TestCompilePrimaryCtorShorthand(t *testing.T) {
	compileOK(t, `
		class Point(let x: Int64, let y: Int64) {
		}
		let p = Point(1, 2);
	`)
}

func TestCompileClassWithInheritance(t *testing.T) {
	compileOK(t, `
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
	`)
}

func TestCompileInterfaceDecl(t *testing.T) {
	compileOK(t, `
		interface Greeter {
			func greet()
		}
	`)
}

func TestCompileEnumDecl(t *testing.T) {
	compileOK(t, `
		enum Shape {
			| Circle(Int64)
			| Square(Int64)
			| Unit
		}
		let c = Circle(5);
		let u = Unit;
	`)
}

func TestCompileMatchStatement(t *testing.T) {
	compileOK(t, `
		enum Shape {
			| Circle(Int64)
			| Square(Int64)
		}
		let s = Circle(5);
		match (s) {
			case Circle(r) =>
				let area = r;
			case Square(side) =>
				let area = side;
		}
	`)
}

func TestCompileMatchAsExpression(t *testing.T) {
	compileOK(t, `
		let n = 1;
		let label = match (n) {
			case 1 => "one"
			case _ => "other"
		};
	`)
}

func TestCompileIfLet(t *testing.T) {
	compileOK(t, `
		let pair = (1, 2);
		if (let (a, b) <- pair) {
			let sum = a + b;
		}
	`)
}

func TestCompileNamedArguments(t *testing.T) {
	compileOK(t, `
		func make(x, y) {
			return x;
		}
		let v = make(y: 2, x: 1);
	`)
}

func TestCompileStringInterpolation(t *testing.T) {
	compileOK(t, `
		let name = "world";
		let greeting = "hello ${name}!";
	`)
}

func TestCompileMissingClosingBrace(t *testing.T) {
	se := compileErr(t, `
		func broken() {
			return 1;
	`)
	if !strings.Contains(se.Error(), "'}' expected") {
		t.Fatalf("error = %q, want mention of missing '}'", se.Error())
	}
}

func TestCompileMissingClosingParen(t *testing.T) {
	se := compileErr(t, `let x = (1 + 2;`)
	if !strings.Contains(se.Error(), "')' expected") {
		t.Fatalf("error = %q, want mention of missing ')'", se.Error())
	}
}

func TestCompileDuplicateTypeName(t *testing.T) {
	se := compileErr(t, `
		struct Point {
			let x: Int64
		}
		struct Point {
			let y: Int64
		}
	`)
	if !strings.Contains(se.Error(), "already defined") {
		t.Fatalf("error = %q, want mention of redefinition", se.Error())
	}
}

func TestCompileUnexpectedToken(t *testing.T) {
	compileErr(t, `let = 1;`)
}
