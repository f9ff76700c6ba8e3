package tsiface_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goprune "github.com/reoring/goprune"
	"github.com/reoring/goprune/tsiface"
)

func parse(t *testing.T, src, name string) goprune.Descriptor {
	t.Helper()
	d, err := tsiface.ParseToMap(context.Background(), src, name)
	require.NoError(t, err)
	return d
}

func TestParseToMap_Primitives(t *testing.T) {
	got := parse(t, `
		interface User {
			name: string;
			age: number;
			active: boolean;
			description?: string;
			data: object;
			metadata: any;
			extra: unknown;
			gone: null;
			missing: undefined;
			"quoted-key": string;
		}
	`, "")
	assert.Equal(t, goprune.Shape{
		"name": goprune.String, "age": goprune.Number, "active": goprune.Boolean,
		"description": goprune.String, "data": goprune.Object, "metadata": goprune.Object,
		"extra": goprune.Object, "gone": goprune.Null, "missing": goprune.Null,
		"quoted-key": goprune.String,
	}, got)
}

func TestParseToMap_NestedAndArrays(t *testing.T) {
	got := parse(t, `
		interface Company {
			location: {
				country: string;
				office: { building: string; floor: number };
			};
			tags: string[];
			values: Array<number>;
			members: Array<{ name: string; role: string }>;
			grid: number[][];
			point: [number, string];
			frozen: readonly string[];
		}
	`, "")
	assert.Equal(t, goprune.Shape{
		"location": goprune.Shape{
			"country": goprune.String,
			"office":  goprune.Shape{"building": goprune.String, "floor": goprune.Number},
		},
		"tags":    goprune.List{goprune.String},
		"values":  goprune.List{goprune.Number},
		"members": goprune.List{goprune.Shape{"name": goprune.String, "role": goprune.String}},
		"grid":    goprune.List{goprune.List{goprune.Number}},
		"point":   goprune.List{goprune.Number, goprune.String},
		"frozen":  goprune.List{goprune.String},
	}, got)
}

func TestParseToMap_UnionsAndLiterals(t *testing.T) {
	got := parse(t, `
		interface Flags {
			maybe: string | null;
			later: undefined | number;
			nothing: null | undefined;
			both: A & B;
			kind: "a" | "b";
			level: 1 | 2;
			on: true;
			wrapped: (string | null);
		}
	`, "")
	assert.Equal(t, goprune.Shape{
		"maybe": goprune.String, "later": goprune.Number, "nothing": goprune.Object,
		"both": goprune.Object, "kind": goprune.String, "level": goprune.Number,
		"on": goprune.Boolean, "wrapped": goprune.String,
	}, got)
}

func TestParseToMap_IndexSignatureIsOpen(t *testing.T) {
	got := parse(t, `
		interface Bag { [key: string]: number; size: number }
		interface Holder { bag: Bag; inline: { [k: string]: string } }
	`, "Holder")
	assert.Equal(t, goprune.Shape{"bag": goprune.Object, "inline": goprune.Object}, got)
}

func TestParseToMap_References(t *testing.T) {
	src := `
		interface User {
			name: string;
			company: Company;
			comments: Comment[];
			other: Unknown;
			empty: Empty;
		}
		interface Company { name: string; employees: number }
		interface Comment { text: string }
		interface Empty {}
	`
	assert.Equal(t, goprune.Shape{
		"name":     goprune.String,
		"company":  goprune.Shape{"name": goprune.String, "employees": goprune.Number},
		"comments": goprune.List{goprune.Shape{"text": goprune.String}},
		"other":    goprune.Object,
		"empty":    goprune.Object,
	}, parse(t, src, "User"))

	all := parse(t, src, "")
	shape, ok := all.(goprune.Shape)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"User", "Company", "Comment", "Empty"}, shape.Keys())
	assert.Equal(t, goprune.Shape{}, shape["Empty"])
}

func TestParseToMap_ExtendsAndAliases(t *testing.T) {
	src := `
		interface Person { name: string; age: number }
		interface Employee extends Person { age: string; salary: number }
		export interface Manager extends Employee, Audited { reports: Employee[] }
		type Audited = { createdAt: string };
		type ID = string;
		interface Doc { id: ID; meta: Audited }
	`
	assert.Equal(t, goprune.Shape{
		"name": goprune.String, "age": goprune.String, "salary": goprune.Number,
	}, parse(t, src, "Employee"))

	mgr := parse(t, src, "Manager").(goprune.Shape)
	assert.Equal(t, goprune.String, mgr["createdAt"])
	assert.Equal(t, goprune.String, mgr["name"])
	assert.Equal(t, goprune.List{goprune.Shape{
		"name": goprune.String, "age": goprune.String, "salary": goprune.Number,
	}}, mgr["reports"])

	assert.Equal(t, goprune.Shape{"id": goprune.String, "meta": goprune.Shape{"createdAt": goprune.String}}, parse(t, src, "Doc"))
}

func TestParseToMap_DeclarationMerging(t *testing.T) {
	got := parse(t, `
		interface Box { width: number }
		interface Box { height: number }
	`, "Box")
	assert.Equal(t, goprune.Shape{"width": goprune.Number, "height": goprune.Number}, got)
}

func TestParseToMap_Errors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"no declarations", `const x = 1;`, "no interfaces found"},
		{"unknown name", `interface A { a: string }`, `interface "B" not found; available: A`},
		{"syntax", `interface A { a: string `, "syntax error"},
		{"self cycle", `interface Node { next: Node }`, "cyclic reference to Node"},
		{"mutual cycle", `interface A { b: B } interface B { a: A }`, "cyclic reference to A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name := ""
			if tc.name == "unknown name" {
				name = "B"
			}
			_, err := tsiface.ParseToMap(ctx, tc.src, name)
			require.Error(t, err)
			assert.ErrorIs(t, err, goprune.ErrImporterParse)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestParse_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tsiface.Parse(ctx, `interface A { a: string }`)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSet_Names(t *testing.T) {
	set, err := tsiface.Parse(context.Background(), `interface B { b: string } type A = { a: number }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, set.Names())
	d, ok := set.Lookup("A")
	require.True(t, ok)
	assert.Equal(t, goprune.Shape{"a": goprune.Number}, d)
}

func TestReduce(t *testing.T) {
	src := `
		interface Address { street: string; city: string }
		interface User { name: string; address: Address; tags: string[] }
	`
	input := map[string]any{
		"name":     "Ann",
		"password": "secret",
		"address":  map[string]any{"street": "Main", "city": "X", "lat": 1.5},
		"tags":     []any{"a", 2, "b"},
	}
	got, err := tsiface.Reduce(context.Background(), input, src, "User")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":    "Ann",
		"address": map[string]any{"street": "Main", "city": "X"},
		"tags":    []any{"a", "b"},
	}, got)

	got, err = tsiface.Reduce(context.Background(), map[string]any{"name": "Ann"}, src, "User", goprune.Options{KeepKeys: true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":    "Ann",
		"address": map[string]any{"street": nil, "city": nil},
		"tags":    []any{nil},
	}, got)
}
