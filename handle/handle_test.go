package handle

import (
	"errors"
	"testing"

	"github.com/tarmac-project/sqlmap"
)

func TestInsertGet(t *testing.T) {
	t.Parallel()

	tbl := New[string](0)
	h1, err := tbl.Insert("one")
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	h2, _ := tbl.Insert("two")

	if h1 == Nil || h2 == Nil {
		t.Fatalf("expected non-nil handles, got %s and %s", h1, h2)
	}
	if h1 == h2 {
		t.Fatalf("expected distinct handles, got %s twice", h1)
	}

	tt := []struct {
		name string
		h    Handle
		want string
	}{
		{name: "first", h: h1, want: "one"},
		{name: "second", h: h2, want: "two"},
	}
	for _, tc := range tt {
		got, err := tbl.Get(tc.h)
		if err != nil {
			t.Fatalf("%s: Get returned error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: want %q, got %q", tc.name, tc.want, got)
		}
	}
	if tbl.Len() != 2 {
		t.Fatalf("expected 2 live handles, got %d", tbl.Len())
	}
}

func TestInvalidHandles(t *testing.T) {
	t.Parallel()

	tbl := New[int](0)
	h, _ := tbl.Insert(1)
	removed, _ := tbl.Insert(2)
	if _, err := tbl.Remove(removed); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	reused, _ := tbl.Insert(3)

	tt := []struct {
		name string
		h    Handle
	}{
		{name: "nil handle", h: Nil},
		{name: "never issued", h: makeHandle(99, 0)},
		{name: "removed", h: removed},
		{name: "wrong generation", h: makeHandle(h.index(), h.gen()+1)},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tbl.Get(tc.h); !errors.Is(err, sqlmap.ErrInvalidHandle) {
				t.Fatalf("Get: expected ErrInvalidHandle, got %v", err)
			}
			if _, err := tbl.Remove(tc.h); !errors.Is(err, sqlmap.ErrInvalidHandle) {
				t.Fatalf("Remove: expected ErrInvalidHandle, got %v", err)
			}
		})
	}

	if reused.index() != removed.index() {
		t.Fatalf("expected freed slot to be reused")
	}
	if v, err := tbl.Get(reused); err != nil || v != 3 {
		t.Fatalf("expected reused handle to resolve to 3, got %d, %v", v, err)
	}
}

func TestTableFull(t *testing.T) {
	t.Parallel()

	tbl := New[int](2)
	h, _ := tbl.Insert(1)
	_, _ = tbl.Insert(2)
	if _, err := tbl.Insert(3); !errors.Is(err, ErrTableFull) {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
	_, _ = tbl.Remove(h)
	if _, err := tbl.Insert(3); err != nil {
		t.Fatalf("expected room after Remove, got %v", err)
	}
}

func TestGenerationWraps(t *testing.T) {
	t.Parallel()

	tbl := New[int](1)
	first, _ := tbl.Insert(0)
	h := first
	for i := 0; i < genMask+1; i++ {
		_, _ = tbl.Remove(h)
		h, _ = tbl.Insert(i)
		if h == Nil {
			t.Fatalf("issued the nil handle after %d reuses", i)
		}
	}
	if h != first {
		t.Fatalf("expected generation to wrap back to %s, got %s", first, h)
	}
}

func TestEach(t *testing.T) {
	t.Parallel()

	tbl := New[int](0)
	for i := 0; i < 5; i++ {
		_, _ = tbl.Insert(i)
	}
	sum := 0
	tbl.Each(func(h Handle, v int) bool {
		if got, err := tbl.Get(h); err != nil || got != v {
			t.Fatalf("Each handle %s does not resolve to %d", h, v)
		}
		sum += v
		return true
	})
	if sum != 0+1+2+3+4 {
		t.Fatalf("expected Each to visit every value, sum %d", sum)
	}
}
