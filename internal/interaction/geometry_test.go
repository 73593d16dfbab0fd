package interaction

import "testing"

func TestResolveIndexFromPointer(t *testing.T) {
	bounds := Rect{X: 0, Y: 4, Width: 20, Height: 30}
	cases := []struct {
		name       string
		pointerY   int
		itemHeight int
		itemCount  int
		want       int
	}{
		{name: "first slot", pointerY: 4, itemHeight: 3, itemCount: 5, want: 0},
		{name: "inside second item", pointerY: 8, itemHeight: 3, itemCount: 5, want: 1},
		{name: "above list", pointerY: 1, itemHeight: 3, itemCount: 5, want: 0},
		{name: "below list appends", pointerY: 60, itemHeight: 3, itemCount: 5, want: 5},
		{name: "empty column", pointerY: 9, itemHeight: 3, itemCount: 0, want: 0},
		{name: "zero item height appends", pointerY: 9, itemHeight: 0, itemCount: 4, want: 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveIndexFromPointer(bounds, tc.pointerY, tc.itemHeight, tc.itemCount)
			if got != tc.want {
				t.Fatalf("ResolveIndexFromPointer() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResolveDirection(t *testing.T) {
	if ResolveDirection(3, 1) != DirectionDown {
		t.Fatal("expected down")
	}
	if ResolveDirection(0, 2) != DirectionUp {
		t.Fatal("expected up")
	}
	if ResolveDirection(2, 2) != DirectionNone || ResolveDirection(2, -1) != DirectionNone {
		t.Fatal("expected none")
	}
}

func TestResolveColumnAt(t *testing.T) {
	rects := []Rect{
		{X: 0, Y: 2, Width: 10, Height: 20},
		{X: 10, Y: 2, Width: 10, Height: 20},
		{X: 20, Y: 2, Width: 10, Height: 20},
	}
	cases := []struct {
		x, y, want int
	}{
		{x: 0, y: 2, want: 0},
		{x: 9, y: 21, want: 0},
		{x: 10, y: 5, want: 1},
		{x: 29, y: 5, want: 2},
		{x: 30, y: 5, want: -1},
		{x: 5, y: 1, want: -1},
		{x: 5, y: 22, want: -1},
	}
	for _, tc := range cases {
		if got := ResolveColumnAt(rects, tc.x, tc.y); got != tc.want {
			t.Fatalf("ResolveColumnAt(%d, %d) = %d, want %d", tc.x, tc.y, got, tc.want)
		}
	}
}
