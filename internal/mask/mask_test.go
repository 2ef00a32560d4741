package mask

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParsePathData(t *testing.T) {
	segs, err := parsePathData("M1,2 l3-1 h2 v1.5 z")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []segment{
		{op: opMove, pts: [3]point{{1, 2}}},
		{op: opLine, pts: [3]point{{4, 1}}},
		{op: opLine, pts: [3]point{{6, 1}}},
		{op: opLine, pts: [3]point{{6, 2.5}}},
		{op: opClose},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(segs))
	}
	for i := range want {
		if segs[i] != want[i] {
			t.Errorf("segment %d: expected %+v, got %+v", i, want[i], segs[i])
		}
	}
}

func TestParsePathDataCompactNumbers(t *testing.T) {
	segs, err := parsePathData("M0.5.5c.1-.2,1e1,0,1.5-1.5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(segs) != 2 || segs[1].op != opCube {
		t.Fatalf("expected move and cubic, got %+v", segs)
	}
	end := segs[1].pts[2]
	if math.Abs(end.x-2) > 1e-12 || math.Abs(end.y+1) > 1e-12 {
		t.Errorf("expected end (2,-1), got %+v", end)
	}
	if ctl := segs[1].pts[1]; math.Abs(ctl.x-10.5) > 1e-12 {
		t.Errorf("expected exponent control x 10.5, got %f", ctl.x)
	}
}

func TestParsePathDataSmooth(t *testing.T) {
	segs, err := parsePathData("M0,0 C0,1 1,1 1,0 S2,-1 2,0 Q3,1 4,0 T6,0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := segs[2].pts[0]; got != (point{1, -1}) {
		t.Errorf("expected reflected cubic control (1,-1), got %+v", got)
	}
	if got := segs[4].pts[0]; got != (point{5, -1}) {
		t.Errorf("expected reflected quad control (5,-1), got %+v", got)
	}
}

func TestParsePathDataErrors(t *testing.T) {
	for _, d := range []string{"10 10", "M1", "M0,0 A1,1 0 0 1 2,2", "M0,0 Z 1,1", "M0,0 L-"} {
		if _, err := parsePathData(d); err == nil {
			t.Errorf("%q: expected error", d)
		}
	}
}

func TestParseSVGNoPaths(t *testing.T) {
	_, err := ParseSVG(strings.NewReader(`<svg viewBox="0 0 10 10"><g/></svg>`))
	if !errors.Is(err, ErrNoPaths) {
		t.Errorf("expected ErrNoPaths, got %v", err)
	}
}

func TestShapeRenderContain(t *testing.T) {
	shape, err := ParseSVG(strings.NewReader(`<svg viewBox="0 0 10 10"><path d="M0,0H10V10H0Z"/></svg>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	a := shape.Render(40, 20)
	if a.Bounds().Dx() != 40 || a.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", a.Bounds())
	}
	// square fitted into the middle 20x20
	if c := Coverage(a, 20, 10); c < 0.99 {
		t.Errorf("expected centre covered, got %f", c)
	}
	if c := Coverage(a, 5, 10); c != 0 {
		t.Errorf("expected left margin uncovered, got %f", c)
	}
	if c := Coverage(a, 35, 10); c != 0 {
		t.Errorf("expected right margin uncovered, got %f", c)
	}
	if c := Coverage(a, -1, 10); c != 0 {
		t.Errorf("expected outside uncovered, got %f", c)
	}
}

func TestShapeBoundsWithoutViewBox(t *testing.T) {
	shape, err := ParseSVG(strings.NewReader(`<svg><path d="M5,5 L15,5 L15,15 L5,15 Z"/></svg>`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if shape.viewBox != [4]float64{5, 5, 10, 10} {
		t.Errorf("expected bounds viewBox, got %v", shape.viewBox)
	}
	a := shape.Render(10, 10)
	if c := Coverage(a, 5, 5); c < 0.99 {
		t.Errorf("expected shape to fill mask, got %f", c)
	}
}

func TestDefaultSilhouette(t *testing.T) {
	shape := Default()
	a := shape.Render(100, 100)

	covered := 0
	for _, v := range a.Pix {
		if v > 127 {
			covered++
		}
	}
	if covered == 0 || covered == len(a.Pix) {
		t.Fatalf("expected a partial silhouette, got %d of %d covered", covered, len(a.Pix))
	}
	if c := Coverage(a, 0, 99); c != 0 {
		t.Errorf("expected bottom-left corner uncovered, got %f", c)
	}
}

func TestLoadBitmap(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			src.Set(x, y, color.NRGBA{A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "mask.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	a := m.Render(8, 8)
	// 4x2 fitted into 8x8 becomes 8x4 starting at y=2
	if c := Coverage(a, 1, 3); c < 0.9 {
		t.Errorf("expected opaque half covered, got %f", c)
	}
	if c := Coverage(a, 7, 3); c > 0.1 {
		t.Errorf("expected transparent half uncovered, got %f", c)
	}
	if c := Coverage(a, 1, 0); c != 0 {
		t.Errorf("expected letterbox uncovered, got %f", c)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.svg")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load("builtin"); err != nil {
		t.Errorf("builtin should load: %v", err)
	}
}
