package export

import (
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"io"
	"io/fs"
	"os"

	"github.com/san-kum/flicker/internal/scene"
	"github.com/setanarut/apng"
)

// delay converts a frame rate to a per-frame delay in hundredths of a
// second, never less than one.
func delay(fps int) int {
	if fps <= 0 {
		return 1
	}
	return max(1, (100+fps/2)/fps)
}

// WriteAPNG saves the recording as an animated PNG.
func WriteAPNG(path string, rec *Recording) error {
	if len(rec.Frames) == 0 {
		return ErrNoFrames
	}
	frames := make([]image.Image, len(rec.Frames))
	for i, f := range rec.Frames {
		frames[i] = f
	}
	// apng.Save reports no error. Success is a fresh non-empty file.
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("write apng: %w", err)
	}
	apng.Save(path, frames, uint16(delay(rec.FPS)))
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("write apng: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return fmt.Errorf("write apng: %s: nothing written", path)
	}
	return nil
}

// WriteGIF encodes the recording as a looping GIF using the Plan 9
// palette with Floyd-Steinberg dithering.
func WriteGIF(w io.Writer, rec *Recording) error {
	if len(rec.Frames) == 0 {
		return ErrNoFrames
	}
	anim := gif.GIF{LoopCount: 0}
	d := delay(rec.FPS)
	for _, f := range rec.Frames {
		p := image.NewPaletted(f.Rect, palette.Plan9)
		draw.FloydSteinberg.Draw(p, f.Rect, f, f.Rect.Min)
		anim.Image = append(anim.Image, p)
		anim.Delay = append(anim.Delay, d)
	}
	return gif.EncodeAll(w, &anim)
}

// WritePNG writes the last frame of the recording.
func WritePNG(w io.Writer, rec *Recording) error {
	if len(rec.Frames) == 0 {
		return ErrNoFrames
	}
	return png.Encode(w, rec.Frames[len(rec.Frames)-1])
}

// WriteSVG writes the scene's current state.
func WriteSVG(w io.Writer, s *scene.Scene) error {
	return s.WriteSVG(w)
}

// Format names an output encoding.
type Format string

const (
	FormatAPNG Format = "apng"
	FormatGIF  Format = "gif"
	FormatPNG  Format = "png"
	FormatSVG  Format = "svg"
)

func Formats() []Format { return []Format{FormatAPNG, FormatGIF, FormatPNG, FormatSVG} }

// FormatFor picks the encoding from a file extension.
func FormatFor(ext string) (Format, error) {
	switch ext {
	case ".apng":
		return FormatAPNG, nil
	case ".gif":
		return FormatGIF, nil
	case ".png":
		return FormatPNG, nil
	case ".svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("export: unsupported extension %q", ext)
}

// WriteFile writes rec to path in the given format. SVG output is taken
// from the scene's current state instead.
func WriteFile(path string, format Format, rec *Recording, s *scene.Scene) error {
	if format == FormatAPNG {
		return WriteAPNG(path, rec)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case FormatGIF:
		err = WriteGIF(f, rec)
	case FormatPNG:
		err = WritePNG(f, rec)
	case FormatSVG:
		err = WriteSVG(f, s)
	default:
		err = fmt.Errorf("export: unsupported format %q", format)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
