// Package dicom reads DICOM files and assembles their frames into series.
package dicom

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Frame is a single 2-D grid of raw (un-windowed) intensities, row-major.
type Frame struct {
	Rows   int
	Cols   int
	Pixels []float64

	// Duration is the display time of this frame, zero when unknown.
	Duration time.Duration
	// Timestamp is the acquisition time of this frame in milliseconds, nil when unknown.
	Timestamp *float64
	// Instance is the ordering key of the file the frame came from, nil when unknown.
	Instance *int
}

// File is the result of reading one DICOM file: its metadata and its frames
// in stored order. A legacy file has one frame, an enhanced file has many.
type File struct {
	Path   string
	Meta   Metadata
	Frames []Frame
}

// ReadFile parses one DICOM file and extracts its frames and metadata.
func ReadFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrUnreadableFile, path)
	}

	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnreadableFile, path, err)
	}

	meta := extractMetadata(ds)
	if meta.SamplesPerPixel != 1 {
		return nil, fmt.Errorf("%w: %s has %d samples per pixel, only grayscale is supported",
			ErrUnsupportedPixels, path, meta.SamplesPerPixel)
	}

	pixelElem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil || pixelElem == nil || pixelElem.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPixelData, path)
	}
	pixelInfo, ok := pixelElem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok || len(pixelInfo.Frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingPixelData, path)
	}

	frames := make([]Frame, 0, len(pixelInfo.Frames))
	for i, fr := range pixelInfo.Frames {
		f, err := convertFrame(fr, meta)
		if err != nil {
			return nil, fmt.Errorf("%s frame %d: %w", path, i+1, err)
		}
		frames = append(frames, f)
	}
	annotateFrames(frames, meta)

	return &File{Path: path, Meta: meta, Frames: frames}, nil
}

// ReadSeries reads a single file (enhanced, or one frame of a legacy series)
// and assembles it into a Series.
func ReadSeries(path string) (*Series, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Assemble([]*File{f})
}

// annotateFrames attaches ordering keys, durations and timestamps to the
// frames of one file.
func annotateFrames(frames []Frame, meta Metadata) {
	var duration time.Duration
	if meta.FrameTime != nil && *meta.FrameTime > 0 {
		duration = time.Duration(*meta.FrameTime * float64(time.Millisecond))
	}

	for i := range frames {
		frames[i].Instance = meta.InstanceNumber
		frames[i].Duration = duration

		var ts *float64
		switch {
		case meta.TriggerTime != nil:
			ts = meta.TriggerTime
		case len(meta.CardiacTriggerDelays) == len(frames):
			v := meta.CardiacTriggerDelays[i]
			ts = &v
		case meta.AcquisitionDateTime != nil:
			v := float64(meta.AcquisitionDateTime.UnixNano()) / float64(time.Millisecond)
			ts = &v
		}
		frames[i].Timestamp = ts
	}
}

// convertFrame turns a parsed pixel frame into raw intensities, applying
// the signedness and modality rescale declared by the metadata.
func convertFrame(fr *frame.Frame, meta Metadata) (Frame, error) {
	if fr == nil {
		return Frame{}, ErrMissingPixelData
	}

	var (
		out Frame
		err error
	)
	if fr.Encapsulated {
		out, err = convertEncapsulated(fr)
	} else {
		out, err = convertNative(fr.NativeData, meta.PixelRepresentation == 1)
	}
	if err != nil {
		return Frame{}, err
	}

	slope, intercept := 1.0, 0.0
	if meta.RescaleSlope != nil && *meta.RescaleSlope != 0 {
		slope = *meta.RescaleSlope
	}
	if meta.RescaleIntercept != nil {
		intercept = *meta.RescaleIntercept
	}
	if slope != 1 || intercept != 0 {
		for i, v := range out.Pixels {
			out.Pixels[i] = v*slope + intercept
		}
	}
	return out, nil
}

func convertNative(nf frame.INativeFrame, signed bool) (Frame, error) {
	if nf == nil {
		return Frame{}, ErrMissingPixelData
	}
	if nf.SamplesPerPixel() != 1 {
		return Frame{}, fmt.Errorf("%w: %d samples per pixel", ErrUnsupportedPixels, nf.SamplesPerPixel())
	}

	rows, cols := nf.Rows(), nf.Cols()
	pixels := make([]float64, rows*cols)

	switch raw := nf.RawDataSlice().(type) {
	case []uint8:
		fill(pixels, raw, func(v uint8) float64 {
			if signed {
				return float64(int8(v))
			}
			return float64(v)
		})
	case []uint16:
		fill(pixels, raw, func(v uint16) float64 {
			if signed {
				return float64(int16(v))
			}
			return float64(v)
		})
	case []uint32:
		fill(pixels, raw, func(v uint32) float64 {
			if signed {
				return float64(int32(v))
			}
			return float64(v)
		})
	case []int8:
		fill(pixels, raw, func(v int8) float64 { return float64(v) })
	case []int16:
		fill(pixels, raw, func(v int16) float64 { return float64(v) })
	case []int32:
		fill(pixels, raw, func(v int32) float64 { return float64(v) })
	default:
		return Frame{}, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedPixels, nf.BitsPerSample())
	}

	return Frame{Rows: rows, Cols: cols, Pixels: pixels}, nil
}

func fill[T any](dst []float64, src []T, conv func(T) float64) {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		dst[i] = conv(src[i])
	}
}

// convertEncapsulated decodes a compressed frame through the image decoders
// registered with the library and reduces it to gray levels.
func convertEncapsulated(fr *frame.Frame) (Frame, error) {
	img, err := fr.EncapsulatedData.GetImage()
	if err != nil {
		return Frame{}, fmt.Errorf("%w: decode encapsulated frame: %v", ErrUnsupportedPixels, err)
	}
	if img == nil {
		return Frame{}, errors.New("decode encapsulated frame: empty image")
	}

	b := img.Bounds()
	out := Frame{Rows: b.Dy(), Cols: b.Dx(), Pixels: make([]float64, b.Dx()*b.Dy())}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Pixels[(y-b.Min.Y)*out.Cols+(x-b.Min.X)] = float64(grayAt(img, x, y))
		}
	}
	return out, nil
}

func grayAt(img image.Image, x, y int) uint8 {
	if g, ok := img.(*image.Gray); ok {
		return g.GrayAt(x, y).Y
	}
	return color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
}
