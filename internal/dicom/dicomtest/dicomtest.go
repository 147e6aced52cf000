// Package dicomtest writes small synthetic DICOM files for tests.
package dicomtest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	// MRImageStorage is the SOP class written for image fixtures.
	MRImageStorage = "1.2.840.10008.5.1.4.1.1.4"
	// EnhancedMRImageStorage is the SOP class written for multi-frame fixtures.
	EnhancedMRImageStorage = "1.2.840.10008.5.1.4.1.1.4.1"
	// GrayscaleSoftcopyPresentationState is a presentation state SOP class.
	GrayscaleSoftcopyPresentationState = "1.2.840.10008.5.1.4.1.1.11.1"

	explicitVRLittleEndian = "1.2.840.10008.1.2.1"
)

var (
	tagPerFrameFunctionalGroupsSequence = tag.Tag{Group: 0x5200, Element: 0x9230}
	tagSharedFunctionalGroupsSequence   = tag.Tag{Group: 0x5200, Element: 0x9229}
	tagFrameVOILUTSequence              = tag.Tag{Group: 0x0028, Element: 0x9132}
	tagCardiacSynchronizationSequence   = tag.Tag{Group: 0x0018, Element: 0x9118}
	tagNominalCardiacTriggerDelayTime   = tag.Tag{Group: 0x0020, Element: 0x9153}
	tagComplexImageComponent            = tag.Tag{Group: 0x0008, Element: 0x9208}
)

// Image describes one file to write. Each entry of Frames holds Rows*Cols pixels.
type Image struct {
	SeriesUID  string
	SOPClass   string
	Instance   int // 0 omits InstanceNumber
	Rows       int
	Cols       int
	Frames     [][]uint16
	BitsStored int

	// Window, when set, is written as WindowCenter/WindowWidth on legacy
	// files or as a shared FrameVOILUTSequence on enhanced ones.
	Window *[2]float64
	// PerFrameWindow writes the window in each per-frame functional group instead.
	PerFrameWindow bool

	RescaleSlope     float64
	RescaleIntercept float64

	FrameTime   float64 // ms, 0 omits
	TriggerTime float64 // ms, 0 omits
	// TriggerDelays writes one NominalCardiacTriggerDelayTime per frame.
	TriggerDelays []float64

	ComplexImageComponent string
	ImageType             []string
	// Enhanced forces the functional group layout even for a single frame.
	Enhanced bool
}

// Flat returns a frame of rows*cols pixels all set to v.
func Flat(rows, cols int, v uint16) []uint16 {
	px := make([]uint16, rows*cols)
	for i := range px {
		px[i] = v
	}
	return px
}

// Ramp returns a frame whose pixels increase by step from base in row-major order.
func Ramp(rows, cols int, base, step uint16) []uint16 {
	px := make([]uint16, rows*cols)
	for i := range px {
		px[i] = base + uint16(i)*step
	}
	return px
}

// Write writes img to path, creating parent directories.
func Write(path string, img Image) error {
	if len(img.Frames) == 0 {
		return fmt.Errorf("dicomtest: no frames for %s", path)
	}
	if img.SOPClass == "" {
		img.SOPClass = MRImageStorage
		if img.Enhanced || len(img.Frames) > 1 {
			img.SOPClass = EnhancedMRImageStorage
		}
	}
	if img.BitsStored == 0 {
		img.BitsStored = 12
	}
	enhanced := img.Enhanced || len(img.Frames) > 1

	pixelsPerFrame := img.Rows * img.Cols
	frames := make([]*frame.Frame, 0, len(img.Frames))
	for i, px := range img.Frames {
		if len(px) != pixelsPerFrame {
			return fmt.Errorf("dicomtest: frame %d has %d pixels, want %d", i, len(px), pixelsPerFrame)
		}
		nf := frame.NewNativeFrame[uint16](16, img.Rows, img.Cols, pixelsPerFrame, 1)
		copy(nf.RawData, px)
		frames = append(frames, &frame.Frame{Encapsulated: false, NativeData: nf})
	}

	elements := []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
		mustNewElement(tag.SOPClassUID, []string{img.SOPClass}),
		mustNewElement(tag.SOPInstanceUID, []string{fmt.Sprintf("%s.%d", img.SeriesUID, img.Instance+1)}),
		mustNewElement(tag.Modality, []string{"MR"}),
		mustNewElement(tag.SeriesInstanceUID, []string{img.SeriesUID}),
		mustNewElement(tag.Rows, []int{img.Rows}),
		mustNewElement(tag.Columns, []int{img.Cols}),
		mustNewElement(tag.BitsAllocated, []int{16}),
		mustNewElement(tag.BitsStored, []int{img.BitsStored}),
		mustNewElement(tag.HighBit, []int{img.BitsStored - 1}),
		mustNewElement(tag.PixelRepresentation, []int{0}),
		mustNewElement(tag.SamplesPerPixel, []int{1}),
		mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
	}
	if img.Instance > 0 {
		elements = append(elements, mustNewElement(tag.InstanceNumber, []string{fmt.Sprintf("%d", img.Instance)}))
	}
	if len(img.ImageType) > 0 {
		elements = append(elements, mustNewElement(tag.ImageType, img.ImageType))
	}
	if img.ComplexImageComponent != "" {
		elements = append(elements, mustNewElement(tagComplexImageComponent, []string{img.ComplexImageComponent}))
	}
	if img.RescaleSlope != 0 {
		elements = append(elements,
			mustNewElement(tag.RescaleSlope, []string{floatToDS(img.RescaleSlope)}),
			mustNewElement(tag.RescaleIntercept, []string{floatToDS(img.RescaleIntercept)}),
		)
	}
	if img.FrameTime != 0 {
		elements = append(elements, mustNewElement(tag.FrameTime, []string{floatToDS(img.FrameTime)}))
	}
	if img.TriggerTime != 0 {
		elements = append(elements, mustNewElement(tag.TriggerTime, []string{floatToDS(img.TriggerTime)}))
	}

	if enhanced {
		elements = append(elements, mustNewElement(tag.NumberOfFrames, []string{fmt.Sprintf("%d", len(img.Frames))}))
		elements = append(elements, functionalGroups(img)...)
	} else if img.Window != nil {
		elements = append(elements, windowElements(*img.Window)...)
	}

	elements = append(elements, mustNewElement(tag.PixelData, dicom.PixelDataInfo{Frames: frames}))
	sort.SliceStable(elements, func(i, j int) bool {
		return tagLess(elements[i].Tag, elements[j].Tag)
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeDatasetToFile(path, dicom.Dataset{Elements: elements})
}

// MustWrite is Write for tests.
func MustWrite(t testing.TB, path string, img Image) string {
	t.Helper()
	if err := Write(path, img); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}

// WriteSeries writes one single-frame file per entry of frames into dir,
// named <prefix>_NNN.dcm, with instance numbers starting at 1.
func WriteSeries(dir, prefix string, base Image, frames [][]uint16) ([]string, error) {
	paths := make([]string, 0, len(frames))
	for i, px := range frames {
		img := base
		img.Instance = i + 1
		img.Frames = [][]uint16{px}
		img.Enhanced = false
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.dcm", prefix, i+1))
		if err := Write(path, img); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteLegacySeries is WriteSeries for tests.
func WriteLegacySeries(t testing.TB, dir, prefix string, base Image, frames [][]uint16) []string {
	t.Helper()
	paths, err := WriteSeries(dir, prefix, base, frames)
	if err != nil {
		t.Fatalf("write series fixture in %s: %v", dir, err)
	}
	return paths
}

// WritePresentationState writes a presentation state object carrying a tiny
// image payload, so only its SOP class marks it for skipping.
func WritePresentationState(t testing.TB, path, seriesUID string) string {
	t.Helper()
	return MustWrite(t, path, Image{
		SeriesUID: seriesUID,
		SOPClass:  GrayscaleSoftcopyPresentationState,
		Rows:      1,
		Cols:      1,
		Frames:    [][]uint16{{0}},
	})
}

func functionalGroups(img Image) []*dicom.Element {
	var out []*dicom.Element

	perFrame := make([][]*dicom.Element, len(img.Frames))
	for i := range img.Frames {
		var item []*dicom.Element
		if img.Window != nil && img.PerFrameWindow {
			item = append(item, mustNewElement(tagFrameVOILUTSequence, [][]*dicom.Element{windowElements(*img.Window)}))
		}
		if i < len(img.TriggerDelays) {
			sync := []*dicom.Element{
				mustNewElement(tagNominalCardiacTriggerDelayTime, []float64{img.TriggerDelays[i]}),
			}
			item = append(item, mustNewElement(tagCardiacSynchronizationSequence, [][]*dicom.Element{sync}))
		}
		perFrame[i] = item
	}
	if hasItems(perFrame) {
		out = append(out, mustNewElement(tagPerFrameFunctionalGroupsSequence, perFrame))
	}

	if img.Window != nil && !img.PerFrameWindow {
		shared := []*dicom.Element{
			mustNewElement(tagFrameVOILUTSequence, [][]*dicom.Element{windowElements(*img.Window)}),
		}
		out = append(out, mustNewElement(tagSharedFunctionalGroupsSequence, [][]*dicom.Element{shared}))
	}
	return out
}

func hasItems(items [][]*dicom.Element) bool {
	for _, item := range items {
		if len(item) > 0 {
			return true
		}
	}
	return false
}

func windowElements(w [2]float64) []*dicom.Element {
	return []*dicom.Element{
		mustNewElement(tag.WindowCenter, []string{floatToDS(w[0])}),
		mustNewElement(tag.WindowWidth, []string{floatToDS(w[1])}),
	}
}

func tagLess(a, b tag.Tag) bool {
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.Element < b.Element
}

// writeDatasetToFile writes a DICOM dataset to a file
func writeDatasetToFile(filename string, ds dicom.Dataset, opts ...dicom.WriteOption) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds, opts...)
}

// mustNewElement creates a DICOM element and panics on error.
func mustNewElement(t tag.Tag, value interface{}) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func floatToDS(f float64) string {
	return fmt.Sprintf("%.6g", f)
}
