package dicom

import (
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Tags that live inside enhanced multi-frame functional groups.
var (
	tagComplexImageComponent            = tag.Tag{Group: 0x0008, Element: 0x9208}
	tagSharedFunctionalGroupsSequence   = tag.Tag{Group: 0x5200, Element: 0x9229}
	tagPerFrameFunctionalGroupsSequence = tag.Tag{Group: 0x5200, Element: 0x9230}
	tagFrameVOILUTSequence              = tag.Tag{Group: 0x0028, Element: 0x9132}
	tagCardiacSynchronizationSequence   = tag.Tag{Group: 0x0018, Element: 0x9118}
	tagNominalCardiacTriggerDelayTime   = tag.Tag{Group: 0x0020, Element: 0x9153}
)

// presentationStatePrefix is the SOP class root shared by all presentation state objects.
const presentationStatePrefix = "1.2.840.10008.5.1.4.1.1.11."

// Window is a VOI window expressed as center and width.
type Window struct {
	Center float64
	Width  float64
}

// Metadata holds the attributes needed for conversion, read once per file.
// Optional attributes are nil when absent from the file.
type Metadata struct {
	SeriesInstanceUID string
	SOPClassUID       string
	TransferSyntaxUID string
	InstanceNumber    *int

	Rows                int
	Columns             int
	NumberOfFrames      int
	SamplesPerPixel     int
	BitsStored          int
	PixelRepresentation int

	RescaleSlope     *float64
	RescaleIntercept *float64

	// Window is the first window found, legacy top-level tags first,
	// then enhanced per-frame and shared functional groups.
	Window *Window

	ComplexImageComponent string
	ImageType             []string

	// TriggerTime and FrameTime are in milliseconds.
	TriggerTime         *float64
	FrameTime           *float64
	AcquisitionDateTime *time.Time

	// CardiacTriggerDelays holds one nominal trigger delay (ms) per frame of
	// an enhanced file, or nil when any frame lacks one.
	CardiacTriggerDelays []float64
}

// IsPresentationState reports whether the object is a presentation state
// rather than an image.
func (m Metadata) IsPresentationState() bool {
	return strings.HasPrefix(m.SOPClassUID, presentationStatePrefix)
}

// IsPhase reports whether the object holds phase (velocity) data.
func (m Metadata) IsPhase() bool {
	if m.ComplexImageComponent != "" {
		return strings.EqualFold(m.ComplexImageComponent, "PHASE")
	}
	for _, t := range m.ImageType {
		switch strings.ToUpper(t) {
		case "P", "PHASE", "VELOCITY":
			return true
		}
	}
	return false
}

// PhaseWindow returns the window spanning the full stored range of phase data.
func (m Metadata) PhaseWindow() Window {
	bits := m.BitsStored
	if bits <= 0 {
		bits = 12
	}
	width := float64(int64(1) << bits)
	return Window{Center: float64(int64(width) / 2), Width: width}
}

func extractMetadata(ds dicom.Dataset) Metadata {
	m := Metadata{
		SeriesInstanceUID:     stringValue(findElement(ds.Elements, tag.SeriesInstanceUID)),
		SOPClassUID:           stringValue(findElement(ds.Elements, tag.SOPClassUID)),
		TransferSyntaxUID:     stringValue(findElement(ds.Elements, tag.TransferSyntaxUID)),
		ComplexImageComponent: stringValue(findElement(ds.Elements, tagComplexImageComponent)),
		ImageType:             stringValues(findElement(ds.Elements, tag.ImageType)),
		SamplesPerPixel:       1,
		NumberOfFrames:        1,
	}

	if v, ok := intValue(findElement(ds.Elements, tag.InstanceNumber)); ok {
		m.InstanceNumber = &v
	}
	if v, ok := intValue(findElement(ds.Elements, tag.Rows)); ok {
		m.Rows = v
	}
	if v, ok := intValue(findElement(ds.Elements, tag.Columns)); ok {
		m.Columns = v
	}
	if v, ok := intValue(findElement(ds.Elements, tag.NumberOfFrames)); ok && v > 0 {
		m.NumberOfFrames = v
	}
	if v, ok := intValue(findElement(ds.Elements, tag.SamplesPerPixel)); ok {
		m.SamplesPerPixel = v
	}
	if v, ok := intValue(findElement(ds.Elements, tag.BitsStored)); ok {
		m.BitsStored = v
	}
	if v, ok := intValue(findElement(ds.Elements, tag.PixelRepresentation)); ok {
		m.PixelRepresentation = v
	}
	if v, ok := floatValue(findElement(ds.Elements, tag.RescaleSlope)); ok {
		m.RescaleSlope = &v
	}
	if v, ok := floatValue(findElement(ds.Elements, tag.RescaleIntercept)); ok {
		m.RescaleIntercept = &v
	}
	if v, ok := floatValue(findElement(ds.Elements, tag.TriggerTime)); ok {
		m.TriggerTime = &v
	}
	if v, ok := floatValue(findElement(ds.Elements, tag.FrameTime)); ok {
		m.FrameTime = &v
	}
	if t, ok := parseDateTime(stringValue(findElement(ds.Elements, tag.AcquisitionDateTime))); ok {
		m.AcquisitionDateTime = &t
	}

	m.Window = windowFrom(ds.Elements)
	perFrame := sequenceItems(findElement(ds.Elements, tagPerFrameFunctionalGroupsSequence))
	if m.Window == nil {
		for _, item := range perFrame {
			if w := voiWindow(item); w != nil {
				m.Window = w
				break
			}
		}
	}
	if m.Window == nil {
		for _, item := range sequenceItems(findElement(ds.Elements, tagSharedFunctionalGroupsSequence)) {
			if w := voiWindow(item); w != nil {
				m.Window = w
				break
			}
		}
	}

	m.CardiacTriggerDelays = cardiacTriggerDelays(perFrame)
	return m
}

// voiWindow reads the window from a functional group item's FrameVOILUTSequence.
func voiWindow(item []*dicom.Element) *Window {
	for _, voi := range sequenceItems(findElement(item, tagFrameVOILUTSequence)) {
		if w := windowFrom(voi); w != nil {
			return w
		}
	}
	return nil
}

// windowFrom reads WindowCenter/WindowWidth; the first value wins when multi-valued.
func windowFrom(elements []*dicom.Element) *Window {
	center, okC := floatValue(findElement(elements, tag.WindowCenter))
	width, okW := floatValue(findElement(elements, tag.WindowWidth))
	if !okC || !okW {
		return nil
	}
	return &Window{Center: center, Width: width}
}

func cardiacTriggerDelays(perFrame [][]*dicom.Element) []float64 {
	if len(perFrame) == 0 {
		return nil
	}
	delays := make([]float64, 0, len(perFrame))
	for _, item := range perFrame {
		found := false
		for _, sync := range sequenceItems(findElement(item, tagCardiacSynchronizationSequence)) {
			if v, ok := floatValue(findElement(sync, tagNominalCardiacTriggerDelayTime)); ok {
				delays = append(delays, v)
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}
	return delays
}

// findElement looks up a tag among the given elements without descending into sequences.
func findElement(elements []*dicom.Element, t tag.Tag) *dicom.Element {
	for _, elem := range elements {
		if elem != nil && elem.Tag == t {
			return elem
		}
	}
	return nil
}

// sequenceItems returns the element lists of each item of a sequence element.
func sequenceItems(elem *dicom.Element) [][]*dicom.Element {
	if elem == nil || elem.Value == nil {
		return nil
	}
	items, ok := elem.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return nil
	}
	out := make([][]*dicom.Element, 0, len(items))
	for _, item := range items {
		if elements, ok := item.GetValue().([]*dicom.Element); ok {
			out = append(out, elements)
		}
	}
	return out
}

func stringValues(elem *dicom.Element) []string {
	if elem == nil || elem.Value == nil {
		return nil
	}
	switch v := elem.Value.GetValue().(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []int:
		out := make([]string, len(v))
		for i, n := range v {
			out[i] = strconv.Itoa(n)
		}
		return out
	case []float64:
		out := make([]string, len(v))
		for i, f := range v {
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		return out
	}
	return nil
}

func stringValue(elem *dicom.Element) string {
	values := stringValues(elem)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func floatValue(elem *dicom.Element) (float64, bool) {
	s := stringValue(elem)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func intValue(elem *dicom.Element) (int, bool) {
	f, ok := floatValue(elem)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// parseDateTime parses a DICOM DT value (YYYYMMDDHHMMSS with optional fraction).
// Time zone offsets are ignored.
func parseDateTime(s string) (time.Time, bool) {
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		s = s[:i]
	}
	if len(s) < 14 {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102150405", s[:14])
	if err != nil {
		return time.Time{}, false
	}
	if frac := strings.TrimPrefix(s[14:], "."); frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		n, err := strconv.Atoi(frac)
		if err != nil {
			return time.Time{}, false
		}
		for i := len(frac); i < 9; i++ {
			n *= 10
		}
		t = t.Add(time.Duration(n))
	}
	return t, true
}
