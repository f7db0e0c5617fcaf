// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stats

// -----------------------------------------------------------------------------
// Segment Analysis
// -----------------------------------------------------------------------------

// SegmentSource supplies conversion values sliced by a user attribute.
//
// Description:
//
//	Segment analysis answers "does the winning variant win for everyone,
//	or only for mobile users?". The engine does not retain user attributes
//	past the assignment decision, so segment data comes from an external
//	feed behind this interface.
//
// Thread Safety: Implementations must be safe for concurrent use.
type SegmentSource interface {
	// Segments returns the distinct values of the attribute
	// (e.g., "mobile", "desktop" for attribute "device").
	Segments(attribute string) []string

	// Values returns variant → conversion values for one segment of one
	// attribute. Missing segments return an empty map.
	Values(attribute, segment string) map[string][]float64
}

// SegmentAnalysis holds per-segment analyses for one attribute.
type SegmentAnalysis struct {
	// Attribute is the sliced user attribute.
	Attribute string `json:"attribute"`

	// BySegment maps segment value to its variant analysis. Segments whose
	// data could not be analyzed (no control group) are absent.
	BySegment map[string]*Analysis `json:"by_segment"`
}

// AnalyzeSegments runs the variant analysis once per segment of each
// attribute.
//
// Inputs:
//   - source: The segment data feed.
//   - attributes: Attributes to slice by.
//   - opts: Passed through to Analyze.
//
// Outputs:
//   - []SegmentAnalysis: One entry per attribute, in input order.
//
// Thread Safety: Safe for concurrent use if the source is.
func AnalyzeSegments(source SegmentSource, attributes []string, opts Options) []SegmentAnalysis {
	out := make([]SegmentAnalysis, 0, len(attributes))
	for _, attr := range attributes {
		sa := SegmentAnalysis{
			Attribute: attr,
			BySegment: make(map[string]*Analysis),
		}
		for _, segment := range source.Segments(attr) {
			analysis, err := Analyze(source.Values(attr, segment), opts)
			if err != nil {
				continue
			}
			sa.BySegment[segment] = analysis
		}
		out = append(out, sa)
	}
	return out
}

// -----------------------------------------------------------------------------
// Fixture Source
// -----------------------------------------------------------------------------

// FixtureSegmentSource is a static, in-memory SegmentSource.
//
// Useful in tests and in deployments with no segmentation feed wired yet.
type FixtureSegmentSource struct {
	// Data maps attribute → segment → variant → values.
	Data map[string]map[string]map[string][]float64
}

// Segments implements SegmentSource.
func (f *FixtureSegmentSource) Segments(attribute string) []string {
	segments := make([]string, 0, len(f.Data[attribute]))
	for segment := range f.Data[attribute] {
		segments = append(segments, segment)
	}
	return segments
}

// Values implements SegmentSource.
func (f *FixtureSegmentSource) Values(attribute, segment string) map[string][]float64 {
	if values, ok := f.Data[attribute][segment]; ok {
		return values
	}
	return map[string][]float64{}
}

var _ SegmentSource = (*FixtureSegmentSource)(nil)
