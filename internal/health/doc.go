// Package health turns raw plant readings into health scores.
//
// scorer.go classifies one metric value against its ThresholdRange. The
// optimal band is checked first, then the two warning bands, so a value on a
// shared boundary is optimal. Points are 100, 50 or 0.
//
// plant.go averages the points of every metric that has both a value and a
// threshold. A plant with nothing scorable is "unknown", never "critical".
//
// room.go rolls plant scores up into a room. The room status follows the worst
// plant before it looks at the average.
//
// catalog.go holds the immutable threshold catalog; catalog_file.go loads it
// from YAML and watches the file for changes.
//
// Health bands: optimal >=80, warning 40-79, critical <40.
package health
