package dto

// AnalysisResult is the response shape shared by the live and upload
// analysis endpoints. OverlayFrame and HeatmapFrame are base64-encoded
// JPEGs; both may be empty when rendering degraded to counts only.
// Finished is true once the upload session reached end of stream and was
// torn down server-side.
type AnalysisResult struct {
	ZoneCounts   map[int64]int `json:"zone_counts"`
	FrameNumber  int           `json:"frame_number,omitempty"`
	OverlayFrame string        `json:"overlay_frame,omitempty"`
	HeatmapFrame string        `json:"heatmap_frame,omitempty"`
	Finished     bool          `json:"finished"`
}
