package dto

// ChartConfigRequest is the body of PUT /api/chart/config
type ChartConfigRequest struct {
	Symbol         string `json:"symbol"`
	Timeframe      string `json:"timeframe"`
	Representation string `json:"representation"`
}

// ViewportRequest reports the rendering surface width
type ViewportRequest struct {
	Width int `json:"width"`
}
