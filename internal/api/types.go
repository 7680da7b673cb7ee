package api

// Item describes an inventory record in a transport-friendly format.
type Item struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Owner     string   `json:"owner"`
	CreatedAt float64  `json:"created_at"`
	ImagePath string   `json:"image_path"`
	Notes     string   `json:"notes"`
	Score     *float64 `json:"score"`
	Label     *int     `json:"label"`
}

// UploadImage is one entry of an upload request.
type UploadImage struct {
	ImageBase64 string `json:"image_base64"`
	Name        string `json:"name,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

// UploadRequest carries the images of one intake call.
type UploadRequest struct {
	Items []UploadImage `json:"items"`
}

// PatchRequest is a partial update of one item. Absent fields are untouched.
type PatchRequest struct {
	Name        *string `json:"name,omitempty"`
	Status      *string `json:"status,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	AppendNotes bool    `json:"append_notes"`
}

// BatchUpdateRequest applies one field set to several items.
type BatchUpdateRequest struct {
	ItemIDs     []int64 `json:"item_ids"`
	Status      *string `json:"status,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	AppendNotes bool    `json:"append_notes"`
}

// IDsRequest addresses a set of items.
type IDsRequest struct {
	ItemIDs []int64 `json:"item_ids"`
}

// Insight is a generated, non-persisted recommendation for one item.
type Insight struct {
	ItemID            int64    `json:"item_id"`
	Name              string   `json:"name"`
	CurrentStatus     string   `json:"current_status"`
	RecommendedStatus string   `json:"recommended_status"`
	Priority          string   `json:"priority"`
	OwnerHint         string   `json:"owner_hint"`
	Confidence        *float64 `json:"confidence"`
	Summary           string   `json:"summary"`
	SuggestedNote     string   `json:"suggested_note"`
}

// InsightsResponse pairs generated insights with ids that produced none.
type InsightsResponse struct {
	Insights []Insight `json:"insights"`
	Missing  []int64   `json:"missing"`
}

// PredictRequest classifies an image without storing it.
type PredictRequest struct {
	ImageBase64 string `json:"image_base64"`
}

// PredictResponse is the classification of a single image.
type PredictResponse struct {
	Score float64 `json:"score"`
	Label int     `json:"label"`
}

// Prediction is one prediction log row.
type Prediction struct {
	ID        int64   `json:"id"`
	ItemID    *int64  `json:"item_id"`
	Score     float64 `json:"score"`
	Label     int     `json:"label"`
	Source    string  `json:"source"`
	CreatedAt float64 `json:"created_at"`
}

// PredictionsResponse wraps the prediction log.
type PredictionsResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// Check mirrors one preflight result.
type Check struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse reports liveness plus the preflight summary.
type HealthResponse struct {
	Status     string  `json:"status"`
	Items      int     `json:"items"`
	Classifier string  `json:"classifier"`
	Insights   string  `json:"insights"`
	Checks     []Check `json:"checks"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
