package response

import "time"

type Document struct {
	OutputPath string `json:"outputPath"`
}

type Batch struct {
	ID      string     `json:"id"`
	Results []Document `json:"results"`
}

type BatchFailure struct {
	Index        int    `json:"index"`
	TemplateName string `json:"templateName"`
	OutputName   string `json:"outputName"`
	Kind         string `json:"kind"`
	Message      string `json:"message"`
}

// BatchFailures is returned when some items failed. Results holds an empty
// outputPath at the index of every failed item.
type BatchFailures struct {
	ID       string         `json:"id"`
	Results  []Document     `json:"results"`
	Failures []BatchFailure `json:"failures"`
}

type Placeholders struct {
	Template string   `json:"template"`
	Keys     []string `json:"keys"`
}

type BatchRecord struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	Total      int               `json:"total"`
	Failed     int               `json:"failed"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Items      []BatchItemRecord `json:"items,omitempty"`
}

type BatchItemRecord struct {
	Index        int    `json:"index"`
	TemplateName string `json:"templateName"`
	OutputName   string `json:"outputName"`
	OutputPath   string `json:"outputPath,omitempty"`
	Worker       string `json:"worker"`
	Status       string `json:"status"`
	Kind         string `json:"kind,omitempty"`
	Message      string `json:"message,omitempty"`
}
