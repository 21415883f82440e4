package request

type GenerateDocument struct {
	TemplateName string            `json:"templateName" validate:"required"`
	Metadata     map[string]string `json:"metadata"`
	OutputName   string            `json:"outputName" validate:"required"`
	DeliverTo    []string          `json:"deliverTo,omitempty" validate:"omitempty,dive,email"`
}

// BatchItem is validated by the pipeline so that an invalid item fails
// alone instead of rejecting the whole batch.
type BatchItem struct {
	TemplateName string            `json:"templateName"`
	Metadata     map[string]string `json:"metadata"`
	OutputName   string            `json:"outputName"`
}

type RunBatch struct {
	Items     []BatchItem `json:"items" validate:"required,min=1"`
	DeliverTo []string    `json:"deliverTo,omitempty" validate:"omitempty,dive,email"`
}
