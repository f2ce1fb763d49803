package render

// ResultOutput is the structured output for a single placeholder.
type ResultOutput struct {
	Locator string `json:"locator" yaml:"locator"`
	Status  string `json:"status" yaml:"status"` // spliced, removed
	Nodes   int    `json:"nodes,omitempty" yaml:"nodes,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Stats provides summary statistics for the run.
type Stats struct {
	Placeholders     int     `json:"placeholders" yaml:"placeholders"`
	Spliced          int     `json:"spliced" yaml:"spliced"`
	Removed          int     `json:"removed" yaml:"removed"`
	OutputBytes      int     `json:"output_bytes" yaml:"output_bytes"`
	TotalTimeSeconds float64 `json:"total_time_seconds" yaml:"total_time_seconds"`
}

// FinalOutput is the structured report for the entire run.
type FinalOutput struct {
	Status  string         `json:"status" yaml:"status"` // success, partial_failure
	Source  string         `json:"source" yaml:"source"`
	Output  string         `json:"output,omitempty" yaml:"output,omitempty"`
	RunID   int64          `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Results []ResultOutput `json:"results" yaml:"results"`
	Stats   Stats          `json:"stats" yaml:"stats"`
}
