package models

// Outcome classifies a completed read. Only OutcomeOK carries lines; the other
// two are expected conditions reported with a diagnostic message.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeFileNotFound  Outcome = "file_not_found"
	OutcomeRangeExceeded Outcome = "range_exceeded"
)

// ReadLinesRequest represents a request to print a range of lines from a file.
type ReadLinesRequest struct {
	// File is the path of the file to read, as given by the caller.
	File string `json:"file"`
	// StartLine is the 1-based first line to return.
	StartLine int `json:"start_line"`
	// Count is the number of lines to return. Zero or negative returns nothing.
	Count int `json:"count"`
}

// RangeReturned describes the lines actually returned, 1-based and inclusive.
type RangeReturned struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// ReadLinesResponse represents the result of a read.
type ReadLinesResponse struct {
	// Outcome is ok, file_not_found or range_exceeded.
	Outcome Outcome `json:"outcome"`
	// Message holds the diagnostic for non-ok outcomes.
	Message string `json:"message,omitempty"`
	// Lines are the selected lines, each with its original terminator.
	Lines []string `json:"lines"`
	// Content is Lines concatenated without separators.
	Content string `json:"content"`
	// TotalLines is the number of lines in the file. Zero when the file was not found.
	TotalLines int `json:"total_lines"`
	// RangeReturned is set when at least one line was returned.
	RangeReturned *RangeReturned `json:"range_returned,omitempty"`
}
