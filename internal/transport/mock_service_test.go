package transport

import (
	"read-lines/internal/errors"
	"read-lines/internal/models"
)

// mockLineReaderService returns canned results and records requests.
type mockLineReaderService struct {
	requests []models.ReadLinesRequest
	resp     *models.ReadLinesResponse
	err      *models.ErrorDetail
}

func (m *mockLineReaderService) ReadLines(req models.ReadLinesRequest) (*models.ReadLinesResponse, *models.ErrorDetail) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return nil, errors.NewInternalError("mock has no response configured")
}

func okResponse(lines ...string) *models.ReadLinesResponse {
	content := ""
	for _, l := range lines {
		content += l
	}
	return &models.ReadLinesResponse{Outcome: models.OutcomeOK, Lines: lines, Content: content, TotalLines: len(lines)}
}
