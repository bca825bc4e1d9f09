package metrics

import (
	"context"
	"time"

	"github.com/ai8future/piiguard"
)

// Operation label values.
const (
	OpProtectField    = "protect_field"
	OpRevealField     = "reveal_field"
	OpProtectDocument = "protect_document"
	OpOpenDocument    = "open_document"
)

// serviceWithMetrics decorates piiguard.Service with metrics instrumentation.
type serviceWithMetrics struct {
	ctx     context.Context
	next    piiguard.Service
	metrics BusinessMetrics
}

// NewServiceWithMetrics wraps a piiguard.Service with metrics recording.
// Every measurement is recorded against ctx, so the caller's baggage and
// span reach the meter provider.
func NewServiceWithMetrics(ctx context.Context, next piiguard.Service, m BusinessMetrics) piiguard.Service {
	return &serviceWithMetrics{
		ctx:     ctx,
		next:    next,
		metrics: m,
	}
}

func (s *serviceWithMetrics) record(operation, target string, start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	s.metrics.RecordOperation(s.ctx, operation, target, status)
	s.metrics.RecordDuration(s.ctx, operation, target, time.Since(start), status)
}

// ProtectField records metrics for field writes.
func (s *serviceWithMetrics) ProtectField(entity, field string, raw *string) (piiguard.SealedField, error) {
	start := time.Now()
	sealed, err := s.next.ProtectField(entity, field, raw)
	s.record(OpProtectField, entity+"."+field, start, err)
	return sealed, err
}

// RevealField records metrics for field reads.
func (s *serviceWithMetrics) RevealField(entity, field string, stored piiguard.SealedField) (*string, error) {
	start := time.Now()
	value, err := s.next.RevealField(entity, field, stored)
	s.record(OpRevealField, entity+"."+field, start, err)
	return value, err
}

// ProtectDocument records metrics for document uploads.
func (s *serviceWithMetrics) ProtectDocument(documentType string, data []byte) (*piiguard.EncryptedFilePayload, error) {
	start := time.Now()
	payload, err := s.next.ProtectDocument(documentType, data)
	s.record(OpProtectDocument, documentType, start, err)
	return payload, err
}

// OpenDocument records metrics for document downloads.
func (s *serviceWithMetrics) OpenDocument(documentType string, p *piiguard.EncryptedFilePayload) ([]byte, error) {
	start := time.Now()
	data, err := s.next.OpenDocument(documentType, p)
	s.record(OpOpenDocument, documentType, start, err)
	return data, err
}
