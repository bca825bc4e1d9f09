package commands

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ai8future/piiguard"
)

// RunEncryptFile reads a document from streams.Reader and writes its
// EncryptedFilePayload as JSON to streams.Writer. Types outside the sensitive
// list produce a payload with isEncrypted=false.
func RunEncryptFile(svc piiguard.Service, logger logrus.FieldLogger, streams IOTuple, documentType string) error {
	data, err := readAll(streams.Reader, logger)
	if err != nil {
		return err
	}

	payload, err := svc.ProtectDocument(documentType, data)
	if err != nil {
		return fmt.Errorf("failed to protect document: %w", err)
	}

	enc := json.NewEncoder(streams.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"document_type": documentType,
		"encrypted":     payload.IsEncrypted,
		"key_version":   payload.KeyVersion,
	}).Info("document protected")
	return nil
}

// RunDecryptFile reads an EncryptedFilePayload as JSON from streams.Reader and
// writes the original document bytes to streams.Writer. documentType must match
// the type the document was encrypted under.
func RunDecryptFile(svc piiguard.Service, logger logrus.FieldLogger, streams IOTuple, documentType string) error {
	raw, err := readAll(streams.Reader, logger)
	if err != nil {
		return err
	}

	var payload piiguard.EncryptedFilePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}

	data, err := svc.OpenDocument(documentType, &payload)
	if err != nil {
		return fmt.Errorf("failed to open document: %w", err)
	}

	if _, err := streams.Writer.Write(data); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"document_type": documentType,
		"bytes":         len(data),
	}).Info("document opened")
	return nil
}
