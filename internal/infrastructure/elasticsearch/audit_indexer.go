// Package elasticsearch indexes auth audit events.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/fintrack-auth/internal/application"
)

// AuditIndexer writes one document per audit event. Indexing failures are
// logged and dropped.
type AuditIndexer struct {
	ES      *es.Client
	Index   string
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewAuditIndexer(client *es.Client, index string, logger *logrus.Logger) *AuditIndexer {
	return &AuditIndexer{ES: client, Index: index, Logger: logger, Timeout: 3 * time.Second}
}

func (a *AuditIndexer) Record(ctx context.Context, e application.AuditEvent) {
	if err := a.index(ctx, e); err != nil && a.Logger != nil {
		a.Logger.WithError(err).WithField("event", e.Type).Warn("es audit index failed")
	}
}

func (a *AuditIndexer) index(ctx context.Context, e application.AuditEvent) error {
	if a.ES == nil || a.Index == "" {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      a.Index,
		DocumentID: uuid.NewString(),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()
	res, err := req.Do(c, a.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &IndexError{Status: res.StatusCode, Body: string(msg)}
	}
	return nil
}

// IndexError is a non-2xx answer from Elasticsearch.
type IndexError struct {
	Status int
	Body   string
}

func (e *IndexError) Error() string {
	return "elasticsearch index: status " + strconv.Itoa(e.Status) + ": " + e.Body
}

var _ application.AuditRecorder = (*AuditIndexer)(nil)
