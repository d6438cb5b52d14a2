// Package pipeline runs one source document through extraction, key
// resolution, canonical mapping and reconciliation, and drives many
// documents in parallel.
package pipeline

import (
	"bytes"
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rera-cli/internal/extract"
	"github.com/sells-group/rera-cli/internal/mapper"
	"github.com/sells-group/rera-cli/internal/model"
	"github.com/sells-group/rera-cli/internal/reconcile"
	"github.com/sells-group/rera-cli/internal/taxonomy"
)

// ErrEmptyDocument is returned for a document whose body is empty or only
// whitespace. Any other input yields a record and a report.
var ErrEmptyDocument = eris.New("pipeline: empty document")

// Processor holds the read-only components shared by every document.
type Processor struct {
	tax        *taxonomy.Taxonomy
	resolver   *taxonomy.Resolver
	mapper     *mapper.Mapper
	reconciler *reconcile.Reconciler
}

// New creates a Processor over a loaded taxonomy.
func New(tax *taxonomy.Taxonomy) *Processor {
	return &Processor{
		tax:        tax,
		resolver:   taxonomy.NewResolver(tax),
		mapper:     mapper.New(tax),
		reconciler: reconcile.New(tax),
	}
}

// Taxonomy returns the taxonomy the processor was built with.
func (p *Processor) Taxonomy() *taxonomy.Taxonomy {
	return p.tax
}

// Resolve runs the first two stages only and returns the resolved sections.
func (p *Processor) Resolve(doc model.SourceDocument) ([]model.ResolvedSection, error) {
	if len(bytes.TrimSpace(doc.Body)) == 0 {
		return nil, ErrEmptyDocument
	}
	return p.resolver.Resolve(extract.Sections(doc.Body)), nil
}

// Process runs every stage in sequence for one document.
func (p *Processor) Process(ctx context.Context, doc model.SourceDocument) (*model.ProcessResult, error) {
	log := zap.L().With(zap.String("document", doc.Name))

	if len(bytes.TrimSpace(doc.Body)) == 0 {
		return nil, ErrEmptyDocument
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: process")
	}

	sections := extract.Sections(doc.Body)
	if len(sections) == 0 {
		log.Warn("pipeline: no sections found")
	}
	resolved := p.resolver.Resolve(sections)
	rec := p.mapper.Map(resolved, doc)

	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "pipeline: process")
	}
	report := p.reconciler.Reconcile(doc.Body, rec)

	log.Debug("pipeline: document processed",
		zap.String("project_key", rec.ProjectKey),
		zap.Int("sections", len(sections)),
		zap.Int("comparisons", report.Counts.Total()),
		zap.Int("mismatch", report.Counts.Mismatch),
	)
	return &model.ProcessResult{Document: doc.Name, Record: rec, Report: report}, nil
}

// Reconcile checks an existing record against its source document.
func (p *Processor) Reconcile(doc model.SourceDocument, rec *model.ProjectRecord) (*model.ReconciliationReport, error) {
	if len(bytes.TrimSpace(doc.Body)) == 0 {
		return nil, ErrEmptyDocument
	}
	if rec == nil {
		return nil, eris.New("pipeline: nil record")
	}
	return p.reconciler.Reconcile(doc.Body, rec), nil
}
