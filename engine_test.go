//go:build cgo

package legigraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brunobiangulo/legigraph/relation"
)

const decreeFixture = `Décret exécutif n° 21-112 du 25 mars 2021 fixant les modalités de conservation des archives publiques.

Vu la Constitution, notamment ses articles 112 et 141 ;
Vu la loi n° 88-09 du 26 janvier 1988 relative aux archives nationales ;
Vu le décret exécutif n° 93-01 du 2 janvier 1993 relatif aux archives de wilaya ;

Art. 1er. — Le présent décret fixe les modalités de conservation des archives publiques.

Art. 2. — Le présent décret modifie et complète la loi n° 88-09 relative aux archives nationales.

Art. 3. — L'arrêté n° 95-12 est abrogé.
`

func newTestEngine(t *testing.T) Engine {
	t.Helper()
	eng, err := New(Config{
		DBPath:    filepath.Join(t.TempDir(), "test.db"),
		VectorDim: 32,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestIngestDecree(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	docID, err := eng.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if docID == 0 {
		t.Fatal("expected non-zero document ID")
	}

	docs, err := eng.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	doc := docs[0]
	if doc.Status != "ready" {
		t.Errorf("Status = %q, want ready", doc.Status)
	}
	if doc.DocType != "décret exécutif" || doc.DocNumber != "21-112" {
		t.Errorf("identity = (%q, %q), want (décret exécutif, 21-112)", doc.DocType, doc.DocNumber)
	}
	if doc.Format != "txt" {
		t.Errorf("Format = %q, want txt", doc.Format)
	}
}

func TestIngestGraphPersisted(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	docID, err := eng.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	g, err := eng.Graph(ctx, docID)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}

	// Two visas, one modification, one repeal.
	if len(g.Relationships) != 4 {
		for _, r := range g.Relationships {
			t.Logf("got: %s -> %s (%s)", relation.DocumentKey(r.Source), relation.DocumentKey(r.Target), r.Kind)
		}
		t.Fatalf("got %d relationships, want 4", len(g.Relationships))
	}

	kinds := map[relation.Kind]int{}
	for _, r := range g.Relationships {
		kinds[r.Kind]++
		if r.Source.Type != "décret exécutif" || r.Source.Number != "21-112" {
			t.Errorf("relationship source = %s, want décret exécutif_21-112", relation.DocumentKey(r.Source))
		}
	}
	if kinds[relation.KindVu] != 2 || kinds[relation.KindModification] != 1 || kinds[relation.KindAbrogation] != 1 {
		t.Errorf("kind counts = %v, want 2 vu / 1 modification / 1 abrogation", kinds)
	}

	for _, key := range []string{"décret exécutif_21-112", "loi_88-09", "décret exécutif_93-01", "arrêté_95-12"} {
		if _, ok := g.Documents[key]; !ok {
			t.Errorf("missing document %q in graph", key)
		}
	}
}

func TestIngestSourceRefOverride(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	docID, err := eng.Ingest(ctx, path, WithSourceRef(relation.DocumentRef{Type: "loi", Number: "99-99"}))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	g, err := eng.Graph(ctx, docID)
	if err != nil {
		t.Fatalf("Graph: %v", err)
	}
	for _, r := range g.Relationships {
		if r.Source.Type != "loi" || r.Source.Number != "99-99" {
			t.Fatalf("source = %s, want loi_99-99", relation.DocumentKey(r.Source))
		}
	}
}

func TestIngestUnchangedSkips(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	first, err := eng.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := eng.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if first != second {
		t.Errorf("re-ingest changed document ID: %d != %d", first, second)
	}

	docs, err := eng.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("got %d documents, want 1", len(docs))
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	eng := newTestEngine(t)

	path := writeFixture(t, "slides.pptx", "not a real pptx")
	_, err := eng.Ingest(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got %v, want ErrUnsupportedFormat", err)
	}
}

func TestSearchIngestedSections(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	if _, err := eng.Ingest(ctx, path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	results, err := eng.Search(ctx, "conservation des archives publiques", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected search results")
	}
	if results[0].Filename != "decree.txt" {
		t.Errorf("Filename = %q, want decree.txt", results[0].Filename)
	}
	if results[0].Score <= 0 {
		t.Errorf("Score = %v, want > 0", results[0].Score)
	}
}

func TestSearchNoResults(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Search(context.Background(), "zzzqqqxxx", 5)
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("got %v, want ErrNoResults", err)
	}
}

func TestUpdateDetectsChange(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "decree.txt")
	if err := os.WriteFile(path, []byte(decreeFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Ingest(ctx, path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	changed, err := eng.Update(ctx, path)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if changed {
		t.Error("Update reported change for unchanged file")
	}

	if err := os.WriteFile(path, []byte(decreeFixture+"\nArt. 4. — Disposition finale.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err = eng.Update(ctx, path)
	if err != nil {
		t.Fatalf("Update after edit: %v", err)
	}
	if !changed {
		t.Error("Update missed a changed file")
	}
}

func TestUpdateUnknownDocument(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Update(context.Background(), filepath.Join(t.TempDir(), "never-ingested.txt"))
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("got %v, want ErrDocumentNotFound", err)
	}
}

func TestUpdateAll(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	if _, err := eng.Ingest(ctx, path); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	results, err := eng.UpdateAll(ctx)
	if err != nil {
		t.Fatalf("UpdateAll: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Changed || results[0].Error != nil {
		t.Errorf("unexpected result: %+v", results[0])
	}
}

func TestDeleteDocument(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	docID, err := eng.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := eng.Delete(ctx, docID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := eng.Graph(ctx, docID); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Graph after delete: got %v, want ErrDocumentNotFound", err)
	}

	docs, err := eng.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents after delete, want 0", len(docs))
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.Delete(context.Background(), 9999)
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("got %v, want ErrDocumentNotFound", err)
	}
}

func TestAnalyzeNeverErrors(t *testing.T) {
	eng := newTestEngine(t)

	rels := eng.Analyze(context.Background(), "vu la loi n° 18-05 du 10 mai 2018 relative au commerce électronique", nil)
	if len(rels) != 1 {
		t.Fatalf("got %d relationships, want 1", len(rels))
	}
	if rels[0].Kind != relation.KindVu {
		t.Errorf("Kind = %q, want vu", rels[0].Kind)
	}

	if out := eng.Analyze(context.Background(), "", nil); len(out) != 0 {
		t.Errorf("empty text: got %d relationships, want 0", len(out))
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(Config{DBPath: filepath.Join(t.TempDir(), "w.db"), WeightVector: -1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestAnalysisHistoryRecorded(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	path := writeFixture(t, "decree.txt", decreeFixture)
	docID, err := eng.Ingest(ctx, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	history, err := eng.Store().AnalysisHistory(ctx, docID)
	if err != nil {
		t.Fatalf("AnalysisHistory: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d analysis records, want 1", len(history))
	}
	if history[0].RelationshipCount != 4 {
		t.Errorf("RelationshipCount = %d, want 4", history[0].RelationshipCount)
	}
	if history[0].ID == "" {
		t.Error("analysis record has empty ID")
	}
}
