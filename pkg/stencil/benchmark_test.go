package stencil

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benjaminschreck/go-coverletter/internal/testutil"
	"github.com/benjaminschreck/go-coverletter/pkg/stencil/docx"
)

// benchmarkBody builds a letter with n paragraphs, every fourth one carrying
// placeholders split across differently formatted runs.
func benchmarkBody(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		if i%4 == 0 {
			sb.WriteString(testutil.Paragraph(
				testutil.Run("<w:b/>", "Dear {COMP"),
				testutil.Run("", "ANY NAME} team, I saw the role on {JOB SOURCE}."),
			))
			continue
		}
		sb.WriteString(testutil.Paragraph(testutil.Run("", fmt.Sprintf("Paragraph %d without placeholders.", i))))
	}
	return sb.String()
}

func BenchmarkRewriteBody(b *testing.B) {
	sizes := []int{10, 100, 1000}
	for _, size := range sizes {
		xml := []byte(testutil.DocumentXML(benchmarkBody(size)))
		subs := adaSubstitutions(b)

		b.Run(fmt.Sprintf("paragraphs_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				doc, err := docx.ParseDocument(xml)
				if err != nil {
					b.Fatal(err)
				}
				body, err := doc.Body()
				if err != nil {
					b.Fatal(err)
				}
				RewriteBody(body, subs)
			}
		})
	}
}

func BenchmarkScan(b *testing.B) {
	doc, err := docx.ParseDocument([]byte(testutil.DocumentXML(benchmarkBody(500))))
	if err != nil {
		b.Fatal(err)
	}
	body, err := doc.Body()
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Scan(body)
	}
}

func BenchmarkGenerate(b *testing.B) {
	f := newEngineFixture(b, letterLines...)
	engine := f.engine()
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := adaRequest()
		req.JobTitle = fmt.Sprintf("Engineer %d", i)
		if result := engine.Generate(ctx, req); result.State != StateDone {
			b.Fatalf("generation failed: %v", result.Err())
		}
	}
}

func BenchmarkScanCache(b *testing.B) {
	path := testutil.WriteTemplate(b, filepath.Join(b.TempDir(), "a.docx"), letterLines...)

	for _, size := range []int{0, 16} {
		cache := NewScanCache(CacheConfig{MaxSize: size})
		b.Run(fmt.Sprintf("max_size_%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := cache.Scan(path); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
