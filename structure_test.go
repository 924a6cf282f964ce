package pdfclassify

import (
	"context"
	"image"
	"image/color"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docforge/pdfclassify/internal/sigstore"
)

func referenceStructure() *sigstore.StructuralSignature {
	return &sigstore.StructuralSignature{
		NumPages:       1,
		PageDimensions: [2]float64{595, 842},
		AspectRatio:    595.0 / 842.0,
		Orientation:    "portrait",
		Tables: &sigstore.TableSignature{
			Count: 1,
			MainConsumption: &sigstore.TableShape{
				Rows: 8,
				Cols: 5,
			},
		},
		Sections: defaultSections(),
		Layout:   &sigstore.LayoutSignature{ColumnLayout: "single_column"},
	}
}

func TestCompareStructuresIdentical(t *testing.T) {
	s := referenceStructure()
	assert.InDelta(t, 1.0, compareStructures(s, s), 1e-9)
}

func TestCompareStructuresSubScores(t *testing.T) {
	input := referenceStructure()

	t.Run("row difference lowers table score", func(t *testing.T) {
		tmpl := referenceStructure()
		tmpl.Tables.MainConsumption.Rows = 12

		got := compareStructures(input, tmpl)
		// Table sub-score loses 0.35*(4/12) of its weight.
		want := 1.0 - tableWeight*0.35*(4.0/12.0)
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("count difference decays", func(t *testing.T) {
		tmpl := referenceStructure()
		tmpl.Tables.Count = 3

		got := compareStructures(input, tmpl)
		want := 1.0 - tableWeight*(0.30-(0.30-2*0.1))
		assert.InDelta(t, want, got, 1e-9)
	})

	t.Run("layout mismatch", func(t *testing.T) {
		tmpl := referenceStructure()
		tmpl.Layout.ColumnLayout = "two_column"

		assert.InDelta(t, 1.0-layoutWeight, compareStructures(input, tmpl), 1e-9)
	})

	t.Run("aspect ratio difference", func(t *testing.T) {
		tmpl := referenceStructure()
		tmpl.AspectRatio = input.AspectRatio * 2

		diff := 0.5 // relative difference |a-2a| / 2a
		want := 1.0 - pageWeight*0.5*diff
		assert.InDelta(t, want, compareStructures(input, tmpl), 1e-9)
	})
}

func TestCompareStructuresNilTables(t *testing.T) {
	input := referenceStructure()
	tmpl := referenceStructure()
	tmpl.Tables = nil

	// Zero-valued table signature still yields the floor comparison
	// rather than panicking.
	got := compareStructures(input, tmpl)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 1.0)
}

func TestDimensionMatch(t *testing.T) {
	assert.InDelta(t, 0.35, dimensionMatch(8, 8, 0.35), 1e-12)
	assert.InDelta(t, 0.35*(1.0-4.0/12.0), dimensionMatch(8, 12, 0.35), 1e-12)
	assert.Equal(t, 0.0, dimensionMatch(0, 100, 0.35))
}

func TestCompareSections(t *testing.T) {
	full := defaultSections()

	partial := defaultSections()
	partial["payment_info"] = sigstore.SectionSignature{Present: false}

	assert.InDelta(t, 1.0, compareSections(full, full), 1e-9)
	assert.InDelta(t, 2.0/3.0, compareSections(full, partial), 1e-9)
	// Missing entries count as absent and can still agree.
	assert.InDelta(t, 1.0, compareSections(nil, map[string]sigstore.SectionSignature{}), 1e-9)
}

func TestDetectByStructurePageCountMismatch(t *testing.T) {
	reader := newFakeReader()
	reader.addDocument("/bills/x.pdf", drawBillPage(0), "", 1)

	onePage := referenceStructure()
	twoPage := referenceStructure()
	twoPage.NumPages = 2

	c, err := New(Config{
		Database: sigstore.NewDatabase(
			&sigstore.TemplateSignature{TemplateID: "one_page", Signatures: sigstore.Signatures{Structural: onePage}},
			&sigstore.TemplateSignature{TemplateID: "two_page", Signatures: sigstore.Signatures{Structural: twoPage}},
			&sigstore.TemplateSignature{TemplateID: "no_structural"},
		),
		Reader: reader,
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	db, err := c.database()
	require.NoError(t, err)

	scores, warnings := c.detectByStructure(context.Background(), "/bills/x.pdf", db)
	assert.Empty(t, warnings)

	// Page-count mismatch scores zero but stays in the pool; a missing
	// structural signature is omitted entirely.
	score, ok := scores["two_page"]
	require.True(t, ok)
	assert.Equal(t, 0.0, score)
	assert.Greater(t, scores["one_page"], 0.0)
	_, ok = scores["no_structural"]
	assert.False(t, ok)
}

func TestDetectByStructureUnreadableDocument(t *testing.T) {
	reader := newFakeReader()

	c, err := New(Config{
		Database: sigstore.NewDatabase(
			&sigstore.TemplateSignature{TemplateID: "one_page", Signatures: sigstore.Signatures{Structural: referenceStructure()}},
		),
		Reader: reader,
		Logger: slog.Default(),
	})
	require.NoError(t, err)
	db, err := c.database()
	require.NoError(t, err)

	scores, warnings := c.detectByStructure(context.Background(), "/bills/missing.pdf", db)
	assert.Empty(t, scores)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "structural detection skipped")
}

func TestExtractStructure(t *testing.T) {
	reader := newFakeReader()
	reader.addDocument("/bills/x.pdf", drawBillPage(0), "", 1)

	c, err := New(Config{
		Database: sigstore.NewDatabase(),
		Reader:   reader,
		Logger:   slog.Default(),
	})
	require.NoError(t, err)

	s, err := c.extractStructure(context.Background(), "/bills/x.pdf")
	require.NoError(t, err)

	assert.Equal(t, 1, s.NumPages)
	assert.Equal(t, [2]float64{595, 842}, s.PageDimensions)
	assert.Equal(t, "portrait", s.Orientation)
	assert.InDelta(t, 595.0/842.0, s.AspectRatio, 1e-9)
	require.NotNil(t, s.Tables)
	assert.GreaterOrEqual(t, s.Tables.Count, 1)
	require.NotNil(t, s.Tables.MainConsumption)
	assert.GreaterOrEqual(t, s.Tables.MainConsumption.Rows, 3)
	assert.GreaterOrEqual(t, s.Tables.MainConsumption.Cols, 3)
	assert.Len(t, s.Sections, 3)
	require.NotNil(t, s.Layout)
	assert.NotEmpty(t, s.Layout.ColumnLayout)
}

func TestExtractStructureOrientation(t *testing.T) {
	tests := []struct {
		name string
		dims [2]float64
		want string
	}{
		{"portrait", [2]float64{595, 842}, "portrait"},
		{"landscape", [2]float64{842, 595}, "landscape"},
		{"square counts as landscape", [2]float64{600, 600}, "landscape"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newFakeReader()
			reader.addDocument("/bills/x.pdf", drawBillPage(0), "", 1)
			reader.mu.Lock()
			reader.dims["/bills/x.pdf"] = tt.dims
			reader.mu.Unlock()

			c, err := New(Config{
				Database: sigstore.NewDatabase(),
				Reader:   reader,
				Logger:   slog.Default(),
			})
			require.NoError(t, err)

			s, err := c.extractStructure(context.Background(), "/bills/x.pdf")
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Orientation)
		})
	}
}

func TestDetectTablesUsesMainTableBox(t *testing.T) {
	tables := detectTables(drawBillPage(0))

	require.NotNil(t, tables.MainConsumption)
	assert.Equal(t, [4]float64{0.1, 0.25, 0.9, 0.65}, tables.MainConsumption.BBoxNorm)
	assert.Contains(t, tables.MainConsumption.CellArrangement, "grid_")
}

func TestDetectLayout(t *testing.T) {
	balanced := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range balanced.Pix {
		balanced.Pix[i] = 0
	}
	assert.Equal(t, "two_column", detectLayout(balanced).ColumnLayout)

	lopsided := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range lopsided.Pix {
		lopsided.Pix[i] = 255
	}
	for y := 0; y < 200; y++ {
		for x := 0; x < 100; x++ {
			lopsided.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	assert.Equal(t, "single_column", detectLayout(lopsided).ColumnLayout)
}
