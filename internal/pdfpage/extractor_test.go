package pdfpage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fic-tools/rentafic-bot/internal/pdfpage"
	"github.com/fic-tools/rentafic-bot/internal/testpdf"
)

func TestFirstPage(t *testing.T) {
	extractor := pdfpage.New()

	t.Run("TrimsMultiPageDocument", func(t *testing.T) {
		doc := testpdf.Build("page one", "page two", "page three")

		page, err := extractor.FirstPage(doc)
		require.NoError(t, err)
		require.NotEmpty(t, page)
		assert.Less(t, len(page), len(doc))

		// The result must itself be a one-page PDF.
		again, err := extractor.FirstPage(page)
		require.NoError(t, err)
		assert.NotEmpty(t, again)
	})

	t.Run("SinglePagePassesThrough", func(t *testing.T) {
		doc := testpdf.Build("only page")
		page, err := extractor.FirstPage(doc)
		require.NoError(t, err)
		assert.NotEmpty(t, page)
	})

	t.Run("NotAPDF", func(t *testing.T) {
		_, err := extractor.FirstPage([]byte("<html>not a pdf</html>"))
		var formatErr *pdfpage.FormatError
		require.ErrorAs(t, err, &formatErr)
	})

	t.Run("EmptyInput", func(t *testing.T) {
		_, err := extractor.FirstPage(nil)
		var formatErr *pdfpage.FormatError
		require.ErrorAs(t, err, &formatErr)
	})
}
