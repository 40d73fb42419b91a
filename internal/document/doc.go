// Package document renders the prediction report PDF.
//
// BuildDocument turns a filtered table, its statistics and the requesting
// identity into a ReportDocument: cover, statistics, preview and notes
// sections. Renderer then draws the model section by section on US Letter
// pages with half-inch margins.
//
// Emission moves through START, COVER, STATS, PREVIEW, NOTES and DONE in that
// order. A logo that cannot be read, a preview cell the core font cannot show
// or a section that fails while drawing does not stop the document; each is
// replaced by a placeholder and reported as a RENDER warning. Only failing to
// produce the byte stream itself is an error (DOCUMENT_BUILD).
//
//	r := document.NewRenderer(document.DefaultConfig(), logger)
//	pdf, warnings, err := r.Render(filtered, stats, identity)
package document
