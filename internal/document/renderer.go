package document

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // logo decoders
	_ "image/jpeg" // logo decoders
	_ "image/png"  // logo decoders
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"pricescope/internal/dataprocessing"
	"pricescope/internal/errors"
	"pricescope/pkg/contracts/domain"
)

// CellPlaceholder replaces a preview cell that cannot be drawn
const CellPlaceholder = "[?]"

// NoDataNotice is printed instead of an empty preview table
const NoDataNotice = "No data to display."

const fontFamily = "Helvetica"

// Stage is a step of document emission
type Stage int

const (
	StageStart Stage = iota
	StageCover
	StageStats
	StagePreview
	StageNotes
	StageDone
)

var stageNames = [...]string{"START", "COVER", "STATS", "PREVIEW", "NOTES", "DONE"}

func (s Stage) String() string {
	if s < StageStart || s > StageDone {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// emission enforces START -> COVER -> STATS -> PREVIEW -> NOTES -> DONE
type emission struct {
	stage Stage
}

func (e *emission) advance(next Stage) error {
	if e.stage == StageDone {
		return fmt.Errorf("document already complete")
	}
	if next != e.stage+1 {
		return fmt.Errorf("invalid transition %s -> %s", e.stage, next)
	}
	e.stage = next
	return nil
}

// Renderer emits report documents as PDF
type Renderer struct {
	cfg    Config
	logger *slog.Logger

	// sectionHook runs before each section is drawn; an error or panic makes
	// that section fail.
	sectionHook func(Stage) error
}

// NewRenderer creates a renderer. Zero fields of cfg take their defaults.
func NewRenderer(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		cfg:    cfg.withDefaults(),
		logger: logger.With(slog.String("component", "renderer")),
	}
}

// Config returns the effective configuration
func (r *Renderer) Config() Config {
	return r.cfg
}

// Render produces the PDF bytes for one report. Non-fatal conditions are
// returned as RENDER warnings; the only error is a DOCUMENT_BUILD error.
func (r *Renderer) Render(table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity) ([]byte, []*errors.AppError, error) {
	var buf bytes.Buffer
	warnings, err := r.RenderTo(&buf, table, stats, identity)
	if err != nil {
		return nil, warnings, err
	}
	return buf.Bytes(), warnings, nil
}

// RenderTo writes the PDF for one report to w
func (r *Renderer) RenderTo(w io.Writer, table *dataprocessing.RecordTable, stats dataprocessing.StatsSummary, identity domain.Identity) ([]*errors.AppError, error) {
	if w == nil {
		return nil, errors.NewDocumentBuildError("no destination for document", nil)
	}
	return r.Emit(w, BuildDocument(table, stats, identity, r.cfg))
}

// Emit draws an already built document model and writes it to w
func (r *Renderer) Emit(w io.Writer, doc ReportDocument) ([]*errors.AppError, error) {
	if w == nil {
		return nil, errors.NewDocumentBuildError("no destination for document", nil)
	}

	job, err := r.newJob(doc)
	if err != nil {
		return nil, err
	}

	var em emission
	steps := []struct {
		stage Stage
		emit  func()
	}{
		{StageCover, func() { job.cover(doc.Cover) }},
		{StageStats, func() { job.stats(doc.Stats) }},
		{StagePreview, func() { job.preview(doc.Preview) }},
		{StageNotes, func() { job.notes(doc.Notes) }},
	}

	for _, step := range steps {
		if err := em.advance(step.stage); err != nil {
			return job.warnings, errors.NewDocumentBuildError("emit sections", err)
		}
		job.section(step.stage, step.emit)
		r.logger.Debug("section emitted", slog.String("stage", step.stage.String()))
	}
	if err := em.advance(StageDone); err != nil {
		return job.warnings, errors.NewDocumentBuildError("finish document", err)
	}

	if job.pdf.Err() {
		return job.warnings, errors.NewDocumentBuildError("assemble document", job.pdf.Error())
	}

	cw := &countingWriter{w: w}
	if err := job.pdf.Output(cw); err != nil {
		r.logger.Error("document output failed", slog.String("error", err.Error()))
		return job.warnings, errors.NewDocumentBuildError("write document", err)
	}

	r.logger.Info("document rendered",
		slog.Int("pages", job.pdf.PageCount()),
		slog.Int64("bytes", cw.n),
		slog.Int("preview_rows", len(doc.Preview.Rows)),
		slog.Int("warnings", len(job.warnings)))

	return job.warnings, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// renderJob holds the state of one document emission
type renderJob struct {
	pdf      *fpdf.Fpdf
	cfg      Config
	logger   *slog.Logger
	hook     func(Stage) error
	tr       func(string) string
	enc      *encoding.Encoder
	width    float64
	height   float64
	warnings []*errors.AppError
}

func (r *Renderer) newJob(doc ReportDocument) (*renderJob, error) {
	pdf := fpdf.New("P", "pt", r.cfg.PageSize, "")
	if pdf.Err() {
		return nil, errors.NewDocumentBuildError("initialize document", pdf.Error())
	}

	m := r.cfg.Margin
	pdf.SetMargins(m, m, m)
	pdf.SetAutoPageBreak(true, m)
	pdf.SetCompression(r.cfg.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.Cover.GeneratedAt)
	pdf.SetModificationDate(doc.Cover.GeneratedAt)
	pdf.SetTitle(doc.Cover.Title, true)
	pdf.SetAuthor(r.cfg.CopyrightHolder, true)
	pdf.SetCreator("pricescope", false)
	pdf.AliasNbPages("")

	w, h := pdf.GetPageSize()
	job := &renderJob{
		pdf:    pdf,
		cfg:    r.cfg,
		logger: r.logger,
		hook:   r.sectionHook,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		enc:    charmap.Windows1252.NewEncoder(),
		width:  w - 2*m,
		height: h,
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-m * 2 / 3)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	if pdf.Err() {
		return nil, errors.NewDocumentBuildError("open first page", pdf.Error())
	}
	return job, nil
}

// section runs emit, converting an error state or panic into a placeholder
// line and a RENDER warning.
func (j *renderJob) section(stage Stage, emit func()) {
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("panic: %v", rec)
			}
		}()
		if j.hook != nil {
			if err := j.hook(stage); err != nil {
				return err
			}
		}
		emit()
		if j.pdf.Err() {
			return j.pdf.Error()
		}
		return nil
	}()
	if err == nil {
		return
	}

	j.pdf.ClearError()
	j.degrade(fmt.Sprintf("%s section replaced by placeholder", stage), err, "section", stage.String())
	j.placeholder(fmt.Sprintf("[%s section could not be rendered]", strings.ToLower(stage.String())))
}

func (j *renderJob) degrade(message string, cause error, key, value string) {
	w := errors.NewRenderDegraded(message, cause).WithContext(key, value)
	j.warnings = append(j.warnings, w)

	attrs := []any{slog.String(key, value)}
	if cause != nil {
		attrs = append(attrs, slog.String("error", cause.Error()))
	}
	j.logger.Warn(message, attrs...)
}

// text prepares prose for the core font. Runes outside cp1252 become '?'.
func (j *renderJob) text(s, where string) string {
	if _, err := j.enc.String(s); err == nil {
		return j.tr(s)
	}
	var b strings.Builder
	for _, r := range s {
		if _, err := j.enc.String(string(r)); err != nil {
			b.WriteRune('?')
			continue
		}
		b.WriteRune(r)
	}
	j.degrade(where+" contains characters the document font cannot show", nil, "field", where)
	return j.tr(b.String())
}

func (j *renderJob) placeholder(msg string) {
	j.pdf.SetFont(fontFamily, "I", 10)
	j.pdf.SetTextColor(160, 0, 0)
	j.pdf.MultiCell(0, 13, j.tr(msg), "", "L", false)
	j.pdf.SetTextColor(0, 0, 0)
	j.pdf.Ln(12)
}

func (j *renderJob) heading(s string) {
	j.pdf.SetFont(fontFamily, "B", 14)
	j.pdf.CellFormat(0, 20, j.tr(s), "", 1, "L", false, 0, "")
	j.pdf.Ln(4)
}

func (j *renderJob) paragraph(s string) {
	j.pdf.SetFont(fontFamily, "", 10)
	j.pdf.MultiCell(0, 13, s, "", "L", false)
}

func (j *renderJob) cover(c CoverSection) {
	if c.LogoPath != "" {
		j.logo(c.LogoPath)
	}

	j.pdf.Ln(12)
	j.pdf.SetFont(fontFamily, "B", 18)
	j.pdf.CellFormat(0, 24, j.text(c.Title, "title"), "", 1, "C", false, 0, "")
	j.pdf.Ln(6)

	ts := c.GeneratedAt.Format("2006-01-02 15:04:05")
	j.pdf.SetFont(fontFamily, "", 10)
	j.pdf.Write(13, "Generated for ")
	j.pdf.SetFont(fontFamily, "B", 10)
	j.pdf.Write(13, j.text(c.GeneratedForName, "name"))
	j.pdf.SetFont(fontFamily, "", 10)
	j.pdf.Write(13, " ("+j.text(c.GeneratedForEmail, "email")+") on "+ts+".")
	j.pdf.Ln(13)

	j.pdf.Ln(12)
	j.paragraph(j.text(c.Intro, "intro"))
	j.pdf.Ln(18)
}

var imageTypes = map[string]string{
	"png":  "PNG",
	"jpeg": "JPG",
	"gif":  "GIF",
}

// logo embeds the image at path. Any failure leaves the cover without it.
func (j *renderJob) logo(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		j.degrade("logo unavailable", err, "logo", path)
		return
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		j.degrade("logo could not be decoded", err, "logo", path)
		return
	}
	imgType, ok := imageTypes[format]
	if !ok {
		j.degrade("logo format not supported", fmt.Errorf("format %q", format), "logo", path)
		return
	}

	opts := fpdf.ImageOptions{ImageType: imgType}
	j.pdf.RegisterImageOptionsReader(path, opts, bytes.NewReader(data))
	if j.pdf.Err() {
		err := j.pdf.Error()
		j.pdf.ClearError()
		j.degrade("logo could not be embedded", err, "logo", path)
		return
	}

	j.pdf.ImageOptions(path, j.cfg.Margin, j.pdf.GetY(), LogoWidth, LogoHeight, true, opts, 0, "")
}

func (j *renderJob) stats(s StatsSection) {
	j.heading("Summary Statistics")

	j.pdf.SetFont(fontFamily, "", 10)
	j.pdf.SetDrawColor(128, 128, 128)
	j.pdf.SetLineWidth(0.25)
	j.pdf.SetFillColor(245, 245, 245)

	for i, row := range s.Rows() {
		fill := i == 0
		j.pdf.CellFormat(StatsLabelWidth, 18, j.tr(row.Label), "B", 0, "L", fill, 0, "")
		j.pdf.CellFormat(StatsValueWidth, 18, j.tr(row.Value), "B", 1, "L", fill, 0, "")
	}
	j.pdf.Ln(12)
}

func (j *renderJob) preview(p PreviewSection) {
	j.heading(p.Heading())

	if p.Empty() {
		j.paragraph(j.tr(NoDataNotice))
		j.pdf.Ln(18)
		return
	}

	header := p.Header()
	for i, h := range header {
		header[i] = j.tr(h)
	}

	rows := make([][]string, len(p.Rows))
	for i, row := range p.Rows {
		cells := make([]string, 0, len(header))
		for c, name := range p.Columns {
			cells = append(cells, j.cell(i, name, row.Cells[c], p.PriceColumn))
		}
		rows[i] = append(cells, j.tr(row.Range.String()))
	}

	widths := j.columnWidths(header, rows)
	const rowH = 16.0

	drawHeader := func() {
		j.pdf.SetFont(fontFamily, "B", 9)
		j.pdf.SetFillColor(242, 242, 242)
		j.pdf.SetDrawColor(128, 128, 128)
		j.pdf.SetLineWidth(0.25)
		for c, h := range header {
			j.pdf.CellFormat(widths[c], rowH, j.fit(h, widths[c]), "1", 0, "C", true, 0, "")
		}
		j.pdf.Ln(rowH)
		j.pdf.SetFont(fontFamily, "", 9)
	}

	drawHeader()
	for _, cells := range rows {
		if j.pdf.GetY()+rowH > j.height-j.cfg.Margin {
			j.pdf.AddPage()
			drawHeader()
		}
		for c, cell := range cells {
			j.pdf.CellFormat(widths[c], rowH, j.fit(cell, widths[c]), "1", 0, "L", false, 0, "")
		}
		j.pdf.Ln(rowH)
	}
	j.pdf.Ln(18)
}

// columnWidths sizes each column to its widest text, capped at twice
// PreviewColWidth, then scales all columns to span the content width.
func (j *renderJob) columnWidths(header []string, rows [][]string) []float64 {
	const padding = 6
	widths := make([]float64, len(header))

	j.pdf.SetFont(fontFamily, "B", 9)
	for c, h := range header {
		widths[c] = j.pdf.GetStringWidth(h) + padding
	}
	j.pdf.SetFont(fontFamily, "", 9)
	for _, cells := range rows {
		for c, cell := range cells {
			if w := j.pdf.GetStringWidth(cell) + padding; w > widths[c] {
				widths[c] = w
			}
		}
	}

	var sum float64
	for c := range widths {
		if widths[c] > 2*PreviewColWidth {
			widths[c] = 2 * PreviewColWidth
		}
		sum += widths[c]
	}
	scale := j.width / sum
	for c := range widths {
		widths[c] *= scale
	}
	return widths
}

// cell formats one preview value, substituting CellPlaceholder when it
// cannot be drawn.
func (j *renderJob) cell(row int, column string, v dataprocessing.Value, priceColumn string) (out string) {
	defer func() {
		if rec := recover(); rec != nil {
			j.degrade("preview cell replaced by placeholder", fmt.Errorf("%v", rec), "cell", fmt.Sprintf("%d:%s", row, column))
			out = CellPlaceholder
		}
	}()

	var s string
	switch {
	case v.IsMissing():
		return ""
	case column == priceColumn:
		if f, ok := v.Float(); ok {
			s = dataprocessing.FormatGrouped(f)
		} else {
			s = v.String()
		}
	default:
		s = v.String()
	}

	if _, err := j.enc.String(s); err != nil {
		j.degrade("preview cell replaced by placeholder", err, "cell", fmt.Sprintf("%d:%s", row, column))
		return CellPlaceholder
	}
	return j.tr(s)
}

// fit truncates s with an ellipsis so it fits a cell of width w
func (j *renderJob) fit(s string, w float64) string {
	const padding = 4
	if j.pdf.GetStringWidth(s) <= w-padding {
		return s
	}
	ellipsis := "..."
	for len(s) > 0 && j.pdf.GetStringWidth(s+ellipsis) > w-padding {
		s = s[:len(s)-1]
	}
	return s + ellipsis
}

func (j *renderJob) notes(n NotesSection) {
	j.heading("Notes")
	j.paragraph(j.text(n.Disclaimer, "disclaimer"))
	j.pdf.Ln(12)
	j.pdf.SetFont(fontFamily, "", 9)
	j.pdf.MultiCell(0, 11, j.text(n.Copyright, "copyright"), "", "L", false)
}
