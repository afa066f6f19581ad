package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/unicode/norm"

	"github.com/yungbote/shapemate-backend/internal/nutrition/document"
	"github.com/yungbote/shapemate-backend/internal/observability"
	"github.com/yungbote/shapemate-backend/internal/platform/envutil"
	"github.com/yungbote/shapemate-backend/internal/platform/gcp"
	"github.com/yungbote/shapemate-backend/internal/platform/logger"
)

// Locations of archived PDFs start with this scheme; anything else is a
// path under the output directory.
const archiveScheme = "gcs://"

var ErrInvalidLocation = errors.New("invalid pdf location")

type Config struct {
	OutputDir string
	KeyPrefix string
}

func ConfigFromEnv() Config {
	return Config{
		OutputDir: envutil.String("PDF_OUTPUT_DIR", "data/pdfs"),
		KeyPrefix: envutil.String("PDF_KEY_PREFIX", "diets"),
	}
}

// Renderer turns a diet document into a PDF file. When an archive bucket is
// configured the file is uploaded and the local copy removed.
type Renderer struct {
	log     *logger.Logger
	cfg     Config
	archive gcp.BucketService
	now     func() time.Time
}

func NewRenderer(log *logger.Logger, cfg Config, archive gcp.BucketService) (*Renderer, error) {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, fmt.Errorf("pdf renderer: missing output dir")
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("pdf renderer: create output dir: %w", err)
	}
	return &Renderer{
		log:     log.With("service", "PDFRenderer"),
		cfg:     cfg,
		archive: archive,
		now:     time.Now,
	}, nil
}

// Write renders doc into out without touching the filesystem.
func (r *Renderer) Write(doc document.Diet, out io.Writer) error {
	var chart []byte
	if c := doc.NutritionalCalculations; c != nil {
		png, err := MacroChart(c.Macronutrients)
		if err != nil {
			r.log.Warn("Macro chart skipped", "error", err)
		} else {
			chart = png
		}
	}
	return writeDiet(doc, chart, out)
}

// Render writes the PDF and returns its location.
func (r *Renderer) Render(ctx context.Context, doc document.Diet) (loc string, err error) {
	ctx, span := observability.StartSpan(ctx, "pdf.render",
		attribute.Bool("pdf.archive", r.archive != nil),
		attribute.Int("pdf.days", len(doc.WeeklyMenu.Days)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.Write(doc, &buf); err != nil {
		return "", err
	}

	name := r.fileName(doc)
	if r.archive != nil {
		key := strings.Trim(r.cfg.KeyPrefix, "/") + "/" + name
		if err := r.archive.UploadFile(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
			return "", fmt.Errorf("archive pdf: %w", err)
		}
		r.log.Info("Diet PDF archived", "key", key, "bytes", buf.Len())
		return archiveScheme + key, nil
	}

	path := filepath.Join(r.cfg.OutputDir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write pdf file: %w", err)
	}
	r.log.Info("Diet PDF written", "path", path, "bytes", buf.Len())
	return path, nil
}

// Open streams a previously rendered PDF.
func (r *Renderer) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if key, ok := strings.CutPrefix(loc, archiveScheme); ok {
		if r.archive == nil {
			return nil, fmt.Errorf("%w: archive not configured", ErrInvalidLocation)
		}
		return r.archive.DownloadFile(ctx, key)
	}
	path, err := r.localPath(loc)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Discard removes a rendered PDF whose diet could not be saved.
func (r *Renderer) Discard(ctx context.Context, loc string) error {
	if key, ok := strings.CutPrefix(loc, archiveScheme); ok {
		if r.archive == nil {
			return nil
		}
		return r.archive.DeleteFile(ctx, key)
	}
	path, err := r.localPath(loc)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (r *Renderer) localPath(loc string) (string, error) {
	base, err := filepath.Abs(r.cfg.OutputDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(loc)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidLocation, loc)
	}
	return abs, nil
}

func (r *Renderer) fileName(doc document.Diet) string {
	at := doc.GeneratedAt
	if at.IsZero() {
		at = r.now()
	}
	slug := slugify(doc.PatientInfo.Name)
	if slug == "" || slug == slugify(document.NotInformed) {
		slug = "paciente"
	}
	return fmt.Sprintf("dieta_%s_%s_%s.pdf", slug, at.UTC().Format("20060102_150405"), uuid.NewString()[:8])
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range norm.NFD.String(strings.ToLower(s)) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if r < unicode.MaxASCII {
				b.WriteRune(r)
				lastDash = false
			}
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
