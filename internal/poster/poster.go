package poster

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/models"
)

const (
	margin       = 18.0
	maxPhotos    = 3
	photoMaxH    = 75.0
	footerText   = "Generated by BRACU Lost & Found Portal"
	headerText   = "BRACU Lost & Found Poster"
	timestampFmt = "2006-01-02 15:04"
)

// PhotoResolver переводит путь фотографии в путь на диске.
type PhotoResolver interface {
	Resolve(relativePath string) string
}

// Renderer рисует печатный плакат объявления в PDF.
type Renderer struct {
	photos        PhotoResolver
	publicBaseURL string
	now           func() time.Time
}

// NewRenderer создаёт экземпляр. photos может быть nil: тогда фото не вставляются.
func NewRenderer(photos PhotoResolver, publicBaseURL string) *Renderer {
	return &Renderer{
		photos:        photos,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Filename - имя файла для Content-Disposition.
func Filename(l *models.Listing) string {
	return fmt.Sprintf("poster_item_%s.pdf", l.ID)
}

// Render пишет PDF плакат в w.
func (r *Renderer) Render(w io.Writer, l *models.Listing) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 6, footerText, "", 0, "L", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*margin

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(0, 51, 153)
	pdf.CellFormat(0, 12, headerText, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 6, r.now().Format(timestampFmt), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	name := l.Name
	if strings.TrimSpace(name) == "" {
		name = "Unnamed Item"
	}
	pdf.SetFont("Helvetica", "B", 22)
	pdf.MultiCell(0, 10, tr(name), "", "L", false)

	pdf.SetFont("Helvetica", "B", 12)
	if l.Status == models.ListingStatusLost {
		pdf.SetTextColor(204, 128, 0)
	} else {
		pdf.SetTextColor(51, 153, 51)
	}
	pdf.CellFormat(0, 7, "Status: "+statusLabel(l.Status), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	if l.Value != nil && *l.Value > 0 {
		pdf.CellFormat(0, 6, fmt.Sprintf("Estimated Value: %.2f", *l.Value), "", 1, "L", false, 0, "")
	}
	if l.HasLocation() {
		pdf.CellFormat(0, 6, tr("Location: "+strings.TrimSpace(*l.Location)), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Posted: "+l.CreatedAt.Format(timestampFmt), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 7, "Description:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 6, tr(l.Description), "", "L", false)
	pdf.Ln(4)

	r.drawPhotos(pdf, l, contentW)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "View online: "+r.itemURL(l), "", 1, "L", false, 0, "")

	if pdf.Err() {
		return fmt.Errorf("poster: render: %w", pdf.Error())
	}
	return pdf.Output(w)
}

func (r *Renderer) itemURL(l *models.Listing) string {
	return fmt.Sprintf("%s/#item-%s", r.publicBaseURL, l.ID)
}

// drawPhotos вставляет до трёх фотографий. Отсутствующие и неподдерживаемые файлы пропускаются.
func (r *Renderer) drawPhotos(pdf *fpdf.Fpdf, l *models.Listing, contentW float64) {
	if r.photos == nil || len(l.Photos) == 0 {
		return
	}

	headerDrawn := false
	for i, photo := range l.Photos {
		if i >= maxPhotos {
			break
		}
		imageType := imageTypeFor(photo)
		if imageType == "" {
			continue
		}
		path := r.photos.Resolve(photo)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		info := pdf.RegisterImageOptions(path, fpdf.ImageOptions{ImageType: imageType, ReadDpi: true})
		if pdf.Err() {
			logger.WithFields(logrus.Fields{
				"listing_id": l.ID,
				"photo":      photo,
				"error":      pdf.Error().Error(),
			}).Warn("poster: failed to embed photo")
			pdf.ClearError()
			continue
		}
		if info == nil || info.Width() <= 0 || info.Height() <= 0 {
			continue
		}

		if !headerDrawn {
			pdf.SetFont("Helvetica", "B", 14)
			pdf.CellFormat(0, 7, "Photos:", "", 1, "L", false, 0, "")
			headerDrawn = true
		}

		scale := contentW / info.Width()
		if h := photoMaxH / info.Height(); h < scale {
			scale = h
		}
		w, h := info.Width()*scale, info.Height()*scale
		x := margin + (contentW-w)/2
		pdf.ImageOptions(path, x, -1, w, h, true, fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}, 0, "")
		pdf.Ln(4)
	}
}

func imageTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".png":
		return "PNG"
	case ".gif":
		return "GIF"
	default:
		return ""
	}
}

func statusLabel(status string) string {
	if status == "" {
		return "Unknown"
	}
	return strings.ToUpper(status[:1]) + status[1:]
}
