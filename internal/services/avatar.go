package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image/color"
	"os"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/contactos-backend/internal/data/repos"
	"github.com/yungbote/contactos-backend/internal/platform/apierr"
	"github.com/yungbote/contactos-backend/internal/platform/dbctx"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
)

const avatarSize = 256

// AvatarService renders initials placeholders for contacts without a picture.
type AvatarService interface {
	ContactAvatar(ctx context.Context, contactID string) ([]byte, error)
	Render(seed, nombre string) ([]byte, error)
}

type avatarService struct {
	log      *logger.Logger
	contacts repos.ContactRepo

	bgColors []color.NRGBA
	font     *truetype.Font
}

var defaultAvatarColors = []string{
	"#1E88E5", "#43A047", "#E53935", "#8E24AA", "#FB8C00",
	"#00897B", "#3949AB", "#6D4C41", "#D81B60", "#546E7A",
}

// AvatarConfig points at optional overrides. ColorsPath is a JSON array of
// "#RRGGBB" strings; FontPath is a TTF file.
type AvatarConfig struct {
	ColorsPath string
	FontPath   string
}

// NewAvatarService falls back to a built-in palette and the Go regular font
// for anything cfg leaves empty.
func NewAvatarService(log *logger.Logger, contactRepo repos.ContactRepo, cfg AvatarConfig) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	bgColors, err := defaultColors()
	if err != nil {
		return nil, err
	}
	if p := strings.TrimSpace(cfg.ColorsPath); p != "" {
		serviceLog.Info("Loading avatar colors...", "path", p)
		loaded, err := loadColorsFromFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) == 0 {
			return nil, fmt.Errorf("avatar colors list is empty")
		}
		bgColors = loaded
	}

	fontBytes := goregular.TTF
	if p := strings.TrimSpace(cfg.FontPath); p != "" {
		serviceLog.Info("Loading avatar font", "font", p)
		fontBytes, err = os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
	}
	parsed, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}

	return &avatarService{
		log:      serviceLog,
		contacts: contactRepo,
		bgColors: bgColors,
		font:     parsed,
	}, nil
}

func (as *avatarService) ContactAvatar(ctx context.Context, contactID string) ([]byte, error) {
	ownerID, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseContactID(contactID)
	if err != nil {
		return nil, err
	}
	contact, err := as.contacts.GetOwned(dbctx.Of(ctx), ownerID, id)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("get contact: %w", err))
	}
	if contact == nil {
		return nil, apierr.NotFound("Contacto no encontrado")
	}
	return as.Render(contact.ID.String(), contact.Nombre)
}

// Render is deterministic: the same seed always gets the same background.
func (as *avatarService) Render(seed, nombre string) ([]byte, error) {
	const size = avatarSize
	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.pickColor(seed))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	// truetype faces cache glyphs and are not safe to share across goroutines.
	face := truetype.NewFace(as.font, &truetype.Options{
		Size:    size * 0.4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(computeInitials(nombre), float64(size)/2, float64(size)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func (as *avatarService) pickColor(seed string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return as.bgColors[int(h.Sum32()%uint32(len(as.bgColors)))]
}

func defaultColors() ([]color.NRGBA, error) {
	out := make([]color.NRGBA, 0, len(defaultAvatarColors))
	for _, h := range defaultAvatarColors {
		r, g, b, err := parseHexRGB(h)
		if err != nil {
			return nil, err
		}
		out = append(out, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return out, nil
}

func parseHexRGB(s string) (r, g, b uint8, err error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return 0, 0, 0, fmt.Errorf("expected 6 hex chars")
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid hex")
	}
	return raw[0], raw[1], raw[2], nil
}

// computeInitials takes the first letter of the first two words.
func computeInitials(nombre string) string {
	var out []rune
	for _, word := range strings.Fields(nombre) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

// loadColorsFromFile reads a JSON array of "#RRGGBB" strings.
func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var hexes []string
	if err := json.Unmarshal(data, &hexes); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	out := make([]color.NRGBA, 0, len(hexes))
	for _, h := range hexes {
		r, g, b, err := parseHexRGB(h)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", h, err)
		}
		out = append(out, color.NRGBA{R: r, G: g, B: b, A: 255})
	}
	return out, nil
}
