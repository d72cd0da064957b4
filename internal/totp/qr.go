package totp

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QRCodePNG renders the provisioning URI as a PNG and returns it as a
// base64 data URI ready for an <img> tag.
func (e *Engine) QRCodePNG(uri string) (string, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
