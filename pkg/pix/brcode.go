// Package pix builds static BR Code payloads (Banco Central's PIX flavour of
// the EMV merchant-presented QR format) without touching any provider. Used
// as the local fallback when the external gateway is unconfigured or down.
package pix

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrMissingKey = errors.New("pix key is required")

const qrSize = 256

type Charge struct {
	Key          string // receiving PIX key (email, phone, CNPJ or EVP)
	MerchantName string
	MerchantCity string
	AmountMinor  int64  // in centavos; 0 omits the amount field
	TxID         string // reconciliation id shown on the payer statement
}

// Payload renders the copy-and-paste BR Code string, CRC included.
func (c Charge) Payload() (string, error) {
	if strings.TrimSpace(c.Key) == "" {
		return "", ErrMissingKey
	}

	name := truncate(defaultStr(c.MerchantName, "LOJINHA"), 25)
	city := truncate(defaultStr(c.MerchantCity, "SAO PAULO"), 15)
	txid := truncate(defaultStr(c.TxID, "***"), 25)

	var b strings.Builder
	b.WriteString(emv("00", "01")) // payload format indicator
	b.WriteString(emv("26", emv("00", "br.gov.bcb.pix")+emv("01", c.Key)))
	b.WriteString(emv("52", "0000")) // merchant category
	b.WriteString(emv("53", "986"))  // BRL
	if c.AmountMinor > 0 {
		b.WriteString(emv("54", fmt.Sprintf("%d.%02d", c.AmountMinor/100, c.AmountMinor%100)))
	}
	b.WriteString(emv("58", "BR"))
	b.WriteString(emv("59", name))
	b.WriteString(emv("60", city))
	b.WriteString(emv("62", emv("05", txid)))

	payload := b.String() + "6304"
	return payload + fmt.Sprintf("%04X", crc16(payload)), nil
}

// QRCodeBase64 renders the payload as a PNG data URI suitable for an <img> tag.
func (c Charge) QRCodeBase64() (payload string, dataURI string, err error) {
	payload, err = c.Payload()
	if err != nil {
		return "", "", err
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return "", "", err
	}
	return payload, "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

func emv(id, value string) string {
	return fmt.Sprintf("%s%02d%s", id, len(value), value)
}

// crc16 is CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF) as mandated by the
// EMV QR spec.
func crc16(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// truncate caps s at max bytes without splitting a rune, so accented
// merchant names stay valid UTF-8 in the payload.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func defaultStr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
