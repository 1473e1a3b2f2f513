// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package carddata reads and writes card dump files and knows the on-card
// layout of the value blocks Decoy tracks. Dumps are plain text: a "UID:"
// line followed by "Block N:" lines of 16 hex bytes. Unknown bytes may be
// written as "??" and load as 0xFF, the common default for uncracked keys.
package carddata

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/strayfield/decoy/internal/model"
)

// Balance blocks on the cards Decoy targets. Block 4 holds the value,
// block 8 mirrors it.
const (
	BalanceBlock       = 4
	BalanceMirrorBlock = 8
)

// MaxBalance is the largest storable balance in cents (LE16).
const MaxBalance = 0xFFFF

// BalancePreset is a named top-up amount in cents.
type BalancePreset struct {
	Label string
	Cents uint16
}

// BalancePresets lists the common vendor top-up amounts plus the LE16
// maximum.
func BalancePresets() []BalancePreset {
	return []BalancePreset{
		{Label: "$10.00", Cents: 1000},
		{Label: "$25.00", Cents: 2500},
		{Label: "$50.00", Cents: 5000},
		{Label: "$100.00", Cents: 10000},
		{Label: "Max ($655.35)", Cents: MaxBalance},
	}
}

// IsBalanceBlock reports whether a write to the given block carries a
// balance value.
func IsBalanceBlock(block int) bool {
	return block == BalanceBlock || block == BalanceMirrorBlock
}

// DecodeBalance interprets the first two bytes of a block payload as a
// little-endian 16-bit balance in cents.
func DecodeBalance(data model.Block) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}

// ParseDump reads a text dump into a CardImage. Lines that are neither a
// UID line nor a well-formed block line are skipped, matching the lenient
// behavior readers expect from hand-edited dumps.
func ParseDump(r io.Reader) (*model.CardImage, error) {
	img := &model.CardImage{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		parseDumpLine(strings.TrimSpace(scanner.Text()), img)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	img.Provider = DetectProvider(img)
	return img, nil
}

func parseDumpLine(line string, img *model.CardImage) {
	if rest, ok := strings.CutPrefix(line, "UID:"); ok {
		img.UID = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(rest), " ", ""))
		return
	}
	rest, ok := strings.CutPrefix(line, "Block ")
	if !ok {
		return
	}
	numStr, hexPart, ok := strings.Cut(rest, ":")
	if !ok {
		return
	}
	num, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil || num < 0 || num >= model.BlockCount {
		return
	}
	fields := strings.Fields(hexPart)
	if len(fields) != model.BlockSize {
		return
	}
	var b model.Block
	for i, f := range fields {
		if f == "??" {
			b[i] = 0xFF
			continue
		}
		v, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return
		}
		b[i] = byte(v)
	}
	img.Blocks[num] = b
	img.Valid[num] = true
}

// WriteDump writes the valid blocks of an image as a text dump.
func WriteDump(w io.Writer, img *model.CardImage) error {
	if _, err := fmt.Fprintf(w, "# Decoy card dump\nUID: %s\n", img.UID); err != nil {
		return err
	}
	for i := 0; i < model.BlockCount; i++ {
		if !img.Valid[i] {
			continue
		}
		var sb strings.Builder
		for j, b := range img.Blocks[i] {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%02X", b)
		}
		if _, err := fmt.Fprintf(w, "Block %d: %s\n", i, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// ParseStoredBalance decodes the checksummed balance and usage counter
// from the value block. Layout: value LE16 at 0..1, counter LE16 at 2..3,
// with bitwise-inverted copies at 4..5 and 6..7. A field is trusted only
// when value ^ inverted == 0xFFFF.
func ParseStoredBalance(img *model.CardImage) (balance, counter uint16, ok bool) {
	if !img.Valid[BalanceBlock] {
		return 0, 0, false
	}
	b := img.Blocks[BalanceBlock]
	val := uint16(b[0]) | uint16(b[1])<<8
	cnt := uint16(b[2]) | uint16(b[3])<<8
	valInv := uint16(b[4]) | uint16(b[5])<<8
	cntInv := uint16(b[6]) | uint16(b[7])<<8

	if val^valInv == 0xFFFF {
		balance = val
		ok = true
	}
	if cnt^cntInv == 0xFFFF {
		counter = cnt
	}
	return balance, counter, ok
}

// SetStoredBalance writes a new balance into the value block: LE16 value,
// inverted copy, the 8..9 shadow bytes, and the block 8 mirror when the
// image carries one.
func SetStoredBalance(img *model.CardImage, cents uint16) error {
	if !img.Valid[BalanceBlock] {
		return fmt.Errorf("card has no valid balance block %d", BalanceBlock)
	}
	b := &img.Blocks[BalanceBlock]
	b[0] = byte(cents)
	b[1] = byte(cents >> 8)
	b[4] = b[0] ^ 0xFF
	b[5] = b[1] ^ 0xFF
	b[8] = b[0]
	b[9] = b[1]
	if img.Valid[BalanceMirrorBlock] {
		img.Blocks[BalanceMirrorBlock] = *b
	}
	return nil
}

// DetectProvider identifies the card scheme from known signatures: the
// CSC ServiceWorks 0x0101 marker in block 2, or an ASCII vendor string
// in block 1.
func DetectProvider(img *model.CardImage) string {
	if img.Valid[2] && img.Blocks[2][0] == 0x01 && img.Blocks[2][1] == 0x01 {
		return "CSC ServiceWorks"
	}
	if img.Valid[1] {
		ascii := make([]byte, model.BlockSize)
		for i, c := range img.Blocks[1] {
			if c >= 32 && c <= 126 {
				ascii[i] = c
			} else {
				ascii[i] = '.'
			}
		}
		if strings.Contains(string(ascii), "UBESTWASH") {
			return "U-Best Wash"
		}
	}
	return "Unknown"
}
