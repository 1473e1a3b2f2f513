// Copyright (c) 2026 Decoy Team
// Decoy - contactless card interception lab
// This source code is licensed under the MIT license found in the LICENSE file.

// package readersim replays scripted reader behavior against an emulation
// handler. It stands in for the radio frontend: steps run strictly in
// order, one at a time, and each step blocks on the handler's verdict,
// matching how a physical reader drives the exchange.
package readersim

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/strayfield/decoy/internal/emulation"
	"github.com/strayfield/decoy/internal/model"
)

// CardSource supplies the block data presented to the reader on reads.
// *emulation.Session satisfies it.
type CardSource interface {
	Block(i int) model.Block
}

// Step is one scripted protocol event.
type Step struct {
	Op    string `yaml:"op"`              // auth, read or write
	Block int    `yaml:"block"`           // target block index
	Kind  string `yaml:"kind,omitempty"`  // key kind for auth: A or B
	Key   string `yaml:"key,omitempty"`   // 12 hex chars for auth
	Data  string `yaml:"data,omitempty"`  // hex payload for write, spaces allowed
	Times int    `yaml:"times,omitempty"` // repeat count, default 1
}

// Script is a named sequence of reader events.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Result summarizes a replay run.
type Result struct {
	Granted int
	Denied  int
}

// Parse reads a YAML reader script.
func Parse(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("script has no steps")
	}
	return &sc, nil
}

// Run drives the handler with every step in order and tallies the
// verdicts. Reads present the card source's current block data, the way
// the radio layer would.
func (sc *Script) Run(h emulation.Handler, card CardSource) (Result, error) {
	var res Result
	for i, st := range sc.Steps {
		times := st.Times
		if times <= 0 {
			times = 1
		}
		for n := 0; n < times; n++ {
			granted, err := runStep(h, card, st)
			if err != nil {
				return res, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
			}
			if granted {
				res.Granted++
			} else {
				res.Denied++
			}
		}
	}
	return res, nil
}

func runStep(h emulation.Handler, card CardSource, st Step) (bool, error) {
	switch strings.ToLower(st.Op) {
	case "auth":
		kind, err := model.ParseKeyKind(st.Kind)
		if err != nil {
			return false, err
		}
		key, err := parseKey(st.Key)
		if err != nil {
			return false, err
		}
		return h.OnAuthenticate(st.Block, kind, key), nil
	case "read":
		return h.OnRead(st.Block, card.Block(st.Block)), nil
	case "write":
		data, err := parseBlock(st.Data)
		if err != nil {
			return false, err
		}
		return h.OnWrite(st.Block, data), nil
	}
	return false, fmt.Errorf("unknown op %q", st.Op)
}

func parseKey(s string) (model.Key, error) {
	var k model.Key
	raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if err != nil {
		return k, fmt.Errorf("invalid key hex %q: %w", s, err)
	}
	if len(raw) != model.KeySize {
		return k, fmt.Errorf("key must be %d bytes, got %d", model.KeySize, len(raw))
	}
	copy(k[:], raw)
	return k, nil
}

func parseBlock(s string) (model.Block, error) {
	var b model.Block
	raw, err := hex.DecodeString(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if err != nil {
		return b, fmt.Errorf("invalid data hex %q: %w", s, err)
	}
	if len(raw) > model.BlockSize {
		return b, fmt.Errorf("data exceeds %d bytes: %d", model.BlockSize, len(raw))
	}
	copy(b[:], raw)
	return b, nil
}
