package repository

import (
	"encoding/json"
	"fmt"
)

// Legacy canvases were smaller than 1000x1000; documents from that era have
// incompatible desk geometry and are discarded rather than migrated.
const minLayoutDimension = 1000

// migrateStoredDocument inspects a stored document for legacy shapes.
//
// Two shapes are discarded outright: layouts with the old small canvas, and
// position sets predating desk display labels. One narrow case is migrated in
// place: workstation info missing the drawer-working flag gets it defaulted
// to true, and the corrected document should be written back immediately.
//
// Returns the (possibly rewritten) document, whether it must be discarded,
// and whether it was rewritten.
func migrateStoredDocument(raw []byte) (cleaned []byte, discard bool, rewritten bool, err error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, false, fmt.Errorf("parse stored document: %w", err)
	}

	layout, ok := doc["layout"].(map[string]any)
	if !ok {
		return raw, false, false, nil
	}

	if width, ok := layout["width"].(float64); ok && width < minLayoutDimension {
		return nil, true, false, nil
	}
	if height, ok := layout["height"].(float64); ok && height < minLayoutDimension {
		return nil, true, false, nil
	}

	positions, _ := layout["positions"].([]any)
	if len(positions) > 0 {
		first, _ := positions[0].(map[string]any)
		if name, _ := first["deskName"].(string); name == "" {
			return nil, true, false, nil
		}
	}

	for _, p := range positions {
		pos, ok := p.(map[string]any)
		if !ok {
			continue
		}
		info, ok := pos["workstationInfo"].(map[string]any)
		if !ok {
			continue
		}
		if _, present := info["drawerWorking"]; !present {
			info["drawerWorking"] = true
			rewritten = true
		}
	}

	if !rewritten {
		return raw, false, false, nil
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, false, false, fmt.Errorf("encode migrated document: %w", err)
	}
	return out, false, true, nil
}
