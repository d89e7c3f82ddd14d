package scrape

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"thirdcoast.systems/leadwatch/internal/leads"
)

// Record is one raw dataset item as returned by the provider.
type Record map[string]any

const (
	SchemaAuto         = "auto"
	SchemaApidojoV1    = "apidojo-v1"
	SchemaClockworksV2 = "clockworks-v2"
)

// fieldMapping lists, per comment field, the dotted paths tried in order.
type fieldMapping struct {
	Version string
	ID      []string
	Text    []string
	Author  []string
	Created []string
	Likes   []string
}

// Actors rename fields between releases; new layouts are added here.
var mappings = []fieldMapping{
	{
		Version: SchemaApidojoV1,
		ID:      []string{"id"},
		Text:    []string{"text"},
		Author:  []string{"authorMeta.uniqueId", "authorMeta.name"},
		Created: []string{"createTimeISO", "createTime"},
		Likes:   []string{"diggCount", "likesCount"},
	},
	{
		Version: SchemaClockworksV2,
		ID:      []string{"cid"},
		Text:    []string{"commentText", "text"},
		Author:  []string{"uniqueId", "user.uniqueId"},
		Created: []string{"createTime"},
		Likes:   []string{"diggCount"},
	},
}

// ValidSchema reports whether name is "auto" or a known mapping version.
func ValidSchema(name string) bool {
	if name == SchemaAuto {
		return true
	}
	_, ok := mappingFor(name)
	return ok
}

func mappingFor(version string) (fieldMapping, bool) {
	for _, m := range mappings {
		if m.Version == version {
			return m, true
		}
	}
	return fieldMapping{}, false
}

// DecodeRecord parses one raw dataset item. Numbers are kept as json.Number
// so large comment ids survive.
func DecodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var r Record
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode record: %w", leads.ErrInvalidPayload, err)
	}
	return r, nil
}

// Resolve maps a record onto a Comment using the named schema version.
// With SchemaAuto the first version whose id path resolves wins. A record
// without an id is rejected with leads.ErrInvalidPayload. A missing text is
// an empty comment, not an error.
func Resolve(r Record, schema string) (leads.Comment, error) {
	if schema == "" || schema == SchemaAuto {
		for _, m := range mappings {
			if firstString(r, m.ID) != "" {
				return resolveWith(r, m)
			}
		}
		return leads.Comment{}, fmt.Errorf("%w: record has no comment id", leads.ErrInvalidPayload)
	}

	m, ok := mappingFor(schema)
	if !ok {
		return leads.Comment{}, leads.Configurationf("unknown record schema %q", schema)
	}
	return resolveWith(r, m)
}

func resolveWith(r Record, m fieldMapping) (leads.Comment, error) {
	id := firstString(r, m.ID)
	if id == "" {
		return leads.Comment{}, fmt.Errorf("%w: record has no %s", leads.ErrInvalidPayload, strings.Join(m.ID, "/"))
	}

	c := leads.Comment{
		ExternalID:    id,
		Text:          firstString(r, m.Text),
		Author:        firstString(r, m.Author),
		SchemaVersion: m.Version,
	}
	if n, ok := firstInt(r, m.Likes); ok {
		c.Likes = n
	}
	if t, ok := firstTime(r, m.Created); ok {
		c.CreatedAt = &t
	}
	return c, nil
}

// Collect resolves a batch for video. Rejected records come back as item
// errors so one bad record never hides the rest.
func Collect(records []Record, video uuid.UUID, schema string) ([]leads.Comment, []leads.ItemError) {
	comments := make([]leads.Comment, 0, len(records))
	var skipped []leads.ItemError
	for _, r := range records {
		c, err := Resolve(r, schema)
		if err != nil {
			skipped = append(skipped, leads.NewItemError(video, "", err))
			continue
		}
		c.VideoID = video
		comments = append(comments, c)
	}
	return comments, skipped
}

func lookup(r Record, path string) (any, bool) {
	var cur any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func firstString(r Record, paths []string) string {
	for _, p := range paths {
		v, ok := lookup(r, p)
		if !ok {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func firstInt(r Record, paths []string) (int64, bool) {
	for _, p := range paths {
		v, ok := lookup(r, p)
		if !ok {
			continue
		}
		switch t := v.(type) {
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return n, true
			}
			if f, err := t.Float64(); err == nil {
				return int64(f), true
			}
		case float64:
			return int64(t), true
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func firstTime(r Record, paths []string) (time.Time, bool) {
	for _, p := range paths {
		v, ok := lookup(r, p)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339, strings.TrimSpace(s)); err == nil {
				return t.UTC(), true
			}
		}
		if n, ok := firstInt(Record{"v": v}, []string{"v"}); ok && n > 0 {
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
