package memory

// export.go implements the JSON export/import surface the host uses for
// persistence and replay. The export is a versioned envelope around the full
// record list; import replaces the stream contents wholesale, preserving
// original ids, timestamps, and embeddings.

import (
	"encoding/json"
	"fmt"
	"io"
)

// exportVersion identifies the envelope schema.
const exportVersion = 1

// exportEnvelope is the on-disk JSON shape.
type exportEnvelope struct {
	Version int       `json:"version"`
	Records []*Record `json:"records"`
}

// ExportJSON writes the full record list to w.
func (s *Stream) ExportJSON(w io.Writer) error {
	s.mu.RLock()
	env := exportEnvelope{
		Version: exportVersion,
		Records: append([]*Record(nil), s.records...),
	}
	s.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		return fmt.Errorf("memory: export: %w", err)
	}
	return nil
}

// ImportJSON replaces the stream contents with the records read from r.
// Importance is re-clamped on the way in; records beyond capacity are
// evicted under the usual retention policy.
func (s *Stream) ImportJSON(r io.Reader) error {
	var env exportEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("memory: import: %w", err)
	}
	if env.Version != exportVersion {
		return fmt.Errorf("memory: import: unsupported version %d", env.Version)
	}

	s.mu.Lock()
	s.records = s.records[:0]
	s.byID = make(map[string]*Record, len(env.Records))
	for _, rec := range env.Records {
		if rec == nil || rec.ID == "" {
			continue
		}
		rec.Importance = clampImportance(rec.Importance)
		rec.Tags = dedupeTags(rec.Tags)
		s.records = append(s.records, rec)
		s.byID[rec.ID] = rec
	}
	evicted := s.evictOverCapacity(s.now())
	s.mu.Unlock()

	if len(evicted) > 0 {
		s.logger.Info().Int("evicted", len(evicted)).Msg("import exceeded capacity")
	}
	return nil
}

// Restore replaces the stream contents with pre-built records, preserving
// their ids and timestamps. Used by the durable archive loader.
func (s *Stream) Restore(records []*Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = s.records[:0]
	s.byID = make(map[string]*Record, len(records))
	for _, rec := range records {
		if rec == nil || rec.ID == "" {
			continue
		}
		rec.Importance = clampImportance(rec.Importance)
		s.records = append(s.records, rec)
		s.byID[rec.ID] = rec
	}
	s.evictOverCapacity(s.now())
}
