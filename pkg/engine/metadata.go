package engine

import "github.com/mnohosten/paperfind/pkg/container"

// Metadata is the process-wide record tying the indexes together. It is
// persisted last on every write so a crash leaves at worst stale
// counters over durable barrel content.
type Metadata struct {
	TotalDocLength     int `json:"total_doc_length"`
	ForwardIndexLength int `json:"forward_index_length"`
	LastBarrel         int `json:"last_barrel"`
}

// AvgDocLength returns total_doc_length / forward_index_length.
func (m *Metadata) AvgDocLength() float64 {
	if m.ForwardIndexLength == 0 {
		return 0
	}
	return float64(m.TotalDocLength) / float64(m.ForwardIndexLength)
}

// Save persists the metadata record.
func (m *Metadata) Save(codec *container.Codec, path string) error {
	return codec.Save(path, m)
}

// LoadMetadata reads a metadata record from path.
func LoadMetadata(codec *container.Codec, path string) (*Metadata, error) {
	m := &Metadata{}
	if err := codec.Load(path, m); err != nil {
		return nil, err
	}
	return m, nil
}
