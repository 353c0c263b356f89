package cassettedb

import (
	"fmt"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	yamlLib "gopkg.in/yaml.v3"

	"github.com/stubtape/stubtape/pkg/models"
)

// cassetteDoc is the on-disk form of one cassette.
type cassetteDoc struct {
	Version    models.Version `yaml:"version"`
	RecordedAt time.Time      `yaml:"recorded_at"`
	Reqs       []entryDoc     `yaml:"reqs"`
}

// docHeader is decoded first so the schema version is checked before any
// entry is interpreted.
type docHeader struct {
	Version models.Version `yaml:"version"`
}

// entryDoc persists one (request, response) pair as a 2-element sequence.
type entryDoc struct {
	Req  models.Request
	Resp models.Response
}

type requestDoc struct {
	Method string        `yaml:"method"`
	Args   *yamlLib.Node `yaml:"args"`
}

type responseDoc struct {
	Result   *yamlLib.Node `yaml:"result"`
	Deferred bool          `yaml:"deferred,omitempty"`
}

func (e entryDoc) MarshalYAML() (interface{}, error) {
	args, err := sortedNode(e.Req.Args)
	if err != nil {
		return nil, err
	}
	result, err := sortedNode(e.Resp.Result)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		requestDoc{Method: e.Req.Method, Args: args},
		responseDoc{Result: result, Deferred: e.Resp.Deferred},
	}, nil
}

func (e *entryDoc) UnmarshalYAML(value *yamlLib.Node) error {
	if value.Kind != yamlLib.SequenceNode || len(value.Content) != 2 {
		return fmt.Errorf("cassette entry must be a [request, response] pair")
	}
	if err := value.Content[0].Decode(&e.Req); err != nil {
		return fmt.Errorf("failed to decode the recorded request: %w", err)
	}
	if err := value.Content[1].Decode(&e.Resp); err != nil {
		return fmt.Errorf("failed to decode the recorded response: %w", err)
	}
	return nil
}

// sortedNode encodes v as a yaml node with map keys in sorted order, so a
// re-recorded cassette diffs cleanly against the previous one.
func sortedNode(v interface{}) (*yamlLib.Node, error) {
	node := &yamlLib.Node{}
	if v == nil {
		node.Kind = yamlLib.ScalarNode
		node.Tag = "!!null"
		node.Value = "null"
		return node, nil
	}
	switch val := v.(type) {
	case map[string]interface{}:
		ordered := treemap.NewWithStringComparator()
		for k, item := range val {
			ordered.Put(k, item)
		}
		node.Kind = yamlLib.MappingNode
		node.Tag = "!!map"
		for _, k := range ordered.Keys() {
			item, _ := ordered.Get(k)
			keyNode := &yamlLib.Node{}
			if err := keyNode.Encode(k); err != nil {
				return nil, err
			}
			valNode, err := sortedNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valNode)
		}
	case []interface{}:
		node.Kind = yamlLib.SequenceNode
		node.Tag = "!!seq"
		for _, item := range val {
			child, err := sortedNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
	default:
		if err := node.Encode(v); err != nil {
			return nil, err
		}
	}
	return node, nil
}

func encodeCassette(c *models.Cassette) ([]byte, error) {
	doc := cassetteDoc{
		Version:    c.Version,
		RecordedAt: c.RecordedAt,
	}
	for _, entry := range c.Entries() {
		doc.Reqs = append(doc.Reqs, entryDoc{Req: entry.Req, Resp: entry.Resp})
	}
	data, err := yamlLib.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal the cassette document: %w", err)
	}
	return data, nil
}

func decodeCassette(name string, data []byte) (*models.Cassette, error) {
	var header docHeader
	if err := yamlLib.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("failed to decode the cassette document: %w", err)
	}
	if header.Version != models.SchemaVersion {
		return nil, fmt.Errorf("%w: cassette %q has version %d, engine supports %d",
			models.ErrVersionMismatch, name, header.Version, models.SchemaVersion)
	}

	var doc cassetteDoc
	if err := yamlLib.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode the cassette document: %w", err)
	}

	cassette := &models.Cassette{
		Name:       name,
		Version:    doc.Version,
		RecordedAt: doc.RecordedAt,
	}
	entries := make([]*models.Entry, 0, len(doc.Reqs))
	for _, e := range doc.Reqs {
		entries = append(entries, &models.Entry{Req: e.Req, Resp: e.Resp})
	}
	cassette.SetEntries(entries)
	return cassette, nil
}
