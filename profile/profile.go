// Package profile is the catalog of FIT message and field metadata: names,
// base types, scale and offset, units and rolling counter widths.
package profile

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tormoder/fit"
	"gopkg.in/yaml.v3"

	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/value"
)

//go:embed profile.yaml
var embeddedProfile []byte

// Field is the catalog entry for one field of a message.
type Field struct {
	Num        uint8   `yaml:"num"`
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Scale      float64 `yaml:"scale,omitempty"`
	Offset     float64 `yaml:"offset,omitempty"`
	Units      string  `yaml:"units,omitempty"`
	Array      bool    `yaml:"array,omitempty"`
	Accumulate uint8   `yaml:"accumulate,omitempty"`

	BaseType basetype.BaseType `yaml:"-"`
}

// Scaling returns the field's scale and offset.
func (f Field) Scaling() value.Scaling {
	return value.Scaling{Scale: f.Scale, Offset: f.Offset}
}

// Message is the catalog entry for one global message number.
type Message struct {
	Num    uint16  `yaml:"num"`
	Name   string  `yaml:"name"`
	Fields []Field `yaml:"fields"`

	byNum map[uint8]int
}

// Field looks up a field by number.
func (m *Message) Field(num uint8) (Field, bool) {
	i, ok := m.byNum[num]
	if !ok {
		return Field{}, false
	}
	return m.Fields[i], true
}

func (m *Message) index() error {
	m.byNum = make(map[uint8]int, len(m.Fields))
	for i := range m.Fields {
		f := &m.Fields[i]
		bt, ok := basetype.ParseName(f.Type)
		if !ok {
			return fmt.Errorf("message %s field %s: unknown type %q", m.Name, f.Name, f.Type)
		}
		f.BaseType = bt
		if _, dup := m.byNum[f.Num]; dup {
			return fmt.Errorf("message %s: duplicate field %d", m.Name, f.Num)
		}
		m.byNum[f.Num] = i
	}
	return nil
}

type document struct {
	Messages []*Message `yaml:"messages"`
}

// Profile is an immutable message catalog.
type Profile struct {
	messages map[uint16]*Message
	byName   map[string]uint16
}

var (
	defaultOnce    sync.Once
	defaultProfile *Profile
)

// Default returns the embedded catalog.
func Default() *Profile {
	defaultOnce.Do(func() {
		p, err := parse(embeddedProfile)
		if err != nil {
			panic(fmt.Sprintf("profile: embedded catalog: %v", err))
		}
		defaultProfile = p
	})
	return defaultProfile
}

// Load reads a catalog in the embedded YAML layout.
func Load(r io.Reader) (*Profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Profile, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	p := &Profile{
		messages: make(map[uint16]*Message, len(doc.Messages)),
		byName:   make(map[string]uint16, len(doc.Messages)),
	}
	for _, m := range doc.Messages {
		if err := m.index(); err != nil {
			return nil, err
		}
		if _, dup := p.messages[m.Num]; dup {
			return nil, fmt.Errorf("duplicate message %d", m.Num)
		}
		p.messages[m.Num] = m
		p.byName[m.Name] = m.Num
	}
	return p, nil
}

// Merge returns a catalog with overlay's entries layered on top of p. Fields
// of messages present in both are merged by field number.
func (p *Profile) Merge(overlay *Profile) *Profile {
	out := &Profile{
		messages: make(map[uint16]*Message, len(p.messages)+len(overlay.messages)),
		byName:   make(map[string]uint16),
	}
	for num, m := range p.messages {
		out.messages[num] = m
	}
	for num, om := range overlay.messages {
		base, ok := out.messages[num]
		if !ok {
			out.messages[num] = om
			continue
		}
		merged := &Message{Num: num, Name: base.Name}
		if om.Name != "" {
			merged.Name = om.Name
		}
		seen := make(map[uint8]bool)
		for _, f := range om.Fields {
			merged.Fields = append(merged.Fields, f)
			seen[f.Num] = true
		}
		for _, f := range base.Fields {
			if !seen[f.Num] {
				merged.Fields = append(merged.Fields, f)
			}
		}
		merged.byNum = make(map[uint8]int, len(merged.Fields))
		for i, f := range merged.Fields {
			merged.byNum[f.Num] = i
		}
		out.messages[num] = merged
	}
	for num, m := range out.messages {
		out.byName[m.Name] = num
	}
	return out
}

// Message looks up a message by global number.
func (p *Profile) Message(global uint16) (*Message, bool) {
	m, ok := p.messages[global]
	return m, ok
}

// MessageByName looks up a message by its profile name.
func (p *Profile) MessageByName(name string) (*Message, bool) {
	num, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.messages[num], true
}

// Field looks up a field of a message.
func (p *Profile) Field(global uint16, num uint8) (Field, bool) {
	m, ok := p.messages[global]
	if !ok {
		return Field{}, false
	}
	return m.Field(num)
}

// Scaling returns the scale and offset of a field, identity when unknown.
func (p *Profile) Scaling(global uint16, num uint8) value.Scaling {
	f, _ := p.Field(global, num)
	return f.Scaling()
}

// MessageName names a global message number. Messages missing from the
// catalog fall back to the FIT SDK names, then to global_<num>.
func (p *Profile) MessageName(global uint16) string {
	if m, ok := p.messages[global]; ok {
		return m.Name
	}
	return fallbackName(global)
}

// Globals lists catalogued message numbers in ascending order.
func (p *Profile) Globals() []uint16 {
	out := make([]uint16, 0, len(p.messages))
	for num := range p.messages {
		out = append(out, num)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func fallbackName(global uint16) string {
	name := fmt.Sprint(fit.MesgNum(global))
	if strings.HasPrefix(name, "MesgNum(") {
		return fmt.Sprintf("global_%d", global)
	}
	return toSnake(name)
}

// toSnake turns SDK names such as "HrZone" into "hr_zone".
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
