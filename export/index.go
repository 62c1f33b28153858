package export

import (
	"fmt"
	"sort"
	"strconv"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/profile"
)

// MessageIndex maps local message types to the global messages they were
// last bound to, with a reverse index from global number to local types.
type MessageIndex struct {
	LocalMessageTypes []LocalMessageIndex `json:"local_message_types"`
	ReverseIndex      map[string][]int    `json:"reverse_index"`
}

// LocalMessageIndex maps one local message type to its global message and fields.
type LocalMessageIndex struct {
	LocalMessageType  int                         `json:"local_message_type"`
	GlobalMessageNum  int                         `json:"global_message_num"`
	GlobalMessageName string                      `json:"global_message_name"`
	Definitions       int                         `json:"definitions"`
	Fields            map[string]MessageFieldMeta `json:"fields"`
}

// MessageFieldMeta describes one field in the message index.
type MessageFieldMeta struct {
	FieldName   string `json:"field_name,omitempty"`
	Units       string `json:"units,omitempty"`
	BaseType    string `json:"base_type"`
	InvalidRule string `json:"invalid_rule,omitempty"`
}

// BuildMessageIndex summarizes the definitions of f.
func BuildMessageIndex(f *fitcodec.File, p *profile.Profile) MessageIndex {
	if p == nil {
		p = profile.Default()
	}
	localLatest := make(map[int]LocalMessageIndex)
	defined := make(map[int]int)
	reverseSets := make(map[string]map[int]struct{})

	for _, rec := range f.Records {
		if !rec.IsDefinition() {
			continue
		}
		def := rec.Frame.Definition
		local := int(def.LocalType)
		global := int(def.Global)
		fields := make(map[string]MessageFieldMeta, len(def.Fields))
		for _, fd := range def.Fields {
			meta := MessageFieldMeta{
				BaseType:    fd.BaseType.String(),
				InvalidRule: invalidRule(fd.BaseType),
			}
			if pf, ok := p.Field(def.Global, fd.Num); ok {
				meta.FieldName, meta.Units = pf.Name, pf.Units
			}
			fields[strconv.Itoa(int(fd.Num))] = meta
		}
		defined[local]++
		localLatest[local] = LocalMessageIndex{
			LocalMessageType:  local,
			GlobalMessageNum:  global,
			GlobalMessageName: p.MessageName(def.Global),
			Definitions:       defined[local],
			Fields:            fields,
		}

		gKey := strconv.Itoa(global)
		if _, ok := reverseSets[gKey]; !ok {
			reverseSets[gKey] = make(map[int]struct{})
		}
		reverseSets[gKey][local] = struct{}{}
	}

	locals := make([]int, 0, len(localLatest))
	for k := range localLatest {
		locals = append(locals, k)
	}
	sort.Ints(locals)
	localList := make([]LocalMessageIndex, 0, len(locals))
	for _, k := range locals {
		localList = append(localList, localLatest[k])
	}

	reverse := make(map[string][]int, len(reverseSets))
	for gKey, set := range reverseSets {
		list := make([]int, 0, len(set))
		for l := range set {
			list = append(list, l)
		}
		sort.Ints(list)
		reverse[gKey] = list
	}
	return MessageIndex{
		LocalMessageTypes: localList,
		ReverseIndex:      reverse,
	}
}

func invalidRule(bt basetype.BaseType) string {
	switch {
	case !bt.Known():
		return ""
	case bt.ZeroIsInvalid():
		return "zero"
	case bt == basetype.String:
		return "empty"
	default:
		return fmt.Sprintf("0x%X", bt.InvalidRaw())
	}
}
